// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

// EnvDisableTLSVerify disables HTTPS certificate verification when set to "1".
// It is read when the HTTPS channel is constructed.
const EnvDisableTLSVerify = "RTORRENT_RPC_DISABLE_TLS_CERT"

// Option configures channel construction
type Option func(*options)

type options struct {
	timeout     time.Duration
	rootCAs     *x509.CertPool
	caFile      string
	httpClient  *http.Client
	middlewares []Middleware
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithTimeout bounds every call (connect, send and receive). Zero means no
// timeout, which is the default.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRootCAs replaces the system roots used to verify HTTPS servers.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(o *options) { o.rootCAs = pool }
}

// WithCAFile adds the PEM certificates in path to the trusted roots.
func WithCAFile(path string) Option {
	return func(o *options) { o.caFile = path }
}

// WithHTTPClient uses c for HTTP(S) addresses. Its redirect policy is
// overridden; TLS options are ignored since c owns its transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithMiddleware wraps the channel, first middleware outermost.
func WithMiddleware(mws ...Middleware) Option {
	return func(o *options) { o.middlewares = append(o.middlewares, mws...) }
}

func (o *options) tlsConfig() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    o.rootCAs,
	}

	if o.caFile != "" {
		pem, err := os.ReadFile(o.caFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := o.rootCAs
		if pool == nil {
			if pool, err = x509.SystemCertPool(); err != nil {
				pool = x509.NewCertPool()
			}
		} else {
			pool = pool.Clone()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("rtorrent: no certificates found in ca file " + o.caFile)
		}
		cfg.RootCAs = pool
	}

	if os.Getenv(EnvDisableTLSVerify) == "1" {
		cfg.InsecureSkipVerify = true
	}
	return cfg, nil
}
