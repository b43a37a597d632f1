// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"context"
	"fmt"
)

// Content types sent by the envelope adapters
const (
	ContentTypeXML  = "application/xml"
	ContentTypeJSON = "application/json"
)

// Transport sends one encoded request to the daemon and returns the raw
// response body. An empty contentType sends no content type. Implementations
// are safe for concurrent use; every call is independent.
type Transport interface {
	Request(ctx context.Context, body []byte, contentType string) ([]byte, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, body []byte, contentType string) ([]byte, error)

func (f TransportFunc) Request(ctx context.Context, body []byte, contentType string) ([]byte, error) {
	return f(ctx, body, contentType)
}

// NewTransport parses address and returns the channel for its scheme,
// wrapped by any configured middlewares.
func NewTransport(address string, opts ...Option) (Transport, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}
	return NewTransportFor(addr, opts...)
}

// NewTransportFor builds the channel for an already parsed address.
func NewTransportFor(addr Address, opts ...Option) (Transport, error) {
	o := newOptions(opts)

	var t Transport
	switch addr.Scheme {
	case SchemeSCGI:
		if addr.IsUnix() {
			t = NewUnixTransport(addr.Path, o.timeout)
		} else {
			t = NewTCPTransport(addr.HostPort(), o.timeout)
		}
	case SchemeHTTP, SchemeHTTPS:
		ht, err := newHTTPTransport(addr, o)
		if err != nil {
			return nil, err
		}
		t = ht
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, addr.Scheme)
	}

	if len(o.middlewares) > 0 {
		t = Chain(o.middlewares...)(t)
	}
	return t, nil
}
