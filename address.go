// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// Address schemes
const (
	SchemeSCGI  = "scgi"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
)

var (
	ErrUnsupportedScheme = errors.New("rtorrent: unsupported address scheme")
	ErrMissingPort       = errors.New("rtorrent: scgi over tcp requires a port")
	ErrMissingHost       = errors.New("rtorrent: address requires a host")
	ErrMissingPath       = errors.New("rtorrent: scgi unix address requires a socket path")
)

// Address is a parsed daemon endpoint. SCGI addresses carry either Host and
// Port (tcp) or Path (unix socket); HTTP addresses keep the full URL.
type Address struct {
	Scheme string
	Host   string
	Port   int
	Path   string

	raw string
}

// ParseAddress accepts scgi://host:port, scgi:///abs/path,
// http://host[:port]/path and https://host[:port]/path.
func ParseAddress(raw string) (Address, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Address{}, fmt.Errorf("parse address %q: %w", raw, err)
	}

	switch u.Scheme {
	case SchemeSCGI:
		if u.Host == "" {
			if u.Path == "" {
				return Address{}, ErrMissingPath
			}
			return Address{Scheme: SchemeSCGI, Path: u.Path, raw: raw}, nil
		}
		host := u.Hostname()
		if host == "" {
			return Address{}, fmt.Errorf("%w: %q", ErrMissingHost, raw)
		}
		portStr := u.Port()
		if portStr == "" {
			return Address{}, fmt.Errorf("%w: %q", ErrMissingPort, raw)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 || port > 65535 {
			return Address{}, fmt.Errorf("parse address %q: invalid port %q", raw, portStr)
		}
		return Address{Scheme: SchemeSCGI, Host: host, Port: port, raw: raw}, nil

	case SchemeHTTP, SchemeHTTPS:
		if u.Hostname() == "" {
			return Address{}, fmt.Errorf("%w: %q", ErrMissingHost, raw)
		}
		a := Address{Scheme: u.Scheme, Host: u.Hostname(), Path: u.Path, raw: raw}
		if p := u.Port(); p != "" {
			port, err := strconv.Atoi(p)
			if err != nil || port <= 0 || port > 65535 {
				return Address{}, fmt.Errorf("parse address %q: invalid port %q", raw, p)
			}
			a.Port = port
		}
		return a, nil

	default:
		return Address{}, fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// IsUnix reports whether the address names a unix domain socket.
func (a Address) IsUnix() bool {
	return a.Scheme == SchemeSCGI && a.Host == ""
}

// HostPort returns "host:port" for tcp addresses.
func (a Address) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// String returns the address as it was given to ParseAddress.
func (a Address) String() string {
	return a.raw
}
