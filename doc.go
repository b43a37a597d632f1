// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rtorrent is a client for rTorrent's XML-RPC and JSON-RPC
// interfaces.
//
// # Addresses
//
// The address scheme selects the channel once, when the client is built:
//
//	scgi://127.0.0.1:5000          SCGI over tcp
//	scgi:///home/u/.rtorrent.sock  SCGI over a unix socket
//	http://127.0.0.1/RPC2          HTTP POST (e.g. nginx scgi_pass)
//	https://seedbox.example/RPC2   HTTPS POST, certificate verified
//
// SCGI channels open a new connection per call. HTTP channels share a
// pooled http.Transport. Setting RTORRENT_RPC_DISABLE_TLS_CERT=1 turns off
// HTTPS certificate verification.
//
// # Usage
//
//	c, err := rtorrent.New("scgi://127.0.0.1:5000", rtorrent.WithTimeout(5*time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// XML-RPC, positional arguments
//	var name string
//	err = c.XML().Call(ctx, "d.name", []interface{}{hash}, &name)
//
//	// JSON-RPC
//	var methods []string
//	err = c.JSON().Call(ctx, "system.listMethods", []interface{}{}, &methods)
//
// # Errors
//
// Failures surface once, to the caller, with no retries:
//
//   - *scgi.FramingError: malformed SCGI response
//   - dial/read/write errors, wrapping the *net.OpError
//   - *BadStatusError: HTTP status other than 200 or 204
//   - *Fault, *JSONRPCError: errors reported by rTorrent
//   - *IDMismatchError: JSON-RPC response answers another request
//   - *DecodeError: response body is not valid XML-RPC or JSON-RPC
//
// # Architecture
//
//   - scgi/: SCGI frame codec
//   - address.go: address parsing
//   - transport.go: Transport interface and scheme dispatch
//   - scgi_transport.go, http.go: channel implementations
//   - xmlrpc.go, json.go: the two envelope adapters
//   - middleware.go: rate limiting and logging decorators
//   - client.go: Client facade and convenience calls
//   - choke_group.go: choke group and throttle calls
package rtorrent
