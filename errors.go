// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"errors"
	"fmt"
)

var (
	// ErrIDMismatch matches every *IDMismatchError. It means request and
	// response streams are out of step; it is never an ordinary RPC error.
	ErrIDMismatch = errors.New("rtorrent: json-rpc response id does not match request id")
	// ErrDecode matches every *DecodeError.
	ErrDecode = errors.New("rtorrent: undecodable response")
)

// Dialects
const (
	DialectXML  = "xml"
	DialectJSON = "json"
)

// DecodeError wraps a response body that could not be parsed.
type DecodeError struct {
	Dialect string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("rtorrent: decode %s-rpc response: %v", e.Dialect, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// IDMismatchError reports a JSON-RPC response answering a different request.
type IDMismatchError struct {
	Want int
	// Got is the raw id token from the response, empty if it had none.
	Got string
}

func (e *IDMismatchError) Error() string {
	got := e.Got
	if got == "" {
		got = "<missing>"
	}
	return fmt.Sprintf("rtorrent: json-rpc response id %s does not match request id %d", got, e.Want)
}

func (e *IDMismatchError) Is(target error) bool { return target == ErrIDMismatch }
