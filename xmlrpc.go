// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"context"
	"errors"
	"fmt"

	"github.com/kolo/xmlrpc"
)

// Fault is an XML-RPC fault returned by the daemon in place of a result.
type Fault struct {
	Code   int
	String string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("rtorrent: xml-rpc fault %d: %s", f.Code, f.String)
}

// XMLRPC is an XML-RPC client over a Transport. One request yields exactly
// one response; nothing is retried.
type XMLRPC struct {
	transport Transport
}

// NewXMLRPC wraps t.
func NewXMLRPC(t Transport) *XMLRPC {
	return &XMLRPC{transport: t}
}

// Call sends method with positional args and unmarshals the result into
// reply. A nil reply still validates the response.
func (x *XMLRPC) Call(ctx context.Context, method string, args []interface{}, reply interface{}) error {
	req, err := xmlrpc.EncodeMethodCall(method, args...)
	if err != nil {
		return fmt.Errorf("encode xml-rpc request: %w", err)
	}

	res, err := x.transport.Request(ctx, req, ContentTypeXML)
	if err != nil {
		return err
	}
	return decodeXMLResponse(res, reply)
}

func decodeXMLResponse(res []byte, reply interface{}) error {
	resp := xmlrpc.Response(res)
	if err := resp.Err(); err != nil {
		var fault xmlrpc.FaultError
		if errors.As(err, &fault) {
			return &Fault{Code: fault.Code, String: fault.String}
		}
		return &DecodeError{Dialect: DialectXML, Err: err}
	}

	if reply == nil {
		var discard interface{}
		reply = &discard
	}
	if err := resp.Unmarshal(reply); err != nil {
		return &DecodeError{Dialect: DialectXML, Err: err}
	}
	return nil
}
