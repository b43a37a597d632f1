// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/rpc/v2/json2"
)

// Request ids wrap at this bound. A million calls would have to be in flight
// on one client before an id could repeat.
const maxRequestID = 1_000_000

var errNotObject = errors.New("response is not a json object")

// JSONRPCError is an error payload returned by the daemon.
type JSONRPCError struct {
	Code    int
	Message string
	Data    interface{}
	ID      int
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("rtorrent: json-rpc error %d: %s", e.Code, e.Message)
}

// JSONRPC is a JSON-RPC 2.0 client over a Transport. It is safe for
// concurrent use; each instance numbers its requests independently.
type JSONRPC struct {
	transport Transport

	mu     sync.Mutex
	nextID int
}

type jsonRequest struct {
	Version string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// NewJSONRPC returns a client whose first request id is 0.
func NewJSONRPC(t Transport) *JSONRPC {
	return &JSONRPC{transport: t}
}

// reserveID hands out the current id and advances the counter. The lock is
// never held across I/O.
func (c *JSONRPC) reserveID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID = (c.nextID + 1) % maxRequestID
	return id
}

// Call invokes method with params and decodes the result into reply, which
// may be nil to discard it. A null result leaves reply untouched.
func (c *JSONRPC) Call(ctx context.Context, method string, params, reply interface{}) error {
	id := c.reserveID()

	req, err := json.Marshal(jsonRequest{
		Version: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encode json-rpc request: %w", err)
	}

	res, err := c.transport.Request(ctx, req, ContentTypeJSON)
	if err != nil {
		return err
	}
	return decodeJSONResponse(res, id, reply)
}

// CallRaw is Call returning the undecoded result.
func (c *JSONRPC) CallRaw(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	var result json.RawMessage
	if err := c.Call(ctx, method, params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func decodeJSONResponse(res []byte, id int, reply interface{}) error {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(res, &env); err != nil {
		return &DecodeError{Dialect: DialectJSON, Err: err}
	}
	if env == nil {
		return &DecodeError{Dialect: DialectJSON, Err: errNotObject}
	}
	if !idMatches(env["id"], id) {
		return &IDMismatchError{Want: id, Got: string(bytes.TrimSpace(env["id"]))}
	}

	if reply == nil {
		reply = new(json.RawMessage)
	}
	err := json2.DecodeClientResponse(bytes.NewReader(res), reply)
	if err == nil || errors.Is(err, json2.ErrNullResult) {
		return nil
	}

	var rpcErr *json2.Error
	if errors.As(err, &rpcErr) {
		return &JSONRPCError{
			Code:    int(rpcErr.Code),
			Message: rpcErr.Message,
			Data:    rpcErr.Data,
			ID:      id,
		}
	}
	return &DecodeError{Dialect: DialectJSON, Err: err}
}

func idMatches(raw json.RawMessage, want int) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false
	}
	var got float64
	if err := json.Unmarshal(raw, &got); err != nil {
		return false
	}
	return got == float64(want)
}
