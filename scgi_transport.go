// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/luxfi/rtorrent/scgi"
)

// SCGITransport speaks SCGI over a fresh unix or tcp connection per call.
type SCGITransport struct {
	network string
	addr    string
	timeout time.Duration
	dialer  net.Dialer
}

// NewUnixTransport returns a channel to the unix socket at path.
func NewUnixTransport(path string, timeout time.Duration) *SCGITransport {
	return &SCGITransport{network: "unix", addr: path, timeout: timeout}
}

// NewTCPTransport returns a channel to hostport.
func NewTCPTransport(hostport string, timeout time.Duration) *SCGITransport {
	return &SCGITransport{network: "tcp", addr: hostport, timeout: timeout}
}

// Request writes one frame, reads until the daemon closes the connection and
// returns the decoded body. The connection is closed on every path.
func (t *SCGITransport) Request(ctx context.Context, body []byte, contentType string) ([]byte, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	conn, err := t.dialer.DialContext(ctx, t.network, t.addr)
	if err != nil {
		return nil, fmt.Errorf("scgi dial: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("scgi deadline: %w", err)
		}
	}
	// Cancellation unblocks pending I/O by expiring the deadline.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	w := bufio.NewWriter(conn)
	if err := scgi.WriteRequest(w, body, contentType); err != nil {
		return nil, fmt.Errorf("scgi write: %w", withContext(ctx, err))
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("scgi write: %w", withContext(ctx, err))
	}

	raw, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("scgi read: %w", withContext(ctx, err))
	}

	_, resBody, err := scgi.Decode(raw)
	if err != nil {
		return nil, err
	}
	return resBody, nil
}

// String describes the endpoint, e.g. "unix:/run/rtorrent.sock".
func (t *SCGITransport) String() string {
	return t.network + ":" + t.addr
}

// withContext attaches the context error to an I/O failure it caused.
func withContext(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	return err
}
