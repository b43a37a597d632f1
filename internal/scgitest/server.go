// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scgitest runs an in-process SCGI server on a unix or tcp socket.
package scgitest

import (
	"bufio"
	"bytes"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/luxfi/rtorrent/scgi"
)

// Handler answers one request. The returned bytes are written verbatim and
// the connection is then closed, as rTorrent does.
type Handler func(h scgi.Header, body []byte) []byte

// Reply builds a well formed 200 response.
func Reply(contentType string, body []byte) []byte {
	var buf bytes.Buffer
	h := scgi.Header{}
	if contentType != "" {
		h["content-type"] = contentType
	}
	_ = scgi.WriteResponse(&buf, "200 OK", h, body)
	return buf.Bytes()
}

// Server accepts connections until closed
type Server struct {
	listener net.Listener
	handler  Handler
	url      string
	conns    sync.Map
	closed   atomic.Bool
	wg       sync.WaitGroup
	requests atomic.Int64
}

// NewUnix starts a server on a fresh unix socket. It is closed on test cleanup.
func NewUnix(t testing.TB, handler Handler) *Server {
	t.Helper()
	// Short directory: socket paths are limited to ~104 bytes.
	dir, err := os.MkdirTemp("", "scgi")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	path := filepath.Join(dir, "rpc.sock")
	l, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("listen unix: %v", err)
	}
	return start(t, l, handler, "scgi://"+path)
}

// NewTCP starts a server on a loopback port. It is closed on test cleanup.
func NewTCP(t testing.TB, handler Handler) *Server {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen tcp: %v", err)
	}
	return start(t, l, handler, "scgi://"+l.Addr().String())
}

func start(t testing.TB, l net.Listener, handler Handler, url string) *Server {
	s := &Server{listener: l, handler: handler, url: url}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// URL returns the scgi:// address of the server.
func (s *Server) URL() string { return s.url }

// Requests returns how many requests were answered.
func (s *Server) Requests() int64 { return s.requests.Load() }

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return
			}
			continue
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	s.conns.Store(conn, struct{}{})
	defer s.conns.Delete(conn)

	h, body, err := scgi.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		return
	}
	res := s.handler(h, body)
	s.requests.Add(1)
	if len(res) > 0 {
		_, _ = conn.Write(res)
	}
}

// Close stops accepting, drops open connections and waits for handlers.
func (s *Server) Close() {
	if s.closed.Swap(true) {
		return
	}
	_ = s.listener.Close()
	s.conns.Range(func(key, _ interface{}) bool {
		_ = key.(net.Conn).Close()
		return true
	})
	s.wg.Wait()
}
