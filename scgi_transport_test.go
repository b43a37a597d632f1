// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/luxfi/rtorrent/internal/scgitest"
	"github.com/luxfi/rtorrent/scgi"
)

func echoHandler(h scgi.Header, body []byte) []byte {
	return scgitest.Reply(h.Get("CONTENT_TYPE"), body)
}

func TestSCGITransportUnixAndTCP(t *testing.T) {
	servers := map[string]*scgitest.Server{
		"unix": scgitest.NewUnix(t, echoHandler),
		"tcp":  scgitest.NewTCP(t, echoHandler),
	}
	for name, srv := range servers {
		t.Run(name, func(t *testing.T) {
			tr, err := NewTransport(srv.URL())
			if err != nil {
				t.Fatalf("NewTransport: %v", err)
			}
			if _, ok := tr.(*SCGITransport); !ok {
				t.Fatalf("NewTransport(%q) = %T, want *SCGITransport", srv.URL(), tr)
			}

			payload := []byte("<methodCall/>")
			resp, err := tr.Request(context.Background(), payload, ContentTypeXML)
			if err != nil {
				t.Fatalf("Request: %v", err)
			}
			if string(resp) != string(payload) {
				t.Errorf("got %q, want %q", resp, payload)
			}
		})
	}
}

func TestSCGITransportSendsHeaders(t *testing.T) {
	var (
		mu      sync.Mutex
		headers []scgi.Header
	)
	srv := scgitest.NewTCP(t, func(h scgi.Header, body []byte) []byte {
		mu.Lock()
		headers = append(headers, h)
		mu.Unlock()
		return scgitest.Reply("", nil)
	})

	tr, err := NewTransport(srv.URL())
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	ctx := context.Background()
	if _, err := tr.Request(ctx, []byte("{}"), ContentTypeJSON); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := tr.Request(ctx, []byte("abc"), ""); err != nil {
		t.Fatalf("Request: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(headers) != 2 {
		t.Fatalf("server saw %d requests, want 2", len(headers))
	}
	if headers[0].Get("CONTENT_TYPE") != ContentTypeJSON || headers[0].Get("CONTENT_LENGTH") != "2" {
		t.Errorf("first request headers = %v", headers[0])
	}
	if _, ok := headers[1]["content-type"]; ok {
		t.Errorf("second request carried a content type: %v", headers[1])
	}
	if headers[1].Get("CONTENT_LENGTH") != "3" {
		t.Errorf("second request headers = %v", headers[1])
	}
}

func TestSCGITransportFramingError(t *testing.T) {
	srv := scgitest.NewUnix(t, func(scgi.Header, []byte) []byte {
		return []byte("Status: 200 OK\r\nContent-Length: 10\r\n\r\nshort")
	})
	tr, err := NewTransport(srv.URL())
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	_, err = tr.Request(context.Background(), []byte("x"), "")
	if !errors.Is(err, scgi.ErrFraming) {
		t.Fatalf("Request error = %v, want framing error", err)
	}
}

func TestSCGITransportEmptyResponse(t *testing.T) {
	srv := scgitest.NewTCP(t, func(scgi.Header, []byte) []byte { return nil })
	tr := NewTCPTransport(srv.URL()[len("scgi://"):], 0)
	if _, err := tr.Request(context.Background(), []byte("x"), ""); !errors.Is(err, scgi.ErrFraming) {
		t.Fatalf("Request error = %v, want framing error", err)
	}
}

func TestSCGITransportConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := l.Addr().String()
	l.Close()

	_, err = NewTCPTransport(addr, time.Second).Request(context.Background(), []byte("x"), "")
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("Request error = %v, want *net.OpError", err)
	}

	_, err = NewUnixTransport("/nonexistent/rtorrent.sock", 0).Request(context.Background(), []byte("x"), "")
	if !errors.As(err, &opErr) {
		t.Fatalf("unix Request error = %v, want *net.OpError", err)
	}
}

func TestSCGITransportTimeout(t *testing.T) {
	srv := scgitest.NewUnix(t, func(h scgi.Header, body []byte) []byte {
		time.Sleep(300 * time.Millisecond)
		return scgitest.Reply("", body)
	})
	tr, err := NewTransport(srv.URL(), WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}

	start := time.Now()
	_, err = tr.Request(context.Background(), []byte("x"), "")
	if err == nil {
		t.Fatal("Request succeeded, want timeout")
	}
	if !errors.Is(err, os.ErrDeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Request error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("Request took %v, timeout not enforced", elapsed)
	}
}

func TestSCGITransportContextCancel(t *testing.T) {
	srv := scgitest.NewTCP(t, func(h scgi.Header, body []byte) []byte {
		time.Sleep(300 * time.Millisecond)
		return scgitest.Reply("", body)
	})
	tr, err := NewTransport(srv.URL())
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	_, err = tr.Request(ctx, []byte("x"), "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Request error = %v, want context.Canceled", err)
	}
}

func TestSCGITransportConcurrent(t *testing.T) {
	srv := scgitest.NewUnix(t, echoHandler)
	tr, err := NewTransport(srv.URL())
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			payload := []byte{byte('a' + n%26)}
			resp, err := tr.Request(context.Background(), payload, "")
			if err != nil {
				t.Errorf("Request: %v", err)
				return
			}
			if string(resp) != string(payload) {
				t.Errorf("got %q, want %q", resp, payload)
			}
		}(i)
	}
	wg.Wait()

	if got := srv.Requests(); got != 32 {
		t.Errorf("server answered %d requests, want 32", got)
	}
}
