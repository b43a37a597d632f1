// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newEchoServer(t *testing.T, tls bool) *httptest.Server {
	t.Helper()
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Request-Content-Type", r.Header.Get("Content-Type"))
		_, _ = w.Write(body)
	})
	var srv *httptest.Server
	if tls {
		srv = httptest.NewTLSServer(h)
	} else {
		srv = httptest.NewServer(h)
	}
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPTransportEcho(t *testing.T) {
	srv := newEchoServer(t, false)

	tr, err := NewTransport(srv.URL + "/RPC2")
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	if _, ok := tr.(*HTTPTransport); !ok {
		t.Fatalf("NewTransport = %T, want *HTTPTransport", tr)
	}

	resp, err := tr.Request(context.Background(), []byte("<methodCall/>"), ContentTypeXML)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if string(resp) != "<methodCall/>" {
		t.Errorf("got %q", resp)
	}
}

func TestHTTPTransportContentType(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Content-Type"))
	}))
	defer srv.Close()

	tr, err := NewTransport(srv.URL)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	ctx := context.Background()
	if _, err := tr.Request(ctx, []byte("{}"), ContentTypeJSON); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if _, err := tr.Request(ctx, []byte("x"), ""); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if len(got) != 2 || got[0] != ContentTypeJSON || got[1] != "" {
		t.Fatalf("content types = %q", got)
	}
}

func TestHTTPTransportNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tr, err := NewTransport(srv.URL)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	resp, err := tr.Request(context.Background(), []byte("x"), "")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if len(resp) != 0 {
		t.Errorf("got %q, want empty body", resp)
	}
}

func TestHTTPTransportBadStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusFound} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if status == http.StatusFound {
				http.Redirect(w, r, "/elsewhere", status)
				return
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte("nope"))
		}))

		tr, err := NewTransport(srv.URL + "/RPC2")
		if err != nil {
			srv.Close()
			t.Fatalf("NewTransport: %v", err)
		}
		_, err = tr.Request(context.Background(), []byte("x"), "")
		srv.Close()

		var bad *BadStatusError
		if !errors.As(err, &bad) {
			t.Fatalf("status %d: error = %v, want *BadStatusError", status, err)
		}
		if bad.Status != status {
			t.Errorf("Status = %d, want %d", bad.Status, status)
		}
		if status != http.StatusFound && string(bad.Body) != "nope" {
			t.Errorf("Body = %q, want %q", bad.Body, "nope")
		}
	}
}

func TestHTTPTransportTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	tr, err := NewTransport(srv.URL, WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	if _, err := tr.Request(context.Background(), []byte("x"), ""); err == nil {
		t.Fatal("Request succeeded, want timeout")
	}
}

func TestHTTPSRejectsUnknownCertificate(t *testing.T) {
	srv := newEchoServer(t, true)

	tr, err := NewTransport(srv.URL)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	_, err = tr.Request(context.Background(), []byte("x"), "")
	if err == nil {
		t.Fatal("Request succeeded against an untrusted certificate")
	}
	var bad *BadStatusError
	if errors.As(err, &bad) {
		t.Fatalf("error = %v, want a TLS failure", err)
	}
}

func TestHTTPSDisableVerify(t *testing.T) {
	srv := newEchoServer(t, true)
	t.Setenv(EnvDisableTLSVerify, "1")

	tr, err := NewTransport(srv.URL)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	resp, err := tr.Request(context.Background(), []byte("insecure"), "")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if string(resp) != "insecure" {
		t.Errorf("got %q", resp)
	}
}

func TestHTTPSOnlyExactValueDisablesVerify(t *testing.T) {
	srv := newEchoServer(t, true)
	t.Setenv(EnvDisableTLSVerify, "true")

	tr, err := NewTransport(srv.URL)
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	if _, err := tr.Request(context.Background(), []byte("x"), ""); err == nil {
		t.Fatal("verification disabled by a value other than 1")
	}
}

func TestHTTPSRootCAs(t *testing.T) {
	srv := newEchoServer(t, true)
	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())

	tr, err := NewTransport(srv.URL, WithRootCAs(pool))
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	if _, err := tr.Request(context.Background(), []byte("x"), ""); err != nil {
		t.Fatalf("Request: %v", err)
	}
}

func TestHTTPSCAFile(t *testing.T) {
	srv := newEchoServer(t, true)
	path := filepath.Join(t.TempDir(), "ca.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write ca file: %v", err)
	}

	tr, err := NewTransport(srv.URL, WithCAFile(path))
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	if _, err := tr.Request(context.Background(), []byte("x"), ""); err != nil {
		t.Fatalf("Request: %v", err)
	}
}

func TestHTTPSCAFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewTransport("https://127.0.0.1/RPC2", WithCAFile(filepath.Join(dir, "missing.pem"))); err == nil {
		t.Error("NewTransport accepted a missing ca file")
	}

	empty := filepath.Join(dir, "empty.pem")
	if err := os.WriteFile(empty, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewTransport("https://127.0.0.1/RPC2", WithCAFile(empty)); err == nil {
		t.Error("NewTransport accepted a ca file without certificates")
	}
}

func TestHTTPTransportCustomClient(t *testing.T) {
	srv := newEchoServer(t, true)

	tr, err := NewTransport(srv.URL, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	resp, err := tr.Request(context.Background(), []byte("pooled"), "")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if string(resp) != "pooled" {
		t.Errorf("got %q", resp)
	}
}
