// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// BadStatusError is returned when an HTTP endpoint answers with a status
// other than 200 or 204.
type BadStatusError struct {
	Status int
	Body   []byte
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("rtorrent: unexpected response status code %d %q", e.Status, e.Body)
}

// HTTPTransport POSTs raw request bodies to an HTTP(S) endpoint, typically a
// web server proxying to rTorrent's SCGI port. Connections are pooled by the
// underlying http.Transport.
type HTTPTransport struct {
	url    string
	client *http.Client
}

func newHTTPTransport(addr Address, o *options) (*HTTPTransport, error) {
	var client http.Client
	if o.httpClient != nil {
		client = *o.httpClient
	} else {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if addr.Scheme == SchemeHTTPS {
			cfg, err := o.tlsConfig()
			if err != nil {
				return nil, err
			}
			tr.TLSClientConfig = cfg
		}
		client.Transport = tr
		client.Timeout = o.timeout
	}
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &HTTPTransport{url: addr.String(), client: &client}, nil
}

// Request issues a single POST. The body of a 200 or 204 response is
// returned unchanged.
func (t *HTTPTransport) Request(ctx context.Context, body []byte, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to issue request: %w", err)
	}
	defer CleanlyCloseBody(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return nil, &BadStatusError{Status: resp.StatusCode, Body: data}
	}
	return data, nil
}

// String returns the endpoint URL.
func (t *HTTPTransport) String() string {
	return t.url
}

// CleanlyCloseBody drains and closes an HTTP response body so the
// connection can be reused.
func CleanlyCloseBody(body io.ReadCloser) error {
	if body == nil {
		return nil
	}
	_, _ = io.Copy(io.Discard, body)
	return body.Close()
}
