// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scgi

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"sort"
	"strconv"
)

// maxPrefixDigits bounds the netstring length prefix (header blocks over 1GB
// are rejected).
const maxPrefixDigits = 9

// ParseRequest is the server side counterpart of Encode. Header names are
// lowercased with '_' replaced by '-', so CONTENT_LENGTH reads back as
// content-length. The trailing bytes after ',' must be exactly the body.
func ParseRequest(raw []byte) (Header, []byte, error) {
	colon := bytes.IndexByte(raw, ':')
	if colon < 0 {
		return nil, nil, framingErrorf("request has no length prefix")
	}
	n, err := parsePrefix(raw[:colon])
	if err != nil {
		return nil, nil, err
	}
	rest := raw[colon+1:]
	if len(rest) < n+1 {
		return nil, nil, framingErrorf("header block truncated: want %d bytes, have %d", n+1, len(rest))
	}
	if rest[n] != ',' {
		return nil, nil, framingErrorf("header block not terminated by ','")
	}
	h, err := parseHeaderBlock(rest[:n])
	if err != nil {
		return nil, nil, err
	}
	body := rest[n+1:]
	cl, err := h.ContentLength()
	if err != nil {
		return nil, nil, err
	}
	if cl != len(body) {
		return nil, nil, framingErrorf("CONTENT_LENGTH %d does not match body length %d", cl, len(body))
	}
	return h, body, nil
}

// ReadRequest reads exactly one request frame from r. Unlike ParseRequest it
// does not need the peer to close its write side.
func ReadRequest(r *bufio.Reader) (Header, []byte, error) {
	prefix, err := r.ReadSlice(':')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			return nil, nil, framingErrorf("length prefix too long")
		}
		return nil, nil, err
	}
	n, err := parsePrefix(prefix[:len(prefix)-1])
	if err != nil {
		return nil, nil, err
	}

	block := make([]byte, n+1)
	if _, err := io.ReadFull(r, block); err != nil {
		return nil, nil, fmt.Errorf("scgi: read header block: %w", err)
	}
	if block[n] != ',' {
		return nil, nil, framingErrorf("header block not terminated by ','")
	}
	h, err := parseHeaderBlock(block[:n])
	if err != nil {
		return nil, nil, err
	}
	cl, err := h.ContentLength()
	if err != nil {
		return nil, nil, err
	}
	body := make([]byte, cl)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, fmt.Errorf("scgi: read body: %w", err)
	}
	return h, body, nil
}

func parsePrefix(digits []byte) (int, error) {
	if len(digits) == 0 || len(digits) > maxPrefixDigits {
		return 0, framingErrorf("invalid length prefix %q", digits)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, framingErrorf("invalid length prefix %q", digits)
		}
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil {
		return 0, framingErrorf("invalid length prefix %q", digits)
	}
	return n, nil
}

func parseHeaderBlock(block []byte) (Header, error) {
	if len(block) == 0 || block[len(block)-1] != 0 {
		return nil, framingErrorf("header block not NUL terminated")
	}
	fields := bytes.Split(block[:len(block)-1], []byte{0})
	if len(fields)%2 != 0 {
		return nil, framingErrorf("header block has odd number of fields")
	}
	if string(fields[0]) != HeaderContentLength {
		return nil, framingErrorf("first header is %q, want %s", fields[0], HeaderContentLength)
	}

	h := make(Header, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		h[canonicalKey(string(fields[i]))] = string(fields[i+1])
	}
	if v := h.Get(HeaderSCGI); v != "1" {
		return nil, framingErrorf("SCGI header is %q, want 1", v)
	}
	return h, nil
}

// WriteResponse writes a response in the form Decode expects: a Status line,
// the remaining headers in sorted order, Content-Length, a blank line, body.
// Any content-length or status entry in h is ignored.
func WriteResponse(w io.Writer, status string, h Header, body []byte) error {
	keys := make([]string, 0, len(h))
	for k := range h {
		switch canonicalKey(k) {
		case "content-length", "status":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Status: %s\r\n", status)
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s: %s\r\n", textproto.CanonicalMIMEHeaderKey(canonicalKey(k)), h[k])
	}
	fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(body))
	buf.Write(body)

	_, err := w.Write(buf.Bytes())
	return err
}
