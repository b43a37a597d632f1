// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scgi implements the SCGI wire framing used to reach rTorrent.
//
// A request is a netstring holding NUL-separated header pairs followed by the
// raw body:
//
//	<L>:CONTENT_LENGTH\x00<len(body)>\x00SCGI\x001\x00[CONTENT_TYPE\x00<type>\x00],<body>
//
// where <L> is the byte length of the header block between ':' and ','.
// A response is a CGI style header section (CRLF separated "Key: value"
// lines), a blank line, then the body. The Content-Length header is mandatory
// and must equal the number of body bytes.
package scgi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Request header names, in the order they are written.
const (
	HeaderContentLength = "CONTENT_LENGTH"
	HeaderSCGI          = "SCGI"
	HeaderContentType   = "CONTENT_TYPE"
)

var (
	// ErrFraming matches every *FramingError via errors.Is.
	ErrFraming = errors.New("scgi: malformed frame")

	headerTerminator = []byte("\r\n\r\n")
	lineSeparator    = []byte("\r\n")
)

// FramingError reports a malformed or length-inconsistent frame.
type FramingError struct {
	Reason string
}

func (e *FramingError) Error() string {
	return "scgi: " + e.Reason
}

func (e *FramingError) Is(target error) bool {
	return target == ErrFraming
}

func framingErrorf(format string, args ...interface{}) error {
	return &FramingError{Reason: fmt.Sprintf(format, args...)}
}

// Header maps lowercase header names to values.
type Header map[string]string

// Get looks a header up case-insensitively. Request style names
// (CONTENT_TYPE) and response style names (content-type) are interchangeable.
func (h Header) Get(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	if v, ok := h[k]; ok {
		return v
	}
	return h[canonicalKey(k)]
}

// ContentLength returns the parsed content-length header.
func (h Header) ContentLength() (int, error) {
	raw, ok := h["content-length"]
	if !ok {
		return 0, framingErrorf("missing content-length header")
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, framingErrorf("invalid content-length %q", raw)
	}
	return n, nil
}

func canonicalKey(k string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), "_", "-")
}

func appendPair(dst []byte, key, value string) []byte {
	dst = append(dst, key...)
	dst = append(dst, 0)
	dst = append(dst, value...)
	return append(dst, 0)
}

func headerBlock(bodyLen int, contentType string) []byte {
	block := make([]byte, 0, 64)
	block = appendPair(block, HeaderContentLength, strconv.Itoa(bodyLen))
	block = appendPair(block, HeaderSCGI, "1")
	if contentType != "" {
		block = appendPair(block, HeaderContentType, contentType)
	}
	return block
}

// Encode builds a complete request frame. An empty contentType omits the
// CONTENT_TYPE header.
func Encode(body []byte, contentType string) []byte {
	block := headerBlock(len(body), contentType)
	prefix := strconv.Itoa(len(block))

	out := make([]byte, 0, len(prefix)+1+len(block)+1+len(body))
	out = append(out, prefix...)
	out = append(out, ':')
	out = append(out, block...)
	out = append(out, ',')
	return append(out, body...)
}

// WriteRequest writes the same bytes as Encode, one frame section per Write.
func WriteRequest(w io.Writer, body []byte, contentType string) error {
	block := headerBlock(len(body), contentType)
	chunks := [][]byte{
		[]byte(strconv.Itoa(len(block)) + ":"),
		block,
		{','},
		body,
	}
	for _, chunk := range chunks {
		if len(chunk) == 0 {
			continue
		}
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Decode splits a raw response into its headers and body. Header names are
// lowercased; names and values are trimmed. The body is returned as is.
func Decode(raw []byte) (Header, []byte, error) {
	i := bytes.Index(raw, headerTerminator)
	if i < 0 {
		return nil, nil, framingErrorf("response has no header terminator")
	}
	rawHeader, body := raw[:i], raw[i+len(headerTerminator):]

	h := make(Header)
	for _, line := range bytes.Split(rawHeader, lineSeparator) {
		key, value, ok := bytes.Cut(line, []byte{':'})
		if !ok {
			return nil, nil, framingErrorf("header line without colon: %q", line)
		}
		h[strings.ToLower(strings.TrimSpace(string(key)))] = strings.TrimSpace(string(value))
	}

	n, err := h.ContentLength()
	if err != nil {
		return nil, nil, err
	}
	if n != len(body) {
		return nil, nil, framingErrorf("content-length %d does not match body length %d", n, len(body))
	}
	return h, body, nil
}
