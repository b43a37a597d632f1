// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// commentPrefix marks ruTorrent/flood comments stored in d.custom2.
const commentPrefix = "VRS24mrker"

// MultiCall is one entry of a system.multicall request.
type MultiCall struct {
	Method string
	Params []interface{}
}

// Client talks to one rTorrent daemon over both RPC dialects. The address
// scheme picks the channel once, at construction.
type Client struct {
	addr      Address
	transport Transport
	xml       *XMLRPC
	json      *JSONRPC
}

// New parses address and builds a client for it.
//
//	c, err := rtorrent.New("scgi:///home/user/.rtorrent.sock", rtorrent.WithTimeout(5*time.Second))
//	methods, err := c.SystemListMethods(ctx)
func New(address string, opts ...Option) (*Client, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}
	t, err := NewTransportFor(addr, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(addr, t), nil
}

// NewWithTransport builds a client over an existing channel.
func NewWithTransport(addr Address, t Transport) *Client {
	return &Client{
		addr:      addr,
		transport: t,
		xml:       NewXMLRPC(t),
		json:      NewJSONRPC(t),
	}
}

// Address returns the parsed daemon address.
func (c *Client) Address() Address { return c.addr }

// Transport returns the underlying channel for raw requests.
func (c *Client) Transport() Transport { return c.transport }

// XML returns the XML-RPC adapter.
func (c *Client) XML() *XMLRPC { return c.xml }

// JSON returns the JSON-RPC client.
func (c *Client) JSON() *JSONRPC { return c.json }

func (c *Client) call(ctx context.Context, reply interface{}, method string, args ...interface{}) error {
	return c.xml.Call(ctx, method, args, reply)
}

// SystemListMethods lists every method the daemon exposes.
func (c *Client) SystemListMethods(ctx context.Context) ([]string, error) {
	var methods []string
	if err := c.call(ctx, &methods, "system.listMethods"); err != nil {
		return nil, err
	}
	return methods, nil
}

// SystemMultiCall runs calls in one round trip. Each element of the result is
// either a one element array holding the value or a fault struct.
func (c *Client) SystemMultiCall(ctx context.Context, calls ...MultiCall) ([]interface{}, error) {
	entries := make([]interface{}, 0, len(calls))
	for _, mc := range calls {
		params := mc.Params
		if params == nil {
			params = []interface{}{}
		}
		entries = append(entries, map[string]interface{}{
			"methodName": mc.Method,
			"params":     params,
		})
	}
	var results []interface{}
	if err := c.call(ctx, &results, "system.multicall", entries); err != nil {
		return nil, err
	}
	return results, nil
}

// DownloadList returns the info hashes of all downloads.
func (c *Client) DownloadList(ctx context.Context) ([]string, error) {
	var hashes []string
	if err := c.call(ctx, &hashes, "download_list"); err != nil {
		return nil, err
	}
	return hashes, nil
}

// SessionPath returns the daemon's session directory.
func (c *Client) SessionPath(ctx context.Context) (string, error) {
	var path string
	err := c.call(ctx, &path, "session.path")
	return path, err
}

// SessionSave flushes session state to disk.
func (c *Client) SessionSave(ctx context.Context) (int, error) {
	var n int
	err := c.call(ctx, &n, "session.save")
	return n, err
}

// StartTorrent opens and starts a download.
func (c *Client) StartTorrent(ctx context.Context, infoHash string) error {
	_, err := c.SystemMultiCall(ctx,
		MultiCall{Method: "d.open", Params: []interface{}{infoHash}},
		MultiCall{Method: "d.start", Params: []interface{}{infoHash}},
	)
	return err
}

// StopTorrent stops and closes a download.
func (c *Client) StopTorrent(ctx context.Context, infoHash string) error {
	_, err := c.SystemMultiCall(ctx,
		MultiCall{Method: "d.stop", Params: []interface{}{infoHash}},
		MultiCall{Method: "d.close", Params: []interface{}{infoHash}},
	)
	return err
}

// SaveResume asks the daemon to write resume data for a download.
func (c *Client) SaveResume(ctx context.Context, infoHash string) error {
	return c.call(ctx, nil, "d.save_resume", infoHash)
}

// SetBaseDirectory moves a download's base directory. The download usually
// has to be stopped first.
func (c *Client) SetBaseDirectory(ctx context.Context, infoHash, dir string) error {
	return c.call(ctx, nil, "d.directory_base.set", infoHash, dir)
}

// SetTags stores tags the way ruTorrent and flood read them.
func (c *Client) SetTags(ctx context.Context, infoHash string, tags []string) error {
	return c.call(ctx, nil, "d.custom1.set", infoHash, EncodeTags(tags))
}

// SetComment stores a comment the way ruTorrent and flood read it.
func (c *Client) SetComment(ctx context.Context, infoHash, comment string) error {
	return c.call(ctx, nil, "d.custom2.set", infoHash, commentPrefix+quote(comment))
}

// SetCustom sets a custom key on a download.
func (c *Client) SetCustom(ctx context.Context, infoHash, key, value string) error {
	return c.call(ctx, nil, "d.custom.set", infoHash, key, value)
}

// GetCustom reads a custom key, "" when unset.
func (c *Client) GetCustom(ctx context.Context, infoHash, key string) (string, error) {
	var v string
	err := c.call(ctx, &v, "d.custom", infoHash, key)
	return v, err
}

// EnableTracker enables the tracker at index for a download.
func (c *Client) EnableTracker(ctx context.Context, infoHash string, index int) error {
	return c.call(ctx, nil, "t.is_enabled.set", trackerID(infoHash, index), 1)
}

// DisableTracker disables the tracker at index for a download.
func (c *Client) DisableTracker(ctx context.Context, infoHash string, index int) error {
	return c.call(ctx, nil, "t.is_enabled.set", trackerID(infoHash, index), 0)
}

// AddTracker inserts a tracker url into group for a download.
func (c *Client) AddTracker(ctx context.Context, infoHash, trackerURL string, group int) error {
	return c.call(ctx, nil, "d.tracker.insert", infoHash, group, trackerURL)
}

// SendScrape forces a scrape of every tracker of a download after delay
// seconds.
func (c *Client) SendScrape(ctx context.Context, infoHash string, delay int) error {
	return c.call(ctx, nil, "d.tracker.send_scrape", infoHash, delay)
}

// EnableSuperSeeding restarts a download in BEP 16 initial seeding mode.
func (c *Client) EnableSuperSeeding(ctx context.Context, infoHash string) error {
	return c.setConnectionSeed(ctx, infoHash, "initial_seed")
}

// DisableSuperSeeding restarts a download in normal seeding mode.
func (c *Client) DisableSuperSeeding(ctx context.Context, infoHash string) error {
	return c.setConnectionSeed(ctx, infoHash, "seed")
}

func (c *Client) setConnectionSeed(ctx context.Context, infoHash, mode string) error {
	_, err := c.SystemMultiCall(ctx,
		MultiCall{Method: "d.stop", Params: []interface{}{infoHash}},
		MultiCall{Method: "d.close", Params: []interface{}{infoHash}},
		MultiCall{Method: "d.connection_seed.set", Params: []interface{}{infoHash, mode}},
		MultiCall{Method: "d.open", Params: []interface{}{infoHash}},
		MultiCall{Method: "d.start", Params: []interface{}{infoHash}},
	)
	return err
}

func trackerID(infoHash string, index int) string {
	return fmt.Sprintf("%s:t%d", infoHash, index)
}

// EncodeTags trims, de-duplicates, sorts and percent-quotes tags, joined by
// commas. Empty tags are dropped.
func EncodeTags(tags []string) string {
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		seen[strings.TrimSpace(t)] = struct{}{}
	}
	sorted := make([]string, 0, len(seen))
	for t := range seen {
		if t != "" {
			sorted = append(sorted, t)
		}
	}
	sort.Strings(sorted)

	quoted := make([]string, len(sorted))
	for i, t := range sorted {
		quoted[i] = quote(t)
	}
	return strings.Join(quoted, ",")
}

// quote percent-encodes everything but ASCII letters, digits and "_.-~/",
// the set ruTorrent decodes with rawurldecode.
func quote(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '_', c == '.', c == '-', c == '~', c == '/':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&15])
		}
	}
	return b.String()
}

// ParseTags reads a d.custom1 value written by ruTorrent, flood or SetTags.
// The result is sorted with duplicates and empty tags removed.
func ParseTags(s string) []string {
	seen := make(map[string]struct{})
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		seen[unquote(t)] = struct{}{}
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// ParseComment reads a d.custom2 value. Values without the ruTorrent marker
// are returned unchanged.
func ParseComment(s string) string {
	rest, ok := strings.CutPrefix(s, commentPrefix)
	if !ok {
		return s
	}
	return unquote(rest)
}

// unquote undoes quote. Malformed escapes are kept verbatim.
func unquote(s string) string {
	v, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return v
}
