// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"context"
	"strconv"
)

// Choke group methods take an empty target as their first argument. Groups
// are addressed by name or by index; both travel as strings.

// DownloadChokeGroup returns the index of the choke group a download is in.
func (c *Client) DownloadChokeGroup(ctx context.Context, infoHash string) (int, error) {
	var idx int
	err := c.call(ctx, &idx, "d.group", infoHash)
	return idx, err
}

// DownloadChokeGroupName returns the name of the choke group a download is in.
func (c *Client) DownloadChokeGroupName(ctx context.Context, infoHash string) (string, error) {
	var name string
	err := c.call(ctx, &name, "d.group.name", infoHash)
	return name, err
}

// SetDownloadChokeGroup moves a download into group.
func (c *Client) SetDownloadChokeGroup(ctx context.Context, infoHash, group string) error {
	return c.call(ctx, nil, "d.group.set", infoHash, group)
}

// ListChokeGroups returns the names of all choke groups.
func (c *Client) ListChokeGroups(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.call(ctx, &names, "choke_group.list", ""); err != nil {
		return nil, err
	}
	return names, nil
}

// ChokeGroupIndex resolves a group name to its index.
func (c *Client) ChokeGroupIndex(ctx context.Context, group string) (int, error) {
	var idx int
	err := c.call(ctx, &idx, "choke_group.index_of", "", group)
	return idx, err
}

// ChokeGroupSize returns how many downloads are in group.
func (c *Client) ChokeGroupSize(ctx context.Context, group string) (int, error) {
	var n int
	err := c.call(ctx, &n, "choke_group.general.size", "", group)
	return n, err
}

// ChokeGroupTrackerMode returns the tracker mode of group.
func (c *Client) ChokeGroupTrackerMode(ctx context.Context, group string) (string, error) {
	var mode string
	err := c.call(ctx, &mode, "choke_group.tracker.mode", "", group)
	return mode, err
}

// SetChokeGroupTrackerMode sets the tracker mode of group.
func (c *Client) SetChokeGroupTrackerMode(ctx context.Context, group, mode string) error {
	return c.call(ctx, nil, "choke_group.tracker.mode.set", "", group, mode)
}

// SetChokeGroupMaxUpload sets the upload slots of group.
func (c *Client) SetChokeGroupMaxUpload(ctx context.Context, group string, slots int) error {
	return c.call(ctx, nil, "choke_group.up.max.set", "", group, strconv.Itoa(slots))
}

// SetChokeGroupMaxDownload sets the download slots of group.
func (c *Client) SetChokeGroupMaxDownload(ctx context.Context, group string, slots int) error {
	return c.call(ctx, nil, "choke_group.down.max.set", "", group, strconv.Itoa(slots))
}

// SetChokeGroupUploadHeuristics sets the upload heuristics of group. The
// daemon lists valid modes under strings.choke_heuristics.upload.
func (c *Client) SetChokeGroupUploadHeuristics(ctx context.Context, group, mode string) error {
	return c.call(ctx, nil, "choke_group.up.heuristics.set", "", group, mode)
}

// SetChokeGroupDownloadHeuristics sets the download heuristics of group.
func (c *Client) SetChokeGroupDownloadHeuristics(ctx context.Context, group, mode string) error {
	return c.call(ctx, nil, "choke_group.down.heuristics.set", "", group, mode)
}

// SetUploadSpeedLimit sets the named throttle's upload rate in bytes per
// second.
func (c *Client) SetUploadSpeedLimit(ctx context.Context, throttle string, speed int) error {
	return c.call(ctx, nil, "throttle.up", "", []interface{}{throttle, speed})
}
