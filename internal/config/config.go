// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the command line tool's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultPath    = "~/.config/rtorrent-rpc/config.toml"
	DefaultAddress = "scgi://127.0.0.1:5000"
	DefaultDialect = "xml"
	DefaultTimeout = 5 * time.Second
)

// Config holds the resolved settings. RateLimit is in requests per second;
// zero disables pacing.
type Config struct {
	Address   string
	Dialect   string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
	CAFile    string
	LogLevel  string
}

type fileConfig struct {
	Address   string  `toml:"address"`
	Dialect   string  `toml:"dialect"`
	Timeout   string  `toml:"timeout"`
	RateLimit float64 `toml:"rate_limit"`
	Burst     int     `toml:"burst"`
	CAFile    string  `toml:"ca_file"`
	LogLevel  string  `toml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Address: DefaultAddress,
		Dialect: DefaultDialect,
		Timeout: DefaultTimeout,
		Burst:   1,
	}
}

// Load reads path, or DefaultPath when path is empty. A missing file yields
// the defaults; empty values in the file keep their defaults too.
func Load(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	resolved, err := expandPath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config load failed (%s): %w", resolved, err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", resolved, err)
	}

	if v := strings.TrimSpace(raw.Address); v != "" {
		cfg.Address = v
	}
	if v := strings.TrimSpace(raw.Dialect); v != "" {
		cfg.Dialect = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.Timeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): timeout: %w", resolved, err)
		}
		cfg.Timeout = d
	}
	cfg.RateLimit = raw.RateLimit
	if raw.Burst > 0 {
		cfg.Burst = raw.Burst
	}
	if v := strings.TrimSpace(raw.CAFile); v != "" {
		if cfg.CAFile, err = expandPath(v); err != nil {
			return Config{}, err
		}
	}
	cfg.LogLevel = strings.TrimSpace(raw.LogLevel)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", resolved, err)
	}
	return cfg, nil
}

// Validate checks the fields flags can also set.
func (c Config) Validate() error {
	switch c.Dialect {
	case "xml", "json":
	default:
		return fmt.Errorf("dialect must be xml or json, got %q", c.Dialect)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %v", c.RateLimit)
	}
	if c.Address == "" {
		return errors.New("address is required")
	}
	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
