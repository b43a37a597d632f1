// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command rtorrent-rpc issues one XML-RPC or JSON-RPC call to rTorrent and
// prints the result as indented JSON.
//
//	rtorrent-rpc -addr scgi:///run/rtorrent/rpc.sock d.name '["<hash>"]'
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/luxfi/rtorrent"
	"github.com/luxfi/rtorrent/internal/config"
	"github.com/luxfi/rtorrent/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rtorrent-rpc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "config file (default "+config.DefaultPath+")")
	addr := fs.String("addr", "", "daemon address, e.g. scgi://127.0.0.1:5000")
	dialect := fs.String("dialect", "", "rpc dialect: xml or json")
	timeout := fs.Duration("timeout", 0, "per call timeout")
	logLevel := fs.String("log-level", "", "log level: trace, debug, info, warn, error, disabled")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: rtorrent-rpc [flags] method [json-params]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "rtorrent-rpc: %v\n", err)
		return 1
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Address = *addr
		case "dialect":
			cfg.Dialect = *dialect
		case "timeout":
			cfg.Timeout = *timeout
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "rtorrent-rpc: %v\n", err)
		return 2
	}

	method := fs.Arg(0)
	var params []interface{}
	if fs.NArg() == 2 {
		if params, err = parseParams(fs.Arg(1)); err != nil {
			fmt.Fprintf(stderr, "rtorrent-rpc: params: %v\n", err)
			return 2
		}
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Out: stderr})
	mws := []rtorrent.Middleware{rtorrent.Logging(logger)}
	if cfg.RateLimit > 0 {
		mws = append(mws, rtorrent.RateLimit(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)))
	}
	opts := []rtorrent.Option{
		rtorrent.WithTimeout(cfg.Timeout),
		rtorrent.WithMiddleware(mws...),
	}
	if cfg.CAFile != "" {
		opts = append(opts, rtorrent.WithCAFile(cfg.CAFile))
	}

	client, err := rtorrent.New(cfg.Address, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "rtorrent-rpc: %v\n", err)
		return 1
	}

	start := time.Now()
	var result interface{}
	switch cfg.Dialect {
	case rtorrent.DialectJSON:
		if params == nil {
			params = []interface{}{}
		}
		err = client.JSON().Call(ctx, method, params, &result)
	default:
		err = client.XML().Call(ctx, method, params, &result)
	}
	if err != nil {
		logger.Error().Err(err).Str("method", method).Str("address", cfg.Address).Msg("call failed")
		return 1
	}
	logger.Debug().Str("method", method).Dur("duration", time.Since(start)).Msg("call done")

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(stderr, "rtorrent-rpc: encode result: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, string(out))
	return 0
}

// parseParams decodes a JSON array of arguments. A single non-array value is
// treated as one argument. Integers stay integers so XML-RPC sends <int>
// rather than <double>.
func parseParams(raw string) ([]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after params")
	}
	v = convertNumbers(v)
	if list, ok := v.([]interface{}); ok {
		return list, nil
	}
	return []interface{}{v}, nil
}

func convertNumbers(v interface{}) interface{} {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	case []interface{}:
		for i := range x {
			x[i] = convertNumbers(x[i])
		}
		return x
	case map[string]interface{}:
		for k := range x {
			x[k] = convertNumbers(x[k])
		}
		return x
	default:
		return v
	}
}
