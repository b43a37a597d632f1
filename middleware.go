// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtorrent

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Middleware decorates a Transport
type Middleware func(next Transport) Transport

// Chain composes middlewares so that Chain(a, b)(t) == a(b(t)).
func Chain(mws ...Middleware) Middleware {
	return func(next Transport) Transport {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// RateLimit delays each request until limiter grants it. A cancelled
// context fails the request without sending it.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next Transport) Transport {
		return TransportFunc(func(ctx context.Context, body []byte, contentType string) ([]byte, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
			return next.Request(ctx, body, contentType)
		})
	}
}

// Logging records every request on logger: debug on success, warn on failure.
func Logging(logger zerolog.Logger) Middleware {
	return func(next Transport) Transport {
		return TransportFunc(func(ctx context.Context, body []byte, contentType string) ([]byte, error) {
			start := time.Now()
			res, err := next.Request(ctx, body, contentType)
			if err != nil {
				logger.Warn().
					Err(err).
					Str("content_type", contentType).
					Int("request_bytes", len(body)).
					Dur("duration", time.Since(start)).
					Msg("rpc request failed")
				return nil, err
			}
			logger.Debug().
				Str("content_type", contentType).
				Int("request_bytes", len(body)).
				Int("response_bytes", len(res)).
				Dur("duration", time.Since(start)).
				Msg("rpc request")
			return res, nil
		})
	}
}
