// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// window.go provides a Valkey-backed fixed-window request counter. Every
// replica of the API shares the same counters, so a client is throttled
// consistently no matter which instance serves it.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// windowKeyPrefix is the Valkey key prefix for rate-limit windows.
const windowKeyPrefix = "ratelimit:"

// WindowCounter allows limit hits per key per window.
type WindowCounter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewWindowCounter creates a counter backed by the given Valkey client.
func NewWindowCounter(client *redis.Client, limit int, window time.Duration) *WindowCounter {
	return &WindowCounter{client: client, limit: limit, window: window, now: time.Now}
}

// Allow records one hit for key and reports whether it is within the
// limit. The first hit of a window creates the key with an expiry of one
// window, so stale windows clean themselves up.
func (wc *WindowCounter) Allow(ctx context.Context, key string) (bool, error) {
	k := wc.windowKey(key)

	var incr *redis.IntCmd
	_, err := wc.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, wc.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	return incr.Val() <= int64(wc.limit), nil
}

// windowKey names the current window of key. Keys roll over every window
// boundary.
func (wc *WindowCounter) windowKey(key string) string {
	slot := wc.now().UnixNano() / int64(wc.window)
	return windowKeyPrefix + key + ":" + strconv.FormatInt(slot, 10)
}
