// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter decides whether one more request for key is allowed.
// *cache.WindowCounter (Valkey) and *SlidingWindow (in memory) implement it.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// limiterEntry tracks request timestamps for a single client.
type limiterEntry struct {
	mu         sync.Mutex
	timestamps []time.Time
}

// SlidingWindow is an in-process per-key limiter using a sliding window.
// It only sees the requests of its own process.
type SlidingWindow struct {
	mu      sync.RWMutex
	clients map[string]*limiterEntry
	limit   int           // max requests per window
	window  time.Duration // sliding window duration
	stopCh  chan struct{}
}

// NewSlidingWindow creates a limiter that allows limit requests per window.
// It starts a background goroutine to clean up expired entries.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	sw := &SlidingWindow{
		clients: make(map[string]*limiterEntry),
		limit:   limit,
		window:  window,
		stopCh:  make(chan struct{}),
	}

	// Periodic cleanup of expired entries every 5 minutes.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sw.cleanup()
			case <-sw.stopCh:
				return
			}
		}
	}()

	return sw
}

// Stop terminates the background cleanup goroutine.
func (sw *SlidingWindow) Stop() {
	close(sw.stopCh)
}

// Allow implements Limiter. It never fails.
func (sw *SlidingWindow) Allow(_ context.Context, key string) (bool, error) {
	return sw.allow(key), nil
}

// allow checks whether the given key is within the rate limit.
func (sw *SlidingWindow) allow(key string) bool {
	sw.mu.RLock()
	entry, exists := sw.clients[key]
	sw.mu.RUnlock()

	if !exists {
		sw.mu.Lock()
		// Double-check after acquiring write lock.
		entry, exists = sw.clients[key]
		if !exists {
			entry = &limiterEntry{}
			sw.clients[key] = entry
		}
		sw.mu.Unlock()
	}

	now := time.Now()
	cutoff := now.Add(-sw.window)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Remove expired timestamps.
	valid := entry.timestamps[:0]
	for _, ts := range entry.timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}
	entry.timestamps = valid

	if len(entry.timestamps) >= sw.limit {
		return false
	}

	entry.timestamps = append(entry.timestamps, now)
	return true
}

// cleanup removes entries with no recent activity.
func (sw *SlidingWindow) cleanup() {
	cutoff := time.Now().Add(-sw.window)

	sw.mu.Lock()
	defer sw.mu.Unlock()

	for key, entry := range sw.clients {
		entry.mu.Lock()
		hasRecent := false
		for _, ts := range entry.timestamps {
			if ts.After(cutoff) {
				hasRecent = true
				break
			}
		}
		entry.mu.Unlock()

		if !hasRecent {
			delete(sw.clients, key)
		}
	}
}

// RateLimit returns an HTTP middleware that rate-limits by client IP.
// A limiter error lets the request through: counters must stay writable
// when the limiter backend is down. Forwarding headers are only honoured
// when trustProxy is set, that is when every request arrives through a
// reverse proxy that appends the peer address to X-Forwarded-For.
func RateLimit(l Limiter, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)
			ok, err := l.Allow(r.Context(), ip)
			if err != nil {
				slog.Warn("rate limiter unavailable, allowing request",
					"remote", ip,
					"path", r.URL.Path,
					"error", err,
				)
				ok = true
			}
			if !ok {
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the address requests are limited by. Without a trusted
// proxy it is the peer address. Behind one it is the rightmost
// X-Forwarded-For entry, the one the proxy added, then X-Real-IP.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if idx := strings.LastIndexByte(xff, ','); idx != -1 {
				xff = xff[idx+1:]
			}
			if ip := strings.TrimSpace(xff); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// No port.
		return r.RemoteAddr
	}
	return host
}
