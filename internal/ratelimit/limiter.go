// Package ratelimit implements a per-client sliding window request
// limiter. State is process-scoped and in-memory only; it is created at
// startup and cleared by restart.
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter tracks request timestamps per client identifier and rejects a
// client once it exceeds max requests within the trailing window.
type Limiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	clients map[string][]time.Time

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a limiter allowing max requests per window for each
// client identifier.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		clients: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records a request for key and reports whether it is within the
// limit. A burst of up to max requests inside a window always passes;
// the next request in the same window is rejected and not recorded.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	stamps := l.clients[key]
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.max {
		l.clients[key] = kept
		return false
	}

	l.clients[key] = append(kept, now)
	return true
}

// ClientKey derives the rate-limit identifier for a request from the
// forwarded-address header, falling back to the peer address and then a
// sentinel value.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client.
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		if key := strings.TrimSpace(fwd); key != "" {
			return key
		}
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
