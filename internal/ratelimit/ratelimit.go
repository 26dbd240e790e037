// Package ratelimit implements an in-memory token-bucket limiter keyed by
// client address. It backs the per-IP HTTP middleware on the translation
// endpoints.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// bucket is a single token bucket.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

// Store maintains one bucket per client key. All buckets share the same
// rate and burst.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	rate    float64
	burst   float64
}

// NewStore creates a Store allowing ratePerSecond requests/s per key with the
// given burst capacity. A burst <= 0 defaults to ratePerSecond.
func NewStore(ratePerSecond, burst float64) *Store {
	if burst <= 0 {
		burst = ratePerSecond
	}
	return &Store{
		buckets: make(map[string]*bucket),
		rate:    ratePerSecond,
		burst:   burst,
	}
}

// Allow consumes one token from key's bucket, creating it on first use.
func (s *Store) Allow(key string) bool {
	s.mu.RLock()
	b, ok := s.buckets[key]
	s.mu.RUnlock()

	if !ok {
		s.mu.Lock()
		if b, ok = s.buckets[key]; !ok {
			b = &bucket{tokens: s.burst, lastRefill: time.Now()}
			s.buckets[key] = b
		}
		s.mu.Unlock()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * s.rate
	if b.tokens > s.burst {
		b.tokens = s.burst
	}
	b.lastRefill = now
	b.lastSeen = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}
	return false
}

// Prune drops buckets idle for longer than maxIdle and returns how many were
// removed. Callers run it periodically to bound memory on long-lived servers.
func (s *Store) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, b := range s.buckets {
		b.mu.Lock()
		idle := b.lastSeen.Before(cutoff)
		b.mu.Unlock()
		if idle {
			delete(s.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live buckets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buckets)
}

// ClientKey extracts the limiter key for a request: the client IP without
// port. X-Forwarded-For is honored, taking the first hop.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
