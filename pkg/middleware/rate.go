// Package middleware provides the HTTP middleware stack of the storefront.
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/response"
)

// bucket tracks a fixed-window request count for one client.
type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

func (b *bucket) allow(limit int, window time.Duration, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(window)
	}

	b.count++
	return b.count <= limit
}

func (b *bucket) expired(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.After(b.resetAt)
}

// Limiter holds the per-client buckets of one RateLimit middleware.
type Limiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewLimiter allows limit requests per client per window.
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{limit: limit, window: window, buckets: map[string]*bucket{}}
}

// Allow records one request from client and reports whether it is within
// the limit.
func (l *Limiter) Allow(client string) bool {
	now := time.Now()

	l.mu.Lock()
	b, ok := l.buckets[client]
	if !ok {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[client] = b
	}
	l.mu.Unlock()

	return b.allow(l.limit, l.window, now)
}

// Sweep evicts buckets whose window has passed. RateLimit runs it once a
// minute for as long as the process lives.
func (l *Limiter) Sweep() int {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for client, b := range l.buckets {
		if b.expired(now) {
			delete(l.buckets, client)
			n++
		}
	}
	return n
}

// RateLimit limits each client IP to limit requests per window.
//
//	r.Use(middleware.RateLimit(120, time.Minute))
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	l := NewLimiter(limit, window)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			l.Sweep()
		}
	}()
	return l.Middleware
}

// Middleware applies l to every request.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			response.TooManyRequests(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
