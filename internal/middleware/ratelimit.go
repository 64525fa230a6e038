package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aijobhunter/jobhunter/internal/apperr"
	"github.com/aijobhunter/jobhunter/internal/auth"
)

// RealIP returns the host part of RemoteAddr. Deployments behind a proxy
// install ProxyHeaders first so RemoteAddr carries the client address.
func RealIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ProxyHeaders rewrites RemoteAddr from Cloudflare's CF-Connecting-IP header,
// then the first X-Forwarded-For hop. Only use it when every request arrives
// through a proxy that sets these headers.
func ProxyHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := forwardedIP(r); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

func forwardedIP(r *http.Request) string {
	candidate := r.Header.Get("CF-Connecting-IP")
	if candidate == "" {
		xff := r.Header.Get("X-Forwarded-For")
		// First IP in the chain is the original client
		if i := strings.IndexByte(xff, ','); i > 0 {
			xff = xff[:i]
		}
		candidate = xff
	}
	ip := net.ParseIP(strings.TrimSpace(candidate))
	if ip == nil {
		return ""
	}
	return ip.String()
}

type entry struct {
	count    int
	windowAt time.Time
}

// RateLimiter provides in-memory rate limiting.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		entries: make(map[string]*entry),
	}
}

// Allow returns true if the key has not exceeded limit in the given window.
func (rl *RateLimiter) Allow(key string, limit int, window time.Duration) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	e, ok := rl.entries[key]
	if !ok || now.After(e.windowAt) {
		rl.entries[key] = &entry{count: 1, windowAt: now.Add(window)}
		return true
	}
	e.count++
	return e.count <= limit
}

// Remaining reports how many requests key may still make in its current window.
func (rl *RateLimiter) Remaining(key string, limit int) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.entries[key]
	if !ok || time.Now().After(e.windowAt) {
		return limit
	}
	if e.count >= limit {
		return 0
	}
	return limit - e.count
}

// Cleanup removes expired entries.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, e := range rl.entries {
		if now.After(e.windowAt) {
			delete(rl.entries, key)
		}
	}
}

// RateLimit returns middleware that rate-limits requests by a key function.
func RateLimit(limiter *RateLimiter, keyFunc func(*http.Request) string, limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if !limiter.Allow(key, limit, window) {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				apperr.Write(w, nil, apperr.RateLimited("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ByIP keys requests by client address.
func ByIP(prefix string) func(*http.Request) string {
	return func(r *http.Request) string {
		return prefix + ":" + RealIP(r)
	}
}

// ByUser keys requests by the authenticated user, falling back to client address.
func ByUser(prefix string) func(*http.Request) string {
	return func(r *http.Request) string {
		if id := auth.UserID(r.Context()); id != 0 {
			return prefix + ":user:" + strconv.FormatInt(id, 10)
		}
		return prefix + ":" + RealIP(r)
	}
}
