package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window per-client request limiter used on the
// login endpoint to slow down credential guessing.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]requestWindow
}

type requestWindow struct {
	start time.Time
	count int
}

// NewRateLimiter creates a limiter allowing limit requests per window per key
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &RateLimiter{
		limit:   limit,
		window:  window,
		entries: map[string]requestWindow{},
	}
}

// Allow records one request for key and reports whether it fits the window
func (l *RateLimiter) Allow(key string, now time.Time) bool {
	if key == "" {
		key = "unknown"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	window := l.entries[key]
	if window.start.IsZero() || now.Sub(window.start) >= l.window {
		window = requestWindow{start: now}
	}

	if window.count >= l.limit {
		l.entries[key] = window
		return false
	}

	window.count++
	l.entries[key] = window
	l.cleanup(now)
	return true
}

func (l *RateLimiter) cleanup(now time.Time) {
	if len(l.entries) < 512 {
		return
	}

	expiry := l.window * 3
	for key, window := range l.entries {
		if now.Sub(window.start) > expiry {
			delete(l.entries, key)
		}
	}
}

// Limit is the gin middleware form, keyed by client IP
func (l *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP(), time.Now()) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts, please try again later"})
			c.Abort()
			return
		}
		c.Next()
	}
}
