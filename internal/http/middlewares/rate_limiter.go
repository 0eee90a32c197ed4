package middlewares

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// LimiterStore counts hits per key inside a fixed window. Implementations:
// in-process map (single instance) and redis (shared across instances).
type LimiterStore interface {
	// Incr bumps the counter for key and reports the new count plus the
	// time remaining in the current window.
	Incr(ctx context.Context, key string, window time.Duration) (count int, remaining time.Duration, err error)
}

type RateLimiter struct {
	store  LimiterStore
	window time.Duration
	limit  int
}

func NewRateLimiter(store LimiterStore, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

// Middleware enforces the limit for a derived key. A store failure fails
// open; availability wins over throttling precision here.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		count, remaining, err := rl.store.Incr(c.Request.Context(), key, rl.window)

		if err != nil {
			c.Next()
			return
		}

		if count > rl.limit {
			retryAfter := int(remaining.Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests. Please try again shortly.",
				"error":   "rate_limited",
			})
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// for authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}

// MemoryStore is the single-process fixed-window counter.
type MemoryStore struct {
	mu      sync.Mutex
	clients map[string]*bucket
}

type bucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clients: make(map[string]*bucket)}
}

func (s *MemoryStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.clients[key]

	if !ok || now.After(b.windowEnd) {
		s.clients[key] = &bucket{
			count:     1,
			windowEnd: now.Add(window),
		}

		return 1, window, nil
	}

	b.count++

	return b.count, time.Until(b.windowEnd), nil
}
