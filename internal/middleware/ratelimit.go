package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/flight-delay-backend-go/pkg/response"
)

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed    bool
	Remaining  int           // requests left in the current window
	RetryAfter time.Duration // zero when Allowed
}

// RateLimiter keeps a sliding window of request times per client key
type RateLimiter struct {
	hits   map[string][]time.Time // oldest first
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window and
// client. Idle clients are evicted every window until done is closed.
func NewRateLimiter(limit int, window time.Duration, done <-chan struct{}) *RateLimiter {
	rl := &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}

	go rl.evictLoop(done)

	return rl
}

func (rl *RateLimiter) evictLoop(done <-chan struct{}) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			rl.evict()
		}
	}
}

func (rl *RateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, hits := range rl.hits {
		if live := prune(hits, now, rl.window); len(live) > 0 {
			rl.hits[key] = live
		} else {
			delete(rl.hits, key)
		}
	}
}

// prune drops hits that left the window; hits are sorted oldest first
func prune(hits []time.Time, now time.Time, window time.Duration) []time.Time {
	cut := 0
	for cut < len(hits) && now.Sub(hits[cut]) >= window {
		cut++
	}
	return hits[cut:]
}

// Take records a request for key when the window still has room
func (rl *RateLimiter) Take(key string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	hits := prune(rl.hits[key], now, rl.window)

	if len(hits) >= rl.limit {
		rl.hits[key] = hits
		// The oldest hit in the window frees the next slot
		return Decision{RetryAfter: hits[0].Add(rl.window).Sub(now)}
	}

	hits = append(hits, now)
	rl.hits[key] = hits
	return Decision{Allowed: true, Remaining: rl.limit - len(hits)}
}

// RateLimit limits requests per client IP and reports the quota in
// X-RateLimit-* headers
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := limiter.Take(c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			seconds := int(math.Ceil(d.RetryAfter.Seconds()))
			c.Header("Retry-After", strconv.Itoa(seconds))
			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			return
		}

		c.Next()
	}
}
