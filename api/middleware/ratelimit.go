package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

const (
	bucketIdle    = time.Hour
	sweepInterval = 5 * time.Minute
)

type bucketKey struct {
	group  string
	caller string
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per route group and caller. Buckets of
// different groups never share tokens.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[bucketKey]*bucket
	lastSweep time.Time
	now       func() time.Time
}

// NewLimiter creates an empty Limiter. Idle buckets are dropped as new
// requests arrive.
func NewLimiter() *Limiter {
	return &Limiter{buckets: make(map[bucketKey]*bucket), now: time.Now}
}

// Group returns middleware that charges one token from the caller's bucket
// in group. rps <= 0 disables the limit for the group.
func (l *Limiter) Group(group string, rps float64, burst int) gin.HandlerFunc {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	burst = max(burst, 1)

	return func(c *gin.Context) {
		caller := c.GetString(callerKey)
		if caller == "" {
			caller = "ip:" + c.ClientIP()
		}

		now := l.now()
		res := l.take(bucketKey{group, caller}, limit, burst, now).ReserveN(now, 1)
		if wait := res.DelayFrom(now); !res.OK() || wait > 0 {
			res.CancelAt(now)
			c.Header("Retry-After", strconv.Itoa(retryAfter(wait)))
			abort(c, http.StatusTooManyRequests, models.ErrCodeRateLimited,
				"rate limit exceeded for "+group+" requests, please slow down")
			return
		}
		c.Next()
	}
}

func (l *Limiter) take(k bucketKey, limit rate.Limit, burst int, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= sweepInterval {
		for key, b := range l.buckets {
			if now.Sub(b.lastSeen) > bucketIdle {
				delete(l.buckets, key)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[k]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(limit, burst)}
		l.buckets[k] = b
	}
	b.lastSeen = now
	return b.lim
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// retryAfter rounds wait up to whole seconds, never below one.
func retryAfter(wait time.Duration) int {
	if wait == rate.InfDuration || wait <= 0 {
		return 1
	}
	return int(math.Ceil(wait.Seconds()))
}
