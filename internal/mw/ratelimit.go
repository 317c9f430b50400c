package mw

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiters hands out one token bucket per client IP.
type clientLimiters struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func newClientLimiters(limit rate.Limit, burst int) *clientLimiters {
	return &clientLimiters{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

func (cl *clientLimiters) get(ip string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	l, ok := cl.buckets[ip]
	if !ok {
		l = rate.NewLimiter(cl.limit, cl.burst)
		cl.buckets[ip] = l
	}
	return l
}

// RateLimit applies a per-IP token bucket to the API. The realtime endpoint
// is exempt: a held websocket is one request, not a request stream.
func RateLimit(limit rate.Limit, burst int) gin.HandlerFunc {
	limiters := newClientLimiters(limit, burst)
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/ws/") {
			c.Next()
			return
		}
		if !limiters.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
