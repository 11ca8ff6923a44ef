package site

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP. A bucket holds
// requests tokens and refills completely over window.
type IPRateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*clientLimiter
	limit    rate.Limit
	requests int
	now      func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewIPRateLimiter(requests int, window time.Duration) *IPRateLimiter {
	return &IPRateLimiter{
		clients:  make(map[string]*clientLimiter),
		limit:    rate.Every(window / time.Duration(requests)),
		requests: requests,
		now:      time.Now,
	}
}

// Allow spends one token from ip's bucket.
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cl, ok := l.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.requests)}
		l.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Evict drops the buckets of clients idle for at least idle and returns how
// many were removed. A dropped client starts over with a full bucket.
func (l *IPRateLimiter) Evict(idle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idle)
	n := 0
	for ip, cl := range l.clients {
		if !cl.lastSeen.After(cutoff) {
			delete(l.clients, ip)
			n++
		}
	}
	return n
}

// Len reports how many clients are tracked.
func (l *IPRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	limit := strconv.Itoa(l.requests)
	return func(c *gin.Context) {
		c.Header("X-RateLimit-Limit", limit)
		if !l.Allow(c.ClientIP()) {
			c.String(http.StatusTooManyRequests, msgRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
