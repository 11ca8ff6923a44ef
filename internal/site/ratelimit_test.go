package site

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitPerIP(t *testing.T) {
	s := newTestServer(t, withLimiter(NewIPRateLimiter(3, time.Minute)))

	for i := 0; i < 3; i++ {
		rec := s.get("/api/portfolio")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := s.get("/")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests from this IP, please try again later.", rec.Body.String())

	rec = s.doFrom("198.51.100.20:5555", http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "other clients keep their own budget")
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	s := newTestServer(t, withLimiter(NewIPRateLimiter(100, 15*time.Minute)))

	for i := 0; i < 100; i++ {
		rec := s.doFrom("203.0.113.7:40000", http.MethodGet, "/api/portfolio", "",
			map[string]string{"X-Forwarded-For": fmt.Sprintf("198.51.100.%d", i)})
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}
	rec := s.doFrom("203.0.113.7:40001", http.MethodGet, "/api/portfolio", "",
		map[string]string{"X-Forwarded-For": "198.51.100.250"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "a forged header does not buy a new budget")
	assert.Equal(t, 1, s.limiter.Len())
}

func TestRateLimitTrustedProxy(t *testing.T) {
	s := newTestServer(t,
		withLimiter(NewIPRateLimiter(1, time.Hour)),
		withTrustedProxies("10.0.0.0/8"))

	rec := s.doFrom("10.1.2.3:80", http.MethodGet, "/api/portfolio", "", map[string]string{"X-Forwarded-For": "198.51.100.1"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.doFrom("10.1.2.3:80", http.MethodGet, "/api/portfolio", "", map[string]string{"X-Forwarded-For": "198.51.100.2"})
	assert.Equal(t, http.StatusOK, rec.Code, "behind a trusted proxy each forwarded client has its own budget")
	rec = s.doFrom("10.9.9.9:80", http.MethodGet, "/api/portfolio", "", map[string]string{"X-Forwarded-For": "198.51.100.1"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 2, s.limiter.Len())
}

func TestRateLimitDefaultWindow(t *testing.T) {
	l := NewIPRateLimiter(100, 15*time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("a"), "request %d", i+1)
	}
	assert.False(t, l.Allow("a"), "101st request in the window")

	now = now.Add(16 * time.Minute)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow("a"), "after the window has passed, request %d", i+1)
	}
}

func TestRateLimiterEvict(t *testing.T) {
	l := NewIPRateLimiter(2, time.Minute)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("a")
	assert.False(t, l.Allow("a"))
	now = now.Add(5 * time.Second)
	l.Allow("b")
	require.Equal(t, 2, l.Len())

	now = now.Add(10 * time.Minute)
	l.Allow("b")
	assert.Equal(t, 1, l.Evict(10*time.Minute))
	assert.Equal(t, 1, l.Len())

	assert.True(t, l.Allow("a"), "evicted clients start with a full bucket")
}
