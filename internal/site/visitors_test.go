package site

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *VisitorStore {
	t.Helper()
	s, err := OpenVisitorStore(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fetchStats(t *testing.T, s *testServer) VisitorStats {
	t.Helper()
	rec := s.get("/api/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats VisitorStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	return stats
}

func TestHashIP(t *testing.T) {
	s := openStore(t)
	other := openStore(t)

	h := s.hashIP("203.0.113.7")
	assert.Len(t, h, 16)
	assert.Equal(t, h, s.hashIP("203.0.113.7"))
	assert.NotEqual(t, h, s.hashIP("203.0.113.8"))
	assert.NotEqual(t, h, other.hashIP("203.0.113.7"), "salt is per store")
}

func TestTrackingMiddleware(t *testing.T) {
	s := newTestServer(t)

	s.get("/")
	s.get("/")
	s.doFrom("198.51.100.9:5555", http.MethodGet, "/projects", "", nil)
	s.do(http.MethodGet, "/contact", "", map[string]string{"DNT": "1"})
	s.get("/static/css/style.css")
	s.get("/health")
	s.get("/missing")
	s.do(http.MethodPost, "/contact", `{}`, map[string]string{"Content-Type": "application/json"})

	stats := fetchStats(t, s)
	assert.EqualValues(t, 3, stats.TotalVisitors)
	assert.EqualValues(t, 2, stats.UniqueVisitors)
	assert.EqualValues(t, 3, stats.VisitorsToday)
	assert.EqualValues(t, 3, stats.VisitorsThisWeek)
	assert.Equal(t, []PathStat{{Path: "/", Views: 2}, {Path: "/projects", Views: 1}}, stats.TopPaths)

	// reading stats is not a visit
	assert.EqualValues(t, 3, fetchStats(t, s).TotalVisitors)

	recent, err := s.visitors.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	for _, v := range recent {
		assert.NotContains(t, v.HashedIP, ".", "raw IPs are never stored")
		assert.Len(t, v.HashedIP, 16)
	}
}

func TestTrackingKeysOnSocketAddress(t *testing.T) {
	s := newTestServer(t)

	for _, forged := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		s.doFrom("203.0.113.7:40000", http.MethodGet, "/", "", map[string]string{"X-Forwarded-For": forged})
	}

	stats := fetchStats(t, s)
	assert.EqualValues(t, 3, stats.TotalVisitors)
	assert.EqualValues(t, 1, stats.UniqueVisitors)
}

func TestStatsWindows(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	record := func(at time.Time, ip, path string) {
		s.now = func() time.Time { return at }
		require.NoError(t, s.Record(ctx, ip, "test-agent", path))
	}
	record(now.Add(-30*24*time.Hour), "a", "/")
	record(now.Add(-3*24*time.Hour), "b", "/projects")
	record(now.Add(-16*time.Hour), "a", "/")
	record(now.Add(-time.Hour), "c", "/contact")
	s.now = func() time.Time { return now }

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, stats.TotalVisitors)
	assert.EqualValues(t, 3, stats.UniqueVisitors)
	assert.EqualValues(t, 1, stats.VisitorsToday)
	assert.EqualValues(t, 3, stats.VisitorsThisWeek)
	assert.Equal(t, PathStat{Path: "/", Views: 2}, stats.TopPaths[0])

	recent, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "/contact", recent[0].Path)
	assert.Equal(t, now.Add(-time.Hour), recent[0].VisitedAt)
	assert.Equal(t, "test-agent", recent[0].UserAgent)
}

func TestCleanupRemovesExpiredVisits(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return now.AddDate(-2, 0, 0) }
	require.NoError(t, s.Record(ctx, "a", "", "/"))
	s.now = func() time.Time { return now.AddDate(0, -1, 0) }
	require.NoError(t, s.Record(ctx, "b", "", "/"))
	s.now = func() time.Time { return now }

	n, err := s.Cleanup(ctx, 365*24*time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.Cleanup(ctx, 365*24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalVisitors)
}

func TestStatsEndpoint(t *testing.T) {
	t.Run("empty store", func(t *testing.T) {
		stats := fetchStats(t, newTestServer(t))
		assert.Zero(t, stats.TotalVisitors)
		assert.NotNil(t, stats.TopPaths)
	})

	t.Run("disabled", func(t *testing.T) {
		s := newTestServer(t, withoutVisitors())
		rec := s.get("/api/stats")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Visitor statistics are disabled"}`, rec.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		s := newTestServer(t)
		require.NoError(t, s.visitors.Close())
		rec := s.get("/api/stats")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Failed to load statistics"}`, rec.Body.String())
	})
}
