package site

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSchedulerRejectsBadSpecs(t *testing.T) {
	s := NewScheduler(nil)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add("@daily", "daily", noop))
	require.NoError(t, s.Add("@every 5m", "evict", noop))
	require.NoError(t, s.Add("0 3 * * *", "nightly", noop))
	assert.Error(t, s.Add("every day", "bad", noop))
	assert.Error(t, s.Add("0 0 0 * * *", "six fields", noop))
	assert.Equal(t, 3, s.Len())
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := NewScheduler(nil)
	ran := make(chan struct{}, 4)
	require.NoError(t, s.Add("@every 1s", "tick", func(context.Context) error {
		ran <- struct{}{}
		return errors.New("logged, not fatal")
	}))

	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestHousekeepingJobs(t *testing.T) {
	ctx := context.Background()

	store := openStore(t)
	store.now = func() time.Time { return time.Now().AddDate(-2, 0, 0) }
	require.NoError(t, store.Record(ctx, "a", "", "/"))
	store.now = time.Now
	require.NoError(t, store.Record(ctx, "b", "", "/"))

	require.NoError(t, VisitorRetentionJob(store, 365*24*time.Hour)(ctx))
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalVisitors)

	l := NewIPRateLimiter(10, time.Minute)
	l.Allow("a")
	l.now = func() time.Time { return time.Now().Add(time.Hour) }
	require.NoError(t, LimiterEvictionJob(l, 30*time.Minute, zap.NewNop())(ctx))
	assert.Zero(t, l.Len())
}
