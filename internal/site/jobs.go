package site

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler runs the server's housekeeping on cron schedules.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger))),
		log:  log,
	}
}

// Add registers fn under a standard five-field spec or a descriptor such as
// "@daily" or "@every 5m".
func (s *Scheduler) Add(spec, name string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := fn(context.Background()); err != nil {
			s.log.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.log.Debug("scheduled job done", zap.String("job", name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.log.Info("cron scheduler started", zap.Int("jobs", s.Len()))
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// VisitorRetentionJob removes visits older than retention.
func VisitorRetentionJob(store *VisitorStore, retention time.Duration) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := store.Cleanup(ctx, retention)
		return err
	}
}

// LimiterEvictionJob forgets clients that have been idle for at least idle.
func LimiterEvictionJob(l *IPRateLimiter, idle time.Duration, log *zap.Logger) func(context.Context) error {
	return func(context.Context) error {
		if n := l.Evict(idle); n > 0 {
			log.Debug("evicted idle rate limiters", zap.Int("clients", n))
		}
		return nil
	}
}
