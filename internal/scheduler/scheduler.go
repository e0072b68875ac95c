package scheduler

import (
	"context"
	"log/slog"
	"time"
)

type expirer interface {
	ExpireDue(ctx context.Context, orgID string) (int, error)
}

// Scheduler drives the expiration sweeper on a fixed interval. The sweep
// itself is idempotent, so running several scheduler instances against the
// same database is safe.
type Scheduler struct {
	sweeper  expirer
	interval time.Duration
	log      *slog.Logger
}

func New(sweeper expirer, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		log:      log,
	}
}

// Start blocks until ctx is cancelled, sweeping once per interval.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("expiration scheduler started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiration scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	expired, err := s.sweeper.ExpireDue(ctx, "")
	if err != nil {
		s.log.Error("expiration sweep failed", slog.String("error", err.Error()))
		return
	}
	if expired > 0 {
		s.log.Info("expired stale holds", slog.Int("count", expired))
	}
}
