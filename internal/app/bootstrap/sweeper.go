package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

type purgeFunc func(ctx context.Context, cutoff time.Time) (int, error)

// sessionSweeper periodically deletes session records that expired before
// the tick.
type sessionSweeper struct {
	logger   *slog.Logger
	purge    purgeFunc
	interval time.Duration
	now      func() time.Time
}

func newSessionSweeper(logger *slog.Logger, purge purgeFunc, interval time.Duration) *sessionSweeper {
	return &sessionSweeper{
		logger:   logger.With("module", "session_sweeper", "layer", "worker"),
		purge:    purge,
		interval: interval,
		now:      time.Now,
	}
}

// Run blocks until ctx is cancelled. A non-positive interval disables the
// sweeper.
func (s *sessionSweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *sessionSweeper) sweepOnce(ctx context.Context) {
	removed, err := s.purge(ctx, s.now().UTC())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("purge expired sessions failed", "error", err)
		}
		return
	}
	if removed > 0 {
		s.logger.Info("purged expired sessions", "count", removed)
	}
}
