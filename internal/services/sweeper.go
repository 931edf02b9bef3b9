package services

import (
	"context"
	"log/slog"
	"time"

	"delegatebooking/internal/domain"
)

// StagingSweeper clears staging carts whose session can no longer reach them.
// A session is refreshed each time it is saved, and every save follows a
// write to the cart or its staged rows, so a cart idle for longer than the
// session TTL has no session left.
type StagingSweeper struct {
	carts    domain.CartSweeper
	idle     time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewStagingSweeper removes carts idle for longer than idle, checking every interval.
func NewStagingSweeper(carts domain.CartSweeper, idle, interval time.Duration, logger *slog.Logger) *StagingSweeper {
	return &StagingSweeper{carts: carts, idle: idle, interval: interval, logger: logger, now: time.Now}
}

// Sweep deletes the idle carts once and returns how many were removed.
func (s *StagingSweeper) Sweep(ctx context.Context) (int64, error) {
	before := s.now().Add(-s.idle)
	n, err := s.carts.DeleteIdleCarts(ctx, before)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "idle carts cleared", "count", n, "before", before)
	}
	return n, nil
}

// Run sweeps every interval until ctx is cancelled.
func (s *StagingSweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.ErrorContext(ctx, "cart sweep failed", "err", err)
			}
		}
	}
}
