package dashboard

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-rover/internal/log"
)

// Refresher runs one refresh cycle.
type Refresher interface {
	Refresh(ctx context.Context) (View, error)
}

// Loop drives refresh cycles on a fixed interval and on demand.
// Only one refresh runs at a time.
type Loop struct {
	target   Refresher
	interval time.Duration
	trigger  chan struct{}
	logger   *slog.Logger

	refreshes atomic.Uint64
	failures  atomic.Uint64
}

// LoopStats summarizes loop activity.
type LoopStats struct {
	Refreshes uint64 `json:"refreshes"`
	Failures  uint64 `json:"failures"`
}

// NewLoop creates a loop refreshing target every interval.
func NewLoop(target Refresher, interval time.Duration) *Loop {
	return &Loop{
		target:   target,
		interval: interval,
		trigger:  make(chan struct{}, 1),
		logger:   log.With("component", "loop"),
	}
}

// Trigger requests an immediate refresh. Requests made while one is
// already pending are coalesced.
func (l *Loop) Trigger() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// Run refreshes once immediately, then on every tick or trigger.
// It blocks until ctx is cancelled and returns ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info("refresh loop started", "interval", l.interval)
	l.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("refresh loop stopped",
				"refreshes", l.refreshes.Load(),
				"failures", l.failures.Load())
			return ctx.Err()
		case <-ticker.C:
			l.tick(ctx)
		case <-l.trigger:
			l.tick(ctx)
			ticker.Reset(l.interval)
		}
	}
}

// tick runs one refresh. Errors are counted and logged by the Session;
// the loop keeps going.
func (l *Loop) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	l.refreshes.Add(1)
	if _, err := l.target.Refresh(ctx); err != nil {
		l.failures.Add(1)
	}
}

// Stats returns counters since the loop was created.
func (l *Loop) Stats() LoopStats {
	return LoopStats{
		Refreshes: l.refreshes.Load(),
		Failures:  l.failures.Load(),
	}
}
