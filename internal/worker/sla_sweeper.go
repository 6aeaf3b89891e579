package worker

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Sweeper abstracts the sweep run so the driver can be tested without a
// store.
type Sweeper interface {
	RunSweep(ctx context.Context) (int, error)
}

// SLASweeper runs the breach sweep on a fixed period, independent of request
// traffic. A run that fails only logs; the schedule itself never stops until
// the context is cancelled.
type SLASweeper struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *zap.Logger
	running  atomic.Bool
}

// NewSLASweeper constructs the periodic driver.
func NewSLASweeper(sweeper Sweeper, interval time.Duration, logger *zap.Logger) *SLASweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SLASweeper{sweeper: sweeper, interval: interval, logger: logger}
}

// Start launches the sweep loop in its own goroutine and returns. The loop
// exits when ctx is cancelled.
func (w *SLASweeper) Start(ctx context.Context) {
	go w.loop(ctx)
}

func (w *SLASweeper) loop(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("sla sweeper started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sla sweeper stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single sweep cycle. Overlapping cycles are skipped: a
// sweep must finish before the next scheduled one begins.
func (w *SLASweeper) RunOnce(ctx context.Context) {
	if !w.running.CompareAndSwap(false, true) {
		w.logger.Warn("sla sweep still running, skipping cycle")
		return
	}
	defer w.running.Store(false)

	count, err := w.sweeper.RunSweep(ctx)
	if err != nil {
		// Breach detection is deferred to the next cycle; the deadline has
		// already passed, so nothing is lost beyond latency.
		w.logger.Error("sla sweep failed", zap.Error(err))
		return
	}
	w.logger.Debug("sla sweep completed", zap.Int("breached", count))
}
