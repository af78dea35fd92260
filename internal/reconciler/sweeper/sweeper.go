// Package sweeper runs the periodic reconciliation safety net. Events can be
// lost or arrive before the authority finalizes a batch; the sweep re-checks
// every pending entry on a fixed cadence so nothing stays pending forever.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/karunahealth/earnings-reconciler/internal/domain/reconcile"
)

// FullReconciler is the slice of the reconciliation engine the sweep drives
type FullReconciler interface {
	Reconcile(ctx context.Context, trigger reconcile.Trigger, scope reconcile.Scope, correlationID string) (*reconcile.Report, error)
}

// Sweeper triggers a full-scope reconciliation pass on a fixed interval.
// A sweep overlapping an event-driven pass is harmless: the ledger's
// conditional writes make concurrent passes skip each other's work.
type Sweeper struct {
	engine   FullReconciler
	interval time.Duration
	logger   *slog.Logger

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewSweeper creates a periodic reconciliation sweeper
func NewSweeper(logger *slog.Logger, engine FullReconciler, interval time.Duration) *Sweeper {
	return &Sweeper{
		engine:   engine,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start launches the sweep loop. One pass runs immediately so a restart
// never waits a full interval to catch up.
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.logger.Info("Reconciliation sweeper started", "interval", s.interval.String())
		s.runOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Context canceled, stopping sweeper")
				return
			case <-s.stop:
				s.logger.Info("Sweeper stopped")
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()
}

// Stop halts the sweep loop and waits for an in-flight pass to finish
func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

func (s *Sweeper) runOnce(ctx context.Context) {
	correlationID := "sweep-" + uuid.NewString()

	report, err := s.engine.Reconcile(ctx, reconcile.TriggerSweep, reconcile.Scope{}, correlationID)
	if err != nil {
		// The next tick retries; failures here are not fatal to the worker
		s.logger.Error("Sweep pass failed", "correlation_id", correlationID, "error", err)
		return
	}

	s.logger.Info("Sweep pass completed",
		"correlation_id", correlationID,
		"synced", report.Result.Synced,
		"skipped", report.Result.Skipped,
		"pending", report.Result.Pending,
		"errors", report.Result.Errors,
	)
}
