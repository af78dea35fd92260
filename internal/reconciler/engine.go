package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/karunahealth/earnings-reconciler/internal/config"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/reconcile"
	"github.com/karunahealth/earnings-reconciler/internal/domain/settlement"
)

// Engine runs reconciliation passes. Safe for concurrent use: every ledger
// transition is a conditional write, so overlapping passes (a sweep racing
// an event, a manual run racing both) at worst skip entries the other pass
// already advanced.
type Engine struct {
	ledger      earnings.Repository
	settlements settlement.QueryClient
	reports     reconcile.ReportRepository
	cfg         *config.ReconciliationConfig
	logger      *slog.Logger
	now         func() time.Time
}

// NewEngine creates a reconciliation engine
func NewEngine(logger *slog.Logger, ledger earnings.Repository, settlements settlement.QueryClient, reports reconcile.ReportRepository, cfg *config.ReconciliationConfig) *Engine {
	return &Engine{
		ledger:      ledger,
		settlements: settlements,
		reports:     reports,
		cfg:         cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// Reconcile runs one full pass over the scope's pending entries: recent
// finalized settlement batches are enumerated into a match map, matched
// entries transition to available, unmatched entries stay pending. For a
// payee-scoped pass, entries matched by no batch get a per-payment fallback
// lookup before being left pending.
func (e *Engine) Reconcile(ctx context.Context, trigger reconcile.Trigger, scope reconcile.Scope, correlationID string) (*reconcile.Report, error) {
	startedAt := e.now().UTC()
	logger := e.logger.With("trigger", string(trigger), "correlation_id", correlationID)

	pending, err := e.ledger.ListPending(ctx, scope.Payee)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending earnings: %w", err)
	}

	result := reconcile.Result{}
	if len(pending) > 0 {
		batches, err := e.settlements.ListRecentBatches(ctx, e.cfg.BatchWindow, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list settlement batches: %w", err)
		}
		batches = e.withinLookback(batches)

		matches, batchErrors := buildMatchMap(ctx, e.settlements, batches, logger)
		result.BatchDetail = batchErrors
		result.BatchErrors = len(batchErrors)

		result = e.transitionMatched(ctx, logger, pending, matches, scope, result)
	}

	finishedAt := e.now().UTC()
	logger.Info("Reconciliation pass finished",
		"pending", len(pending),
		"synced", result.Synced,
		"skipped", result.Skipped,
		"errors", result.Errors,
		"batch_errors", result.BatchErrors,
		"duration_ms", finishedAt.Sub(startedAt).Milliseconds(),
	)

	report := &reconcile.Report{
		ID:            uuid.New(),
		Trigger:       trigger,
		Scope:         scope,
		Result:        result,
		CorrelationID: correlationID,
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
	}
	e.storeReport(ctx, logger, report)

	return report, nil
}

// ProcessSettlement reconciles exactly the payments of one settlement batch,
// the event-driven fast path. A batch the authority has not finalized is
// skipped outright; the periodic sweep will pick its payments up later.
func (e *Engine) ProcessSettlement(ctx context.Context, settlementID, correlationID string) (*reconcile.Report, error) {
	startedAt := e.now().UTC()
	logger := e.logger.With("settlement_id", settlementID, "correlation_id", correlationID)

	batch, err := e.settlements.GetBatch(ctx, settlementID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settlement %s: %w", settlementID, err)
	}

	result := reconcile.Result{}
	if !batch.Status.Finalized() {
		logger.Warn("Settlement batch not finalized, leaving entries pending",
			"status", string(batch.Status))
	} else {
		refs, err := e.settlements.ListBatchPaymentIDs(ctx, *batch)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate settlement %s payments: %w", settlementID, err)
		}

		if len(refs) > 0 {
			payoutDate := e.NextPayoutDate(e.now())
			updated, err := e.ledger.TransitionManyToAvailable(ctx, refs, batch.ID, payoutDate)
			if err != nil {
				return nil, fmt.Errorf("failed to transition settled earnings: %w", err)
			}
			result.Synced = len(updated)
			// Refs with no pending row: either not our payments or already
			// advanced by a concurrent pass.
			result.Skipped = len(refs) - len(updated)
		}
	}

	finishedAt := e.now().UTC()
	logger.Info("Settlement processed",
		"synced", result.Synced,
		"skipped", result.Skipped,
		"duration_ms", finishedAt.Sub(startedAt).Milliseconds(),
	)

	report := &reconcile.Report{
		ID:            uuid.New(),
		Trigger:       reconcile.TriggerEvent,
		Scope:         reconcile.Scope{},
		SettlementRef: settlementID,
		Result:        result,
		CorrelationID: correlationID,
		StartedAt:     startedAt,
		FinishedAt:    finishedAt,
	}
	e.storeReport(ctx, logger, report)

	return report, nil
}

// transitionMatched advances each matched pending entry with an individual
// conditional write. Per-entry failures are recorded and do not abort the
// pass.
func (e *Engine) transitionMatched(ctx context.Context, logger *slog.Logger, pending []*earnings.Entry, matches MatchMap, scope reconcile.Scope, result reconcile.Result) reconcile.Result {
	payoutDate := e.NextPayoutDate(e.now())
	perPayee := make(map[earnings.Payee]*reconcile.PayeeResult)

	track := func(p earnings.Payee) *reconcile.PayeeResult {
		pr, ok := perPayee[p]
		if !ok {
			pr = &reconcile.PayeeResult{Payee: p}
			perPayee[p] = pr
		}
		return pr
	}

	for _, entry := range pending {
		pr := track(entry.Payee)

		// Entries not linked to a payment never settle through the
		// authority; nothing to look up.
		if entry.PaymentRef == "" {
			result.Skipped++
			pr.Skipped++
			continue
		}

		batch, matched := matches[entry.PaymentRef]
		settlementRef := batch.ID
		if !matched && scope.Payee != nil {
			// Payee-scoped fallback: the payment may have settled outside
			// the batch window.
			status, err := e.settlements.FetchPaymentStatus(ctx, entry.PaymentRef)
			if err != nil {
				logger.Error("Payment status lookup failed",
					"payment_ref", entry.PaymentRef, "error", err)
				result.Errors++
				pr.Errors++
				result.EntryErrors = append(result.EntryErrors, reconcile.EntryError{
					EntryID:    entry.ID,
					PaymentRef: entry.PaymentRef,
					Message:    err.Error(),
				})
				continue
			}
			if status.SettlementRef != "" {
				matched = true
				settlementRef = status.SettlementRef
			}
		}

		if !matched {
			result.Pending++
			pr.Pending++
			continue
		}

		updated, err := e.ledger.TransitionToAvailable(ctx, entry.PaymentRef, settlementRef, payoutDate)
		if err != nil {
			logger.Error("Failed to transition earning",
				"payment_ref", entry.PaymentRef, "settlement_ref", settlementRef, "error", err)
			result.Errors++
			pr.Errors++
			result.EntryErrors = append(result.EntryErrors, reconcile.EntryError{
				EntryID:    entry.ID,
				PaymentRef: entry.PaymentRef,
				Message:    err.Error(),
			})
			continue
		}
		if updated == nil {
			result.Skipped++
			pr.Skipped++
			continue
		}
		result.Synced++
		pr.Synced++
	}

	for _, pr := range perPayee {
		result.PerPayee = append(result.PerPayee, *pr)
	}

	return result
}

// withinLookback drops batches created before the configured month window,
// current month included. Enumerating a stale batch's payments costs one
// recon call per page for entries the conditional write would skip anyway.
func (e *Engine) withinLookback(batches []settlement.Batch) []settlement.Batch {
	if e.cfg.LookbackMonths <= 0 {
		return batches
	}

	now := e.now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(e.cfg.LookbackMonths - 1), 0)

	kept := batches[:0]
	for _, b := range batches {
		if !b.CreatedAt.Before(cutoff) {
			kept = append(kept, b)
		}
	}
	return kept
}

// NextPayoutDate returns the next occurrence of the configured payout
// weekday after the given instant, as midnight in the payout timezone. An
// entry settling on the payout day itself waits for the following week.
func (e *Engine) NextPayoutDate(from time.Time) time.Time {
	loc := e.cfg.Location()
	local := from.In(loc)

	days := (int(e.cfg.Weekday()) - int(local.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}

	next := local.AddDate(0, 0, days)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, loc)
}

func (e *Engine) storeReport(ctx context.Context, logger *slog.Logger, report *reconcile.Report) {
	// Audit storage must never fail the pass the ledger already committed
	if err := e.reports.Create(ctx, report); err != nil {
		logger.Error("Failed to store reconciliation report",
			"report_id", report.ID.String(), "error", err)
	}
}
