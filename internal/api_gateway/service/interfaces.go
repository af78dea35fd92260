package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payee"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payout"
	"github.com/karunahealth/earnings-reconciler/internal/domain/reconcile"
)

// EarningsService defines the interface for earnings read operations
type EarningsService interface {
	// GetSummary aggregates a payee's balances directly from the ledger
	GetSummary(ctx context.Context, p earnings.Payee) (*earnings.Summary, error)

	// ListEntries returns a payee's entries narrowed by the filter
	ListEntries(ctx context.Context, p earnings.Payee, filter earnings.ListFilter) ([]*earnings.Entry, error)

	// ListCandidates returns every payee with earnings on record plus
	// payout eligibility against the configured minimum
	ListCandidates(ctx context.Context) ([]*PayoutCandidate, error)

	// MonthlyRevenue aggregates a payee's settled earnings per month
	MonthlyRevenue(ctx context.Context, p earnings.Payee, months int) ([]*earnings.MonthlyRevenue, error)
}

// ReconciliationService defines the interface for operator-triggered
// reconciliation and run-report inspection
type ReconciliationService interface {
	// TriggerReconciliation runs a manual pass, optionally payee-scoped
	TriggerReconciliation(ctx context.Context, scope reconcile.Scope, correlationID string) (*reconcile.Report, error)

	// ProcessSettlement reconciles exactly one settlement batch; the
	// operator override when an event was lost
	ProcessSettlement(ctx context.Context, settlementID, correlationID string) (*reconcile.Report, error)

	// ListRunReports returns recent pass audit records, newest first
	ListRunReports(ctx context.Context, limit int) ([]*reconcile.Report, error)
}

// PayoutRequest is one payee's payout instruction
type PayoutRequest struct {
	Payee  earnings.Payee
	Method payout.TransferMethod
	Note   string
}

// PayoutOutcome pairs one batch request with its result; a batch run
// reports per-payee outcomes instead of aborting on the first failure.
type PayoutOutcome struct {
	Payee earnings.Payee
	Batch *payout.Batch
	Err   error
}

// PayoutService defines the interface for payout operations
type PayoutService interface {
	// CreatePayout consumes a payee's available earnings into one payout.
	// Preconditions, checked in order: a verified destination on file, a
	// positive available balance, and a net amount at or above the minimum.
	CreatePayout(ctx context.Context, req PayoutRequest) (*payout.Batch, error)

	// CreatePayouts fans CreatePayout out across payees; one failure never
	// aborts the rest
	CreatePayouts(ctx context.Context, requests []PayoutRequest) []PayoutOutcome

	GetPayout(ctx context.Context, id uuid.UUID) (*payout.Batch, error)
	ListPayouts(ctx context.Context, p earnings.Payee, limit int) ([]*payout.Batch, error)

	// UpsertDestination registers or updates a payee's payout destination
	UpsertDestination(ctx context.Context, dest *payee.Destination) error
	GetDestination(ctx context.Context, p earnings.Payee) (*payee.Destination, error)
}

// PayoutCandidate is one payee's balances plus payout eligibility
type PayoutCandidate struct {
	Payee    earnings.Payee   `json:"payee"`
	Summary  earnings.Summary `json:"summary"`
	Eligible bool             `json:"eligible"`
}
