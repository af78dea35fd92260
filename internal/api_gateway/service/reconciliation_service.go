package service

import (
	"context"

	"github.com/karunahealth/earnings-reconciler/internal/config"
	"github.com/karunahealth/earnings-reconciler/internal/domain/reconcile"
)

// reconciliationEngine is the slice of the reconciler the service drives
type reconciliationEngine interface {
	Reconcile(ctx context.Context, trigger reconcile.Trigger, scope reconcile.Scope, correlationID string) (*reconcile.Report, error)
	ProcessSettlement(ctx context.Context, settlementID, correlationID string) (*reconcile.Report, error)
}

// ReconciliationServiceImpl implements the ReconciliationService interface
type ReconciliationServiceImpl struct {
	engine  reconciliationEngine
	reports reconcile.ReportRepository
	cfg     *config.ReconciliationConfig
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(engine reconciliationEngine, reports reconcile.ReportRepository, cfg *config.ReconciliationConfig) ReconciliationService {
	return &ReconciliationServiceImpl{
		engine:  engine,
		reports: reports,
		cfg:     cfg,
	}
}

// TriggerReconciliation runs a manual pass, optionally payee-scoped. The
// pass runs synchronously: the operator gets the report in the response.
func (s *ReconciliationServiceImpl) TriggerReconciliation(ctx context.Context, scope reconcile.Scope, correlationID string) (*reconcile.Report, error) {
	return s.engine.Reconcile(ctx, reconcile.TriggerManual, scope, correlationID)
}

// ProcessSettlement reconciles one settlement batch by its authority ID;
// the operator override for a lost or mis-delivered event.
func (s *ReconciliationServiceImpl) ProcessSettlement(ctx context.Context, settlementID, correlationID string) (*reconcile.Report, error) {
	return s.engine.ProcessSettlement(ctx, settlementID, correlationID)
}

// ListRunReports returns recent pass audit records, newest first. A
// non-positive limit falls back to the configured page size.
func (s *ReconciliationServiceImpl) ListRunReports(ctx context.Context, limit int) ([]*reconcile.Report, error) {
	if limit <= 0 {
		limit = s.cfg.RunReportsLimit
	}
	return s.reports.ListRecent(ctx, limit)
}
