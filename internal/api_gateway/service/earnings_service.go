package service

import (
	"context"

	"github.com/karunahealth/earnings-reconciler/internal/config"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payout"
)

// EarningsServiceImpl implements the EarningsService interface
type EarningsServiceImpl struct {
	ledger earnings.Repository
	cfg    *config.PayoutConfig
}

// NewEarningsService creates a new earnings service
func NewEarningsService(ledger earnings.Repository, cfg *config.PayoutConfig) EarningsService {
	return &EarningsServiceImpl{
		ledger: ledger,
		cfg:    cfg,
	}
}

// GetSummary aggregates a payee's balances directly from the ledger
func (s *EarningsServiceImpl) GetSummary(ctx context.Context, p earnings.Payee) (*earnings.Summary, error) {
	return s.ledger.Summarize(ctx, p)
}

// ListEntries returns a payee's entries narrowed by the filter
func (s *EarningsServiceImpl) ListEntries(ctx context.Context, p earnings.Payee, filter earnings.ListFilter) ([]*earnings.Entry, error) {
	return s.ledger.List(ctx, p, filter)
}

// ListCandidates returns payees with earnings on record, flagging those
// whose available balance would clear the configured minimum after fees.
// Eligibility is computed with the default method's fee.
func (s *EarningsServiceImpl) ListCandidates(ctx context.Context) ([]*PayoutCandidate, error) {
	balances, err := s.ledger.ListPayeesWithBalance(ctx)
	if err != nil {
		return nil, err
	}

	feeTable := payout.FeeTable{
		IMPS:       s.cfg.IMPSFee,
		NEFT:       s.cfg.NEFTFee,
		RTGS:       s.cfg.RTGSFee,
		TaxRatePct: s.cfg.TaxRatePct,
	}

	candidates := make([]*PayoutCandidate, 0, len(balances))
	for _, b := range balances {
		fee := payout.ComputeFee(b.Summary.Available, payout.MethodIMPS, feeTable)
		candidates = append(candidates, &PayoutCandidate{
			Payee:    b.Payee,
			Summary:  b.Summary,
			Eligible: b.Summary.Available > 0 && fee.NetAmount >= s.cfg.MinAmount,
		})
	}

	return candidates, nil
}

// MonthlyRevenue aggregates a payee's settled earnings per calendar month
func (s *EarningsServiceImpl) MonthlyRevenue(ctx context.Context, p earnings.Payee, months int) ([]*earnings.MonthlyRevenue, error) {
	return s.ledger.RevenueByMonth(ctx, p, months)
}
