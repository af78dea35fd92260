package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/panjf2000/ants/v2"

	"github.com/karunahealth/earnings-reconciler/internal/config"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payee"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payout"
)

// txRunner runs a function inside one database transaction
type txRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// PayoutServiceImpl implements the PayoutService interface. Batch payouts
// fan out on a bounded worker pool so a large payee list cannot spawn an
// unbounded number of concurrent transfer calls.
type PayoutServiceImpl struct {
	ledger    earnings.Repository
	payouts   payout.Repository
	directory payee.Directory
	transfers payout.TransferProvider
	db        txRunner
	pool      *ants.Pool
	cfg       *config.PayoutConfig
	logger    *slog.Logger
}

// NewPayoutService creates a new payout service with a worker pool of the
// given size for batch fan-out.
func NewPayoutService(
	logger *slog.Logger,
	ledger earnings.Repository,
	payouts payout.Repository,
	directory payee.Directory,
	transfers payout.TransferProvider,
	db txRunner,
	cfg *config.PayoutConfig,
	poolSize int,
) (*PayoutServiceImpl, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	return &PayoutServiceImpl{
		ledger:    ledger,
		payouts:   payouts,
		directory: directory,
		transfers: transfers,
		db:        db,
		pool:      pool,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// CreatePayout consumes a payee's available earnings into one payout batch.
//
// The payout row and the withdrawn ledger rows commit in one transaction
// before any money moves: if the external transfer then fails, the batch is
// flipped to 'failed' and surfaced for operator follow-up. The transfer is
// never retried automatically.
func (s *PayoutServiceImpl) CreatePayout(ctx context.Context, req PayoutRequest) (*payout.Batch, error) {
	dest, err := s.directory.Get(ctx, req.Payee)
	if err != nil {
		return nil, err
	}
	if dest == nil || !dest.Verified || dest.FundAccountID == "" {
		return nil, payout.ErrNoVerifiedDestination{Payee: req.Payee}
	}

	entries, err := s.ledger.ListAvailable(ctx, req.Payee)
	if err != nil {
		return nil, err
	}
	var gross int64
	entryIDs := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		gross += e.Amount
		entryIDs = append(entryIDs, e.ID)
	}
	if gross <= 0 {
		return nil, payout.ErrNoAvailableBalance{Payee: req.Payee}
	}

	fee := payout.ComputeFee(gross, req.Method, s.feeTable())
	if fee.NetAmount < s.cfg.MinAmount {
		return nil, payout.ErrBelowMinimum{Payee: req.Payee, Net: fee.NetAmount, Minimum: s.cfg.MinAmount}
	}

	batch := payout.NewBatch(req.Payee, gross, fee, s.cfg.Currency, req.Method, entryIDs, req.Note)

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.payouts.WithTx(tx).Create(ctx, batch); err != nil {
			return err
		}
		n, err := s.ledger.WithTx(tx).MarkWithdrawn(ctx, entryIDs, batch.ID)
		if err != nil {
			return err
		}
		if n != int64(len(entryIDs)) {
			// A concurrent payout consumed some of these entries between
			// the listing and this write; roll back and let the caller
			// retry against the fresh balance.
			return fmt.Errorf("available entries changed concurrently (%d of %d withdrawn)", n, len(entryIDs))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}

	transferRef, err := s.requestTransfer(ctx, dest, batch)
	if err != nil {
		if updErr := s.payouts.UpdateStatus(ctx, batch.ID, payout.StatusFailed, ""); updErr != nil {
			s.logger.Error("Failed to mark payout failed after transfer error",
				"payout_id", batch.ID.String(), "error", updErr)
		}
		batch.Status = payout.StatusFailed
		return batch, payout.ErrTransferFailed{PayoutID: batch.ID.String(), Cause: err}
	}

	if err := s.payouts.UpdateStatus(ctx, batch.ID, payout.StatusCompleted, transferRef); err != nil {
		// The money moved; the record catches up on the next status sync
		s.logger.Error("Failed to mark payout completed",
			"payout_id", batch.ID.String(), "transfer_ref", transferRef, "error", err)
	}
	batch.Status = payout.StatusCompleted
	batch.TransferRef = transferRef

	s.logger.Info("Payout completed",
		"payout_id", batch.ID.String(),
		"payee_id", req.Payee.ID.String(),
		"gross", gross,
		"net", fee.NetAmount,
		"method", string(req.Method),
		"transfer_ref", transferRef,
	)

	return batch, nil
}

// CreatePayouts fans CreatePayout out across payees on the worker pool.
// Outcomes keep the request order; one payee's failure never aborts the
// rest.
func (s *PayoutServiceImpl) CreatePayouts(ctx context.Context, requests []PayoutRequest) []PayoutOutcome {
	outcomes := make([]PayoutOutcome, len(requests))
	var wg sync.WaitGroup

	for i, req := range requests {
		i, req := i, req
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			batch, err := s.CreatePayout(ctx, req)
			outcomes[i] = PayoutOutcome{Payee: req.Payee, Batch: batch, Err: err}
		})
		if submitErr != nil {
			wg.Done()
			outcomes[i] = PayoutOutcome{Payee: req.Payee, Err: submitErr}
		}
	}
	wg.Wait()

	return outcomes
}

// GetPayout retrieves one payout batch
func (s *PayoutServiceImpl) GetPayout(ctx context.Context, id uuid.UUID) (*payout.Batch, error) {
	return s.payouts.GetByID(ctx, id)
}

// ListPayouts returns a payee's payout history, newest first
func (s *PayoutServiceImpl) ListPayouts(ctx context.Context, p earnings.Payee, limit int) ([]*payout.Batch, error) {
	return s.payouts.ListByPayee(ctx, p, limit)
}

// UpsertDestination registers or updates a payee's payout destination
func (s *PayoutServiceImpl) UpsertDestination(ctx context.Context, dest *payee.Destination) error {
	return s.directory.Upsert(ctx, dest)
}

// GetDestination returns a payee's payout destination, (nil, nil) when none
func (s *PayoutServiceImpl) GetDestination(ctx context.Context, p earnings.Payee) (*payee.Destination, error) {
	return s.directory.Get(ctx, p)
}

// Shutdown releases the worker pool
func (s *PayoutServiceImpl) Shutdown() {
	s.pool.Release()
}

// requestTransfer creates the provider contact lazily, then moves the net
// amount.
func (s *PayoutServiceImpl) requestTransfer(ctx context.Context, dest *payee.Destination, batch *payout.Batch) (string, error) {
	if dest.ProviderContactID == "" {
		contactID, err := s.transfers.CreateContact(ctx, dest)
		if err != nil {
			return "", err
		}
		dest.ProviderContactID = contactID
		if err := s.directory.SetProviderContactID(ctx, dest.Payee, contactID); err != nil {
			// Next payout recreates the contact; harmless duplicate
			s.logger.Warn("Failed to store provider contact id",
				"payee_id", dest.Payee.ID.String(), "error", err)
		}
	}

	return s.transfers.CreateTransfer(ctx, payout.TransferRequest{
		ContactID:     dest.ProviderContactID,
		FundAccountID: dest.FundAccountID,
		Amount:        batch.Fee.NetAmount,
		Currency:      batch.Currency,
		Method:        batch.Method,
		ReferenceID:   batch.ID.String(),
		Notes: map[string]string{
			"payee_id":   dest.Payee.ID.String(),
			"payee_kind": string(dest.Payee.Kind),
		},
	})
}

func (s *PayoutServiceImpl) feeTable() payout.FeeTable {
	return payout.FeeTable{
		IMPS:       s.cfg.IMPSFee,
		NEFT:       s.cfg.NEFTFee,
		RTGS:       s.cfg.RTGSFee,
		TaxRatePct: s.cfg.TaxRatePct,
	}
}
