package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payout"
	"github.com/karunahealth/earnings-reconciler/internal/platform/persistence"
)

const payoutColumns = `id, payee_id, payee_kind, gross_amount, base_fee, tax_on_fee, net_amount, currency, transfer_method, status, transfer_ref, entry_ids, note, created_at, updated_at`

// PayoutRepository implements the payout.Repository interface for PostgreSQL
type PayoutRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewPayoutRepository creates a new PostgreSQL payout repository
func NewPayoutRepository(logger *slog.Logger, db *persistence.PostgresDB) payout.Repository {
	return &PayoutRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so the batch record and the
// withdrawn ledger rows commit together.
func (r *PayoutRepository) WithTx(tx pgx.Tx) payout.Repository {
	return &PayoutRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new payout batch
func (r *PayoutRepository) Create(ctx context.Context, b *payout.Batch) error {
	query := `
		INSERT INTO payouts (id, payee_id, payee_kind, gross_amount, base_fee, tax_on_fee, net_amount, currency, transfer_method, status, transfer_ref, entry_ids, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.querier.Exec(ctx, query,
		b.ID,
		b.Payee.ID,
		b.Payee.Kind,
		b.GrossAmount,
		b.Fee.BaseFee,
		b.Fee.TaxOnFee,
		b.Fee.NetAmount,
		b.Currency,
		b.Method,
		b.Status,
		nullableString(b.TransferRef),
		b.EntryIDs,
		nullableString(b.Note),
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payout batch", "payout_id", b.ID.String(), "error", err)
		return fmt.Errorf("failed to create payout batch: %w", err)
	}

	return nil
}

// GetByID retrieves a payout batch by its ID
func (r *PayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*payout.Batch, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`

	b, err := r.scanOne(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payout.ErrBatchNotFound{BatchID: id}
		}
		r.logger.Error("Failed to get payout batch", "payout_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payout batch: %w", err)
	}

	return b, nil
}

// ListByPayee returns a payee's payout history, newest first
func (r *PayoutRepository) ListByPayee(ctx context.Context, p earnings.Payee, limit int) ([]*payout.Batch, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts
		WHERE payee_id = $1 AND payee_kind = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := r.querier.Query(ctx, query, p.ID, p.Kind, limit)
	if err != nil {
		r.logger.Error("Failed to list payouts by payee", "payee_id", p.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to list payouts by payee: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// List returns payout batches, optionally filtered by status, newest first
func (r *PayoutRepository) List(ctx context.Context, status payout.Status, limit int) ([]*payout.Batch, error) {
	query := `SELECT ` + payoutColumns + ` FROM payouts`
	args := []interface{}{}

	if status != "" {
		args = append(args, status)
		query += " WHERE status = $1"
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list payouts", "error", err)
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// UpdateStatus records the outcome of the external transfer for a batch
func (r *PayoutRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status payout.Status, transferRef string) error {
	query := `
		UPDATE payouts
		SET status = $1, transfer_ref = COALESCE($2, transfer_ref), updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.querier.Exec(ctx, query, status, nullableString(transferRef), id)
	if err != nil {
		r.logger.Error("Failed to update payout status", "payout_id", id.String(), "status", status, "error", err)
		return fmt.Errorf("failed to update payout status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return payout.ErrBatchNotFound{BatchID: id}
	}

	return nil
}

func (r *PayoutRepository) scanOne(row pgx.Row) (*payout.Batch, error) {
	var (
		b           payout.Batch
		transferRef *string
		note        *string
	)
	err := row.Scan(
		&b.ID, &b.Payee.ID, &b.Payee.Kind,
		&b.GrossAmount, &b.Fee.BaseFee, &b.Fee.TaxOnFee, &b.Fee.NetAmount,
		&b.Currency, &b.Method, &b.Status, &transferRef, &b.EntryIDs,
		&note, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Fee.TotalFee = b.Fee.BaseFee + b.Fee.TaxOnFee
	b.TransferRef = derefString(transferRef)
	b.Note = derefString(note)
	return &b, nil
}

func (r *PayoutRepository) scanAll(rows pgx.Rows) ([]*payout.Batch, error) {
	var batches []*payout.Batch
	for rows.Next() {
		b, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payout batches: %w", err)
	}
	return batches, nil
}
