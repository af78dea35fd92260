// Package postgres provides PostgreSQL implementations of the domain
// repositories. The earnings repository carries the reconciliation core's
// concurrency guarantee: status transitions are single conditional UPDATEs,
// so racing reconciliation passes can never double-process an entry.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/platform/persistence"
)

const earningColumns = `id, payee_id, payee_kind, payment_ref, settlement_ref, amount, currency, status, payout_date, payout_id, session_ref, appointment_ref, created_at, updated_at`

// EarningsRepository implements the earnings.Repository interface for PostgreSQL
type EarningsRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewEarningsRepository creates a new PostgreSQL earnings repository
func NewEarningsRepository(logger *slog.Logger, db *persistence.PostgresDB) earnings.Repository {
	return &EarningsRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so ledger writes can commit
// atomically with payout creation.
func (r *EarningsRepository) WithTx(tx pgx.Tx) earnings.Repository {
	return &EarningsRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new pending entry. A duplicate payment ref violates the
// partial unique index and is reported as ErrDuplicatePaymentRef.
func (r *EarningsRepository) Create(ctx context.Context, e *earnings.Entry) error {
	query := `
		INSERT INTO earnings (id, payee_id, payee_kind, payment_ref, settlement_ref, amount, currency, status, payout_date, payout_id, session_ref, appointment_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.querier.Exec(ctx, query,
		e.ID,
		e.Payee.ID,
		e.Payee.Kind,
		nullableString(e.PaymentRef),
		nullableString(e.SettlementRef),
		e.Amount,
		e.Currency,
		e.Status,
		e.PayoutDate,
		e.PayoutID,
		nullableString(e.SessionRef),
		nullableString(e.AppointmentRef),
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return earnings.ErrDuplicatePaymentRef{PaymentRef: e.PaymentRef}
		}
		r.logger.Error("Failed to create earning entry", "payment_ref", e.PaymentRef, "error", err)
		return fmt.Errorf("failed to create earning entry: %w", err)
	}

	return nil
}

// GetByID retrieves an entry by its ID
func (r *EarningsRepository) GetByID(ctx context.Context, id uuid.UUID) (*earnings.Entry, error) {
	query := `SELECT ` + earningColumns + ` FROM earnings WHERE id = $1`

	e, err := r.scanOne(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, earnings.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get earning entry", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get earning entry: %w", err)
	}

	return e, nil
}

// GetByPaymentRef retrieves an entry by its external payment reference,
// returning (nil, nil) when none exists.
func (r *EarningsRepository) GetByPaymentRef(ctx context.Context, paymentRef string) (*earnings.Entry, error) {
	query := `SELECT ` + earningColumns + ` FROM earnings WHERE payment_ref = $1`

	e, err := r.scanOne(r.querier.QueryRow(ctx, query, paymentRef))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get earning entry by payment ref", "payment_ref", paymentRef, "error", err)
		return nil, fmt.Errorf("failed to get earning entry by payment ref: %w", err)
	}

	return e, nil
}

// List returns a payee's entries, newest first, narrowed by the filter
func (r *EarningsRepository) List(ctx context.Context, payee earnings.Payee, filter earnings.ListFilter) ([]*earnings.Entry, error) {
	query := `SELECT ` + earningColumns + ` FROM earnings WHERE payee_id = $1 AND payee_kind = $2`
	args := []interface{}{payee.ID, payee.Kind}

	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list earning entries", "payee_id", payee.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to list earning entries: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListPending returns all pending entries, optionally scoped to one payee
func (r *EarningsRepository) ListPending(ctx context.Context, payee *earnings.Payee) ([]*earnings.Entry, error) {
	query := `SELECT ` + earningColumns + ` FROM earnings WHERE status = $1`
	args := []interface{}{earnings.StatusPending}

	if payee != nil {
		args = append(args, payee.ID, payee.Kind)
		query += " AND payee_id = $2 AND payee_kind = $3"
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list pending earnings", "error", err)
		return nil, fmt.Errorf("failed to list pending earnings: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListAvailable returns a payee's payout-consumable entries, oldest first
func (r *EarningsRepository) ListAvailable(ctx context.Context, payee earnings.Payee) ([]*earnings.Entry, error) {
	query := `SELECT ` + earningColumns + ` FROM earnings
		WHERE payee_id = $1 AND payee_kind = $2 AND status = $3
		ORDER BY created_at ASC`

	rows, err := r.querier.Query(ctx, query, payee.ID, payee.Kind, earnings.StatusAvailable)
	if err != nil {
		r.logger.Error("Failed to list available earnings", "payee_id", payee.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to list available earnings: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// TransitionToAvailable conditionally advances one pending entry. The WHERE
// clause on status makes the write atomic: the loser of a race between two
// reconciliation passes matches zero rows and gets (nil, nil), not an error.
func (r *EarningsRepository) TransitionToAvailable(ctx context.Context, paymentRef, settlementRef string, payoutDate time.Time) (*earnings.Entry, error) {
	query := `
		UPDATE earnings
		SET status = $1, settlement_ref = $2, payout_date = $3, updated_at = NOW()
		WHERE payment_ref = $4 AND status = $5
		RETURNING ` + earningColumns

	e, err := r.scanOne(r.querier.QueryRow(ctx, query,
		earnings.StatusAvailable, settlementRef, payoutDate, paymentRef, earnings.StatusPending,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already transitioned by a concurrent pass, or unknown payment ref
			return nil, nil
		}
		r.logger.Error("Failed to transition earning to available",
			"payment_ref", paymentRef, "settlement_ref", settlementRef, "error", err)
		return nil, fmt.Errorf("failed to transition earning to available: %w", err)
	}

	return e, nil
}

// TransitionManyToAvailable is the batched conditional transition. Rows no
// longer pending are silently skipped; only updated rows come back.
func (r *EarningsRepository) TransitionManyToAvailable(ctx context.Context, paymentRefs []string, settlementRef string, payoutDate time.Time) ([]*earnings.Entry, error) {
	if len(paymentRefs) == 0 {
		return nil, nil
	}

	query := `
		UPDATE earnings
		SET status = $1, settlement_ref = $2, payout_date = $3, updated_at = NOW()
		WHERE payment_ref = ANY($4) AND status = $5
		RETURNING ` + earningColumns

	rows, err := r.querier.Query(ctx, query,
		earnings.StatusAvailable, settlementRef, payoutDate, paymentRefs, earnings.StatusPending,
	)
	if err != nil {
		r.logger.Error("Failed to batch-transition earnings to available",
			"settlement_ref", settlementRef, "payment_count", len(paymentRefs), "error", err)
		return nil, fmt.Errorf("failed to batch-transition earnings to available: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// MarkWithdrawn consumes available entries into a payout. The status
// condition keeps a stale payout request from touching rows another payout
// already consumed.
func (r *EarningsRepository) MarkWithdrawn(ctx context.Context, ids []uuid.UUID, payoutID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE earnings
		SET status = $1, payout_id = $2, updated_at = NOW()
		WHERE id = ANY($3) AND status = $4
	`

	result, err := r.querier.Exec(ctx, query, earnings.StatusWithdrawn, payoutID, ids, earnings.StatusAvailable)
	if err != nil {
		r.logger.Error("Failed to mark earnings withdrawn", "payout_id", payoutID.String(), "error", err)
		return 0, fmt.Errorf("failed to mark earnings withdrawn: %w", err)
	}

	return result.RowsAffected(), nil
}

// Summarize aggregates a payee's balances directly from the ledger. No
// cached counters exist anywhere, so the result can always be reproduced by
// re-scanning.
func (r *EarningsRepository) Summarize(ctx context.Context, payee earnings.Payee) (*earnings.Summary, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = 'available'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'withdrawn'), 0),
			COALESCE(SUM(amount), 0)
		FROM earnings
		WHERE payee_id = $1 AND payee_kind = $2
	`

	var s earnings.Summary
	err := r.querier.QueryRow(ctx, query, payee.ID, payee.Kind).Scan(
		&s.Available, &s.Pending, &s.Withdrawn, &s.Total,
	)
	if err != nil {
		r.logger.Error("Failed to summarize earnings", "payee_id", payee.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to summarize earnings: %w", err)
	}

	return &s, nil
}

// ListPayeesWithPending returns balances for payees holding pending entries
func (r *EarningsRepository) ListPayeesWithPending(ctx context.Context) ([]*earnings.PayeeBalance, error) {
	return r.listBalances(ctx, `HAVING COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0) > 0`)
}

// ListPayeesWithBalance returns balances for payees with any earnings
func (r *EarningsRepository) ListPayeesWithBalance(ctx context.Context) ([]*earnings.PayeeBalance, error) {
	return r.listBalances(ctx, `HAVING COALESCE(SUM(amount), 0) > 0`)
}

func (r *EarningsRepository) listBalances(ctx context.Context, having string) ([]*earnings.PayeeBalance, error) {
	query := `
		SELECT
			payee_id,
			payee_kind,
			COALESCE(SUM(amount) FILTER (WHERE status = 'available'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'withdrawn'), 0),
			COALESCE(SUM(amount), 0)
		FROM earnings
		GROUP BY payee_id, payee_kind
		` + having + `
		ORDER BY payee_kind, payee_id
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list payee balances", "error", err)
		return nil, fmt.Errorf("failed to list payee balances: %w", err)
	}
	defer rows.Close()

	var balances []*earnings.PayeeBalance
	for rows.Next() {
		var b earnings.PayeeBalance
		if err := rows.Scan(
			&b.Payee.ID, &b.Payee.Kind,
			&b.Summary.Available, &b.Summary.Pending, &b.Summary.Withdrawn, &b.Summary.Total,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payee balance: %w", err)
		}
		balances = append(balances, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read payee balances: %w", err)
	}

	return balances, nil
}

// RevenueByMonth aggregates a payee's settled earnings per calendar month
func (r *EarningsRepository) RevenueByMonth(ctx context.Context, payee earnings.Payee, months int) ([]*earnings.MonthlyRevenue, error) {
	query := `
		SELECT DATE_TRUNC('month', created_at) AS month, COALESCE(SUM(amount), 0)
		FROM earnings
		WHERE payee_id = $1 AND payee_kind = $2 AND status IN ('available', 'withdrawn')
		GROUP BY DATE_TRUNC('month', created_at)
		ORDER BY month DESC
		LIMIT $3
	`

	rows, err := r.querier.Query(ctx, query, payee.ID, payee.Kind, months)
	if err != nil {
		r.logger.Error("Failed to aggregate monthly revenue", "payee_id", payee.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to aggregate monthly revenue: %w", err)
	}
	defer rows.Close()

	var revenues []*earnings.MonthlyRevenue
	for rows.Next() {
		var rev earnings.MonthlyRevenue
		if err := rows.Scan(&rev.Month, &rev.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan monthly revenue: %w", err)
		}
		revenues = append(revenues, &rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read monthly revenue: %w", err)
	}

	return revenues, nil
}

func (r *EarningsRepository) scanOne(row pgx.Row) (*earnings.Entry, error) {
	var (
		e              earnings.Entry
		paymentRef     *string
		settlementRef  *string
		sessionRef     *string
		appointmentRef *string
	)
	err := row.Scan(
		&e.ID, &e.Payee.ID, &e.Payee.Kind, &paymentRef, &settlementRef,
		&e.Amount, &e.Currency, &e.Status, &e.PayoutDate, &e.PayoutID,
		&sessionRef, &appointmentRef, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.PaymentRef = derefString(paymentRef)
	e.SettlementRef = derefString(settlementRef)
	e.SessionRef = derefString(sessionRef)
	e.AppointmentRef = derefString(appointmentRef)
	return &e, nil
}

func (r *EarningsRepository) scanAll(rows pgx.Rows) ([]*earnings.Entry, error) {
	var entries []*earnings.Entry
	for rows.Next() {
		e, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan earning entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read earning entries: %w", err)
	}
	return entries, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
