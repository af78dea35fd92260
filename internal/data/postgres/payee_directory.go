package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payee"
	"github.com/karunahealth/earnings-reconciler/internal/platform/persistence"
)

// PayeeDirectory implements the payee.Directory interface for PostgreSQL
type PayeeDirectory struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewPayeeDirectory creates a new PostgreSQL payee directory
func NewPayeeDirectory(logger *slog.Logger, db *persistence.PostgresDB) payee.Directory {
	return &PayeeDirectory{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Get returns a payee's payout destination, or (nil, nil) when none is on file
func (d *PayeeDirectory) Get(ctx context.Context, p earnings.Payee) (*payee.Destination, error) {
	query := `
		SELECT payee_id, payee_kind, name, email, phone, provider_contact_id, fund_account_id, verified, created_at, updated_at
		FROM payout_destinations
		WHERE payee_id = $1 AND payee_kind = $2
	`

	var (
		dest      payee.Destination
		email     *string
		phone     *string
		contactID *string
		fundAcct  *string
	)
	err := d.querier.QueryRow(ctx, query, p.ID, p.Kind).Scan(
		&dest.Payee.ID, &dest.Payee.Kind, &dest.Name, &email, &phone,
		&contactID, &fundAcct, &dest.Verified, &dest.CreatedAt, &dest.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		d.logger.Error("Failed to get payout destination", "payee_id", p.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to get payout destination: %w", err)
	}
	dest.Email = derefString(email)
	dest.Phone = derefString(phone)
	dest.ProviderContactID = derefString(contactID)
	dest.FundAccountID = derefString(fundAcct)

	return &dest, nil
}

// Upsert creates or replaces a payee's payout destination
func (d *PayeeDirectory) Upsert(ctx context.Context, dest *payee.Destination) error {
	query := `
		INSERT INTO payout_destinations (payee_id, payee_kind, name, email, phone, provider_contact_id, fund_account_id, verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (payee_id, payee_kind) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			provider_contact_id = COALESCE(EXCLUDED.provider_contact_id, payout_destinations.provider_contact_id),
			fund_account_id = COALESCE(EXCLUDED.fund_account_id, payout_destinations.fund_account_id),
			verified = EXCLUDED.verified,
			updated_at = NOW()
	`

	_, err := d.querier.Exec(ctx, query,
		dest.Payee.ID,
		dest.Payee.Kind,
		dest.Name,
		nullableString(dest.Email),
		nullableString(dest.Phone),
		nullableString(dest.ProviderContactID),
		nullableString(dest.FundAccountID),
		dest.Verified,
	)
	if err != nil {
		d.logger.Error("Failed to upsert payout destination", "payee_id", dest.Payee.ID.String(), "error", err)
		return fmt.Errorf("failed to upsert payout destination: %w", err)
	}

	return nil
}

// SetProviderContactID stores the transfer-provider contact handle created
// lazily on a payee's first payout.
func (d *PayeeDirectory) SetProviderContactID(ctx context.Context, p earnings.Payee, contactID string) error {
	query := `
		UPDATE payout_destinations
		SET provider_contact_id = $1, updated_at = NOW()
		WHERE payee_id = $2 AND payee_kind = $3
	`

	result, err := d.querier.Exec(ctx, query, contactID, p.ID, p.Kind)
	if err != nil {
		d.logger.Error("Failed to set provider contact id", "payee_id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to set provider contact id: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no payout destination on file for payee %s", p.ID)
	}

	return nil
}
