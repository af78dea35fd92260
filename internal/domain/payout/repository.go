package payout

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payee"
)

// Repository manages payout batch persistence
type Repository interface {
	Create(ctx context.Context, batch *Batch) error
	GetByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	ListByPayee(ctx context.Context, p earnings.Payee, limit int) ([]*Batch, error)
	List(ctx context.Context, status Status, limit int) ([]*Batch, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, transferRef string) error
	WithTx(tx pgx.Tx) Repository
}

// ErrBatchNotFound indicates a missing payout batch
type ErrBatchNotFound struct {
	BatchID uuid.UUID
}

func (e ErrBatchNotFound) Error() string {
	return "payout batch not found: " + e.BatchID.String()
}

// TransferRequest is what the external transfer rail needs to move money
type TransferRequest struct {
	ContactID     string
	FundAccountID string
	Amount        int64 // paise
	Currency      string
	Method        TransferMethod
	ReferenceID   string
	Notes         map[string]string
}

// TransferProvider is the outbound side of the external settlement
// authority: contact handles and money transfers. Implementations must not
// retry a transfer with the same parameters on failure.
type TransferProvider interface {
	CreateContact(ctx context.Context, dest *payee.Destination) (string, error)
	CreateTransfer(ctx context.Context, req TransferRequest) (string, error)
}
