package earnings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListFilter narrows entry listings
type ListFilter struct {
	Status    Status
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// Repository manages earning entry persistence.
//
// The transition methods are conditional writes: they only touch rows still
// in 'pending' (or 'available' for MarkWithdrawn) and report how many rows
// actually changed. A zero-row update is not an error; it means a concurrent
// pass already handled the entry, or the payment ref is unknown.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	GetByPaymentRef(ctx context.Context, paymentRef string) (*Entry, error)
	List(ctx context.Context, payee Payee, filter ListFilter) ([]*Entry, error)

	// ListPending returns all pending entries, optionally scoped to one payee
	ListPending(ctx context.Context, payee *Payee) ([]*Entry, error)

	// ListAvailable returns entries consumable by a payout, oldest first
	ListAvailable(ctx context.Context, payee Payee) ([]*Entry, error)

	// TransitionToAvailable conditionally flips one pending entry to
	// available, recording the settlement ref and payout date. Returns
	// (nil, nil) when no pending row matched the payment ref.
	TransitionToAvailable(ctx context.Context, paymentRef, settlementRef string, payoutDate time.Time) (*Entry, error)

	// TransitionManyToAvailable is the batched form; rows no longer pending
	// are silently skipped and only the updated rows are returned.
	TransitionManyToAvailable(ctx context.Context, paymentRefs []string, settlementRef string, payoutDate time.Time) ([]*Entry, error)

	// MarkWithdrawn consumes available entries for a payout. Only rows still
	// 'available' are updated; returns the number of rows changed.
	MarkWithdrawn(ctx context.Context, ids []uuid.UUID, payoutID uuid.UUID) (int64, error)

	// Summarize aggregates a payee's balances directly from the ledger
	Summarize(ctx context.Context, payee Payee) (*Summary, error)

	// ListPayeesWithPending returns balances for every payee holding at
	// least one pending entry; input to the periodic sweep.
	ListPayeesWithPending(ctx context.Context) ([]*PayeeBalance, error)

	// ListPayeesWithBalance returns balances for every payee with any
	// earnings on record; input to payout candidate listings.
	ListPayeesWithBalance(ctx context.Context) ([]*PayeeBalance, error)

	RevenueByMonth(ctx context.Context, payee Payee, months int) ([]*MonthlyRevenue, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates a missing ledger entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "earning entry not found: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}

// ErrDuplicatePaymentRef indicates a payment ref uniqueness violation
type ErrDuplicatePaymentRef struct {
	PaymentRef string
}

func (e ErrDuplicatePaymentRef) Error() string {
	return "earning entry already recorded for payment: " + e.PaymentRef
}
