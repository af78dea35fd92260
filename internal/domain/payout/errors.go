package payout

import (
	"fmt"

	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
)

// Precondition errors are structured and payee-identified so that a batch
// payout request can report one payee's failure without aborting the rest.

// ErrNoVerifiedDestination indicates the payee has no verified payout
// destination on file
type ErrNoVerifiedDestination struct {
	Payee earnings.Payee
}

func (e ErrNoVerifiedDestination) Error() string {
	return fmt.Sprintf("no verified payout destination for %s %s", e.Payee.Kind, e.Payee.ID)
}

// ErrNoAvailableBalance indicates the payee has nothing to pay out
type ErrNoAvailableBalance struct {
	Payee earnings.Payee
}

func (e ErrNoAvailableBalance) Error() string {
	return fmt.Sprintf("no available balance for %s %s", e.Payee.Kind, e.Payee.ID)
}

// ErrBelowMinimum indicates the computed net amount is under the configured
// payout threshold
type ErrBelowMinimum struct {
	Payee   earnings.Payee
	Net     int64
	Minimum int64
}

func (e ErrBelowMinimum) Error() string {
	return fmt.Sprintf("net amount %d below minimum payout %d for %s %s", e.Net, e.Minimum, e.Payee.Kind, e.Payee.ID)
}

// ErrTransferFailed indicates the external transfer request failed after the
// payout record was already created; the batch requires operator follow-up.
type ErrTransferFailed struct {
	PayoutID string
	Cause    error
}

func (e ErrTransferFailed) Error() string {
	return fmt.Sprintf("external transfer failed for payout %s: %v", e.PayoutID, e.Cause)
}

func (e ErrTransferFailed) Unwrap() error { return e.Cause }
