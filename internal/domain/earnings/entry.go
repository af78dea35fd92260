package earnings

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidAmount         = errors.New("amount must be positive")
	ErrInvalidPayeeKind      = errors.New("payee kind must be practitioner or organization")
	ErrInvalidCurrencyFormat = errors.New("currency must be a 3-letter code")
)

// Status is the lifecycle state of an earning entry. Entries only move
// forward: pending -> available -> withdrawn.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAvailable Status = "available"
	StatusWithdrawn Status = "withdrawn"
)

// PayeeKind distinguishes the two payee classes sharing the ledger schema
type PayeeKind string

const (
	PayeeKindPractitioner PayeeKind = "practitioner"
	PayeeKindOrganization PayeeKind = "organization"
)

// Payee identifies an earnings recipient
type Payee struct {
	ID   uuid.UUID `json:"id"`
	Kind PayeeKind `json:"kind"`
}

// Entry represents money owed to a payee, usually tied to one captured
// payment. PaymentRef is empty for entries not linked to a payment;
// SettlementRef is set exactly once, when the entry is matched to a
// finalized settlement batch.
type Entry struct {
	ID             uuid.UUID  `json:"id"`
	Payee          Payee      `json:"payee"`
	PaymentRef     string     `json:"payment_ref,omitempty"`
	SettlementRef  string     `json:"settlement_ref,omitempty"`
	Amount         int64      `json:"amount"` // Stored in paise/minor units
	Currency       string     `json:"currency"`
	Status         Status     `json:"status"`
	PayoutDate     *time.Time `json:"payout_date,omitempty"`
	PayoutID       *uuid.UUID `json:"payout_id,omitempty"`
	SessionRef     string     `json:"session_ref,omitempty"`     // informational only
	AppointmentRef string     `json:"appointment_ref,omitempty"` // informational only
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewEntry creates a pending entry for a captured payment
func NewEntry(payee Payee, paymentRef string, amount int64, currency string) (*Entry, error) {
	if payee.Kind != PayeeKindPractitioner && payee.Kind != PayeeKindOrganization {
		return nil, ErrInvalidPayeeKind
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrencyFormat
	}

	now := time.Now().UTC()
	return &Entry{
		ID:         uuid.New(),
		Payee:      payee,
		PaymentRef: paymentRef,
		Amount:     amount,
		Currency:   currency,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Summary is a payee's balance breakdown, always derived by aggregation
// over the ledger, never stored.
type Summary struct {
	Available int64 `json:"available"`
	Pending   int64 `json:"pending"`
	Withdrawn int64 `json:"withdrawn"`
	Total     int64 `json:"total"`
}

// PayeeBalance pairs a payee with its current summary; used to list
// reconciliation and payout candidates.
type PayeeBalance struct {
	Payee   Payee   `json:"payee"`
	Summary Summary `json:"summary"`
}

// MonthlyRevenue is one month's settled earnings for a payee
type MonthlyRevenue struct {
	Month   time.Time `json:"month"`
	Revenue int64     `json:"revenue"`
}
