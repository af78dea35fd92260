package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
)

// Trigger identifies which entry point started a reconciliation pass
type Trigger string

const (
	TriggerEvent  Trigger = "event"
	TriggerSweep  Trigger = "sweep"
	TriggerManual Trigger = "manual"
)

// Scope selects the payees a pass covers; a nil Payee means all payees with
// pending earnings.
type Scope struct {
	Payee *earnings.Payee `json:"payee,omitempty" bson:"payee,omitempty"`
}

// All reports whether the scope covers every payee
func (s Scope) All() bool { return s.Payee == nil }

// PayeeResult is one payee's slice of a pass outcome
type PayeeResult struct {
	Payee   earnings.Payee `json:"payee" bson:"payee"`
	Synced  int            `json:"synced" bson:"synced"`
	Skipped int            `json:"skipped" bson:"skipped"`
	Errors  int            `json:"errors" bson:"errors"`
	Pending int            `json:"pending" bson:"pending"`
}

// EntryError records a failed per-entry transition with enough context for
// manual replay
type EntryError struct {
	EntryID    uuid.UUID `json:"entry_id" bson:"entry_id"`
	PaymentRef string    `json:"payment_ref" bson:"payment_ref"`
	Message    string    `json:"message" bson:"message"`
}

// BatchError records a settlement batch whose payment enumeration failed;
// entries matchable via other batches are unaffected.
type BatchError struct {
	BatchID string `json:"batch_id" bson:"batch_id"`
	Message string `json:"message" bson:"message"`
}

// Result is the outcome of one reconciliation pass. Batch errors are counted
// separately from entry errors so an operator can tell "not yet settled"
// apart from "settlement lookup broken".
type Result struct {
	Synced      int           `json:"synced" bson:"synced"`
	Skipped     int           `json:"skipped" bson:"skipped"`
	Pending     int           `json:"pending" bson:"pending"`
	Errors      int           `json:"errors" bson:"errors"`
	BatchErrors int           `json:"batch_errors" bson:"batch_errors"`
	PerPayee    []PayeeResult `json:"per_payee,omitempty" bson:"per_payee,omitempty"`
	EntryErrors []EntryError  `json:"entry_errors,omitempty" bson:"entry_errors,omitempty"`
	BatchDetail []BatchError  `json:"batch_detail,omitempty" bson:"batch_detail,omitempty"`
}

// Report is the durable audit record of one pass
type Report struct {
	ID            uuid.UUID `json:"id" bson:"_id"`
	Trigger       Trigger   `json:"trigger" bson:"trigger"`
	Scope         Scope     `json:"scope" bson:"scope"`
	SettlementRef string    `json:"settlement_ref,omitempty" bson:"settlement_ref,omitempty"`
	Result        Result    `json:"result" bson:"result"`
	CorrelationID string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	StartedAt     time.Time `json:"started_at" bson:"started_at"`
	FinishedAt    time.Time `json:"finished_at" bson:"finished_at"`
}

// ReportRepository persists pass audit records
type ReportRepository interface {
	Create(ctx context.Context, report *Report) error
	ListRecent(ctx context.Context, limit int) ([]*Report, error)
}
