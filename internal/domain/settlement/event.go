package settlement

import (
	"errors"

	"github.com/google/uuid"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
)

// EventType enumerates the authority notifications the worker consumes
type EventType string

const (
	// EventSettlementProcessed announces a finalized settlement batch;
	// delivery is at-least-once, handlers must be idempotent.
	EventSettlementProcessed EventType = "settlement.processed"

	// EventPaymentCaptured announces a captured payment owed to a payee
	EventPaymentCaptured EventType = "payment.captured"
)

// CapturedPayment is the payload of a payment.captured event
type CapturedPayment struct {
	PaymentRef     string             `json:"payment_ref"`
	PayeeID        uuid.UUID          `json:"payee_id"`
	PayeeKind      earnings.PayeeKind `json:"payee_kind"`
	Amount         int64              `json:"amount"` // paise
	Currency       string             `json:"currency"`
	SessionRef     string             `json:"session_ref,omitempty"`
	AppointmentRef string             `json:"appointment_ref,omitempty"`
}

// Event is one inbound settlement-authority notification
type Event struct {
	Type          EventType        `json:"type"`
	SettlementID  string           `json:"settlement_id,omitempty"`
	Payment       *CapturedPayment `json:"payment,omitempty"`
	CorrelationID string           `json:"correlation_id,omitempty"`
}

// Validate checks that the event carries the payload its type requires
func (e *Event) Validate() error {
	switch e.Type {
	case EventSettlementProcessed:
		if e.SettlementID == "" {
			return errors.New("settlement.processed event missing settlement_id")
		}
	case EventPaymentCaptured:
		if e.Payment == nil || e.Payment.PaymentRef == "" {
			return errors.New("payment.captured event missing payment payload")
		}
	default:
		return errors.New("unknown event type: " + string(e.Type))
	}
	return nil
}
