// Package consumer routes settlement-authority events from Kafka into the
// reconciliation engine and the earnings ledger.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/reconcile"
	"github.com/karunahealth/earnings-reconciler/internal/domain/settlement"
	"github.com/karunahealth/earnings-reconciler/internal/platform/messaging/producers"
)

// SettlementProcessor is the slice of the reconciliation engine the handler
// drives.
type SettlementProcessor interface {
	ProcessSettlement(ctx context.Context, settlementID, correlationID string) (*reconcile.Report, error)
}

// SettlementEventHandler consumes settlement.processed and payment.captured
// events. Delivery is at-least-once; both paths are idempotent, so a
// redelivered message is absorbed, never double-counted.
type SettlementEventHandler struct {
	engine SettlementProcessor
	ledger earnings.Repository
	dlq    producers.DeadLetterPublisher
	logger *slog.Logger
}

// NewSettlementEventHandler creates a handler for settlement-authority events
func NewSettlementEventHandler(logger *slog.Logger, engine SettlementProcessor, ledger earnings.Repository, dlq producers.DeadLetterPublisher) *SettlementEventHandler {
	return &SettlementEventHandler{
		engine: engine,
		ledger: ledger,
		dlq:    dlq,
		logger: logger,
	}
}

// Handle processes one Kafka message. Malformed payloads go to the DLQ and
// are acknowledged; transient failures return an error so the offset stays
// uncommitted and the message is redelivered.
func (h *SettlementEventHandler) Handle(ctx context.Context, key []byte, value []byte) error {
	var event settlement.Event
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Error("Failed to decode settlement event", "key", string(key), "error", err)
		return h.sendToDLQ(ctx, key, value, fmt.Sprintf("unmarshal failed: %v", err))
	}

	if err := event.Validate(); err != nil {
		h.logger.Error("Invalid settlement event", "key", string(key), "error", err)
		return h.sendToDLQ(ctx, key, value, err.Error())
	}

	switch event.Type {
	case settlement.EventSettlementProcessed:
		return h.handleSettlementProcessed(ctx, &event)
	case settlement.EventPaymentCaptured:
		return h.handlePaymentCaptured(ctx, &event)
	default:
		// Validate rejects unknown types; kept for exhaustiveness
		return h.sendToDLQ(ctx, key, value, "unknown event type: "+string(event.Type))
	}
}

func (h *SettlementEventHandler) handleSettlementProcessed(ctx context.Context, event *settlement.Event) error {
	_, err := h.engine.ProcessSettlement(ctx, event.SettlementID, event.CorrelationID)
	if err != nil {
		// Transient: leave the offset uncommitted, the broker redelivers
		return fmt.Errorf("failed to process settlement %s: %w", event.SettlementID, err)
	}
	return nil
}

func (h *SettlementEventHandler) handlePaymentCaptured(ctx context.Context, event *settlement.Event) error {
	p := event.Payment
	entry, err := earnings.NewEntry(
		earnings.Payee{ID: p.PayeeID, Kind: p.PayeeKind},
		p.PaymentRef, p.Amount, p.Currency,
	)
	if err != nil {
		h.logger.Error("Rejected captured payment", "payment_ref", p.PaymentRef, "error", err)
		payload, _ := json.Marshal(event)
		return h.sendToDLQ(ctx, []byte(p.PaymentRef), payload, err.Error())
	}
	entry.SessionRef = p.SessionRef
	entry.AppointmentRef = p.AppointmentRef

	if err := h.ledger.Create(ctx, entry); err != nil {
		var dup earnings.ErrDuplicatePaymentRef
		if errors.As(err, &dup) {
			h.logger.Info("Captured payment already recorded, acknowledging redelivery",
				"payment_ref", p.PaymentRef)
			return nil
		}
		return fmt.Errorf("failed to record captured payment %s: %w", p.PaymentRef, err)
	}

	h.logger.Info("Recorded pending earning",
		"payment_ref", p.PaymentRef,
		"payee_id", p.PayeeID.String(),
		"amount", p.Amount,
	)
	return nil
}

// sendToDLQ parks a poison message. A DLQ publish failure is returned so the
// message is redelivered rather than silently dropped.
func (h *SettlementEventHandler) sendToDLQ(ctx context.Context, key []byte, value []byte, reason string) error {
	if h.dlq == nil {
		h.logger.Warn("DLQ disabled, dropping poison message", "key", string(key), "reason", reason)
		return nil
	}
	if err := h.dlq.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		return fmt.Errorf("failed to publish poison message to DLQ: %w", err)
	}
	return nil
}
