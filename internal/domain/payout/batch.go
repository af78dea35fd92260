package payout

import (
	"time"

	"github.com/google/uuid"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
)

// Status is the lifecycle state of a payout batch. A batch whose external
// transfer failed after the record was created stays in 'failed' for
// operator follow-up; it is never retried automatically.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// TransferMethod selects the external transfer rail and its fee
type TransferMethod string

const (
	MethodIMPS TransferMethod = "IMPS" // cheap, fast; the default
	MethodNEFT TransferMethod = "NEFT" // cheap, slower
	MethodRTGS TransferMethod = "RTGS" // expensive, guaranteed same-day
)

// ParseTransferMethod normalizes a method string, defaulting to IMPS
func ParseTransferMethod(s string) TransferMethod {
	switch TransferMethod(s) {
	case MethodNEFT:
		return MethodNEFT
	case MethodRTGS:
		return MethodRTGS
	default:
		return MethodIMPS
	}
}

// Batch is one outbound payout consuming a payee's available earnings.
// EntryIDs is frozen at creation.
type Batch struct {
	ID          uuid.UUID      `json:"id"`
	Payee       earnings.Payee `json:"payee"`
	GrossAmount int64          `json:"gross_amount"` // paise
	Fee         FeeBreakdown   `json:"fee"`
	Currency    string         `json:"currency"`
	Method      TransferMethod `json:"transfer_method"`
	Status      Status         `json:"status"`
	TransferRef string         `json:"transfer_ref,omitempty"`
	EntryIDs    []uuid.UUID    `json:"entry_ids"`
	Note        string         `json:"note,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewBatch creates a processing payout batch for the given consumed entries
func NewBatch(p earnings.Payee, gross int64, fee FeeBreakdown, currency string, method TransferMethod, entryIDs []uuid.UUID, note string) *Batch {
	now := time.Now().UTC()
	return &Batch{
		ID:          uuid.New(),
		Payee:       p,
		GrossAmount: gross,
		Fee:         fee,
		Currency:    currency,
		Method:      method,
		Status:      StatusProcessing,
		EntryIDs:    entryIDs,
		Note:        note,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
