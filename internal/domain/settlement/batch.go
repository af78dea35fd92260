// Package settlement models the external settlement authority's records as
// read-only inputs to reconciliation. The QueryClient is deliberately the
// only seam through which the authority is reached, so its API instability
// is absorbed in one place.
package settlement

import (
	"context"
	"time"
)

// BatchStatus is the authority's settlement batch state
type BatchStatus string

const (
	BatchStatusCreated   BatchStatus = "created"
	BatchStatusProcessed BatchStatus = "processed"
	BatchStatusSettled   BatchStatus = "settled"
)

// Finalized reports whether the batch is an authoritative source of truth
func (s BatchStatus) Finalized() bool {
	return s == BatchStatusProcessed || s == BatchStatusSettled
}

// Batch is the authority's grouping of captured payments moved into the
// business's bank account
type Batch struct {
	ID        string      `json:"id"`
	Status    BatchStatus `json:"status"`
	Amount    int64       `json:"amount"` // paise
	Fees      int64       `json:"fees"`
	Tax       int64       `json:"tax"`
	UTR       string      `json:"utr,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// PaymentStatus is the fallback per-payment lookup result. SettlementRef is
// empty while the payment has not been settled.
type PaymentStatus struct {
	PaymentRef    string `json:"payment_ref"`
	SettlementRef string `json:"settlement_ref,omitempty"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
}

// QueryClient wraps the authority's read APIs. Every call carries a bounded
// timeout and is independently retryable; a failure never aborts an entire
// reconciliation pass.
type QueryClient interface {
	ListRecentBatches(ctx context.Context, count, skip int) ([]Batch, error)
	GetBatch(ctx context.Context, id string) (*Batch, error)

	// ListBatchPaymentIDs enumerates the payment refs belonging to a batch.
	// An authority record with no linked payments yet yields an empty list,
	// not an error.
	ListBatchPaymentIDs(ctx context.Context, batch Batch) ([]string, error)

	FetchPaymentStatus(ctx context.Context, paymentRef string) (*PaymentStatus, error)
}
