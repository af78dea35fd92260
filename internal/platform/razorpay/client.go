// Package razorpay adapts the Razorpay APIs to the settlement.QueryClient
// and payout.TransferProvider contracts. The SDK takes no context, so every
// call runs behind a bounded timeout; the recon enumeration additionally
// paces its page fetches to stay under the authority's rate limits.
package razorpay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/karunahealth/earnings-reconciler/internal/config"
	"github.com/karunahealth/earnings-reconciler/internal/domain/settlement"
)

// settlementAPI is the slice of the SDK's settlement resource we use.
// Narrowed to an interface so tests can substitute canned responses.
type settlementAPI interface {
	All(queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Fetch(settlementID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
	Reports(queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// paymentAPI is the slice of the SDK's payment resource we use
type paymentAPI interface {
	Fetch(paymentID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Client implements settlement.QueryClient over the Razorpay REST API
type Client struct {
	settlements settlementAPI
	payments    paymentAPI
	callTimeout time.Duration
	pageSize    int
	pacer       Pacer
	logger      *slog.Logger
}

// NewQueryClient builds a settlement query client from the configured
// API credentials.
func NewQueryClient(logger *slog.Logger, cfg *config.RazorpayConfig) *Client {
	sdk := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	return &Client{
		settlements: sdk.Settlement,
		payments:    sdk.Payment,
		callTimeout: cfg.CallTimeout,
		pageSize:    cfg.PageSize,
		pacer:       NewPacer(cfg.PageDelay),
		logger:      logger,
	}
}

// ListRecentBatches returns settlement batches newest first
func (c *Client) ListRecentBatches(ctx context.Context, count, skip int) ([]settlement.Batch, error) {
	body, err := c.call(ctx, func() (map[string]interface{}, error) {
		return c.settlements.All(map[string]interface{}{
			"count": count,
			"skip":  skip,
		}, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}

	items, err := collectionItems(body)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}

	batches := make([]settlement.Batch, 0, len(items))
	for _, item := range items {
		batch, err := parseBatch(item)
		if err != nil {
			c.logger.Warn("Skipping malformed settlement record", "error", err)
			continue
		}
		batches = append(batches, *batch)
	}

	return batches, nil
}

// GetBatch fetches one settlement batch by its authority ID
func (c *Client) GetBatch(ctx context.Context, id string) (*settlement.Batch, error) {
	body, err := c.call(ctx, func() (map[string]interface{}, error) {
		return c.settlements.Fetch(id, nil, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settlement %s: %w", id, err)
	}

	batch, err := parseBatch(body)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch settlement %s: %w", id, err)
	}

	return batch, nil
}

// ListBatchPaymentIDs enumerates the captured payment refs inside one
// settlement batch via the recon API. Recon is grouped by calendar day, so
// the batch's creation date selects the report; pages are fetched until a
// short page, pacing between calls.
func (c *Client) ListBatchPaymentIDs(ctx context.Context, batch settlement.Batch) ([]string, error) {
	day := batch.CreatedAt
	var refs []string

	for skip := 0; ; skip += c.pageSize {
		if skip > 0 {
			if err := c.pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}

		params := map[string]interface{}{
			"year":  day.Year(),
			"month": int(day.Month()),
			"day":   day.Day(),
			"count": c.pageSize,
			"skip":  skip,
		}
		body, err := c.call(ctx, func() (map[string]interface{}, error) {
			return c.settlements.Reports(params, nil)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch settlement recon page (skip=%d): %w", skip, err)
		}

		items, err := collectionItems(body)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch settlement recon page (skip=%d): %w", skip, err)
		}

		for _, item := range items {
			ref, ok := reconPaymentRef(item, batch.ID)
			if ok {
				refs = append(refs, ref)
			}
		}

		if len(items) < c.pageSize {
			break
		}
	}

	c.logger.Debug("Enumerated settlement payments",
		"settlement_id", batch.ID, "payment_count", len(refs))

	return refs, nil
}

// FetchPaymentStatus looks up one payment directly; the per-payment fallback
// when a payment ref appears in no recent settlement batch.
func (c *Client) FetchPaymentStatus(ctx context.Context, paymentRef string) (*settlement.PaymentStatus, error) {
	body, err := c.call(ctx, func() (map[string]interface{}, error) {
		return c.payments.Fetch(paymentRef, nil, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment %s: %w", paymentRef, err)
	}

	return parsePaymentStatus(paymentRef, body), nil
}

// call runs one SDK invocation under the configured timeout. The SDK blocks
// without a context, so the invocation is shunted to a goroutine and
// abandoned on expiry; its HTTP transport will eventually time out on its
// own.
func (c *Client) call(ctx context.Context, fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	type outcome struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		body, err := fn()
		done <- outcome{body: body, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		return out.body, out.err
	}
}
