package razorpay

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karunahealth/earnings-reconciler/internal/domain/settlement"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type fakeSettlementAPI struct {
	allResponse   map[string]interface{}
	allErr        error
	fetchResponse map[string]interface{}
	fetchErr      error
	reconPages    []map[string]interface{}
	reconErr      error
	reconCalls    int
	block         bool
}

func (f *fakeSettlementAPI) All(queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	if f.block {
		select {} // never returns; exercises the call timeout
	}
	return f.allResponse, f.allErr
}

func (f *fakeSettlementAPI) Fetch(settlementID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	return f.fetchResponse, f.fetchErr
}

func (f *fakeSettlementAPI) Reports(queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	if f.reconErr != nil {
		return nil, f.reconErr
	}
	page := f.reconPages[f.reconCalls]
	f.reconCalls++
	return page, nil
}

type fakePaymentAPI struct {
	response map[string]interface{}
	err      error
}

func (f *fakePaymentAPI) Fetch(paymentID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error) {
	return f.response, f.err
}

func newTestClient(s settlementAPI, p paymentAPI, pageSize int) *Client {
	return &Client{
		settlements: s,
		payments:    p,
		callTimeout: 2 * time.Second,
		pageSize:    pageSize,
		pacer:       NewPacer(0),
		logger:      newTestLogger(),
	}
}

func settlementItem(id string, status string, createdAt int64) map[string]interface{} {
	return map[string]interface{}{
		"id":         id,
		"entity":     "settlement",
		"status":     status,
		"amount":     float64(500000),
		"fees":       float64(1180),
		"tax":        float64(180),
		"utr":        "UTR123",
		"created_at": float64(createdAt),
	}
}

func TestClient_ListRecentBatches(t *testing.T) {
	ctx := context.Background()

	t.Run("parses collection", func(t *testing.T) {
		api := &fakeSettlementAPI{allResponse: map[string]interface{}{
			"entity": "collection",
			"items": []interface{}{
				settlementItem("setl_1", "processed", 1756300000),
				settlementItem("setl_2", "created", 1756200000),
			},
		}}
		client := newTestClient(api, &fakePaymentAPI{}, 1000)

		batches, err := client.ListRecentBatches(ctx, 20, 0)
		require.NoError(t, err)
		require.Len(t, batches, 2)
		assert.Equal(t, "setl_1", batches[0].ID)
		assert.Equal(t, settlement.BatchStatusProcessed, batches[0].Status)
		assert.Equal(t, int64(500000), batches[0].Amount)
		assert.True(t, batches[0].Status.Finalized())
		assert.False(t, batches[1].Status.Finalized())
	})

	t.Run("skips malformed records", func(t *testing.T) {
		api := &fakeSettlementAPI{allResponse: map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"entity": "settlement"}, // no id
				settlementItem("setl_ok", "settled", 1756300000),
			},
		}}
		client := newTestClient(api, &fakePaymentAPI{}, 1000)

		batches, err := client.ListRecentBatches(ctx, 20, 0)
		require.NoError(t, err)
		require.Len(t, batches, 1)
		assert.Equal(t, "setl_ok", batches[0].ID)
	})

	t.Run("api error", func(t *testing.T) {
		api := &fakeSettlementAPI{allErr: errors.New("unauthorized")}
		client := newTestClient(api, &fakePaymentAPI{}, 1000)

		_, err := client.ListRecentBatches(ctx, 20, 0)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list settlements")
	})

	t.Run("call timeout", func(t *testing.T) {
		api := &fakeSettlementAPI{block: true}
		client := newTestClient(api, &fakePaymentAPI{}, 1000)
		client.callTimeout = 20 * time.Millisecond

		_, err := client.ListRecentBatches(ctx, 20, 0)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestClient_GetBatch(t *testing.T) {
	ctx := context.Background()

	api := &fakeSettlementAPI{fetchResponse: settlementItem("setl_9", "processed", 1756300000)}
	client := newTestClient(api, &fakePaymentAPI{}, 1000)

	batch, err := client.GetBatch(ctx, "setl_9")
	require.NoError(t, err)
	assert.Equal(t, "setl_9", batch.ID)
	assert.Equal(t, "UTR123", batch.UTR)
	assert.Equal(t, time.Unix(1756300000, 0).UTC(), batch.CreatedAt)
}

func TestClient_ListBatchPaymentIDs(t *testing.T) {
	ctx := context.Background()
	batch := settlement.Batch{ID: "setl_1", CreatedAt: time.Unix(1756300000, 0).UTC()}

	reconRow := func(entityID, settlementID string) map[string]interface{} {
		return map[string]interface{}{
			"entity_id":     entityID,
			"type":          "payment",
			"settlement_id": settlementID,
		}
	}

	t.Run("filters to the batch and paginates", func(t *testing.T) {
		api := &fakeSettlementAPI{reconPages: []map[string]interface{}{
			{"items": []interface{}{
				reconRow("pay_a", "setl_1"),
				reconRow("pay_other", "setl_2"),
			}},
			{"items": []interface{}{
				reconRow("pay_b", "setl_1"),
			}},
		}}
		client := newTestClient(api, &fakePaymentAPI{}, 2)

		refs, err := client.ListBatchPaymentIDs(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, []string{"pay_a", "pay_b"}, refs)
		assert.Equal(t, 2, api.reconCalls)
	})

	t.Run("legacy payment_id field", func(t *testing.T) {
		api := &fakeSettlementAPI{reconPages: []map[string]interface{}{
			{"items": []interface{}{
				map[string]interface{}{"payment_id": "pay_legacy", "settlement_id": "setl_1"},
			}},
		}}
		client := newTestClient(api, &fakePaymentAPI{}, 1000)

		refs, err := client.ListBatchPaymentIDs(ctx, batch)
		require.NoError(t, err)
		assert.Equal(t, []string{"pay_legacy"}, refs)
	})

	t.Run("non-payment rows excluded", func(t *testing.T) {
		api := &fakeSettlementAPI{reconPages: []map[string]interface{}{
			{"items": []interface{}{
				map[string]interface{}{"entity_id": "rfnd_1", "type": "refund", "settlement_id": "setl_1"},
			}},
		}}
		client := newTestClient(api, &fakePaymentAPI{}, 1000)

		refs, err := client.ListBatchPaymentIDs(ctx, batch)
		require.NoError(t, err)
		assert.Empty(t, refs)
	})

	t.Run("recon failure surfaces", func(t *testing.T) {
		api := &fakeSettlementAPI{reconErr: errors.New("recon unavailable")}
		client := newTestClient(api, &fakePaymentAPI{}, 1000)

		_, err := client.ListBatchPaymentIDs(ctx, batch)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "recon")
	})
}

func TestClient_FetchPaymentStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("settled payment", func(t *testing.T) {
		api := &fakePaymentAPI{response: map[string]interface{}{
			"id":            "pay_1",
			"status":        "captured",
			"amount":        float64(120000),
			"settlement_id": "setl_7",
		}}
		client := newTestClient(&fakeSettlementAPI{}, api, 1000)

		status, err := client.FetchPaymentStatus(ctx, "pay_1")
		require.NoError(t, err)
		assert.Equal(t, "setl_7", status.SettlementRef)
		assert.Equal(t, "captured", status.Status)
		assert.Equal(t, int64(120000), status.Amount)
	})

	t.Run("unsettled payment has empty settlement ref", func(t *testing.T) {
		api := &fakePaymentAPI{response: map[string]interface{}{
			"id":            "pay_2",
			"status":        "captured",
			"amount":        float64(50000),
			"settlement_id": nil,
		}}
		client := newTestClient(&fakeSettlementAPI{}, api, 1000)

		status, err := client.FetchPaymentStatus(ctx, "pay_2")
		require.NoError(t, err)
		assert.Empty(t, status.SettlementRef)
	})
}

func TestPacer_Wait(t *testing.T) {
	t.Run("zero delay never waits", func(t *testing.T) {
		assert.NoError(t, NewPacer(0).Wait(context.Background()))
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewPacer(time.Minute).Wait(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
