package reconciler

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/karunahealth/earnings-reconciler/internal/domain/settlement"
)

func TestBuildMatchMap_DuplicatePaymentResolvesToLastBatch(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	earlier := settlement.Batch{ID: "setl_1", Status: settlement.BatchStatusProcessed, CreatedAt: time.Now().UTC().Add(-time.Hour)}
	later := settlement.Batch{ID: "setl_2", Status: settlement.BatchStatusProcessed, CreatedAt: time.Now().UTC()}

	client := &MockQueryClient{}
	client.On("ListBatchPaymentIDs", mock.Anything, earlier).
		Return([]string{"pay_dup", "pay_only_first"}, nil)
	client.On("ListBatchPaymentIDs", mock.Anything, later).
		Return([]string{"pay_dup"}, nil)

	matches, batchErrors := buildMatchMap(ctx, client, []settlement.Batch{earlier, later}, logger)
	require.Empty(t, batchErrors)

	assert.Equal(t, "setl_2", matches["pay_dup"].ID)
	assert.Equal(t, "setl_1", matches["pay_only_first"].ID)
}
