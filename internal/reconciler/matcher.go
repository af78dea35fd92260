// Package reconciler implements the settlement reconciliation engine: it
// matches pending earnings against the authority's settlement records and
// advances the matched entries, one conditional write per entry.
package reconciler

import (
	"context"
	"log/slog"

	"github.com/karunahealth/earnings-reconciler/internal/domain/reconcile"
	"github.com/karunahealth/earnings-reconciler/internal/domain/settlement"
)

// MatchMap maps payment refs to the settlement batch that contains them
type MatchMap map[string]settlement.Batch

// buildMatchMap enumerates the payments of each finalized settlement batch
// into one lookup table. A batch whose enumeration fails is recorded and
// skipped; matches found through the other batches are unaffected.
func buildMatchMap(ctx context.Context, client settlement.QueryClient, batches []settlement.Batch, logger *slog.Logger) (MatchMap, []reconcile.BatchError) {
	matches := make(MatchMap)
	var batchErrors []reconcile.BatchError

	for _, batch := range batches {
		if !batch.Status.Finalized() {
			continue
		}

		refs, err := client.ListBatchPaymentIDs(ctx, batch)
		if err != nil {
			logger.Error("Failed to enumerate settlement payments",
				"settlement_id", batch.ID, "error", err)
			batchErrors = append(batchErrors, reconcile.BatchError{
				BatchID: batch.ID,
				Message: err.Error(),
			})
			continue
		}

		for _, ref := range refs {
			// A payment reported by more than one finalized batch resolves
			// to the batch enumerated last.
			matches[ref] = batch
		}
	}

	return matches, batchErrors
}
