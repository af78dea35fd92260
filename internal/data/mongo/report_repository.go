package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/karunahealth/earnings-reconciler/internal/domain/reconcile"
)

const (
	// ReportCollectionName is the name of the reconciliation run collection in MongoDB
	ReportCollectionName = "recon_runs"
)

// ReportRepository implements the reconcile.ReportRepository interface for MongoDB
type ReportRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewReportRepository creates a new MongoDB reconciliation report repository
func NewReportRepository(logger *slog.Logger, db *mongo.Database) reconcile.ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores the audit record of a finished reconciliation pass
func (r *ReportRepository) Create(ctx context.Context, report *reconcile.Report) error {
	collection := r.db.Collection(ReportCollectionName)

	_, err := collection.InsertOne(ctx, report)
	if err != nil {
		r.logger.Error("Failed to store reconciliation report",
			"report_id", report.ID.String(),
			"trigger", string(report.Trigger),
			"error", err)
		return fmt.Errorf("failed to store reconciliation report: %w", err)
	}

	return nil
}

// ListRecent retrieves the most recent reconciliation reports, newest first
func (r *ReportRepository) ListRecent(ctx context.Context, limit int) ([]*reconcile.Report, error) {
	collection := r.db.Collection(ReportCollectionName)

	opts := options.Find().
		SetSort(bson.M{"started_at": -1}).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logger.Error("Failed to list reconciliation reports", "error", err)
		return nil, fmt.Errorf("failed to list reconciliation reports: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []*reconcile.Report
	if err := cursor.All(ctx, &reports); err != nil {
		r.logger.Error("Failed to decode reconciliation reports", "error", err)
		return nil, fmt.Errorf("failed to decode reconciliation reports: %w", err)
	}

	return reports, nil
}
