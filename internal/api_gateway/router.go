package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/karunahealth/earnings-reconciler/internal/api_gateway/handler"
	"github.com/karunahealth/earnings-reconciler/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	earningsHandler *handler.EarningsHandler,
	reconciliationHandler *handler.ReconciliationHandler,
	payoutHandler *handler.PayoutHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Per-payee earnings, payout history and destination
		payees := v1.Group("/payees/:kind/:id")
		{
			payees.GET("/earnings", earningsHandler.ListEntries)
			payees.GET("/earnings/summary", earningsHandler.GetSummary)
			payees.GET("/revenue/monthly", earningsHandler.MonthlyRevenue)
			payees.GET("/payouts", payoutHandler.ListByPayee)
			payees.GET("/destination", payoutHandler.GetDestination)
			payees.PUT("/destination", payoutHandler.UpsertDestination)
		}

		// Payout candidates across all payees
		v1.GET("/earnings/candidates", earningsHandler.ListCandidates)

		// Operator-triggered reconciliation
		reconciliations := v1.Group("/reconciliations")
		{
			reconciliations.POST("", reconciliationHandler.Trigger)
			reconciliations.POST("/settlements/:id", reconciliationHandler.ProcessSettlement)
			reconciliations.GET("/reports", reconciliationHandler.ListReports)
		}

		// Payout operations
		payouts := v1.Group("/payouts")
		{
			payouts.POST("", payoutHandler.Create)
			payouts.POST("/batch", payoutHandler.CreateBatch)
			payouts.GET("/:id", payoutHandler.GetByID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
