package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/karunahealth/earnings-reconciler/internal/api_gateway/middleware"
	"github.com/karunahealth/earnings-reconciler/internal/api_gateway/service"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/reconcile"
)

// ReconciliationHandler handles HTTP requests for operator-triggered
// reconciliation
type ReconciliationHandler struct {
	reconService service.ReconciliationService
	logger       *slog.Logger
}

// NewReconciliationHandler creates a new reconciliation handler
func NewReconciliationHandler(logger *slog.Logger, reconService service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconService: reconService,
		logger:       logger,
	}
}

// Trigger runs a manual reconciliation pass. The pass is synchronous; the
// response carries the run report.
func (h *ReconciliationHandler) Trigger(c *gin.Context) {
	var req TriggerReconciliationRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var scope reconcile.Scope
	if req.PayeeID != "" {
		if req.PayeeKind == "" {
			RespondBadRequest(c, "payee_kind is required when payee_id is set")
			return
		}
		id, err := uuid.Parse(req.PayeeID)
		if err != nil {
			RespondBadRequest(c, "Invalid payee ID")
			return
		}
		scope.Payee = &earnings.Payee{ID: id, Kind: earnings.PayeeKind(req.PayeeKind)}
	}

	correlationID := middleware.GetCorrelationID(c)
	report, err := h.reconService.TriggerReconciliation(c.Request.Context(), scope, correlationID)
	if err != nil {
		h.logger.Error("Manual reconciliation failed", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, report)
}

// ProcessSettlement reconciles exactly one settlement batch by its
// authority ID; the operator override when an event was lost.
func (h *ReconciliationHandler) ProcessSettlement(c *gin.Context) {
	settlementID := c.Param("id")
	if settlementID == "" {
		RespondBadRequest(c, "Settlement ID is required")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	report, err := h.reconService.ProcessSettlement(c.Request.Context(), settlementID, correlationID)
	if err != nil {
		h.logger.Error("Settlement reconciliation failed", "settlement_id", settlementID, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, report)
}

// ListReports returns recent reconciliation run reports, newest first
func (h *ReconciliationHandler) ListReports(c *gin.Context) {
	var params ListReportsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	reports, err := h.reconService.ListRunReports(c.Request.Context(), params.Limit)
	if err != nil {
		h.logger.Error("Failed to list run reports", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, gin.H{"reports": mapReportsToResponse(reports)})
}
