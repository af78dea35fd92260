package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/karunahealth/earnings-reconciler/internal/api_gateway/service"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
)

// EarningsHandler handles HTTP requests for earnings read operations
type EarningsHandler struct {
	earningsService service.EarningsService
	logger          *slog.Logger
}

// NewEarningsHandler creates a new earnings handler
func NewEarningsHandler(logger *slog.Logger, earningsService service.EarningsService) *EarningsHandler {
	return &EarningsHandler{
		earningsService: earningsService,
		logger:          logger,
	}
}

// parsePayee extracts the payee identity from the :kind/:id path segments
func parsePayee(c *gin.Context) (earnings.Payee, bool) {
	kind := earnings.PayeeKind(c.Param("kind"))
	if kind != earnings.PayeeKindPractitioner && kind != earnings.PayeeKindOrganization {
		RespondBadRequest(c, "Invalid payee kind; must be practitioner or organization")
		return earnings.Payee{}, false
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid payee ID")
		return earnings.Payee{}, false
	}

	return earnings.Payee{ID: id, Kind: kind}, true
}

// GetSummary returns a payee's balance breakdown
func (h *EarningsHandler) GetSummary(c *gin.Context) {
	p, ok := parsePayee(c)
	if !ok {
		return
	}

	summary, err := h.earningsService.GetSummary(c.Request.Context(), p)
	if err != nil {
		h.logger.Error("Failed to get earnings summary", "payee_id", p.ID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapSummaryToResponse(p, summary))
}

// ListEntries returns a payee's ledger entries narrowed by the query filter
func (h *EarningsHandler) ListEntries(c *gin.Context) {
	p, ok := parsePayee(c)
	if !ok {
		return
	}

	var params ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := earnings.ListFilter{
		Status: earnings.Status(params.Status),
		Limit:  params.Limit,
	}
	if params.StartDate != "" {
		start, _ := time.Parse("2006-01-02", params.StartDate)
		filter.StartDate = &start
	}
	if params.EndDate != "" {
		// End of day, inclusive
		end, _ := time.Parse("2006-01-02", params.EndDate)
		end = end.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &end
	}

	entries, err := h.earningsService.ListEntries(c.Request.Context(), p, filter)
	if err != nil {
		h.logger.Error("Failed to list earnings", "payee_id", p.ID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapEntriesToResponse(entries))
}

// ListCandidates returns every payee with earnings on record plus payout
// eligibility
func (h *EarningsHandler) ListCandidates(c *gin.Context) {
	candidates, err := h.earningsService.ListCandidates(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list payout candidates", "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, gin.H{"candidates": candidates})
}

// MonthlyRevenue returns a payee's settled earnings aggregated per month
func (h *EarningsHandler) MonthlyRevenue(c *gin.Context) {
	p, ok := parsePayee(c)
	if !ok {
		return
	}

	var params MonthlyRevenueParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	months, err := h.earningsService.MonthlyRevenue(c.Request.Context(), p, params.Months)
	if err != nil {
		h.logger.Error("Failed to aggregate monthly revenue", "payee_id", p.ID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, gin.H{"months": months})
}
