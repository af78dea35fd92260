package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/karunahealth/earnings-reconciler/internal/api_gateway/service"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payee"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payout"
)

// PayoutHandler handles HTTP requests for payout operations
type PayoutHandler struct {
	payoutService service.PayoutService
	logger        *slog.Logger
}

// NewPayoutHandler creates a new payout handler
func NewPayoutHandler(logger *slog.Logger, payoutService service.PayoutService) *PayoutHandler {
	return &PayoutHandler{
		payoutService: payoutService,
		logger:        logger,
	}
}

// Create pays out one payee's available balance
func (h *PayoutHandler) Create(c *gin.Context) {
	var req CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	payoutReq, err := mapCreatePayoutRequest(req)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	batch, err := h.payoutService.CreatePayout(c.Request.Context(), payoutReq)
	if err != nil {
		h.respondPayoutError(c, err, batch)
		return
	}

	RespondCreated(c, mapPayoutToResponse(batch))
}

// CreateBatch pays out several payees in one request, reporting per-payee
// outcomes instead of aborting on the first failure
func (h *PayoutHandler) CreateBatch(c *gin.Context) {
	var req CreatePayoutsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	payoutReqs := make([]service.PayoutRequest, 0, len(req.Requests))
	for _, r := range req.Requests {
		payoutReq, err := mapCreatePayoutRequest(r)
		if err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
		payoutReqs = append(payoutReqs, payoutReq)
	}

	outcomes := h.payoutService.CreatePayouts(c.Request.Context(), payoutReqs)

	resp := BatchPayoutResponse{Outcomes: make([]PayoutOutcomeResponse, 0, len(outcomes))}
	for _, o := range outcomes {
		out := PayoutOutcomeResponse{
			PayeeID:   o.Payee.ID.String(),
			PayeeKind: string(o.Payee.Kind),
		}
		if o.Batch != nil {
			mapped := mapPayoutToResponse(o.Batch)
			out.Payout = &mapped
		}
		if o.Err != nil {
			out.Error = o.Err.Error()
		}
		resp.Outcomes = append(resp.Outcomes, out)
	}

	RespondOK(c, resp)
}

// GetByID retrieves one payout batch
func (h *PayoutHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid payout ID")
		return
	}

	batch, err := h.payoutService.GetPayout(c.Request.Context(), id)
	if err != nil {
		var notFound payout.ErrBatchNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Payout not found")
			return
		}
		h.logger.Error("Failed to get payout", "payout_id", id.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapPayoutToResponse(batch))
}

// ListByPayee returns a payee's payout history, newest first
func (h *PayoutHandler) ListByPayee(c *gin.Context) {
	p, ok := parsePayee(c)
	if !ok {
		return
	}

	var params ListPayoutsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	batches, err := h.payoutService.ListPayouts(c.Request.Context(), p, params.Limit)
	if err != nil {
		h.logger.Error("Failed to list payouts", "payee_id", p.ID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	payouts := make([]PayoutResponse, 0, len(batches))
	for _, b := range batches {
		payouts = append(payouts, mapPayoutToResponse(b))
	}
	RespondOK(c, gin.H{"payouts": payouts})
}

// UpsertDestination registers or updates a payee's payout destination
func (h *PayoutHandler) UpsertDestination(c *gin.Context) {
	p, ok := parsePayee(c)
	if !ok {
		return
	}

	var req UpsertDestinationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	now := time.Now().UTC()
	dest := &payee.Destination{
		Payee:         p,
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		FundAccountID: req.FundAccountID,
		Verified:      req.Verified,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.payoutService.UpsertDestination(c.Request.Context(), dest); err != nil {
		h.logger.Error("Failed to upsert payout destination", "payee_id", p.ID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapDestinationToResponse(dest))
}

// GetDestination returns a payee's payout destination
func (h *PayoutHandler) GetDestination(c *gin.Context) {
	p, ok := parsePayee(c)
	if !ok {
		return
	}

	dest, err := h.payoutService.GetDestination(c.Request.Context(), p)
	if err != nil {
		h.logger.Error("Failed to get payout destination", "payee_id", p.ID.String(), "error", err)
		RespondInternalError(c)
		return
	}
	if dest == nil {
		RespondNotFound(c, "No payout destination on file")
		return
	}

	RespondOK(c, mapDestinationToResponse(dest))
}

// respondPayoutError maps the payout precondition and transfer errors to
// HTTP statuses
func (h *PayoutHandler) respondPayoutError(c *gin.Context, err error, batch *payout.Batch) {
	var (
		noDest      payout.ErrNoVerifiedDestination
		noBalance   payout.ErrNoAvailableBalance
		belowMin    payout.ErrBelowMinimum
		transferErr payout.ErrTransferFailed
	)
	switch {
	case errors.As(err, &noDest):
		RespondUnprocessable(c, err.Error())
	case errors.As(err, &noBalance):
		RespondUnprocessable(c, err.Error())
	case errors.As(err, &belowMin):
		RespondUnprocessable(c, err.Error())
	case errors.As(err, &transferErr):
		// The payout row exists in 'failed'; return it so the operator can
		// follow up
		h.logger.Error("External transfer failed", "payout_id", transferErr.PayoutID, "error", err)
		resp := gin.H{"error": err.Error()}
		if batch != nil {
			resp["payout"] = mapPayoutToResponse(batch)
		}
		RespondWithData(c, http.StatusBadGateway, resp)
	default:
		h.logger.Error("Failed to create payout", "error", err)
		RespondInternalError(c)
	}
}

func mapCreatePayoutRequest(req CreatePayoutRequest) (service.PayoutRequest, error) {
	id, err := uuid.Parse(req.PayeeID)
	if err != nil {
		return service.PayoutRequest{}, errors.New("invalid payee ID: " + req.PayeeID)
	}
	return service.PayoutRequest{
		Payee:  earnings.Payee{ID: id, Kind: earnings.PayeeKind(req.PayeeKind)},
		Method: payout.ParseTransferMethod(req.Method),
		Note:   req.Note,
	}, nil
}
