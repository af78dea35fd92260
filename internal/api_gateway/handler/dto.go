package handler

import (
	"time"

	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payee"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payout"
	"github.com/karunahealth/earnings-reconciler/internal/domain/reconcile"
)

// ListEntriesParams narrows an earnings listing
type ListEntriesParams struct {
	Status    string `form:"status" binding:"omitempty,oneof=pending available withdrawn"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Limit     int    `form:"limit,default=50" binding:"min=1,max=500"`
}

// MonthlyRevenueParams selects the aggregation window
type MonthlyRevenueParams struct {
	Months int `form:"months,default=6" binding:"min=1,max=36"`
}

// ListReportsParams limits a run-report listing; zero defers to the
// configured default page size
type ListReportsParams struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// ListPayoutsParams limits a payout history listing
type ListPayoutsParams struct {
	Limit int `form:"limit,default=20" binding:"min=1,max=200"`
}

// TriggerReconciliationRequest optionally scopes a manual pass to one payee
type TriggerReconciliationRequest struct {
	PayeeID   string `json:"payee_id" binding:"omitempty,uuid"`
	PayeeKind string `json:"payee_kind" binding:"omitempty,oneof=practitioner organization"`
}

// CreatePayoutRequest represents a request to pay out one payee
type CreatePayoutRequest struct {
	PayeeID   string `json:"payee_id" binding:"required,uuid"`
	PayeeKind string `json:"payee_kind" binding:"required,oneof=practitioner organization"`
	Method    string `json:"method" binding:"omitempty,oneof=IMPS NEFT RTGS"`
	Note      string `json:"note,omitempty"`
}

// CreatePayoutsRequest represents a batch payout request
type CreatePayoutsRequest struct {
	Requests []CreatePayoutRequest `json:"requests" binding:"required,min=1,max=100,dive"`
}

// UpsertDestinationRequest registers or updates a payee's payout destination
type UpsertDestinationRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"omitempty,email"`
	Phone         string `json:"phone,omitempty"`
	FundAccountID string `json:"fund_account_id,omitempty"`
	Verified      bool   `json:"verified"`
}

// EntryResponse represents an earning entry in API responses
type EntryResponse struct {
	ID             string `json:"id"`
	PayeeID        string `json:"payee_id"`
	PayeeKind      string `json:"payee_kind"`
	PaymentRef     string `json:"payment_ref,omitempty"`
	SettlementRef  string `json:"settlement_ref,omitempty"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	PayoutDate     string `json:"payout_date,omitempty"`
	PayoutID       string `json:"payout_id,omitempty"`
	SessionRef     string `json:"session_ref,omitempty"`
	AppointmentRef string `json:"appointment_ref,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// EntryListResponse represents a list of earning entries in API responses
type EntryListResponse struct {
	Entries []EntryResponse `json:"entries"`
}

// SummaryResponse represents a payee's balance breakdown in API responses
type SummaryResponse struct {
	PayeeID   string `json:"payee_id"`
	PayeeKind string `json:"payee_kind"`
	Available int64  `json:"available"`
	Pending   int64  `json:"pending"`
	Withdrawn int64  `json:"withdrawn"`
	Total     int64  `json:"total"`
}

// PayoutResponse represents a payout batch in API responses
type PayoutResponse struct {
	ID          string   `json:"id"`
	PayeeID     string   `json:"payee_id"`
	PayeeKind   string   `json:"payee_kind"`
	GrossAmount int64    `json:"gross_amount"`
	BaseFee     int64    `json:"base_fee"`
	TaxOnFee    int64    `json:"tax_on_fee"`
	TotalFee    int64    `json:"total_fee"`
	NetAmount   int64    `json:"net_amount"`
	Currency    string   `json:"currency"`
	Method      string   `json:"transfer_method"`
	Status      string   `json:"status"`
	TransferRef string   `json:"transfer_ref,omitempty"`
	EntryIDs    []string `json:"entry_ids"`
	Note        string   `json:"note,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// PayoutOutcomeResponse represents one payee's result in a batch payout
type PayoutOutcomeResponse struct {
	PayeeID   string          `json:"payee_id"`
	PayeeKind string          `json:"payee_kind"`
	Payout    *PayoutResponse `json:"payout,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// BatchPayoutResponse represents a batch payout run in API responses
type BatchPayoutResponse struct {
	Outcomes []PayoutOutcomeResponse `json:"outcomes"`
}

// DestinationResponse represents a payout destination in API responses
type DestinationResponse struct {
	PayeeID           string `json:"payee_id"`
	PayeeKind         string `json:"payee_kind"`
	Name              string `json:"name"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	ProviderContactID string `json:"provider_contact_id,omitempty"`
	FundAccountID     string `json:"fund_account_id,omitempty"`
	Verified          bool   `json:"verified"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

func mapEntryToResponse(e *earnings.Entry) EntryResponse {
	resp := EntryResponse{
		ID:             e.ID.String(),
		PayeeID:        e.Payee.ID.String(),
		PayeeKind:      string(e.Payee.Kind),
		PaymentRef:     e.PaymentRef,
		SettlementRef:  e.SettlementRef,
		Amount:         e.Amount,
		Currency:       e.Currency,
		Status:         string(e.Status),
		SessionRef:     e.SessionRef,
		AppointmentRef: e.AppointmentRef,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.Format(time.RFC3339),
	}
	if e.PayoutDate != nil {
		resp.PayoutDate = e.PayoutDate.Format(time.RFC3339)
	}
	if e.PayoutID != nil {
		resp.PayoutID = e.PayoutID.String()
	}
	return resp
}

func mapEntriesToResponse(entries []*earnings.Entry) EntryListResponse {
	resp := EntryListResponse{Entries: make([]EntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, mapEntryToResponse(e))
	}
	return resp
}

func mapSummaryToResponse(p earnings.Payee, s *earnings.Summary) SummaryResponse {
	return SummaryResponse{
		PayeeID:   p.ID.String(),
		PayeeKind: string(p.Kind),
		Available: s.Available,
		Pending:   s.Pending,
		Withdrawn: s.Withdrawn,
		Total:     s.Total,
	}
}

func mapPayoutToResponse(b *payout.Batch) PayoutResponse {
	entryIDs := make([]string, 0, len(b.EntryIDs))
	for _, id := range b.EntryIDs {
		entryIDs = append(entryIDs, id.String())
	}
	return PayoutResponse{
		ID:          b.ID.String(),
		PayeeID:     b.Payee.ID.String(),
		PayeeKind:   string(b.Payee.Kind),
		GrossAmount: b.GrossAmount,
		BaseFee:     b.Fee.BaseFee,
		TaxOnFee:    b.Fee.TaxOnFee,
		TotalFee:    b.Fee.TotalFee,
		NetAmount:   b.Fee.NetAmount,
		Currency:    b.Currency,
		Method:      string(b.Method),
		Status:      string(b.Status),
		TransferRef: b.TransferRef,
		EntryIDs:    entryIDs,
		Note:        b.Note,
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   b.UpdatedAt.Format(time.RFC3339),
	}
}

func mapDestinationToResponse(d *payee.Destination) DestinationResponse {
	return DestinationResponse{
		PayeeID:           d.Payee.ID.String(),
		PayeeKind:         string(d.Payee.Kind),
		Name:              d.Name,
		Email:             d.Email,
		Phone:             d.Phone,
		ProviderContactID: d.ProviderContactID,
		FundAccountID:     d.FundAccountID,
		Verified:          d.Verified,
		CreatedAt:         d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         d.UpdatedAt.Format(time.RFC3339),
	}
}

// Run reports serialize as-is; the stored document already is the audit
// record the operator wants to see.
func mapReportsToResponse(reports []*reconcile.Report) []*reconcile.Report {
	if reports == nil {
		return []*reconcile.Report{}
	}
	return reports
}
