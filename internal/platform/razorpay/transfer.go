package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/karunahealth/earnings-reconciler/internal/config"
	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payee"
	"github.com/karunahealth/earnings-reconciler/internal/domain/payout"
)

const razorpayXBaseURL = "https://api.razorpay.com/v1"

// TransferClient implements payout.TransferProvider against the RazorpayX
// payout API. The SDK does not cover these endpoints, so this client speaks
// HTTP directly with the same credentials.
//
// Transfers are never retried here: RazorpayX payouts are not idempotent
// without an idempotency key per attempt, and a duplicate would move money
// twice. A failed transfer surfaces to the caller, which marks the batch
// failed for operator follow-up.
type TransferClient struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	accountNo  string
	logger     *slog.Logger
}

// NewTransferClient builds an outbound transfer client from the configured
// API credentials.
func NewTransferClient(logger *slog.Logger, cfg *config.RazorpayConfig) *TransferClient {
	return &TransferClient{
		httpClient: &http.Client{Timeout: cfg.CallTimeout},
		baseURL:    razorpayXBaseURL,
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		accountNo:  cfg.AccountNo,
		logger:     logger,
	}
}

// CreateContact registers a payee with the transfer provider and returns the
// provider's contact handle. Called once per payee, the first time a payout
// reaches them.
func (c *TransferClient) CreateContact(ctx context.Context, dest *payee.Destination) (string, error) {
	payload := map[string]interface{}{
		"name":         dest.Name,
		"type":         contactType(dest),
		"reference_id": dest.Payee.ID.String(),
	}
	if dest.Email != "" {
		payload["email"] = dest.Email
	}
	if dest.Phone != "" {
		payload["contact"] = dest.Phone
	}

	body, err := c.post(ctx, "/contacts", payload)
	if err != nil {
		return "", fmt.Errorf("failed to create provider contact: %w", err)
	}

	contactID := asString(body["id"])
	if contactID == "" {
		return "", fmt.Errorf("provider contact response has no id")
	}

	c.logger.Info("Created provider contact",
		"payee_id", dest.Payee.ID.String(), "contact_id", contactID)

	return contactID, nil
}

// CreateTransfer initiates one payout and returns the provider's transfer
// reference. The reference ID doubles as the idempotency key so a network
// failure after submission cannot produce a second transfer on replay.
func (c *TransferClient) CreateTransfer(ctx context.Context, req payout.TransferRequest) (string, error) {
	payload := map[string]interface{}{
		"account_number":       c.accountNo,
		"fund_account_id":      req.FundAccountID,
		"amount":               req.Amount,
		"currency":             req.Currency,
		"mode":                 string(req.Method),
		"purpose":              "payout",
		"queue_if_low_balance": true,
		"reference_id":         req.ReferenceID,
	}
	if len(req.Notes) > 0 {
		payload["notes"] = req.Notes
	}

	body, err := c.postIdempotent(ctx, "/payouts", payload, req.ReferenceID)
	if err != nil {
		return "", fmt.Errorf("failed to create transfer: %w", err)
	}

	transferRef := asString(body["id"])
	if transferRef == "" {
		return "", fmt.Errorf("transfer response has no id")
	}

	return transferRef, nil
}

func (c *TransferClient) post(ctx context.Context, path string, payload map[string]interface{}) (map[string]interface{}, error) {
	return c.postIdempotent(ctx, path, payload, "")
}

func (c *TransferClient) postIdempotent(ctx context.Context, path string, payload map[string]interface{}, idempotencyKey string) (map[string]interface{}, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("X-Payout-Idempotency", idempotencyKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Provider API call",
		"path", path, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, providerErrorMessage(respBody))
	}

	var body map[string]interface{}
	if err := json.Unmarshal(respBody, &body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return body, nil
}

func contactType(dest *payee.Destination) string {
	if dest.Payee.Kind == earnings.PayeeKindOrganization {
		return "vendor"
	}
	return "employee"
}

func providerErrorMessage(respBody []byte) string {
	var envelope struct {
		Error struct {
			Description string `json:"description"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error.Description != "" {
		return envelope.Error.Description
	}
	return string(respBody)
}
