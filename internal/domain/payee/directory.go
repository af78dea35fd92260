// Package payee defines the directory of payout destinations. The directory
// is an external collaborator from the reconciliation core's perspective;
// only the lookup contract and the destination record live here.
package payee

import (
	"context"
	"time"

	"github.com/karunahealth/earnings-reconciler/internal/domain/earnings"
)

// Destination holds a payee's verified payout details plus the lazily
// created transfer-provider contact handle.
type Destination struct {
	Payee             earnings.Payee `json:"payee"`
	Name              string         `json:"name"`
	Email             string         `json:"email,omitempty"`
	Phone             string         `json:"phone,omitempty"`
	ProviderContactID string         `json:"provider_contact_id,omitempty"`
	FundAccountID     string         `json:"fund_account_id,omitempty"`
	Verified          bool           `json:"verified"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Directory looks up and maintains payout destinations
type Directory interface {
	// Get returns (nil, nil) when the payee has no destination on file
	Get(ctx context.Context, p earnings.Payee) (*Destination, error)
	Upsert(ctx context.Context, dest *Destination) error

	// SetProviderContactID stores the contact handle created on first payout
	SetProviderContactID(ctx context.Context, p earnings.Payee, contactID string) error
}
