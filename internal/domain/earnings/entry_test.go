package earnings

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	practitioner := Payee{ID: uuid.New(), Kind: PayeeKindPractitioner}

	t.Run("creates a pending entry", func(t *testing.T) {
		entry, err := NewEntry(practitioner, "pay_abc123", 15000, "INR")

		require.NoError(t, err)
		assert.Equal(t, practitioner, entry.Payee)
		assert.Equal(t, "pay_abc123", entry.PaymentRef)
		assert.Equal(t, int64(15000), entry.Amount)
		assert.Equal(t, StatusPending, entry.Status)
		assert.Empty(t, entry.SettlementRef)
		assert.Nil(t, entry.PayoutDate)
		assert.NotEqual(t, uuid.Nil, entry.ID)
	})

	t.Run("accepts organization payees", func(t *testing.T) {
		org := Payee{ID: uuid.New(), Kind: PayeeKindOrganization}
		entry, err := NewEntry(org, "pay_org", 5000, "INR")

		require.NoError(t, err)
		assert.Equal(t, PayeeKindOrganization, entry.Payee.Kind)
	})

	t.Run("rejects unknown payee kinds", func(t *testing.T) {
		_, err := NewEntry(Payee{ID: uuid.New(), Kind: "merchant"}, "pay_x", 5000, "INR")
		assert.ErrorIs(t, err, ErrInvalidPayeeKind)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := NewEntry(practitioner, "pay_x", 0, "INR")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = NewEntry(practitioner, "pay_x", -100, "INR")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects malformed currency codes", func(t *testing.T) {
		_, err := NewEntry(practitioner, "pay_x", 100, "RUPEES")
		assert.ErrorIs(t, err, ErrInvalidCurrencyFormat)

		_, err = NewEntry(practitioner, "pay_x", 100, "")
		assert.ErrorIs(t, err, ErrInvalidCurrencyFormat)
	})
}
