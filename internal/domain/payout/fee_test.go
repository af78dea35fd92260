package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func defaultFeeTable() FeeTable {
	return FeeTable{
		IMPS:       200,
		NEFT:       200,
		RTGS:       2500,
		TaxRatePct: 18,
	}
}

func TestComputeFee(t *testing.T) {
	tests := []struct {
		name   string
		gross  int64
		method TransferMethod
		want   FeeBreakdown
	}{
		{
			// 1000.00 INR out via IMPS: 2.00 fee + 0.36 tax = 997.64 net
			name:   "IMPS on round amount",
			gross:  100000,
			method: MethodIMPS,
			want:   FeeBreakdown{BaseFee: 200, TaxOnFee: 36, TotalFee: 236, NetAmount: 99764},
		},
		{
			name:   "NEFT shares the IMPS fee",
			gross:  100000,
			method: MethodNEFT,
			want:   FeeBreakdown{BaseFee: 200, TaxOnFee: 36, TotalFee: 236, NetAmount: 99764},
		},
		{
			name:   "RTGS carries the premium fee",
			gross:  1000000,
			method: MethodRTGS,
			want:   FeeBreakdown{BaseFee: 2500, TaxOnFee: 450, TotalFee: 2950, NetAmount: 997050},
		},
		{
			name:   "unknown method falls back to IMPS",
			gross:  100000,
			method: TransferMethod("UPI"),
			want:   FeeBreakdown{BaseFee: 200, TaxOnFee: 36, TotalFee: 236, NetAmount: 99764},
		},
		{
			name:   "net clamps at zero when fee exceeds gross",
			gross:  100,
			method: MethodIMPS,
			want:   FeeBreakdown{BaseFee: 200, TaxOnFee: 36, TotalFee: 236, NetAmount: 0},
		},
		{
			name:   "gross exactly the fee nets zero",
			gross:  236,
			method: MethodIMPS,
			want:   FeeBreakdown{BaseFee: 200, TaxOnFee: 36, TotalFee: 236, NetAmount: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeFee(tt.gross, tt.method, defaultFeeTable())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeFee_TaxRoundsOnce(t *testing.T) {
	// 7% of 150 is 10.5, rounded half away from zero to 11
	table := FeeTable{IMPS: 150, TaxRatePct: 7}
	got := ComputeFee(10000, MethodIMPS, table)

	assert.Equal(t, int64(11), got.TaxOnFee)
	assert.Equal(t, int64(161), got.TotalFee)
	assert.Equal(t, int64(9839), got.NetAmount)
}

func TestComputeFee_NetIsMonotonic(t *testing.T) {
	// A larger gross never nets less
	table := defaultFeeTable()
	prev := ComputeFee(0, MethodIMPS, table).NetAmount
	for gross := int64(1); gross <= 1000; gross++ {
		net := ComputeFee(gross, MethodIMPS, table).NetAmount
		if net < prev {
			t.Fatalf("net decreased from %d to %d at gross %d", prev, net, gross)
		}
		prev = net
	}
}

func TestParseTransferMethod(t *testing.T) {
	assert.Equal(t, MethodNEFT, ParseTransferMethod("NEFT"))
	assert.Equal(t, MethodRTGS, ParseTransferMethod("RTGS"))
	assert.Equal(t, MethodIMPS, ParseTransferMethod("IMPS"))
	assert.Equal(t, MethodIMPS, ParseTransferMethod(""))
	assert.Equal(t, MethodIMPS, ParseTransferMethod("imps"))
}
