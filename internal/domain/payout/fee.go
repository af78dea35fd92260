package payout

import "math"

// FeeTable is the per-method base fee schedule plus the tax rate applied to
// the fee. Fees are in paise, the rate in percent.
type FeeTable struct {
	IMPS       int64
	NEFT       int64
	RTGS       int64
	TaxRatePct float64
}

// BaseFee returns the method's base fee, defaulting to IMPS
func (t FeeTable) BaseFee(method TransferMethod) int64 {
	switch method {
	case MethodNEFT:
		return t.NEFT
	case MethodRTGS:
		return t.RTGS
	default:
		return t.IMPS
	}
}

// FeeBreakdown is the result of a fee computation. All amounts are paise.
type FeeBreakdown struct {
	BaseFee   int64 `json:"base_fee"`
	TaxOnFee  int64 `json:"tax_on_fee"`
	TotalFee  int64 `json:"total_fee"`
	NetAmount int64 `json:"net_amount"`
}

// ComputeFee derives the fee breakdown for a gross payout amount. The tax is
// rounded half away from zero once, after the full-precision multiplication,
// so intermediate rounding cannot compound. NetAmount is clamped at zero.
func ComputeFee(gross int64, method TransferMethod, table FeeTable) FeeBreakdown {
	baseFee := table.BaseFee(method)
	taxOnFee := int64(math.Round(float64(baseFee) * table.TaxRatePct / 100))
	totalFee := baseFee + taxOnFee

	net := gross - totalFee
	if net < 0 {
		net = 0
	}

	return FeeBreakdown{
		BaseFee:   baseFee,
		TaxOnFee:  taxOnFee,
		TotalFee:  totalFee,
		NetAmount: net,
	}
}
