package accounting

import (
	"github.com/shopspring/decimal"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/pricing"
)

// NextFeeRate returns the updated fee-rate-per-second estimate for one
// horizon. It is a pure function of its inputs and therefore exactly
// reproducible from the event history.
//
// When more than a full horizon elapsed since the previous update the old
// estimate carries no weight and the entire window is attributed to this
// event: feeAmount / horizon. Otherwise the prior estimate is blended by the
// unelapsed fraction of the horizon and the new fees are added undiscounted:
// (oldRate * (horizon - timeDelta) + feeAmount) / horizon.
//
// The reset branch uses strict timeDelta > horizon; at equality the blend
// degenerates to feeAmount / horizon anyway.
func NextFeeRate(oldRate, feeAmount decimal.Decimal, timeDelta, horizon int64) decimal.Decimal {
	h := decimal.NewFromInt(horizon)
	if timeDelta > horizon {
		return feeAmount.Div(h)
	}
	remaining := h.Sub(decimal.NewFromInt(timeDelta))
	return oldRate.Mul(remaining).Add(feeAmount).Div(h)
}

// updateFeeRates advances all eight per-second fee estimates from one
// fee-generating event. The vault's LastFeeUpdate clock gates every field at
// once; the caller advances it after this call, within the same handler
// invocation.
func updateFeeRates(v *domain.Vault, fee0, fee1 decimal.Decimal, now int64) {
	delta := now - v.LastFeeUpdate

	v.FeePerSecond0Day1 = NextFeeRate(v.FeePerSecond0Day1, fee0, delta, pricing.Day1)
	v.FeePerSecond0Day3 = NextFeeRate(v.FeePerSecond0Day3, fee0, delta, pricing.Day3)
	v.FeePerSecond0Day7 = NextFeeRate(v.FeePerSecond0Day7, fee0, delta, pricing.Day7)
	v.FeePerSecond0Day30 = NextFeeRate(v.FeePerSecond0Day30, fee0, delta, pricing.Day30)
	v.FeePerSecond1Day1 = NextFeeRate(v.FeePerSecond1Day1, fee1, delta, pricing.Day1)
	v.FeePerSecond1Day3 = NextFeeRate(v.FeePerSecond1Day3, fee1, delta, pricing.Day3)
	v.FeePerSecond1Day7 = NextFeeRate(v.FeePerSecond1Day7, fee1, delta, pricing.Day7)
	v.FeePerSecond1Day30 = NextFeeRate(v.FeePerSecond1Day30, fee1, delta, pricing.Day30)
}
