package accounting

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/pricing"
)

// vaultTVL computes total value locked in token1 units:
// amount1 + amount0 * lastPrice, both decimal-adjusted.
func vaultTVL(v *domain.Vault) decimal.Decimal {
	return pricing.TokenAmountToDecimal(v.TotalAmount1, v.Decimals1).
		Add(pricing.TokenAmountToDecimal(v.TotalAmount0, v.Decimals0).Mul(v.LastPrice))
}

// updateAPR recomputes the four annualized yield estimates from the current
// fee rates, reserves and last price. Zero TVL yields zero APR.
func updateAPR(v *domain.Vault) {
	tvl := vaultTVL(v)
	v.FeeAPRDay1 = horizonAPR(v, v.FeePerSecond0Day1, v.FeePerSecond1Day1, tvl)
	v.FeeAPRDay3 = horizonAPR(v, v.FeePerSecond0Day3, v.FeePerSecond1Day3, tvl)
	v.FeeAPRDay7 = horizonAPR(v, v.FeePerSecond0Day7, v.FeePerSecond1Day7, tvl)
	v.FeeAPRDay30 = horizonAPR(v, v.FeePerSecond0Day30, v.FeePerSecond1Day30, tvl)
}

// horizonAPR values one horizon's fee rates in token1 units per second and
// annualizes against TVL.
func horizonAPR(v *domain.Vault, rate0, rate1, tvl decimal.Decimal) decimal.Decimal {
	perSecond := pricing.TokenAmountToDecimal(rate0, v.Decimals0).Mul(v.LastPrice).
		Add(pricing.TokenAmountToDecimal(rate1, v.Decimals1))
	return pricing.AnnualizedPercent(perSecond, tvl)
}

// recordAprSnapshot appends one analytics row after a fee-generating event.
// The feed is optional; a nil store disables it.
func (e *Engine) recordAprSnapshot(ctx context.Context, v *domain.Vault, ts int64) error {
	if e.stores.AprSnapshots == nil {
		return nil
	}

	snap := &domain.AprSnapshot{
		Vault:     v.ID,
		Timestamp: ts,
		AprDay1:   v.FeeAPRDay1.InexactFloat64(),
		AprDay3:   v.FeeAPRDay3.InexactFloat64(),
		AprDay7:   v.FeeAPRDay7.InexactFloat64(),
		AprDay30:  v.FeeAPRDay30.InexactFloat64(),
		TVL:       vaultTVL(v).InexactFloat64(),
	}
	if err := e.stores.AprSnapshots.InsertBulk(ctx, []*domain.AprSnapshot{snap}); err != nil {
		return fmt.Errorf("append apr snapshot: %w", err)
	}
	if e.metrics != nil {
		e.metrics.SnapshotsWritten.Inc()
	}
	return nil
}
