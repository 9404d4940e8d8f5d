package accounting

import (
	"context"
	"fmt"

	"alm-vault-indexer/internal/domain"
)

// handleRebalance applies a rebalance. The event supplies authoritative
// absolute reserves which overwrite the accumulated totals, and the fees
// collected since the previous fee update feed the rate estimator.
func (e *Engine) handleRebalance(ctx context.Context, ev domain.RebalanceEvent) error {
	id := domain.RecordID(ev.TxHash, ev.LogIndex)

	_, err := e.stores.Rebalances.Get(ctx, id)
	exists, err := recordExists(err)
	if err != nil {
		return fmt.Errorf("lookup rebalance %s: %w", id, err)
	}
	if exists {
		e.skipDuplicate(ev.Kind(), id)
		return nil
	}

	vault, err := e.loadVault(ctx, ev.Address)
	if err != nil {
		return err
	}
	pool, err := e.readPool(ctx, vault)
	if err != nil {
		return err
	}

	rebalance := &domain.VaultRebalance{
		ID:                 id,
		Vault:              ev.Address,
		CreatedAtTimestamp: ev.BlockTime,
		Tick:               ev.Tick,
		SqrtPrice:          pool.sqrtPrice,
		LastPrice:          pool.price1,
		TotalAmount0:       ev.TotalAmount0,
		TotalAmount1:       ev.TotalAmount1,
		FeeAmount0:         ev.FeeAmount0,
		FeeAmount1:         ev.FeeAmount1,
		TotalSupply:        vault.TotalSupply,
	}

	vault.LastPrice = pool.price1
	vault.LastPriceTimestamp = ev.BlockTime

	updateFeeRates(vault, ev.FeeAmount0, ev.FeeAmount1, ev.BlockTime)
	vault.TotalAmount0 = ev.TotalAmount0
	vault.TotalAmount1 = ev.TotalAmount1
	vault.LastFeeUpdate = ev.BlockTime
	updateAPR(vault)

	if err := e.stores.Vaults.Save(ctx, vault); err != nil {
		return fmt.Errorf("save vault %s: %w", vault.ID, err)
	}
	if err := e.stores.Rebalances.Insert(ctx, rebalance); err != nil {
		return fmt.Errorf("insert rebalance %s: %w", id, err)
	}
	return e.recordAprSnapshot(ctx, vault, ev.BlockTime)
}
