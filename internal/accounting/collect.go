package accounting

import (
	"context"
	"fmt"

	"alm-vault-indexer/internal/domain"
)

// handleCollectFees applies a fee collection outside a rebalance: the rate
// estimator and APR advance, the reserves stay untouched.
func (e *Engine) handleCollectFees(ctx context.Context, ev domain.CollectFeesEvent) error {
	id := domain.RecordID(ev.TxHash, ev.LogIndex)

	_, err := e.stores.CollectFees.Get(ctx, id)
	exists, err := recordExists(err)
	if err != nil {
		return fmt.Errorf("lookup collect %s: %w", id, err)
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

	collect := &domain.VaultCollectFee{
		ID:                 id,
		Vault:              ev.Address,
		Sender:             ev.Sender,
		Origin:             ev.Origin,
		CreatedAtTimestamp: ev.BlockTime,
		Tick:               pool.tick,
		SqrtPrice:          pool.sqrtPrice,
		LastPrice:          pool.price1,
		FeeAmount0:         ev.FeeAmount0,
		FeeAmount1:         ev.FeeAmount1,
		TotalAmount0:       vault.TotalAmount0,
		TotalAmount1:       vault.TotalAmount1,
		TotalSupply:        vault.TotalSupply,
	}

	vault.LastPrice = pool.price1
	vault.LastPriceTimestamp = ev.BlockTime

	updateFeeRates(vault, ev.FeeAmount0, ev.FeeAmount1, ev.BlockTime)
	vault.LastFeeUpdate = ev.BlockTime
	updateAPR(vault)

	if err := e.stores.Vaults.Save(ctx, vault); err != nil {
		return fmt.Errorf("save vault %s: %w", vault.ID, err)
	}
	if err := e.stores.CollectFees.Insert(ctx, collect); err != nil {
		return fmt.Errorf("insert collect %s: %w", id, err)
	}
	return e.recordAprSnapshot(ctx, vault, ev.BlockTime)
}
