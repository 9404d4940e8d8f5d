package accounting

import (
	"context"
	"fmt"

	"alm-vault-indexer/internal/domain"
)

// handleWithdraw applies a withdrawal: the mirror image of handleDeposit,
// subtracting the withdrawn amounts from the reserves.
func (e *Engine) handleWithdraw(ctx context.Context, ev domain.WithdrawEvent) error {
	id := domain.RecordID(ev.TxHash, ev.LogIndex)

	_, err := e.stores.Withdraws.Get(ctx, id)
	exists, err := recordExists(err)
	if err != nil {
		return fmt.Errorf("lookup withdraw %s: %w", id, err)
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

	withdraw := &domain.VaultWithdraw{
		ID:                 id,
		Vault:              ev.Address,
		Sender:             ev.Sender,
		To:                 ev.To,
		Origin:             ev.Origin,
		Shares:             ev.Shares,
		Amount0:            ev.Amount0,
		Amount1:            ev.Amount1,
		CreatedAtTimestamp: ev.BlockTime,
		Tick:               pool.tick,
		SqrtPrice:          pool.sqrtPrice,
		LastPrice:          pool.price1,
		TotalAmount0Before: vault.TotalAmount0,
		TotalAmount1Before: vault.TotalAmount1,
		TotalSupply:        vault.TotalSupply,
	}

	vault.LastPrice = pool.price1
	vault.LastPriceTimestamp = ev.BlockTime
	vault.TotalAmount0 = vault.TotalAmount0.Sub(ev.Amount0)
	vault.TotalAmount1 = vault.TotalAmount1.Sub(ev.Amount1)

	withdraw.TotalAmount0 = vault.TotalAmount0
	withdraw.TotalAmount1 = vault.TotalAmount1

	if err := e.stores.Vaults.Save(ctx, vault); err != nil {
		return fmt.Errorf("save vault %s: %w", vault.ID, err)
	}
	if err := e.stores.Withdraws.Insert(ctx, withdraw); err != nil {
		return fmt.Errorf("insert withdraw %s: %w", id, err)
	}
	return nil
}
