package accounting

import (
	"context"
	"fmt"

	"alm-vault-indexer/internal/domain"
)

// handleDeposit applies a deposit: creates the VaultDeposit record with the
// vault snapshot taken before this event's own mutation, then accumulates the
// deposited amounts into the reserves.
func (e *Engine) handleDeposit(ctx context.Context, ev domain.DepositEvent) error {
	id := domain.RecordID(ev.TxHash, ev.LogIndex)

	_, err := e.stores.Deposits.Get(ctx, id)
	exists, err := recordExists(err)
	if err != nil {
		return fmt.Errorf("lookup deposit %s: %w", id, err)
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

	deposit := &domain.VaultDeposit{
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
		TotalSupply:        vault.TotalSupply, // pre-mint: the share mint arrives as its own Transfer log
	}

	vault.LastPrice = pool.price1
	vault.LastPriceTimestamp = ev.BlockTime
	vault.TotalAmount0 = vault.TotalAmount0.Add(ev.Amount0)
	vault.TotalAmount1 = vault.TotalAmount1.Add(ev.Amount1)

	deposit.TotalAmount0 = vault.TotalAmount0
	deposit.TotalAmount1 = vault.TotalAmount1

	if err := e.stores.Vaults.Save(ctx, vault); err != nil {
		return fmt.Errorf("save vault %s: %w", vault.ID, err)
	}
	if err := e.stores.Deposits.Insert(ctx, deposit); err != nil {
		return fmt.Errorf("insert deposit %s: %w", id, err)
	}
	return nil
}
