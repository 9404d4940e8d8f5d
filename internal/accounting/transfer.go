package accounting

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/pricing"
	"alm-vault-indexer/internal/storage"
)

// handleTransfer drives the share ledger. A transfer is classified against
// the zero address, the vault itself and the vault's farming contract:
//
//   - from == zero:          mint, totalSupply grows by the raw value
//   - to   == zero:          burn, totalSupply shrinks by the raw value
//   - to   == farming:       stake, from's balance moves into staked
//   - from == farming:       unstake, to's staked moves back into balance
//   - otherwise each non-zero, non-vault party's free balance adjusts,
//     unless either leg touches the farming contract (the stake/unstake
//     rules above already moved the holder's balance).
//
// Until the FarmingContract event arrives the farming address is the zero
// sentinel and is never matched, so stake/unstake classification is inert.
func (e *Engine) handleTransfer(ctx context.Context, ev domain.TransferEvent) error {
	vault, err := e.loadVault(ctx, ev.Address)
	if err != nil {
		return err
	}

	var (
		zero       common.Address
		farming    = vault.FarmingContract
		farmingSet = farming != zero
		value      = pricing.TokenAmountToDecimal(ev.Value, pricing.ShareDecimals)
	)

	if ev.From == zero {
		vault.TotalSupply = vault.TotalSupply.Add(ev.Value)
	}
	if ev.To == zero {
		vault.TotalSupply = vault.TotalSupply.Sub(ev.Value)
	}

	if farmingSet && ev.To == farming {
		share, err := e.getOrCreateShare(ctx, vault, ev.From, ev.BlockTime)
		if err != nil {
			return err
		}
		share.Balance = share.Balance.Sub(value)
		share.Staked = share.Staked.Add(value)
		if err := e.stores.Shares.Save(ctx, share); err != nil {
			return fmt.Errorf("save share %s: %w", share.ID, err)
		}
	}

	if farmingSet && ev.From == farming {
		share, err := e.getOrCreateShare(ctx, vault, ev.To, ev.BlockTime)
		if err != nil {
			return err
		}
		share.Balance = share.Balance.Add(value)
		share.Staked = share.Staked.Sub(value)
		if err := e.stores.Shares.Save(ctx, share); err != nil {
			return fmt.Errorf("save share %s: %w", share.ID, err)
		}
	}

	farmingLeg := farmingSet && (ev.From == farming || ev.To == farming)

	if ev.From != zero && ev.From != ev.Address && !farmingLeg {
		share, err := e.getOrCreateShare(ctx, vault, ev.From, ev.BlockTime)
		if err != nil {
			return err
		}
		share.Balance = share.Balance.Sub(value)
		if err := e.stores.Shares.Save(ctx, share); err != nil {
			return fmt.Errorf("save share %s: %w", share.ID, err)
		}
	}

	if ev.To != zero && ev.To != ev.Address && !farmingLeg {
		share, err := e.getOrCreateShare(ctx, vault, ev.To, ev.BlockTime)
		if err != nil {
			return err
		}
		share.Balance = share.Balance.Add(value)
		if err := e.stores.Shares.Save(ctx, share); err != nil {
			return fmt.Errorf("save share %s: %w", share.ID, err)
		}
	}

	if err := e.stores.Vaults.Save(ctx, vault); err != nil {
		return fmt.Errorf("save vault %s: %w", vault.ID, err)
	}
	return nil
}

// handleFarmingContract binds the staking contract address. The vault record
// mutates in place; historical transfers are not reclassified.
func (e *Engine) handleFarmingContract(ctx context.Context, ev domain.FarmingContractEvent) error {
	vault, err := e.loadVault(ctx, ev.Address)
	if err != nil {
		return err
	}
	vault.FarmingContract = ev.FarmingContract
	if err := e.stores.Vaults.Save(ctx, vault); err != nil {
		return fmt.Errorf("save vault %s: %w", vault.ID, err)
	}
	e.logger.Info("farming contract set",
		zap.String("vault", vault.ID),
		zap.String("farming", ev.FarmingContract.Hex()),
	)
	return nil
}

// getOrCreateShare loads the (vault, holder) share record, creating it with
// zero balances on first appearance. Creation bumps the vault's holder count;
// the caller persists the vault.
func (e *Engine) getOrCreateShare(ctx context.Context, vault *domain.Vault, user common.Address, now int64) (*domain.VaultShare, error) {
	id := domain.ShareID(common.HexToAddress(vault.ID), user)

	share, err := e.stores.Shares.Get(ctx, id)
	if err == nil {
		return share, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup share %s: %w", id, err)
	}

	vault.HoldersCount++
	return &domain.VaultShare{
		ID:                 id,
		Vault:              common.HexToAddress(vault.ID),
		User:               user,
		CreatedAtTimestamp: now,
	}, nil
}
