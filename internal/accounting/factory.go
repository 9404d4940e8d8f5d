package accounting

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// handleVaultCreated creates the vault record and its token metadata.
// A vault is created exactly once; redelivered creation events are skipped so
// accumulated state is never reset.
func (e *Engine) handleVaultCreated(ctx context.Context, ev domain.VaultCreatedEvent) error {
	id := domain.VaultID(ev.VaultAddress)

	_, err := e.stores.Vaults.Get(ctx, id)
	exists, err := recordExists(err)
	if err != nil {
		return fmt.Errorf("lookup vault %s: %w", id, err)
	}
	if exists {
		e.skipDuplicate(ev.Kind(), id)
		return nil
	}

	pool, err := e.chain.VaultPool(ctx, ev.VaultAddress)
	if err != nil {
		return fmt.Errorf("read vault pool %s: %w", ev.VaultAddress.Hex(), err)
	}

	token0, err := e.ensureToken(ctx, ev.TokenA, ev.BlockTime)
	if err != nil {
		return err
	}
	token1, err := e.ensureToken(ctx, ev.TokenB, ev.BlockTime)
	if err != nil {
		return err
	}

	vault := &domain.Vault{
		ID:                 id,
		Token0:             ev.TokenA,
		Token1:             ev.TokenB,
		Decimals0:          token0.Decimals,
		Decimals1:          token1.Decimals,
		AllowToken0:        ev.AllowTokenA,
		AllowToken1:        ev.AllowTokenB,
		Pool:               pool,
		FarmingContract:    common.Address{}, // sentinel: unset
		CreatedAtTimestamp: ev.BlockTime,
		LastPriceTimestamp: ev.BlockTime,
		LastFeeUpdate:      ev.BlockTime,
	}
	if err := e.stores.Vaults.Save(ctx, vault); err != nil {
		return fmt.Errorf("save vault %s: %w", id, err)
	}

	if e.metrics != nil {
		e.metrics.VaultsCreated.Inc()
	}
	e.logger.Info("vault created",
		zap.String("vault", id),
		zap.String("pool", pool.Hex()),
		zap.String("token0", token0.Symbol),
		zap.String("token1", token1.Symbol),
	)
	return nil
}

// ensureToken returns the cached token record, fetching metadata on first
// reference. Token records are immutable once written.
func (e *Engine) ensureToken(ctx context.Context, addr common.Address, now int64) (*domain.Token, error) {
	id := domain.TokenID(addr)

	tok, err := e.stores.Tokens.Get(ctx, id)
	if err == nil {
		return tok, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("lookup token %s: %w", id, err)
	}

	meta := e.tokens.Fetch(ctx, addr)
	tok = &domain.Token{
		ID:          id,
		Address:     addr,
		Symbol:      meta.Symbol,
		Name:        meta.Name,
		Decimals:    meta.Decimals,
		TotalSupply: meta.TotalSupply,
		FetchedAt:   now,
	}
	if err := e.stores.Tokens.Save(ctx, tok); err != nil {
		return nil, fmt.Errorf("save token %s: %w", id, err)
	}
	return tok, nil
}
