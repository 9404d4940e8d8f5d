package postgres

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

func TestVaultShareStore_SaveAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVaultShareStore(pool)

	vault := common.HexToAddress("0x00000000000000000000000000000000000000AA")
	user := common.HexToAddress("0x0000000000000000000000000000000000000A01")
	share := &domain.VaultShare{
		ID:                 domain.ShareID(vault, user),
		Vault:              vault,
		User:               user,
		Balance:            decimal.RequireFromString("60.5"),
		Staked:             decimal.RequireFromString("39.5"),
		CreatedAtTimestamp: 1700000000,
	}
	require.NoError(t, store.Save(ctx, share))

	got, err := store.Get(ctx, share.ID)
	require.NoError(t, err)

	assert.Equal(t, vault, got.Vault)
	assert.Equal(t, user, got.User)
	assert.True(t, got.Balance.Equal(share.Balance))
	assert.True(t, got.Staked.Equal(share.Staked))
	assert.Equal(t, share.CreatedAtTimestamp, got.CreatedAtTimestamp)
}

func TestVaultShareStore_SaveOverwritesBalances(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVaultShareStore(pool)

	vault := common.HexToAddress("0x00000000000000000000000000000000000000AA")
	user := common.HexToAddress("0x0000000000000000000000000000000000000A01")
	share := &domain.VaultShare{
		ID:                 domain.ShareID(vault, user),
		Vault:              vault,
		User:               user,
		Balance:            decimal.NewFromInt(100),
		CreatedAtTimestamp: 1700000000,
	}
	require.NoError(t, store.Save(ctx, share))

	share.Balance = decimal.NewFromInt(60)
	share.Staked = decimal.NewFromInt(40)
	require.NoError(t, store.Save(ctx, share))

	got, err := store.Get(ctx, share.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(decimal.NewFromInt(60)))
	assert.True(t, got.Staked.Equal(decimal.NewFromInt(40)))
}

func TestVaultShareStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewVaultShareStore(pool)
	_, err := store.Get(context.Background(), "0xaa-0xbb")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTokenStore_SaveAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenStore(pool)

	addr := common.HexToAddress("0x760aFe86e5de5fa0EE542fc7B7B713e1c5425701")
	tok := &domain.Token{
		ID:          domain.TokenID(addr),
		Address:     addr,
		Symbol:      "WMON",
		Name:        "Wrapped Monad",
		Decimals:    18,
		TotalSupply: decimal.New(1, 24),
		FetchedAt:   1700000000,
	}
	require.NoError(t, store.Save(ctx, tok))

	got, err := store.Get(ctx, tok.ID)
	require.NoError(t, err)

	assert.Equal(t, addr, got.Address)
	assert.Equal(t, "WMON", got.Symbol)
	assert.Equal(t, "Wrapped Monad", got.Name)
	assert.Equal(t, int32(18), got.Decimals)
	assert.True(t, got.TotalSupply.Equal(tok.TotalSupply))
}

func TestTokenStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTokenStore(pool)
	_, err := store.Get(context.Background(), "0xmissing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
