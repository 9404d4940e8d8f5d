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

func testRebalance(id string) *domain.VaultRebalance {
	return &domain.VaultRebalance{
		ID:                 id,
		Vault:              common.HexToAddress("0x00000000000000000000000000000000000000AA"),
		CreatedAtTimestamp: 1700000400,
		Tick:               -887220,
		SqrtPrice:          decimal.RequireFromString("79228162514264337593543950336"),
		LastPrice:          decimal.NewFromInt(1),
		TotalAmount0:       decimal.New(10, 18),
		TotalAmount1:       decimal.New(20, 18),
		FeeAmount0:         decimal.New(1, 17),
		FeeAmount1:         decimal.New(2, 17),
		TotalSupply:        decimal.New(100, 18),
	}
}

func TestVaultRebalanceStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVaultRebalanceStore(pool)

	rb := testRebalance("0x111-2")
	require.NoError(t, store.Insert(ctx, rb))

	got, err := store.Get(ctx, "0x111-2")
	require.NoError(t, err)

	assert.Equal(t, rb.Vault, got.Vault)
	assert.Equal(t, rb.Tick, got.Tick)
	assert.True(t, got.TotalAmount0.Equal(rb.TotalAmount0))
	assert.True(t, got.FeeAmount0.Equal(rb.FeeAmount0))
	assert.True(t, got.FeeAmount1.Equal(rb.FeeAmount1))
	assert.True(t, got.TotalSupply.Equal(rb.TotalSupply))
}

func TestVaultRebalanceStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVaultRebalanceStore(pool)

	rb := testRebalance("0x111-2")
	require.NoError(t, store.Insert(ctx, rb))
	assert.ErrorIs(t, store.Insert(ctx, rb), storage.ErrDuplicateKey)
}

func TestVaultRebalanceStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewVaultRebalanceStore(pool)
	_, err := store.Get(context.Background(), "0xmissing-0")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
