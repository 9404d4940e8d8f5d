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

func testCollectFee(id string) *domain.VaultCollectFee {
	return &domain.VaultCollectFee{
		ID:                 id,
		Vault:              common.HexToAddress("0x00000000000000000000000000000000000000AA"),
		Sender:             common.HexToAddress("0x0000000000000000000000000000000000000A01"),
		Origin:             common.HexToAddress("0x0000000000000000000000000000000000000E0E"),
		CreatedAtTimestamp: 1700000500,
		Tick:               30,
		SqrtPrice:          decimal.RequireFromString("79228162514264337593543950336"),
		LastPrice:          decimal.NewFromInt(1),
		FeeAmount0:         decimal.New(9, 16),
		FeeAmount1:         decimal.New(8, 16),
		TotalAmount0:       decimal.New(10, 18),
		TotalAmount1:       decimal.New(20, 18),
		TotalSupply:        decimal.New(100, 18),
	}
}

func TestVaultCollectFeeStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVaultCollectFeeStore(pool)

	cf := testCollectFee("0x222-1")
	require.NoError(t, store.Insert(ctx, cf))

	got, err := store.Get(ctx, "0x222-1")
	require.NoError(t, err)

	assert.Equal(t, cf.Vault, got.Vault)
	assert.Equal(t, cf.Sender, got.Sender)
	assert.Equal(t, cf.Tick, got.Tick)
	assert.True(t, got.FeeAmount0.Equal(cf.FeeAmount0))
	assert.True(t, got.TotalAmount1.Equal(cf.TotalAmount1))
}

func TestVaultCollectFeeStore_DuplicateKey(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewVaultCollectFeeStore(pool)

	cf := testCollectFee("0x222-1")
	require.NoError(t, store.Insert(ctx, cf))
	assert.ErrorIs(t, store.Insert(ctx, cf), storage.ErrDuplicateKey)
}

func TestVaultCollectFeeStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewVaultCollectFeeStore(pool)
	_, err := store.Get(context.Background(), "0xmissing-0")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
