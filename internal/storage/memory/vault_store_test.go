package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

func testVault(id string) *domain.Vault {
	return &domain.Vault{
		ID:           id,
		Token0:       common.HexToAddress("0x11"),
		Token1:       common.HexToAddress("0x22"),
		Decimals0:    18,
		Decimals1:    6,
		TotalAmount0: decimal.NewFromInt(100),
	}
}

func TestVaultStore_SaveAndGet(t *testing.T) {
	store := NewVaultStore()
	ctx := context.Background()

	v := testVault("0xaaa")
	if err := store.Save(ctx, v); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Decimals1 != 6 {
		t.Errorf("Decimals1 mismatch: %d", got.Decimals1)
	}
	if !got.TotalAmount0.Equal(decimal.NewFromInt(100)) {
		t.Errorf("TotalAmount0 mismatch: %s", got.TotalAmount0)
	}
}

func TestVaultStore_GetNotFound(t *testing.T) {
	store := NewVaultStore()

	_, err := store.Get(context.Background(), "0xmissing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestVaultStore_SaveOverwrites(t *testing.T) {
	store := NewVaultStore()
	ctx := context.Background()

	v := testVault("0xaaa")
	if err := store.Save(ctx, v); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	v.TotalAmount0 = decimal.NewFromInt(250)
	if err := store.Save(ctx, v); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	got, err := store.Get(ctx, "0xaaa")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.TotalAmount0.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected overwritten amount 250, got %s", got.TotalAmount0)
	}
}

func TestVaultStore_GetReturnsCopy(t *testing.T) {
	store := NewVaultStore()
	ctx := context.Background()

	if err := store.Save(ctx, testVault("0xaaa")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	first, _ := store.Get(ctx, "0xaaa")
	first.TotalAmount0 = decimal.NewFromInt(999)

	second, _ := store.Get(ctx, "0xaaa")
	if !second.TotalAmount0.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Mutation through returned pointer leaked into store: %s", second.TotalAmount0)
	}
}

func TestVaultStore_ListOrderedByID(t *testing.T) {
	store := NewVaultStore()
	ctx := context.Background()

	for _, id := range []string{"0xccc", "0xaaa", "0xbbb"} {
		if err := store.Save(ctx, testVault(id)); err != nil {
			t.Fatalf("Save %s failed: %v", id, err)
		}
	}

	vaults, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(vaults) != 3 {
		t.Fatalf("Expected 3 vaults, got %d", len(vaults))
	}
	want := []string{"0xaaa", "0xbbb", "0xccc"}
	for i, v := range vaults {
		if v.ID != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], v.ID)
		}
	}
}

func TestVaultStore_SaveInvalidInput(t *testing.T) {
	store := NewVaultStore()
	ctx := context.Background()

	if err := store.Save(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil vault, got %v", err)
	}
	if err := store.Save(ctx, &domain.Vault{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty ID, got %v", err)
	}
}
