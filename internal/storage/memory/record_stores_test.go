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

func TestVaultDepositStore_InsertAndGet(t *testing.T) {
	store := NewVaultDepositStore()
	ctx := context.Background()

	dep := &domain.VaultDeposit{
		ID:      "0xabc-3",
		Vault:   common.HexToAddress("0xaa"),
		Amount0: decimal.NewFromInt(5),
		Amount1: decimal.NewFromInt(7),
	}
	if err := store.Insert(ctx, dep); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.Get(ctx, "0xabc-3")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Amount0.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Amount0 mismatch: %s", got.Amount0)
	}
}

func TestVaultDepositStore_DuplicateKey(t *testing.T) {
	store := NewVaultDepositStore()
	ctx := context.Background()

	dep := &domain.VaultDeposit{ID: "0xabc-3"}
	if err := store.Insert(ctx, dep); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, dep)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestVaultDepositStore_GetNotFound(t *testing.T) {
	store := NewVaultDepositStore()

	_, err := store.Get(context.Background(), "0xmissing-0")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestVaultWithdrawStore_InsertOnce(t *testing.T) {
	store := NewVaultWithdrawStore()
	ctx := context.Background()

	wd := &domain.VaultWithdraw{ID: "0xdef-0", Amount0: decimal.NewFromInt(4)}
	if err := store.Insert(ctx, wd); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, wd); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	got, err := store.Get(ctx, "0xdef-0")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Amount0.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Amount0 mismatch: %s", got.Amount0)
	}
}

func TestVaultRebalanceStore_InsertOnce(t *testing.T) {
	store := NewVaultRebalanceStore()
	ctx := context.Background()

	rb := &domain.VaultRebalance{ID: "0x111-2", Tick: -60}
	if err := store.Insert(ctx, rb); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, rb); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}

	got, err := store.Get(ctx, "0x111-2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Tick != -60 {
		t.Errorf("Tick mismatch: %d", got.Tick)
	}
}

func TestVaultCollectFeeStore_InsertOnce(t *testing.T) {
	store := NewVaultCollectFeeStore()
	ctx := context.Background()

	cf := &domain.VaultCollectFee{ID: "0x222-1", FeeAmount0: decimal.NewFromInt(9)}
	if err := store.Insert(ctx, cf); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, cf); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRecordStores_InvalidInput(t *testing.T) {
	ctx := context.Background()

	if err := NewVaultDepositStore().Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil deposit, got %v", err)
	}
	if err := NewVaultDepositStore().Insert(ctx, &domain.VaultDeposit{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty ID, got %v", err)
	}
}
