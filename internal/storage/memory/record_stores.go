package memory

import (
	"context"
	"sync"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// The four derived event record stores share one shape: Get by composite
// "<txHash>-<logIndex>" ID plus insert-once semantics.

// recordStore is the generic map-backed insert-once store.
type recordStore[T any] struct {
	mu   sync.RWMutex
	data map[string]*T
}

func newRecordStore[T any]() recordStore[T] {
	return recordStore[T]{data: make(map[string]*T)}
}

func (s *recordStore[T]) get(id string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *rec
	return &copy, nil
}

func (s *recordStore[T]) insert(id string, rec *T) error {
	if rec == nil || id == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[id]; exists {
		return storage.ErrDuplicateKey
	}
	copy := *rec
	s.data[id] = &copy
	return nil
}

// VaultDepositStore is an in-memory implementation of storage.VaultDepositStore.
type VaultDepositStore struct{ recordStore[domain.VaultDeposit] }

// NewVaultDepositStore creates a new in-memory deposit record store.
func NewVaultDepositStore() *VaultDepositStore {
	return &VaultDepositStore{newRecordStore[domain.VaultDeposit]()}
}

func (s *VaultDepositStore) Get(_ context.Context, id string) (*domain.VaultDeposit, error) {
	return s.get(id)
}

func (s *VaultDepositStore) Insert(_ context.Context, d *domain.VaultDeposit) error {
	if d == nil {
		return storage.ErrInvalidInput
	}
	return s.insert(d.ID, d)
}

// VaultWithdrawStore is an in-memory implementation of storage.VaultWithdrawStore.
type VaultWithdrawStore struct{ recordStore[domain.VaultWithdraw] }

// NewVaultWithdrawStore creates a new in-memory withdraw record store.
func NewVaultWithdrawStore() *VaultWithdrawStore {
	return &VaultWithdrawStore{newRecordStore[domain.VaultWithdraw]()}
}

func (s *VaultWithdrawStore) Get(_ context.Context, id string) (*domain.VaultWithdraw, error) {
	return s.get(id)
}

func (s *VaultWithdrawStore) Insert(_ context.Context, w *domain.VaultWithdraw) error {
	if w == nil {
		return storage.ErrInvalidInput
	}
	return s.insert(w.ID, w)
}

// VaultRebalanceStore is an in-memory implementation of storage.VaultRebalanceStore.
type VaultRebalanceStore struct{ recordStore[domain.VaultRebalance] }

// NewVaultRebalanceStore creates a new in-memory rebalance record store.
func NewVaultRebalanceStore() *VaultRebalanceStore {
	return &VaultRebalanceStore{newRecordStore[domain.VaultRebalance]()}
}

func (s *VaultRebalanceStore) Get(_ context.Context, id string) (*domain.VaultRebalance, error) {
	return s.get(id)
}

func (s *VaultRebalanceStore) Insert(_ context.Context, r *domain.VaultRebalance) error {
	if r == nil {
		return storage.ErrInvalidInput
	}
	return s.insert(r.ID, r)
}

// VaultCollectFeeStore is an in-memory implementation of storage.VaultCollectFeeStore.
type VaultCollectFeeStore struct{ recordStore[domain.VaultCollectFee] }

// NewVaultCollectFeeStore creates a new in-memory fee-collection record store.
func NewVaultCollectFeeStore() *VaultCollectFeeStore {
	return &VaultCollectFeeStore{newRecordStore[domain.VaultCollectFee]()}
}

func (s *VaultCollectFeeStore) Get(_ context.Context, id string) (*domain.VaultCollectFee, error) {
	return s.get(id)
}

func (s *VaultCollectFeeStore) Insert(_ context.Context, c *domain.VaultCollectFee) error {
	if c == nil {
		return storage.ErrInvalidInput
	}
	return s.insert(c.ID, c)
}

var (
	_ storage.VaultDepositStore    = (*VaultDepositStore)(nil)
	_ storage.VaultWithdrawStore   = (*VaultWithdrawStore)(nil)
	_ storage.VaultRebalanceStore  = (*VaultRebalanceStore)(nil)
	_ storage.VaultCollectFeeStore = (*VaultCollectFeeStore)(nil)
)
