package memory

import (
	"context"
	"sort"
	"sync"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// VaultStore is an in-memory implementation of storage.VaultStore.
type VaultStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Vault
}

// NewVaultStore creates a new in-memory vault store.
func NewVaultStore() *VaultStore {
	return &VaultStore{
		data: make(map[string]*domain.Vault),
	}
}

// Get retrieves a vault by ID. Returns ErrNotFound if not exists.
func (s *VaultStore) Get(_ context.Context, id string) (*domain.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *v
	return &copy, nil
}

// List retrieves all vaults ordered by ID.
func (s *VaultStore) List(_ context.Context) ([]*domain.Vault, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vaults := make([]*domain.Vault, 0, len(s.data))
	for _, v := range s.data {
		copy := *v
		vaults = append(vaults, &copy)
	}
	sort.Slice(vaults, func(i, j int) bool { return vaults[i].ID < vaults[j].ID })
	return vaults, nil
}

// Save creates or overwrites a vault.
func (s *VaultStore) Save(_ context.Context, v *domain.Vault) error {
	if v == nil || v.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *v
	s.data[v.ID] = &copy
	return nil
}

var _ storage.VaultStore = (*VaultStore)(nil)
