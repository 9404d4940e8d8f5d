package memory

import (
	"context"
	"sync"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// VaultShareStore is an in-memory implementation of storage.VaultShareStore.
type VaultShareStore struct {
	mu   sync.RWMutex
	data map[string]*domain.VaultShare
}

// NewVaultShareStore creates a new in-memory share store.
func NewVaultShareStore() *VaultShareStore {
	return &VaultShareStore{
		data: make(map[string]*domain.VaultShare),
	}
}

// Get retrieves a share record by ID. Returns ErrNotFound if not exists.
func (s *VaultShareStore) Get(_ context.Context, id string) (*domain.VaultShare, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	share, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *share
	return &copy, nil
}

// Save creates or overwrites a share record.
func (s *VaultShareStore) Save(_ context.Context, share *domain.VaultShare) error {
	if share == nil || share.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *share
	s.data[share.ID] = &copy
	return nil
}

var _ storage.VaultShareStore = (*VaultShareStore)(nil)
