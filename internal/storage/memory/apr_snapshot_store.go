package memory

import (
	"context"
	"sort"
	"sync"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// AprSnapshotStore is an in-memory implementation of storage.AprSnapshotStore.
type AprSnapshotStore struct {
	mu   sync.RWMutex
	data []*domain.AprSnapshot
}

// NewAprSnapshotStore creates a new in-memory APR snapshot store.
func NewAprSnapshotStore() *AprSnapshotStore {
	return &AprSnapshotStore{}
}

// InsertBulk appends snapshot rows.
func (s *AprSnapshotStore) InsertBulk(_ context.Context, snaps []*domain.AprSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, snap := range snaps {
		if snap == nil || snap.Vault == "" {
			return storage.ErrInvalidInput
		}
		copy := *snap
		s.data = append(s.data, &copy)
	}
	return nil
}

// GetByVault retrieves all snapshots for a vault, ordered by timestamp ASC.
func (s *AprSnapshotStore) GetByVault(_ context.Context, vaultID string) ([]*domain.AprSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.AprSnapshot
	for _, snap := range s.data {
		if snap.Vault == vaultID {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

var _ storage.AprSnapshotStore = (*AprSnapshotStore)(nil)
