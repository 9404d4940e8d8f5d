package memory

import (
	"context"
	"sync"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Token
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[string]*domain.Token),
	}
}

// Get retrieves token metadata by ID. Returns ErrNotFound if not exists.
func (s *TokenStore) Get(_ context.Context, id string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tok, ok := s.data[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copy := *tok
	return &copy, nil
}

// Save creates or overwrites token metadata.
func (s *TokenStore) Save(_ context.Context, tok *domain.Token) error {
	if tok == nil || tok.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *tok
	s.data[tok.ID] = &copy
	return nil
}

var _ storage.TokenStore = (*TokenStore)(nil)
