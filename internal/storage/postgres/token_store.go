package postgres

import (
	"context"
	"fmt"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Get retrieves token metadata by ID. Returns ErrNotFound if not exists.
func (s *TokenStore) Get(ctx context.Context, id string) (*domain.Token, error) {
	query := `
		SELECT id, address, symbol, name, decimals, total_supply, fetched_at
		FROM tokens
		WHERE id = $1
	`

	var (
		tok  domain.Token
		addr string
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&tok.ID, &addr, &tok.Symbol, &tok.Name, &tok.Decimals, &tok.TotalSupply, &tok.FetchedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token: %w", err)
	}
	tok.Address = decodeAddr(addr)
	return &tok, nil
}

// Save creates or overwrites token metadata.
func (s *TokenStore) Save(ctx context.Context, tok *domain.Token) error {
	query := `
		INSERT INTO tokens (id, address, symbol, name, decimals, total_supply, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			decimals = EXCLUDED.decimals,
			total_supply = EXCLUDED.total_supply,
			fetched_at = EXCLUDED.fetched_at
	`

	_, err := s.pool.Exec(ctx, query,
		tok.ID, encodeAddr(tok.Address), tok.Symbol, tok.Name, tok.Decimals, tok.TotalSupply, tok.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}
