package postgres

import (
	"context"
	"fmt"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// VaultShareStore implements storage.VaultShareStore using PostgreSQL.
type VaultShareStore struct {
	pool *Pool
}

// NewVaultShareStore creates a new VaultShareStore.
func NewVaultShareStore(pool *Pool) *VaultShareStore {
	return &VaultShareStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VaultShareStore = (*VaultShareStore)(nil)

// Get retrieves a share record by its "<vault>-<holder>" ID.
// Returns ErrNotFound if not exists.
func (s *VaultShareStore) Get(ctx context.Context, id string) (*domain.VaultShare, error) {
	query := `
		SELECT id, vault, holder, balance, staked, created_at_timestamp
		FROM vault_shares
		WHERE id = $1
	`

	var (
		share         domain.VaultShare
		vault, holder string
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&share.ID, &vault, &holder, &share.Balance, &share.Staked, &share.CreatedAtTimestamp,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get vault share: %w", err)
	}
	share.Vault = decodeAddr(vault)
	share.User = decodeAddr(holder)
	return &share, nil
}

// Save creates or overwrites a share record.
func (s *VaultShareStore) Save(ctx context.Context, share *domain.VaultShare) error {
	query := `
		INSERT INTO vault_shares (id, vault, holder, balance, staked, created_at_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			balance = EXCLUDED.balance,
			staked = EXCLUDED.staked
	`

	_, err := s.pool.Exec(ctx, query,
		share.ID, encodeAddr(share.Vault), encodeAddr(share.User),
		share.Balance, share.Staked, share.CreatedAtTimestamp,
	)
	if err != nil {
		return fmt.Errorf("save vault share: %w", err)
	}
	return nil
}
