package postgres

import (
	"context"
	"fmt"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// VaultRebalanceStore implements storage.VaultRebalanceStore using PostgreSQL.
type VaultRebalanceStore struct {
	pool *Pool
}

// NewVaultRebalanceStore creates a new VaultRebalanceStore.
func NewVaultRebalanceStore(pool *Pool) *VaultRebalanceStore {
	return &VaultRebalanceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VaultRebalanceStore = (*VaultRebalanceStore)(nil)

// Get retrieves a rebalance record by ID. Returns ErrNotFound if not exists.
func (s *VaultRebalanceStore) Get(ctx context.Context, id string) (*domain.VaultRebalance, error) {
	query := `
		SELECT id, vault, created_at_timestamp, tick, sqrt_price, last_price,
			total_amount0, total_amount1, fee_amount0, fee_amount1, total_supply
		FROM vault_rebalances
		WHERE id = $1
	`

	var (
		r     domain.VaultRebalance
		vault string
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&r.ID, &vault, &r.CreatedAtTimestamp, &r.Tick, &r.SqrtPrice, &r.LastPrice,
		&r.TotalAmount0, &r.TotalAmount1, &r.FeeAmount0, &r.FeeAmount1, &r.TotalSupply,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get vault rebalance: %w", err)
	}
	r.Vault = decodeAddr(vault)
	return &r, nil
}

// Insert adds a new rebalance record. Returns ErrDuplicateKey if exists.
func (s *VaultRebalanceStore) Insert(ctx context.Context, r *domain.VaultRebalance) error {
	query := `
		INSERT INTO vault_rebalances (
			id, vault, created_at_timestamp, tick, sqrt_price, last_price,
			total_amount0, total_amount1, fee_amount0, fee_amount1, total_supply
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		r.ID, encodeAddr(r.Vault), r.CreatedAtTimestamp, r.Tick, r.SqrtPrice, r.LastPrice,
		r.TotalAmount0, r.TotalAmount1, r.FeeAmount0, r.FeeAmount1, r.TotalSupply,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert vault rebalance: %w", err)
	}
	return nil
}
