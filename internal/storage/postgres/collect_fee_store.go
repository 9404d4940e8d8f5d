package postgres

import (
	"context"
	"fmt"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// VaultCollectFeeStore implements storage.VaultCollectFeeStore using PostgreSQL.
type VaultCollectFeeStore struct {
	pool *Pool
}

// NewVaultCollectFeeStore creates a new VaultCollectFeeStore.
func NewVaultCollectFeeStore(pool *Pool) *VaultCollectFeeStore {
	return &VaultCollectFeeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VaultCollectFeeStore = (*VaultCollectFeeStore)(nil)

// Get retrieves a fee-collection record by ID. Returns ErrNotFound if not exists.
func (s *VaultCollectFeeStore) Get(ctx context.Context, id string) (*domain.VaultCollectFee, error) {
	query := `
		SELECT id, vault, sender, origin, created_at_timestamp, tick, sqrt_price, last_price,
			fee_amount0, fee_amount1, total_amount0, total_amount1, total_supply
		FROM vault_collect_fees
		WHERE id = $1
	`

	var (
		c             domain.VaultCollectFee
		vault, sender string
		origin        string
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &vault, &sender, &origin, &c.CreatedAtTimestamp, &c.Tick, &c.SqrtPrice, &c.LastPrice,
		&c.FeeAmount0, &c.FeeAmount1, &c.TotalAmount0, &c.TotalAmount1, &c.TotalSupply,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get vault collect fee: %w", err)
	}
	c.Vault = decodeAddr(vault)
	c.Sender = decodeAddr(sender)
	c.Origin = decodeAddr(origin)
	return &c, nil
}

// Insert adds a new fee-collection record. Returns ErrDuplicateKey if exists.
func (s *VaultCollectFeeStore) Insert(ctx context.Context, c *domain.VaultCollectFee) error {
	query := `
		INSERT INTO vault_collect_fees (
			id, vault, sender, origin, created_at_timestamp, tick, sqrt_price, last_price,
			fee_amount0, fee_amount1, total_amount0, total_amount1, total_supply
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.pool.Exec(ctx, query,
		c.ID, encodeAddr(c.Vault), encodeAddr(c.Sender), encodeAddr(c.Origin),
		c.CreatedAtTimestamp, c.Tick, c.SqrtPrice, c.LastPrice,
		c.FeeAmount0, c.FeeAmount1, c.TotalAmount0, c.TotalAmount1, c.TotalSupply,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert vault collect fee: %w", err)
	}
	return nil
}
