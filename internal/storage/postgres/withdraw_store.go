package postgres

import (
	"context"
	"fmt"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// VaultWithdrawStore implements storage.VaultWithdrawStore using PostgreSQL.
type VaultWithdrawStore struct {
	pool *Pool
}

// NewVaultWithdrawStore creates a new VaultWithdrawStore.
func NewVaultWithdrawStore(pool *Pool) *VaultWithdrawStore {
	return &VaultWithdrawStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VaultWithdrawStore = (*VaultWithdrawStore)(nil)

// Get retrieves a withdraw record by ID. Returns ErrNotFound if not exists.
func (s *VaultWithdrawStore) Get(ctx context.Context, id string) (*domain.VaultWithdraw, error) {
	query := `
		SELECT id, vault, sender, recipient, origin, shares, amount0, amount1,
			created_at_timestamp, tick, sqrt_price, last_price,
			total_amount0_before, total_amount1_before,
			total_amount0, total_amount1, total_supply
		FROM vault_withdraws
		WHERE id = $1
	`

	var (
		w                 domain.VaultWithdraw
		vault, sender     string
		recipient, origin string
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&w.ID, &vault, &sender, &recipient, &origin, &w.Shares, &w.Amount0, &w.Amount1,
		&w.CreatedAtTimestamp, &w.Tick, &w.SqrtPrice, &w.LastPrice,
		&w.TotalAmount0Before, &w.TotalAmount1Before,
		&w.TotalAmount0, &w.TotalAmount1, &w.TotalSupply,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get vault withdraw: %w", err)
	}
	w.Vault = decodeAddr(vault)
	w.Sender = decodeAddr(sender)
	w.To = decodeAddr(recipient)
	w.Origin = decodeAddr(origin)
	return &w, nil
}

// Insert adds a new withdraw record. Returns ErrDuplicateKey if exists.
func (s *VaultWithdrawStore) Insert(ctx context.Context, w *domain.VaultWithdraw) error {
	query := `
		INSERT INTO vault_withdraws (
			id, vault, sender, recipient, origin, shares, amount0, amount1,
			created_at_timestamp, tick, sqrt_price, last_price,
			total_amount0_before, total_amount1_before,
			total_amount0, total_amount1, total_supply
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := s.pool.Exec(ctx, query,
		w.ID, encodeAddr(w.Vault), encodeAddr(w.Sender), encodeAddr(w.To), encodeAddr(w.Origin),
		w.Shares, w.Amount0, w.Amount1,
		w.CreatedAtTimestamp, w.Tick, w.SqrtPrice, w.LastPrice,
		w.TotalAmount0Before, w.TotalAmount1Before,
		w.TotalAmount0, w.TotalAmount1, w.TotalSupply,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert vault withdraw: %w", err)
	}
	return nil
}
