package postgres

import (
	"context"
	"fmt"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// VaultDepositStore implements storage.VaultDepositStore using PostgreSQL.
type VaultDepositStore struct {
	pool *Pool
}

// NewVaultDepositStore creates a new VaultDepositStore.
func NewVaultDepositStore(pool *Pool) *VaultDepositStore {
	return &VaultDepositStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VaultDepositStore = (*VaultDepositStore)(nil)

// Get retrieves a deposit record by its "<txHash>-<logIndex>" ID.
// Returns ErrNotFound if not exists.
func (s *VaultDepositStore) Get(ctx context.Context, id string) (*domain.VaultDeposit, error) {
	query := `
		SELECT id, vault, sender, recipient, origin, shares, amount0, amount1,
			created_at_timestamp, tick, sqrt_price, last_price,
			total_amount0_before, total_amount1_before,
			total_amount0, total_amount1, total_supply
		FROM vault_deposits
		WHERE id = $1
	`

	var (
		d                 domain.VaultDeposit
		vault, sender     string
		recipient, origin string
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &vault, &sender, &recipient, &origin, &d.Shares, &d.Amount0, &d.Amount1,
		&d.CreatedAtTimestamp, &d.Tick, &d.SqrtPrice, &d.LastPrice,
		&d.TotalAmount0Before, &d.TotalAmount1Before,
		&d.TotalAmount0, &d.TotalAmount1, &d.TotalSupply,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get vault deposit: %w", err)
	}
	d.Vault = decodeAddr(vault)
	d.Sender = decodeAddr(sender)
	d.To = decodeAddr(recipient)
	d.Origin = decodeAddr(origin)
	return &d, nil
}

// Insert adds a new deposit record. Returns ErrDuplicateKey if the ID exists.
func (s *VaultDepositStore) Insert(ctx context.Context, d *domain.VaultDeposit) error {
	query := `
		INSERT INTO vault_deposits (
			id, vault, sender, recipient, origin, shares, amount0, amount1,
			created_at_timestamp, tick, sqrt_price, last_price,
			total_amount0_before, total_amount1_before,
			total_amount0, total_amount1, total_supply
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := s.pool.Exec(ctx, query,
		d.ID, encodeAddr(d.Vault), encodeAddr(d.Sender), encodeAddr(d.To), encodeAddr(d.Origin),
		d.Shares, d.Amount0, d.Amount1,
		d.CreatedAtTimestamp, d.Tick, d.SqrtPrice, d.LastPrice,
		d.TotalAmount0Before, d.TotalAmount1Before,
		d.TotalAmount0, d.TotalAmount1, d.TotalSupply,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert vault deposit: %w", err)
	}
	return nil
}
