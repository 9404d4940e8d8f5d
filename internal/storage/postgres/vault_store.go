package postgres

import (
	"context"
	"fmt"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/storage"
)

// VaultStore implements storage.VaultStore using PostgreSQL.
type VaultStore struct {
	pool *Pool
}

// NewVaultStore creates a new VaultStore.
func NewVaultStore(pool *Pool) *VaultStore {
	return &VaultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VaultStore = (*VaultStore)(nil)

const vaultColumns = `
	id, token0, token1, decimals0, decimals1, allow_token0, allow_token1,
	pool, farming_contract, created_at_timestamp, holders_count,
	total_amount0, total_amount1, total_supply,
	last_price, last_price_timestamp, last_fee_update,
	fee_per_second0_day1, fee_per_second0_day3, fee_per_second0_day7, fee_per_second0_day30,
	fee_per_second1_day1, fee_per_second1_day3, fee_per_second1_day7, fee_per_second1_day30,
	fee_apr_day1, fee_apr_day3, fee_apr_day7, fee_apr_day30
`

// Get retrieves a vault by ID. Returns ErrNotFound if not exists.
func (s *VaultStore) Get(ctx context.Context, id string) (*domain.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults WHERE id = $1`

	var (
		v              domain.Vault
		token0, token1 string
		pool, farming  string
	)
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&v.ID, &token0, &token1, &v.Decimals0, &v.Decimals1, &v.AllowToken0, &v.AllowToken1,
		&pool, &farming, &v.CreatedAtTimestamp, &v.HoldersCount,
		&v.TotalAmount0, &v.TotalAmount1, &v.TotalSupply,
		&v.LastPrice, &v.LastPriceTimestamp, &v.LastFeeUpdate,
		&v.FeePerSecond0Day1, &v.FeePerSecond0Day3, &v.FeePerSecond0Day7, &v.FeePerSecond0Day30,
		&v.FeePerSecond1Day1, &v.FeePerSecond1Day3, &v.FeePerSecond1Day7, &v.FeePerSecond1Day30,
		&v.FeeAPRDay1, &v.FeeAPRDay3, &v.FeeAPRDay7, &v.FeeAPRDay30,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get vault: %w", err)
	}
	v.Token0 = decodeAddr(token0)
	v.Token1 = decodeAddr(token1)
	v.Pool = decodeAddr(pool)
	v.FarmingContract = decodeAddr(farming)
	return &v, nil
}

// List retrieves all vaults ordered by ID.
func (s *VaultStore) List(ctx context.Context) ([]*domain.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vaults: %w", err)
	}
	defer rows.Close()

	var vaults []*domain.Vault
	for rows.Next() {
		var (
			v              domain.Vault
			token0, token1 string
			pool, farming  string
		)
		err := rows.Scan(
			&v.ID, &token0, &token1, &v.Decimals0, &v.Decimals1, &v.AllowToken0, &v.AllowToken1,
			&pool, &farming, &v.CreatedAtTimestamp, &v.HoldersCount,
			&v.TotalAmount0, &v.TotalAmount1, &v.TotalSupply,
			&v.LastPrice, &v.LastPriceTimestamp, &v.LastFeeUpdate,
			&v.FeePerSecond0Day1, &v.FeePerSecond0Day3, &v.FeePerSecond0Day7, &v.FeePerSecond0Day30,
			&v.FeePerSecond1Day1, &v.FeePerSecond1Day3, &v.FeePerSecond1Day7, &v.FeePerSecond1Day30,
			&v.FeeAPRDay1, &v.FeeAPRDay3, &v.FeeAPRDay7, &v.FeeAPRDay30,
		)
		if err != nil {
			return nil, fmt.Errorf("scan vault: %w", err)
		}
		v.Token0 = decodeAddr(token0)
		v.Token1 = decodeAddr(token1)
		v.Pool = decodeAddr(pool)
		v.FarmingContract = decodeAddr(farming)
		vaults = append(vaults, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vaults: %w", err)
	}
	return vaults, nil
}

// Save creates or overwrites a vault. Overwrites are idempotent.
func (s *VaultStore) Save(ctx context.Context, v *domain.Vault) error {
	query := `
		INSERT INTO vaults (` + vaultColumns + `)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14,
			$15, $16, $17,
			$18, $19, $20, $21,
			$22, $23, $24, $25,
			$26, $27, $28, $29
		)
		ON CONFLICT (id) DO UPDATE SET
			farming_contract = EXCLUDED.farming_contract,
			holders_count = EXCLUDED.holders_count,
			total_amount0 = EXCLUDED.total_amount0,
			total_amount1 = EXCLUDED.total_amount1,
			total_supply = EXCLUDED.total_supply,
			last_price = EXCLUDED.last_price,
			last_price_timestamp = EXCLUDED.last_price_timestamp,
			last_fee_update = EXCLUDED.last_fee_update,
			fee_per_second0_day1 = EXCLUDED.fee_per_second0_day1,
			fee_per_second0_day3 = EXCLUDED.fee_per_second0_day3,
			fee_per_second0_day7 = EXCLUDED.fee_per_second0_day7,
			fee_per_second0_day30 = EXCLUDED.fee_per_second0_day30,
			fee_per_second1_day1 = EXCLUDED.fee_per_second1_day1,
			fee_per_second1_day3 = EXCLUDED.fee_per_second1_day3,
			fee_per_second1_day7 = EXCLUDED.fee_per_second1_day7,
			fee_per_second1_day30 = EXCLUDED.fee_per_second1_day30,
			fee_apr_day1 = EXCLUDED.fee_apr_day1,
			fee_apr_day3 = EXCLUDED.fee_apr_day3,
			fee_apr_day7 = EXCLUDED.fee_apr_day7,
			fee_apr_day30 = EXCLUDED.fee_apr_day30
	`

	_, err := s.pool.Exec(ctx, query,
		v.ID, encodeAddr(v.Token0), encodeAddr(v.Token1), v.Decimals0, v.Decimals1, v.AllowToken0, v.AllowToken1,
		encodeAddr(v.Pool), encodeAddr(v.FarmingContract), v.CreatedAtTimestamp, v.HoldersCount,
		v.TotalAmount0, v.TotalAmount1, v.TotalSupply,
		v.LastPrice, v.LastPriceTimestamp, v.LastFeeUpdate,
		v.FeePerSecond0Day1, v.FeePerSecond0Day3, v.FeePerSecond0Day7, v.FeePerSecond0Day30,
		v.FeePerSecond1Day1, v.FeePerSecond1Day3, v.FeePerSecond1Day7, v.FeePerSecond1Day30,
		v.FeeAPRDay1, v.FeeAPRDay3, v.FeeAPRDay7, v.FeeAPRDay30,
	)
	if err != nil {
		return fmt.Errorf("save vault: %w", err)
	}
	return nil
}
