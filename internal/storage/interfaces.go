package storage

import (
	"context"

	"alm-vault-indexer/internal/domain"
)

// VaultStore provides access to vaults storage.
type VaultStore interface {
	// Get retrieves a vault by ID. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.Vault, error)

	// List retrieves all vaults ordered by ID.
	List(ctx context.Context) ([]*domain.Vault, error)

	// Save creates or overwrites a vault. Overwrites are idempotent.
	Save(ctx context.Context, v *domain.Vault) error
}

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// Get retrieves token metadata by ID. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.Token, error)

	// Save creates or overwrites token metadata.
	Save(ctx context.Context, tok *domain.Token) error
}

// VaultShareStore provides access to vault_shares storage.
type VaultShareStore interface {
	// Get retrieves a share record by its "<vault>-<holder>" ID.
	// Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.VaultShare, error)

	// Save creates or overwrites a share record.
	Save(ctx context.Context, s *domain.VaultShare) error
}

// VaultDepositStore provides access to vault_deposits storage.
type VaultDepositStore interface {
	// Get retrieves a deposit record by its "<txHash>-<logIndex>" ID.
	// Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.VaultDeposit, error)

	// Insert adds a new deposit record. Returns ErrDuplicateKey if the ID
	// exists; derived records are never updated.
	Insert(ctx context.Context, d *domain.VaultDeposit) error
}

// VaultWithdrawStore provides access to vault_withdraws storage.
type VaultWithdrawStore interface {
	// Get retrieves a withdraw record by ID. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.VaultWithdraw, error)

	// Insert adds a new withdraw record. Returns ErrDuplicateKey if exists.
	Insert(ctx context.Context, w *domain.VaultWithdraw) error
}

// VaultRebalanceStore provides access to vault_rebalances storage.
type VaultRebalanceStore interface {
	// Get retrieves a rebalance record by ID. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.VaultRebalance, error)

	// Insert adds a new rebalance record. Returns ErrDuplicateKey if exists.
	Insert(ctx context.Context, r *domain.VaultRebalance) error
}

// VaultCollectFeeStore provides access to vault_collect_fees storage.
type VaultCollectFeeStore interface {
	// Get retrieves a fee-collection record by ID. Returns ErrNotFound if not exists.
	Get(ctx context.Context, id string) (*domain.VaultCollectFee, error)

	// Insert adds a new fee-collection record. Returns ErrDuplicateKey if exists.
	Insert(ctx context.Context, c *domain.VaultCollectFee) error
}

// AprSnapshotStore provides access to the append-only APR analytics feed.
type AprSnapshotStore interface {
	// InsertBulk appends snapshot rows. The feed has no uniqueness contract.
	InsertBulk(ctx context.Context, snaps []*domain.AprSnapshot) error

	// GetByVault retrieves all snapshots for a vault, ordered by timestamp ASC.
	GetByVault(ctx context.Context, vaultID string) ([]*domain.AprSnapshot, error)
}

// Stores bundles every store the accounting engine touches.
// AprSnapshots may be nil, which disables the analytics feed.
type Stores struct {
	Vaults      VaultStore
	Tokens      TokenStore
	Shares      VaultShareStore
	Deposits    VaultDepositStore
	Withdraws   VaultWithdrawStore
	Rebalances  VaultRebalanceStore
	CollectFees VaultCollectFeeStore

	AprSnapshots AprSnapshotStore
}
