package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// VaultShare tracks one (vault, holder) pair of the share ledger.
// Corresponds to vault_shares table in PostgreSQL;
// ID is "<vaultHex>-<holderHex>".
//
// Both balances are kept in human (18-decimal adjusted) share units.
// Balance covers freely transferable shares held directly; Staked covers
// shares deposited into the vault's farming contract on the holder's behalf.
type VaultShare struct {
	ID                 string
	Vault              common.Address
	User               common.Address
	Balance            decimal.Decimal
	Staked             decimal.Decimal
	CreatedAtTimestamp int64
}

// ShareID returns the composite record ID for a (vault, holder) pair.
func ShareID(vault, user common.Address) string {
	return VaultID(vault) + "-" + VaultID(user)
}
