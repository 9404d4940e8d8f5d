package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Token is cached ERC20-style metadata, created lazily the first time a
// vault-creation event references the address and immutable thereafter.
// Corresponds to tokens table in PostgreSQL; ID is the lowercase hex address.
type Token struct {
	ID          string
	Address     common.Address
	Symbol      string
	Name        string
	Decimals    int32
	TotalSupply decimal.Decimal // raw units at fetch time
	FetchedAt   int64           // Unix timestamp (seconds)
}

// TokenID returns the canonical token record ID for an address.
func TokenID(addr common.Address) string {
	return VaultID(addr)
}
