package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Vault represents one managed ALM vault contract.
// Corresponds to vaults table in PostgreSQL; ID is the lowercase hex address.
//
// Reserve and supply fields hold raw integer token units. Price, fee-rate and
// APR fields hold exact decimals: fee rates are raw units per second, prices
// and APRs are human (decimal-adjusted) units.
type Vault struct {
	ID                 string         // lowercase hex vault address
	Token0             common.Address // immutable after creation
	Token1             common.Address
	Decimals0          int32
	Decimals1          int32
	AllowToken0        bool // deposit permission flags, immutable
	AllowToken1        bool
	Pool               common.Address // underlying AMM pool
	FarmingContract    common.Address // zero until the FarmingContract event
	CreatedAtTimestamp int64          // Unix timestamp (seconds)
	HoldersCount       int64          // distinct share holders seen

	TotalAmount0 decimal.Decimal // current token0 reserves, raw units
	TotalAmount1 decimal.Decimal // current token1 reserves, raw units
	TotalSupply  decimal.Decimal // shares outstanding, raw units

	LastPrice          decimal.Decimal // token1 per token0
	LastPriceTimestamp int64
	LastFeeUpdate      int64 // one clock shared by all eight rate fields

	// Fee revenue per second, one estimate per token per horizon.
	FeePerSecond0Day1  decimal.Decimal
	FeePerSecond0Day3  decimal.Decimal
	FeePerSecond0Day7  decimal.Decimal
	FeePerSecond0Day30 decimal.Decimal
	FeePerSecond1Day1  decimal.Decimal
	FeePerSecond1Day3  decimal.Decimal
	FeePerSecond1Day7  decimal.Decimal
	FeePerSecond1Day30 decimal.Decimal

	// Annualized fee yield in percent, one per horizon.
	FeeAPRDay1  decimal.Decimal
	FeeAPRDay3  decimal.Decimal
	FeeAPRDay7  decimal.Decimal
	FeeAPRDay30 decimal.Decimal
}

// VaultID returns the canonical vault record ID for an address.
// IDs are lowercase 0x-prefixed hex.
func VaultID(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}
