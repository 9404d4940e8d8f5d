package domain

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Derived event records: one immutable point-in-time snapshot per
// (transaction hash, log index), created at most once per key.
// IDs are "<txHash>-<logIndex>".

// RecordID returns the composite key for a derived event record.
func RecordID(txHash common.Hash, logIndex uint32) string {
	return txHash.Hex() + "-" + strconv.FormatUint(uint64(logIndex), 10)
}

// VaultDeposit records a single deposit event.
// SqrtPrice is the pool's raw square-root price at event time; the
// TotalAmount*Before / TotalSupply fields snapshot the vault immediately
// before this event's own mutation, TotalAmount0/1 the running totals after.
type VaultDeposit struct {
	ID                 string
	Vault              common.Address
	Sender             common.Address
	To                 common.Address
	Origin             common.Address // transaction sender
	Shares             decimal.Decimal
	Amount0            decimal.Decimal
	Amount1            decimal.Decimal
	CreatedAtTimestamp int64
	Tick               int32
	SqrtPrice          decimal.Decimal
	LastPrice          decimal.Decimal
	TotalAmount0Before decimal.Decimal
	TotalAmount1Before decimal.Decimal
	TotalAmount0       decimal.Decimal
	TotalAmount1       decimal.Decimal
	TotalSupply        decimal.Decimal
}

// VaultWithdraw records a single withdraw event.
type VaultWithdraw struct {
	ID                 string
	Vault              common.Address
	Sender             common.Address
	To                 common.Address
	Origin             common.Address
	Shares             decimal.Decimal
	Amount0            decimal.Decimal
	Amount1            decimal.Decimal
	CreatedAtTimestamp int64
	Tick               int32
	SqrtPrice          decimal.Decimal
	LastPrice          decimal.Decimal
	TotalAmount0Before decimal.Decimal
	TotalAmount1Before decimal.Decimal
	TotalAmount0       decimal.Decimal
	TotalAmount1       decimal.Decimal
	TotalSupply        decimal.Decimal
}

// VaultRebalance records a single rebalance event. Tick comes from the event
// itself, not the pool read; TotalAmount0/1 are the authoritative absolute
// reserves supplied by the event.
type VaultRebalance struct {
	ID                 string
	Vault              common.Address
	CreatedAtTimestamp int64
	Tick               int32
	SqrtPrice          decimal.Decimal
	LastPrice          decimal.Decimal
	TotalAmount0       decimal.Decimal
	TotalAmount1       decimal.Decimal
	FeeAmount0         decimal.Decimal
	FeeAmount1         decimal.Decimal
	TotalSupply        decimal.Decimal
}

// VaultCollectFee records a single fee-collection event.
type VaultCollectFee struct {
	ID                 string
	Vault              common.Address
	Sender             common.Address
	Origin             common.Address
	CreatedAtTimestamp int64
	Tick               int32
	SqrtPrice          decimal.Decimal
	LastPrice          decimal.Decimal
	FeeAmount0         decimal.Decimal
	FeeAmount1         decimal.Decimal
	TotalAmount0       decimal.Decimal
	TotalAmount1       decimal.Decimal
	TotalSupply        decimal.Decimal
}

// AprSnapshot is an append-only analytics row written after each
// fee-generating event. Values are float64: the snapshot feed is a lossy
// reporting surface, not accounting state.
type AprSnapshot struct {
	Vault     string
	Timestamp int64
	AprDay1   float64
	AprDay3   float64
	AprDay7   float64
	AprDay30  float64
	TVL       float64 // total value locked in token1 units
}
