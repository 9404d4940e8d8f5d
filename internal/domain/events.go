package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Event is one decoded on-chain event plus its delivery envelope.
// Events arrive in block order, then log order within a block; the
// accounting engine depends on that ordering.
type Event interface {
	// Env returns the delivery envelope shared by all event kinds.
	Env() Envelope
	// Kind returns a stable name for routing and metrics labels.
	Kind() string
}

// Envelope carries the chain context every handler needs.
type Envelope struct {
	Address     common.Address // emitting contract
	TxHash      common.Hash
	LogIndex    uint32
	Origin      common.Address // transaction sender
	BlockNumber uint64
	BlockTime   int64 // Unix timestamp (seconds)
}

// Event kind names used for routing and metrics labels.
const (
	KindVaultCreated    = "vault_created"
	KindDeposit         = "deposit"
	KindWithdraw        = "withdraw"
	KindRebalance       = "rebalance"
	KindCollectFees     = "collect_fees"
	KindTransfer        = "transfer"
	KindFarmingContract = "farming_contract"
)

// VaultCreatedEvent announces a new vault from the factory.
// Envelope.Address is the factory; VaultAddress is the created vault.
type VaultCreatedEvent struct {
	Envelope
	VaultAddress common.Address
	TokenA       common.Address
	TokenB       common.Address
	AllowTokenA  bool
	AllowTokenB  bool
}

// DepositEvent adds liquidity to a vault and mints shares.
type DepositEvent struct {
	Envelope
	Sender  common.Address
	To      common.Address
	Shares  decimal.Decimal // raw units
	Amount0 decimal.Decimal // raw units
	Amount1 decimal.Decimal // raw units
}

// WithdrawEvent removes liquidity from a vault and burns shares.
type WithdrawEvent struct {
	Envelope
	Sender  common.Address
	To      common.Address
	Shares  decimal.Decimal
	Amount0 decimal.Decimal
	Amount1 decimal.Decimal
}

// RebalanceEvent repositions vault liquidity. TotalAmount0/1 are absolute
// reserves after the rebalance; FeeAmount0/1 are fees collected since the
// previous fee update.
type RebalanceEvent struct {
	Envelope
	Tick         int32
	TotalAmount0 decimal.Decimal
	TotalAmount1 decimal.Decimal
	FeeAmount0   decimal.Decimal
	FeeAmount1   decimal.Decimal
}

// CollectFeesEvent reports fees collected outside a rebalance.
type CollectFeesEvent struct {
	Envelope
	Sender     common.Address
	FeeAmount0 decimal.Decimal
	FeeAmount1 decimal.Decimal
}

// TransferEvent is an ERC20 share transfer on the vault token.
type TransferEvent struct {
	Envelope
	From  common.Address
	To    common.Address
	Value decimal.Decimal // raw units
}

// FarmingContractEvent binds the vault's staking contract address.
type FarmingContractEvent struct {
	Envelope
	FarmingContract common.Address
}

func (e VaultCreatedEvent) Env() Envelope    { return e.Envelope }
func (e DepositEvent) Env() Envelope         { return e.Envelope }
func (e WithdrawEvent) Env() Envelope        { return e.Envelope }
func (e RebalanceEvent) Env() Envelope       { return e.Envelope }
func (e CollectFeesEvent) Env() Envelope     { return e.Envelope }
func (e TransferEvent) Env() Envelope        { return e.Envelope }
func (e FarmingContractEvent) Env() Envelope { return e.Envelope }

func (VaultCreatedEvent) Kind() string    { return KindVaultCreated }
func (DepositEvent) Kind() string         { return KindDeposit }
func (WithdrawEvent) Kind() string        { return KindWithdraw }
func (RebalanceEvent) Kind() string       { return KindRebalance }
func (CollectFeesEvent) Kind() string     { return KindCollectFees }
func (TransferEvent) Kind() string        { return KindTransfer }
func (FarmingContractEvent) Kind() string { return KindFarmingContract }
