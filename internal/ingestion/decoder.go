// Package ingestion turns raw chain logs into accounting engine events.
// A Decoder maps log topics to typed events, the Runner keeps live logs in
// block order, and the Backfiller replays historical ranges through the
// same path.
package ingestion

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/evm"
)

// Event topic hashes. Keccak256 of the canonical event signatures.
var (
	topicVaultCreated    = crypto.Keccak256Hash([]byte("AlgebraVaultCreated(address,address,bool,bool,address)"))
	topicDeposit         = crypto.Keccak256Hash([]byte("Deposit(address,address,uint256,uint256,uint256)"))
	topicWithdraw        = crypto.Keccak256Hash([]byte("Withdraw(address,address,uint256,uint256,uint256)"))
	topicRebalance       = crypto.Keccak256Hash([]byte("Rebalance(int24,uint256,uint256,uint256,uint256)"))
	topicCollectFees     = crypto.Keccak256Hash([]byte("CollectFees(address,uint256,uint256)"))
	topicTransfer        = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))
	topicFarmingContract = crypto.Keccak256Hash([]byte("FarmingContract(address)"))
)

const wordSize = 32

// ErrSkip marks a log that carries none of the known topics. The caller
// drops the log and moves on; it is not a malformed-input condition.
var ErrSkip = fmt.Errorf("log topic not handled")

// DecodeLog converts one raw log into a typed event. origin and blockTime
// come from the surrounding transaction and block; the log itself does not
// carry them.
func DecodeLog(log evm.Log, origin common.Address, blockTime int64) (domain.Event, error) {
	if len(log.Topics) == 0 {
		return nil, ErrSkip
	}

	env := domain.Envelope{
		Address:     log.Address,
		TxHash:      log.TxHash,
		LogIndex:    uint32(log.Index),
		Origin:      origin,
		BlockNumber: uint64(log.BlockNumber),
		BlockTime:   blockTime,
	}

	switch log.Topics[0] {
	case topicVaultCreated:
		return decodeVaultCreated(log, env)
	case topicDeposit:
		return decodeDeposit(log, env)
	case topicWithdraw:
		return decodeWithdraw(log, env)
	case topicRebalance:
		return decodeRebalance(log, env)
	case topicCollectFees:
		return decodeCollectFees(log, env)
	case topicTransfer:
		return decodeTransfer(log, env)
	case topicFarmingContract:
		return decodeFarmingContract(log, env)
	default:
		return nil, ErrSkip
	}
}

// AlgebraVaultCreated(address indexed tokenA, address indexed tokenB,
// bool allowTokenA, bool allowTokenB, address vault)
func decodeVaultCreated(log evm.Log, env domain.Envelope) (domain.Event, error) {
	if err := checkShape(log, 3, 3); err != nil {
		return nil, fmt.Errorf("AlgebraVaultCreated: %w", err)
	}
	return domain.VaultCreatedEvent{
		Envelope:     env,
		TokenA:       topicAddress(log.Topics[1]),
		TokenB:       topicAddress(log.Topics[2]),
		AllowTokenA:  wordBool(log.Data, 0),
		AllowTokenB:  wordBool(log.Data, 1),
		VaultAddress: wordAddress(log.Data, 2),
	}, nil
}

// Deposit(address indexed sender, address indexed to, uint256 shares,
// uint256 amount0, uint256 amount1)
func decodeDeposit(log evm.Log, env domain.Envelope) (domain.Event, error) {
	if err := checkShape(log, 3, 3); err != nil {
		return nil, fmt.Errorf("Deposit: %w", err)
	}
	return domain.DepositEvent{
		Envelope: env,
		Sender:   topicAddress(log.Topics[1]),
		To:       topicAddress(log.Topics[2]),
		Shares:   wordDecimal(log.Data, 0),
		Amount0:  wordDecimal(log.Data, 1),
		Amount1:  wordDecimal(log.Data, 2),
	}, nil
}

// Withdraw(address indexed sender, address indexed to, uint256 shares,
// uint256 amount0, uint256 amount1)
func decodeWithdraw(log evm.Log, env domain.Envelope) (domain.Event, error) {
	if err := checkShape(log, 3, 3); err != nil {
		return nil, fmt.Errorf("Withdraw: %w", err)
	}
	return domain.WithdrawEvent{
		Envelope: env,
		Sender:   topicAddress(log.Topics[1]),
		To:       topicAddress(log.Topics[2]),
		Shares:   wordDecimal(log.Data, 0),
		Amount0:  wordDecimal(log.Data, 1),
		Amount1:  wordDecimal(log.Data, 2),
	}, nil
}

// Rebalance(int24 tick, uint256 totalAmount0, uint256 totalAmount1,
// uint256 feeAmount0, uint256 feeAmount1)
func decodeRebalance(log evm.Log, env domain.Envelope) (domain.Event, error) {
	if err := checkShape(log, 1, 5); err != nil {
		return nil, fmt.Errorf("Rebalance: %w", err)
	}
	return domain.RebalanceEvent{
		Envelope:     env,
		Tick:         wordInt24(log.Data, 0),
		TotalAmount0: wordDecimal(log.Data, 1),
		TotalAmount1: wordDecimal(log.Data, 2),
		FeeAmount0:   wordDecimal(log.Data, 3),
		FeeAmount1:   wordDecimal(log.Data, 4),
	}, nil
}

// CollectFees(address indexed sender, uint256 feeAmount0, uint256 feeAmount1)
func decodeCollectFees(log evm.Log, env domain.Envelope) (domain.Event, error) {
	if err := checkShape(log, 2, 2); err != nil {
		return nil, fmt.Errorf("CollectFees: %w", err)
	}
	return domain.CollectFeesEvent{
		Envelope:   env,
		Sender:     topicAddress(log.Topics[1]),
		FeeAmount0: wordDecimal(log.Data, 0),
		FeeAmount1: wordDecimal(log.Data, 1),
	}, nil
}

// Transfer(address indexed from, address indexed to, uint256 value)
func decodeTransfer(log evm.Log, env domain.Envelope) (domain.Event, error) {
	if err := checkShape(log, 3, 1); err != nil {
		return nil, fmt.Errorf("Transfer: %w", err)
	}
	return domain.TransferEvent{
		Envelope: env,
		From:     topicAddress(log.Topics[1]),
		To:       topicAddress(log.Topics[2]),
		Value:    wordDecimal(log.Data, 0),
	}, nil
}

// FarmingContract(address farmingContract)
func decodeFarmingContract(log evm.Log, env domain.Envelope) (domain.Event, error) {
	// The address lands in a topic or in data depending on compiler
	// settings; accept either.
	if len(log.Topics) >= 2 {
		return domain.FarmingContractEvent{
			Envelope:        env,
			FarmingContract: topicAddress(log.Topics[1]),
		}, nil
	}
	if err := checkShape(log, 1, 1); err != nil {
		return nil, fmt.Errorf("FarmingContract: %w", err)
	}
	return domain.FarmingContractEvent{
		Envelope:        env,
		FarmingContract: wordAddress(log.Data, 0),
	}, nil
}

func checkShape(log evm.Log, topics, dataWords int) error {
	if len(log.Topics) != topics {
		return fmt.Errorf("want %d topics, got %d", topics, len(log.Topics))
	}
	if len(log.Data) < dataWords*wordSize {
		return fmt.Errorf("want %d data words, got %d bytes", dataWords, len(log.Data))
	}
	return nil
}

func topicAddress(t common.Hash) common.Address {
	return common.BytesToAddress(t.Bytes()[12:])
}

func dataWord(data []byte, i int) []byte {
	return data[i*wordSize : (i+1)*wordSize]
}

func wordAddress(data []byte, i int) common.Address {
	return common.BytesToAddress(dataWord(data, i)[12:])
}

func wordBool(data []byte, i int) bool {
	return dataWord(data, i)[wordSize-1] != 0
}

func wordDecimal(data []byte, i int) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetBytes(dataWord(data, i)), 0)
}

// wordInt24 reads an int24 sign-extended into an ABI word.
func wordInt24(data []byte, i int) int32 {
	v := new(big.Int).SetBytes(dataWord(data, i))
	if v.Bit(wordSize*8-1) == 1 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), wordSize*8))
	}
	return int32(v.Int64())
}
