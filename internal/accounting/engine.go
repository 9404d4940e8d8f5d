// Package accounting derives vault state from the ordered on-chain event
// stream: per-vault reserves and supply, per-holder share ledgers,
// multi-horizon fee-rate estimates and annualized yield, plus one immutable
// snapshot record per transactional event.
package accounting

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/observability"
	"alm-vault-indexer/internal/pricing"
	"alm-vault-indexer/internal/storage"
)

// ChainReader is the read-only view of on-chain contract state the engine
// needs. Failures propagate: the engine never substitutes defaults for a
// failed pool read.
type ChainReader interface {
	// GlobalState returns the pool's current raw square-root price
	// (2^96 fixed point) and tick.
	GlobalState(ctx context.Context, pool common.Address) (sqrtPrice *big.Int, tick int32, err error)

	// VaultPool returns the underlying AMM pool bound to a vault contract.
	VaultPool(ctx context.Context, vault common.Address) (common.Address, error)
}

// TokenMetadata is the resolved ERC20-style metadata for one token.
type TokenMetadata struct {
	Symbol      string
	Name        string
	Decimals    int32
	TotalSupply decimal.Decimal
}

// TokenMetadataSource resolves token metadata. Implementations own the
// degradation policy (static tables, documented defaults); Fetch never fails.
type TokenMetadataSource interface {
	Fetch(ctx context.Context, addr common.Address) TokenMetadata
}

// Engine is the vault accounting engine. It processes one event at a time,
// strictly sequentially: every load, computation and save for an event
// completes before the next event is dispatched. It is not safe for
// concurrent use.
type Engine struct {
	stores  storage.Stores
	chain   ChainReader
	tokens  TokenMetadataSource
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewEngine creates an accounting engine. metrics may be nil.
func NewEngine(stores storage.Stores, chain ChainReader, tokens TokenMetadataSource, logger *zap.Logger, metrics *observability.Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		stores:  stores,
		chain:   chain,
		tokens:  tokens,
		logger:  logger,
		metrics: metrics,
	}
}

// Apply routes one event to its handler. A returned error means the event was
// not fully applied; no writes beyond the handler's own loads are made, so
// the upstream source can redeliver safely.
func (e *Engine) Apply(ctx context.Context, ev domain.Event) error {
	var err error
	switch ev := ev.(type) {
	case domain.VaultCreatedEvent:
		err = e.handleVaultCreated(ctx, ev)
	case domain.DepositEvent:
		err = e.handleDeposit(ctx, ev)
	case domain.WithdrawEvent:
		err = e.handleWithdraw(ctx, ev)
	case domain.RebalanceEvent:
		err = e.handleRebalance(ctx, ev)
	case domain.CollectFeesEvent:
		err = e.handleCollectFees(ctx, ev)
	case domain.TransferEvent:
		err = e.handleTransfer(ctx, ev)
	case domain.FarmingContractEvent:
		err = e.handleFarmingContract(ctx, ev)
	default:
		err = fmt.Errorf("%w: unhandled event type %T", storage.ErrInvalidInput, ev)
	}

	env := ev.Env()
	if err != nil {
		if e.metrics != nil {
			e.metrics.HandlerErrors.WithLabelValues(ev.Kind()).Inc()
		}
		return fmt.Errorf("apply %s %s: %w", ev.Kind(), domain.RecordID(env.TxHash, env.LogIndex), err)
	}

	if e.metrics != nil {
		e.metrics.EventsProcessed.WithLabelValues(ev.Kind()).Inc()
	}
	e.logger.Debug("event applied",
		zap.String("kind", ev.Kind()),
		zap.String("vault", env.Address.Hex()),
		zap.String("tx", env.TxHash.Hex()),
		zap.Uint32("log_index", env.LogIndex),
	)
	return nil
}

// loadVault fetches the vault record addressed by an event. Absence is a
// contract violation of the upstream ordering guarantee, not a recoverable
// condition.
func (e *Engine) loadVault(ctx context.Context, addr common.Address) (*domain.Vault, error) {
	v, err := e.stores.Vaults.Get(ctx, domain.VaultID(addr))
	if err != nil {
		return nil, fmt.Errorf("load vault %s: %w", addr.Hex(), err)
	}
	return v, nil
}

// poolSnapshot is one synchronous pool read converted to token prices.
type poolSnapshot struct {
	sqrtPrice decimal.Decimal
	tick      int32
	price0    decimal.Decimal
	price1    decimal.Decimal
}

func (e *Engine) readPool(ctx context.Context, v *domain.Vault) (poolSnapshot, error) {
	sqrtPrice, tick, err := e.chain.GlobalState(ctx, v.Pool)
	if err != nil {
		return poolSnapshot{}, fmt.Errorf("read pool %s: %w", v.Pool.Hex(), err)
	}
	price0, price1 := pricing.PriceToTokenPrices(sqrtPrice, v.Decimals0, v.Decimals1)
	return poolSnapshot{
		sqrtPrice: decimal.NewFromBigInt(sqrtPrice, 0),
		tick:      tick,
		price0:    price0,
		price1:    price1,
	}, nil
}

// recordExists reports whether a derived record lookup found an existing key,
// distinguishing redelivery from lookup failure.
func recordExists(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (e *Engine) skipDuplicate(kind, id string) {
	if e.metrics != nil {
		e.metrics.DuplicateEvents.WithLabelValues(kind).Inc()
	}
	e.logger.Debug("duplicate delivery skipped", zap.String("kind", kind), zap.String("id", id))
}
