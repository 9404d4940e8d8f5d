package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/evm"
	"alm-vault-indexer/internal/observability"
)

// EventSink applies decoded events. Implemented by the accounting engine.
type EventSink interface {
	Apply(ctx context.Context, ev domain.Event) error
}

// ChainSource supplies the per-log chain context a raw log does not carry.
type ChainSource interface {
	BlockTime(ctx context.Context, number uint64) (int64, error)
	TransactionSender(ctx context.Context, hash common.Hash) (common.Address, error)
}

// LogStream is a live log subscription whose address filter can grow.
// Implemented by evm.WSClient.
type LogStream interface {
	Logs() <-chan evm.Log
	SubscribeLogs(addresses []common.Address) error
	AddAddress(addr common.Address) error
}

// Runner consumes the live log stream and applies events strictly in block
// order, then log order within a block. Logs are buffered per block and a
// block is processed only once it trails the highest seen block by the lag
// window, so out-of-order WebSocket delivery cannot reorder accounting.
type Runner struct {
	stream  LogStream
	chain   ChainSource
	sink    EventSink
	factory common.Address
	logger  *zap.Logger
	metrics *observability.Metrics

	blockLag      uint64
	flushInterval time.Duration

	// watched is the vault address set; grows as the factory announces
	// vaults. The factory itself is always watched.
	watched map[common.Address]bool

	buffer       map[uint64][]evm.Log
	highestBlock uint64

	timeCache   map[uint64]int64
	senderCache map[common.Hash]common.Address
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	Stream  LogStream
	Chain   ChainSource
	Sink    EventSink
	Factory common.Address
	// Vaults seeds the watched set, for restarts with known vaults.
	Vaults        []common.Address
	BlockLag      uint64        // default 2 blocks
	FlushInterval time.Duration // default 5s
	Logger        *zap.Logger
	Metrics       *observability.Metrics
}

const senderCacheLimit = 8192

// NewRunner creates a live ingestion runner.
func NewRunner(opts RunnerOptions) *Runner {
	blockLag := opts.BlockLag
	if blockLag == 0 {
		blockLag = 2
	}
	flushInterval := opts.FlushInterval
	if flushInterval == 0 {
		flushInterval = 5 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	watched := make(map[common.Address]bool, len(opts.Vaults)+1)
	for _, v := range opts.Vaults {
		watched[v] = true
	}

	return &Runner{
		stream:        opts.Stream,
		chain:         opts.Chain,
		sink:          opts.Sink,
		factory:       opts.Factory,
		logger:        logger,
		metrics:       opts.Metrics,
		blockLag:      blockLag,
		flushInterval: flushInterval,
		watched:       watched,
		buffer:        make(map[uint64][]evm.Log),
		timeCache:     make(map[uint64]int64),
		senderCache:   make(map[common.Hash]common.Address),
	}
}

// Run subscribes and processes logs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	addresses := make([]common.Address, 0, len(r.watched)+1)
	addresses = append(addresses, r.factory)
	for addr := range r.watched {
		addresses = append(addresses, addr)
	}
	if err := r.stream.SubscribeLogs(addresses); err != nil {
		return fmt.Errorf("subscribe logs: %w", err)
	}
	r.logger.Info("live ingestion started",
		zap.String("factory", r.factory.Hex()),
		zap.Int("vaults", len(r.watched)),
		zap.Uint64("block_lag", r.blockLag),
	)

	// Periodic flush re-runs settlement between log deliveries. It still
	// honors the lag window: the newest blockLag blocks stay buffered
	// until a higher block confirms them, even on a quiet chain.
	flushTicker := time.NewTicker(r.flushInterval)
	defer flushTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := r.flushThrough(ctx, r.highestBlock); err != nil {
				r.logger.Warn("flush on shutdown failed", zap.Error(err))
			}
			return ctx.Err()

		case log, ok := <-r.stream.Logs():
			if !ok {
				return errors.New("log stream closed")
			}
			if err := r.bufferLog(ctx, log); err != nil {
				return err
			}

		case <-flushTicker.C:
			if err := r.flushSettled(ctx); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) bufferLog(ctx context.Context, log evm.Log) error {
	if r.metrics != nil {
		r.metrics.LogsReceived.Inc()
	}
	if log.Removed {
		// Reorg notice for a log this runner may have already applied.
		// Derived records are idempotent so the replacement block's logs
		// reconverge; nothing to unwind here.
		r.logger.Warn("removed log received",
			zap.String("tx", log.TxHash.Hex()),
			zap.Uint64("block", uint64(log.BlockNumber)),
		)
		return nil
	}

	block := uint64(log.BlockNumber)
	r.buffer[block] = append(r.buffer[block], log)

	if block > r.highestBlock {
		r.highestBlock = block
		if r.metrics != nil {
			r.metrics.HighestBlock.Set(float64(block))
		}
	}
	if r.metrics != nil {
		r.metrics.BlockBufferSize.Set(float64(len(r.buffer)))
	}
	return r.flushSettled(ctx)
}

// flushSettled processes every buffered block at least blockLag behind the
// highest seen block.
func (r *Runner) flushSettled(ctx context.Context) error {
	if r.highestBlock < r.blockLag {
		return nil
	}
	return r.flushThrough(ctx, r.highestBlock-r.blockLag)
}

func (r *Runner) flushThrough(ctx context.Context, through uint64) error {
	if len(r.buffer) == 0 {
		return nil
	}

	blocks := make([]uint64, 0, len(r.buffer))
	for b := range r.buffer {
		if b <= through {
			blocks = append(blocks, b)
		}
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	for _, b := range blocks {
		logs := r.buffer[b]
		sort.Slice(logs, func(i, j int) bool { return logs[i].Index < logs[j].Index })
		for _, log := range logs {
			if err := r.processLog(ctx, log); err != nil {
				return err
			}
		}
		delete(r.buffer, b)
		delete(r.timeCache, b)
	}
	if r.metrics != nil {
		r.metrics.BlockBufferSize.Set(float64(len(r.buffer)))
	}
	return nil
}

// processLog decodes and applies one log. A decode failure on a watched
// contract and an unknown topic both skip the log; an apply failure stops
// the runner so the operator can intervene before state diverges.
func (r *Runner) processLog(ctx context.Context, log evm.Log) error {
	if log.Address != r.factory && !r.watched[log.Address] {
		// Subscription races with AddAddress; stale-filter logs for
		// contracts this runner never tracked are dropped.
		return nil
	}

	origin, blockTime, err := r.logContext(ctx, log)
	if err != nil {
		return fmt.Errorf("log context %s: %w", log.TxHash.Hex(), err)
	}

	ev, err := DecodeLog(log, origin, blockTime)
	if err != nil {
		if errors.Is(err, ErrSkip) {
			if r.metrics != nil {
				r.metrics.DecodeSkips.Inc()
			}
			return nil
		}
		r.logger.Warn("log decode failed",
			zap.String("tx", log.TxHash.Hex()),
			zap.Uint("log_index", uint(log.Index)),
			zap.Error(err),
		)
		if r.metrics != nil {
			r.metrics.DecodeSkips.Inc()
		}
		return nil
	}
	if r.metrics != nil {
		r.metrics.LogsDecoded.WithLabelValues(ev.Kind()).Inc()
	}

	if err := r.sink.Apply(ctx, ev); err != nil {
		return err
	}

	if created, ok := ev.(domain.VaultCreatedEvent); ok {
		r.watchVault(created.VaultAddress)
	}
	return nil
}

// watchVault adds a vault to the watched set and widens the subscription.
func (r *Runner) watchVault(addr common.Address) {
	if r.watched[addr] {
		return
	}
	r.watched[addr] = true
	if err := r.stream.AddAddress(addr); err != nil {
		r.logger.Warn("widen subscription failed",
			zap.String("vault", addr.Hex()), zap.Error(err))
		return
	}
	r.logger.Info("vault watched", zap.String("vault", addr.Hex()))
}

// logContext resolves the transaction sender and block timestamp for a log,
// caching both; every log of a tx shares a sender and every log of a block
// shares a timestamp.
func (r *Runner) logContext(ctx context.Context, log evm.Log) (common.Address, int64, error) {
	sender, ok := r.senderCache[log.TxHash]
	if !ok {
		var err error
		sender, err = r.chain.TransactionSender(ctx, log.TxHash)
		if err != nil {
			return common.Address{}, 0, fmt.Errorf("transaction sender: %w", err)
		}
		if len(r.senderCache) >= senderCacheLimit {
			r.senderCache = make(map[common.Hash]common.Address)
		}
		r.senderCache[log.TxHash] = sender
	}

	block := uint64(log.BlockNumber)
	blockTime, ok := r.timeCache[block]
	if !ok {
		var err error
		blockTime, err = r.chain.BlockTime(ctx, block)
		if err != nil {
			return common.Address{}, 0, fmt.Errorf("block time: %w", err)
		}
		r.timeCache[block] = blockTime
	}
	return sender, blockTime, nil
}
