package ingestion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"alm-vault-indexer/internal/domain"
	"alm-vault-indexer/internal/evm"
	"alm-vault-indexer/internal/observability"
)

// LogFetcher reads historical logs and their chain context over RPC.
// Implemented by evm.HTTPClient.
type LogFetcher interface {
	ChainSource
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, addresses []common.Address, from, to uint64) ([]evm.Log, error)
}

// Backfiller replays a historical block range through the accounting
// engine. Each chunk fetches factory logs before vault logs so that vaults
// created inside the chunk are watched before their own logs are applied.
type Backfiller struct {
	fetcher   LogFetcher
	sink      EventSink
	factory   common.Address
	chunkSize uint64
	logger    *zap.Logger
	metrics   *observability.Metrics

	watched map[common.Address]bool
}

// BackfillOptions configures a Backfiller.
type BackfillOptions struct {
	Fetcher LogFetcher
	Sink    EventSink
	Factory common.Address
	// Vaults seeds the watched set with vaults created before the range.
	Vaults    []common.Address
	ChunkSize uint64 // blocks per eth_getLogs call, default 2000
	Logger    *zap.Logger
	Metrics   *observability.Metrics
}

// NewBackfiller creates a historical backfiller.
func NewBackfiller(opts BackfillOptions) *Backfiller {
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = 2000
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	watched := make(map[common.Address]bool, len(opts.Vaults))
	for _, v := range opts.Vaults {
		watched[v] = true
	}

	return &Backfiller{
		fetcher:   opts.Fetcher,
		sink:      opts.Sink,
		factory:   opts.Factory,
		chunkSize: chunkSize,
		logger:    logger,
		metrics:   opts.Metrics,
		watched:   watched,
	}
}

// BackfillResult contains statistics from a backfill run.
type BackfillResult struct {
	LogsFetched   int
	EventsApplied int
	LogsSkipped   int
	VaultsFound   int
	Duration      time.Duration
}

// BackfillToHead backfills from a block up to the current chain head.
func (b *Backfiller) BackfillToHead(ctx context.Context, from uint64) (*BackfillResult, error) {
	head, err := b.fetcher.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain head: %w", err)
	}
	return b.BackfillRange(ctx, from, head)
}

// BackfillRange replays [from, to] inclusive, in chunks.
func (b *Backfiller) BackfillRange(ctx context.Context, from, to uint64) (*BackfillResult, error) {
	if from > to {
		return nil, fmt.Errorf("invalid range: from %d > to %d", from, to)
	}

	start := time.Now()
	result := &BackfillResult{}

	b.logger.Info("backfill started",
		zap.Uint64("from", from),
		zap.Uint64("to", to),
		zap.Uint64("chunk_size", b.chunkSize),
	)

	for chunkFrom := from; chunkFrom <= to; chunkFrom += b.chunkSize {
		chunkTo := chunkFrom + b.chunkSize - 1
		if chunkTo > to {
			chunkTo = to
		}
		if err := b.processChunk(ctx, chunkFrom, chunkTo, result); err != nil {
			return result, fmt.Errorf("chunk %d-%d: %w", chunkFrom, chunkTo, err)
		}
		if b.metrics != nil {
			b.metrics.HighestBlock.Set(float64(chunkTo))
		}
	}

	result.Duration = time.Since(start)
	b.logger.Info("backfill complete",
		zap.Int("logs_fetched", result.LogsFetched),
		zap.Int("events_applied", result.EventsApplied),
		zap.Int("logs_skipped", result.LogsSkipped),
		zap.Int("vaults_found", result.VaultsFound),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (b *Backfiller) processChunk(ctx context.Context, from, to uint64, result *BackfillResult) error {
	// Factory first: a vault created at block N can emit its own logs at
	// block N, so the watched set must be current before vault logs are
	// fetched.
	factoryLogs, err := b.fetcher.FilterLogs(ctx, []common.Address{b.factory}, from, to)
	if err != nil {
		return fmt.Errorf("fetch factory logs: %w", err)
	}
	result.LogsFetched += len(factoryLogs)

	cc := newChunkContext(b.fetcher)
	sortLogs(factoryLogs)
	for _, log := range factoryLogs {
		applied, err := b.processLog(ctx, cc, log, result)
		if err != nil {
			return err
		}
		if applied {
			result.EventsApplied++
		}
	}

	if len(b.watched) == 0 {
		return nil
	}

	vaults := make([]common.Address, 0, len(b.watched))
	for addr := range b.watched {
		vaults = append(vaults, addr)
	}
	vaultLogs, err := b.fetcher.FilterLogs(ctx, vaults, from, to)
	if err != nil {
		return fmt.Errorf("fetch vault logs: %w", err)
	}
	result.LogsFetched += len(vaultLogs)

	sortLogs(vaultLogs)
	for _, log := range vaultLogs {
		applied, err := b.processLog(ctx, cc, log, result)
		if err != nil {
			return err
		}
		if applied {
			result.EventsApplied++
		}
	}
	return nil
}

func (b *Backfiller) processLog(ctx context.Context, cc *chunkContext, log evm.Log, result *BackfillResult) (bool, error) {
	origin, blockTime, err := cc.resolve(ctx, log)
	if err != nil {
		return false, fmt.Errorf("log context %s: %w", log.TxHash.Hex(), err)
	}

	ev, err := DecodeLog(log, origin, blockTime)
	if err != nil {
		// Historical logs carry plenty of foreign topics; skip quietly.
		result.LogsSkipped++
		return false, nil
	}

	if err := b.sink.Apply(ctx, ev); err != nil {
		return false, err
	}

	if created, ok := ev.(domain.VaultCreatedEvent); ok {
		if !b.watched[created.VaultAddress] {
			b.watched[created.VaultAddress] = true
			result.VaultsFound++
		}
	}
	return true, nil
}

// Vaults returns the watched vault set after a run, for handing over to a
// live Runner.
func (b *Backfiller) Vaults() []common.Address {
	vaults := make([]common.Address, 0, len(b.watched))
	for addr := range b.watched {
		vaults = append(vaults, addr)
	}
	return vaults
}

func sortLogs(logs []evm.Log) {
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].BlockNumber != logs[j].BlockNumber {
			return logs[i].BlockNumber < logs[j].BlockNumber
		}
		return logs[i].Index < logs[j].Index
	})
}

// chunkContext caches block times and transaction senders for one chunk.
type chunkContext struct {
	chain   ChainSource
	times   map[uint64]int64
	senders map[common.Hash]common.Address
}

func newChunkContext(chain ChainSource) *chunkContext {
	return &chunkContext{
		chain:   chain,
		times:   make(map[uint64]int64),
		senders: make(map[common.Hash]common.Address),
	}
}

func (c *chunkContext) resolve(ctx context.Context, log evm.Log) (common.Address, int64, error) {
	sender, ok := c.senders[log.TxHash]
	if !ok {
		var err error
		sender, err = c.chain.TransactionSender(ctx, log.TxHash)
		if err != nil {
			return common.Address{}, 0, err
		}
		c.senders[log.TxHash] = sender
	}

	block := uint64(log.BlockNumber)
	blockTime, ok := c.times[block]
	if !ok {
		var err error
		blockTime, err = c.chain.BlockTime(ctx, block)
		if err != nil {
			return common.Address{}, 0, err
		}
		c.times[block] = blockTime
	}
	return sender, blockTime, nil
}
