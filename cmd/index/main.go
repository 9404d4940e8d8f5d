// Command index runs the ALM vault indexer: it follows a vault factory and
// its vaults on an EVM chain and maintains vault accounting state in
// PostgreSQL, with an optional APR analytics feed in ClickHouse.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"alm-vault-indexer/internal/accounting"
	"alm-vault-indexer/internal/evm"
	"alm-vault-indexer/internal/ingestion"
	"alm-vault-indexer/internal/observability"
	"alm-vault-indexer/internal/storage"
	chstore "alm-vault-indexer/internal/storage/clickhouse"
	"alm-vault-indexer/internal/storage/memory"
	"alm-vault-indexer/internal/storage/migrations"
	pgstore "alm-vault-indexer/internal/storage/postgres"
	"alm-vault-indexer/internal/tokenmeta"
)

func main() {
	mode := flag.String("mode", "live", "Ingestion mode: live or backfill")
	rpcEndpoint := flag.String("rpc-endpoint", "", "EVM JSON-RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", "", "EVM JSON-RPC WebSocket endpoint")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for APR snapshots (empty to disable)")
	factoryAddr := flag.String("factory", "", "Vault factory contract address")
	fromBlock := flag.Uint64("from-block", 0, "Start block for backfill")
	toBlock := flag.Uint64("to-block", 0, "End block for backfill (0 = chain head)")
	chunkSize := flag.Uint64("chunk-size", 2000, "Blocks per eth_getLogs call during backfill")
	blockLag := flag.Uint64("block-lag", 2, "Blocks to buffer before live processing")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *factoryAddr == "" || !common.IsHexAddress(*factoryAddr) {
		logger.Fatal("--factory must be a hex contract address")
	}
	factory := common.HexToAddress(*factoryAddr)

	metrics := observability.NewMetrics("")

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Info("metrics server listening", zap.String("addr", *metricsAddr))
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()

		select {
		case <-sigCh:
			logger.Warn("second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	switch *mode {
	case "live":
		err = runLive(ctx, logger, metrics, liveConfig{
			rpcEndpoint:   *rpcEndpoint,
			wsEndpoint:    *wsEndpoint,
			postgresDSN:   *postgresDSN,
			clickhouseDSN: *clickhouseDSN,
			factory:       factory,
			blockLag:      *blockLag,
			useMemory:     *useMemory,
		})
	case "backfill":
		err = runBackfill(ctx, logger, metrics, backfillConfig{
			rpcEndpoint:   *rpcEndpoint,
			postgresDSN:   *postgresDSN,
			clickhouseDSN: *clickhouseDSN,
			factory:       factory,
			fromBlock:     *fromBlock,
			toBlock:       *toBlock,
			chunkSize:     *chunkSize,
			useMemory:     *useMemory,
		})
	default:
		logger.Fatal("unknown mode", zap.String("mode", *mode))
	}

	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("indexer failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
	}
	return cfg.Build()
}

type liveConfig struct {
	rpcEndpoint   string
	wsEndpoint    string
	postgresDSN   string
	clickhouseDSN string
	factory       common.Address
	blockLag      uint64
	useMemory     bool
}

type backfillConfig struct {
	rpcEndpoint   string
	postgresDSN   string
	clickhouseDSN string
	factory       common.Address
	fromBlock     uint64
	toBlock       uint64
	chunkSize     uint64
	useMemory     bool
}

// buildStores wires the storage bundle and returns a cleanup func.
func buildStores(ctx context.Context, logger *zap.Logger, postgresDSN, clickhouseDSN string, useMemory bool) (storage.Stores, func(), error) {
	if useMemory {
		stores := storage.Stores{
			Vaults:       memory.NewVaultStore(),
			Tokens:       memory.NewTokenStore(),
			Shares:       memory.NewVaultShareStore(),
			Deposits:     memory.NewVaultDepositStore(),
			Withdraws:    memory.NewVaultWithdrawStore(),
			Rebalances:   memory.NewVaultRebalanceStore(),
			CollectFees:  memory.NewVaultCollectFeeStore(),
			AprSnapshots: memory.NewAprSnapshotStore(),
		}
		return stores, func() {}, nil
	}

	if postgresDSN == "" {
		return storage.Stores{}, nil, fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return storage.Stores{}, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return storage.Stores{}, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := storage.Stores{
		Vaults:      pgstore.NewVaultStore(pool),
		Tokens:      pgstore.NewTokenStore(pool),
		Shares:      pgstore.NewVaultShareStore(pool),
		Deposits:    pgstore.NewVaultDepositStore(pool),
		Withdraws:   pgstore.NewVaultWithdrawStore(pool),
		Rebalances:  pgstore.NewVaultRebalanceStore(pool),
		CollectFees: pgstore.NewVaultCollectFeeStore(pool),
	}

	var chConn *chstore.Conn
	if clickhouseDSN != "" {
		chConn, err = migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return storage.Stores{}, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}
		stores.AprSnapshots = chstore.NewAprSnapshotStore(chConn)
	} else {
		logger.Info("clickhouse disabled, apr snapshot feed off")
	}

	cleanup := func() {
		if chConn != nil {
			chConn.Close()
		}
		pool.Close()
	}
	return stores, cleanup, nil
}

// knownVaults loads vault addresses from storage to seed the watched set.
func knownVaults(ctx context.Context, stores storage.Stores) ([]common.Address, error) {
	vaults, err := stores.Vaults.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vaults: %w", err)
	}
	addrs := make([]common.Address, 0, len(vaults))
	for _, v := range vaults {
		addrs = append(addrs, common.HexToAddress(v.ID))
	}
	return addrs, nil
}

func runLive(ctx context.Context, logger *zap.Logger, metrics *observability.Metrics, cfg liveConfig) error {
	if cfg.rpcEndpoint == "" {
		return fmt.Errorf("--rpc-endpoint is required for live mode")
	}
	if cfg.wsEndpoint == "" {
		return fmt.Errorf("--ws-endpoint is required for live mode")
	}

	rpc := evm.NewHTTPClient(cfg.rpcEndpoint, evm.WithMetrics(metrics))

	ws, err := evm.NewWSClient(ctx, cfg.wsEndpoint, nil, logger.Named("ws"))
	if err != nil {
		return fmt.Errorf("create websocket client: %w", err)
	}
	defer ws.Close()

	stores, cleanup, err := buildStores(ctx, logger, cfg.postgresDSN, cfg.clickhouseDSN, cfg.useMemory)
	if err != nil {
		return err
	}
	defer cleanup()

	engine := accounting.NewEngine(
		stores,
		rpc,
		tokenmeta.NewSource(rpc, logger.Named("tokenmeta")),
		logger.Named("accounting"),
		metrics,
	)

	vaults, err := knownVaults(ctx, stores)
	if err != nil {
		return err
	}

	runner := ingestion.NewRunner(ingestion.RunnerOptions{
		Stream:   ws,
		Chain:    rpc,
		Sink:     engine,
		Factory:  cfg.factory,
		Vaults:   vaults,
		BlockLag: cfg.blockLag,
		Logger:   logger.Named("ingestion"),
		Metrics:  metrics,
	})

	return runner.Run(ctx)
}

func runBackfill(ctx context.Context, logger *zap.Logger, metrics *observability.Metrics, cfg backfillConfig) error {
	if cfg.rpcEndpoint == "" {
		return fmt.Errorf("--rpc-endpoint is required for backfill mode")
	}

	rpc := evm.NewHTTPClient(cfg.rpcEndpoint, evm.WithMetrics(metrics))

	stores, cleanup, err := buildStores(ctx, logger, cfg.postgresDSN, cfg.clickhouseDSN, cfg.useMemory)
	if err != nil {
		return err
	}
	defer cleanup()

	engine := accounting.NewEngine(
		stores,
		rpc,
		tokenmeta.NewSource(rpc, logger.Named("tokenmeta")),
		logger.Named("accounting"),
		metrics,
	)

	vaults, err := knownVaults(ctx, stores)
	if err != nil {
		return err
	}

	backfiller := ingestion.NewBackfiller(ingestion.BackfillOptions{
		Fetcher:   rpc,
		Sink:      engine,
		Factory:   cfg.factory,
		Vaults:    vaults,
		ChunkSize: cfg.chunkSize,
		Logger:    logger.Named("backfill"),
		Metrics:   metrics,
	})

	var result *ingestion.BackfillResult
	if cfg.toBlock > 0 {
		result, err = backfiller.BackfillRange(ctx, cfg.fromBlock, cfg.toBlock)
	} else {
		result, err = backfiller.BackfillToHead(ctx, cfg.fromBlock)
	}
	if err != nil {
		return err
	}

	logger.Info("backfill finished",
		zap.Int("events_applied", result.EventsApplied),
		zap.Int("vaults_found", result.VaultsFound),
		zap.Duration("duration", result.Duration),
	)
	return nil
}
