// Package main runs the fresh wallet detection service: scheduled
// scans, the admin HTTP API and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"fresh-wallet-scout/internal/api"
	"fresh-wallet-scout/internal/cache"
	"fresh-wallet-scout/internal/chaindata"
	"fresh-wallet-scout/internal/config"
	"fresh-wallet-scout/internal/detection"
	"fresh-wallet-scout/internal/domain"
	"fresh-wallet-scout/internal/freshness"
	"fresh-wallet-scout/internal/logging"
	"fresh-wallet-scout/internal/notify"
	"fresh-wallet-scout/internal/orchestrator"
	"fresh-wallet-scout/internal/resolver"
	"fresh-wallet-scout/internal/storage"
	"fresh-wallet-scout/internal/storage/memory"
	"fresh-wallet-scout/internal/storage/migrations"
	pgstore "fresh-wallet-scout/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	flag.Parse()

	// A .env file is optional, the real environment wins.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway := chaindata.NewGateway(cfg.Upstream.BaseURL, cfg.Upstream.APIKey,
		chaindata.WithTimeout(cfg.Upstream.Timeout()),
		chaindata.WithRetryAttempts(cfg.Upstream.RetryAttempts),
		chaindata.WithRateLimits(cfg.Upstream.MaxPerSecond, cfg.Upstream.MaxPerMinute),
		chaindata.WithLogger(logger),
	)
	client := chaindata.NewHTTPClient(gateway)

	watchlist, closeStore, err := newWatchlist(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := seedWatchlist(ctx, watchlist, cfg.Scan.Symbols, logger); err != nil {
		return err
	}

	resolverCache := cache.New[map[string][]domain.TokenDescriptor](cfg.Scan.ResolverTTL(), 2*time.Minute)

	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	if cfg.Notify.Kafka.Enabled {
		kafkaNotifier, err := notify.NewKafkaNotifier(cfg.Notify.Kafka.Brokers, cfg.Notify.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("init kafka notifier: %w", err)
		}
		defer kafkaNotifier.Close()
		notifiers = append(notifiers, kafkaNotifier)
		logger.Info("kafka notifications enabled",
			zap.String("brokers", cfg.Notify.Kafka.Brokers),
			zap.String("topic", cfg.Notify.Kafka.Topic))
	}

	orch := orchestrator.New(orchestrator.Options{
		Resolver: resolver.NewResolver(resolver.Options{
			Client: client,
			Cache:  resolverCache,
			TTL:    cfg.Scan.ResolverTTL(),
			Logger: logger,
		}),
		Scanner: detection.NewScanner(detection.Options{
			Client:        client,
			MinDepositUSD: cfg.Scan.MinDepositUSD,
		}),
		Verifier: freshness.NewVerifier(freshness.Options{
			Client:                  client,
			CheckBalances:           cfg.Freshness.CheckBalances,
			CheckHistoricalBalances: cfg.Freshness.CheckHistoricalBalances,
		}),
		Watchlist:   watchlist,
		Notifiers:   notifiers,
		Chains:      cfg.Scan.Chains,
		Interval:    cfg.Scan.Interval(),
		ScanTimeout: cfg.Scan.ScanTimeout(),
		Logger:      logger,
	})

	server := api.NewServer(api.Options{
		Addr:         cfg.Server.Addr,
		Orchestrator: orch,
		Watchlist:    watchlist,
		Logger:       logger,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	scheduler := orchestrator.NewScheduler(orch, cfg.Scan.Interval(), logger)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	// A second signal skips the graceful drain.
	go func() {
		<-sigCh
		logger.Warn("forced shutdown")
		os.Exit(1)
	}()

	cancel()
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// newWatchlist picks the backend: Postgres when a DSN is configured,
// in-memory otherwise.
func newWatchlist(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.WatchlistStore, func(), error) {
	if cfg.Storage.PostgresDSN == "" {
		logger.Info("using in-memory watchlist")
		return memory.NewWatchlistStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Info("using postgres watchlist")
	return pgstore.NewWatchlistStore(pool), pool.Close, nil
}

// seedWatchlist adds the configured symbols, skipping ones already
// stored.
func seedWatchlist(ctx context.Context, watchlist storage.WatchlistStore, symbols []string, logger *zap.Logger) error {
	for _, symbol := range symbols {
		err := watchlist.Add(ctx, symbol)
		if errors.Is(err, storage.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed watchlist with %q: %w", symbol, err)
		}
		logger.Info("watching symbol", zap.String("symbol", symbol))
	}
	return nil
}
