// Package main runs a single scan and prints the detected wallets.
// Useful for dry runs and cron-driven setups that do not need the
// resident server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

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
	symbolsFlag := flag.String("symbols", "", "Comma separated symbols to scan instead of the stored watchlist")
	chainsFlag := flag.String("chains", "", "Comma separated chains to scan instead of the configured ones")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *chainsFlag != "" {
		cfg.Scan.Chains = splitList(*chainsFlag)
	}

	logger, err := logging.New(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watchlist, closeStore, err := buildWatchlist(ctx, cfg, splitList(*symbolsFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	gateway := chaindata.NewGateway(cfg.Upstream.BaseURL, cfg.Upstream.APIKey,
		chaindata.WithTimeout(cfg.Upstream.Timeout()),
		chaindata.WithRetryAttempts(cfg.Upstream.RetryAttempts),
		chaindata.WithRateLimits(cfg.Upstream.MaxPerSecond, cfg.Upstream.MaxPerMinute),
		chaindata.WithLogger(logger),
	)
	client := chaindata.NewHTTPClient(gateway)

	orch := orchestrator.New(orchestrator.Options{
		Resolver: resolver.NewResolver(resolver.Options{
			Client: client,
			Cache:  cache.New[map[string][]domain.TokenDescriptor](cfg.Scan.ResolverTTL(), 2*time.Minute),
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
		Notifiers:   []notify.Notifier{notify.NewLogNotifier(logger)},
		Chains:      cfg.Scan.Chains,
		Interval:    cfg.Scan.Interval(),
		ScanTimeout: cfg.Scan.ScanTimeout(),
		Logger:      logger,
	})

	result, err := orch.RunScan(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running scan: %v\n", err)
		os.Exit(1)
	}

	printResult(result)
	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}

// buildWatchlist prefers explicit -symbols, then the configured
// Postgres watchlist, then an in-memory list seeded from the config.
func buildWatchlist(ctx context.Context, cfg *config.Config, symbols []string) (storage.WatchlistStore, func(), error) {
	if len(symbols) > 0 {
		store := memory.NewWatchlistStore()
		if err := seed(ctx, store, symbols); err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}

	if cfg.Storage.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return pgstore.NewWatchlistStore(pool), pool.Close, nil
	}

	store := memory.NewWatchlistStore()
	if err := seed(ctx, store, cfg.Scan.Symbols); err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

func seed(ctx context.Context, store storage.WatchlistStore, symbols []string) error {
	for _, symbol := range symbols {
		err := store.Add(ctx, symbol)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("add %q to watchlist: %w", symbol, err)
		}
	}
	return nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printResult(result *orchestrator.ScanResult) {
	if len(result.Wallets) == 0 {
		fmt.Println("No fresh wallets detected.")
	} else {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WALLET\tCHAIN\tINIT DEPOSIT (USD)")
		for _, wallet := range result.Wallets {
			fmt.Fprintf(w, "%s\t%s\t%.2f\n", wallet.Wallet, wallet.Chain, wallet.InitDepositUSD)
		}
		w.Flush()
	}

	fmt.Printf("\nScanned %d symbols across %d deployments, %d candidates, %d fresh wallets in %s.\n",
		result.Symbols, result.Tokens, result.Candidates, len(result.Wallets), result.Duration.Round(time.Millisecond))

	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
}
