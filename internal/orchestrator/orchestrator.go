// Package orchestrator coordinates scan runs end to end.
// A run flows: watchlist → resolve symbols → scan transfers → verify
// freshness → dedup → notify.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"fresh-wallet-scout/internal/detection"
	"fresh-wallet-scout/internal/domain"
	"fresh-wallet-scout/internal/freshness"
	"fresh-wallet-scout/internal/notify"
	"fresh-wallet-scout/internal/observability"
	"fresh-wallet-scout/internal/resolver"
	"fresh-wallet-scout/internal/storage"
)

// ErrScanInProgress is returned when a scan is requested while another
// one is still running.
var ErrScanInProgress = errors.New("scan already in progress")

// Orchestrator owns the scan pipeline. The scheduler and the HTTP API
// both funnel through it; a shared lock keeps runs from overlapping.
type Orchestrator struct {
	resolver    *resolver.Resolver
	scanner     *detection.Scanner
	verifier    *freshness.Verifier
	watchlist   storage.WatchlistStore
	notifiers   []notify.Notifier
	chains      []string
	interval    time.Duration
	scanTimeout time.Duration
	log         *zap.Logger

	now func() time.Time

	// scanMu serializes runs across all entry points.
	scanMu sync.Mutex

	stateMu    sync.RWMutex
	status     Status
	lastResult []domain.FreshWallet
}

// Options configures an Orchestrator.
type Options struct {
	Resolver  *resolver.Resolver
	Scanner   *detection.Scanner
	Verifier  *freshness.Verifier
	Watchlist storage.WatchlistStore
	Notifiers []notify.Notifier

	// Chains to resolve and scan.
	Chains []string

	// Interval between scheduled runs, also sizes the transfer window.
	Interval time.Duration

	// ScanTimeout bounds one run. Zero means no limit.
	ScanTimeout time.Duration

	Logger *zap.Logger
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		resolver:    opts.Resolver,
		scanner:     opts.Scanner,
		verifier:    opts.Verifier,
		watchlist:   opts.Watchlist,
		notifiers:   opts.Notifiers,
		chains:      opts.Chains,
		interval:    opts.Interval,
		scanTimeout: opts.ScanTimeout,
		log:         log.Named("orchestrator"),
		now:         time.Now,
	}
}

// Status is a point-in-time view of the orchestrator.
type Status struct {
	Running        bool      `json:"running"`
	Runs           int       `json:"runs"`
	LastStartedAt  time.Time `json:"lastStartedAt"`
	LastFinishedAt time.Time `json:"lastFinishedAt"`
	LastError      string    `json:"lastError,omitempty"`
	LastWallets    int       `json:"lastWallets"`
}

// ScanResult summarizes one scan run.
type ScanResult struct {
	Wallets    []domain.FreshWallet
	Symbols    int
	Tokens     int
	Candidates int
	Duration   time.Duration
	Errors     []string
}

// RunScan executes one scan run synchronously. It returns
// ErrScanInProgress when another run holds the lock.
func (o *Orchestrator) RunScan(ctx context.Context) (*ScanResult, error) {
	if !o.scanMu.TryLock() {
		return nil, ErrScanInProgress
	}
	defer o.scanMu.Unlock()
	return o.scan(ctx)
}

// Trigger starts a scan in the background. It returns
// ErrScanInProgress when another run holds the lock.
func (o *Orchestrator) Trigger(ctx context.Context) error {
	if !o.scanMu.TryLock() {
		return ErrScanInProgress
	}
	go func() {
		defer o.scanMu.Unlock()
		if _, err := o.scan(ctx); err != nil {
			o.log.Error("triggered scan failed", zap.Error(err))
		}
	}()
	return nil
}

// scan runs the pipeline. Failures of one token or one candidate are
// folded into result.Errors so a bad deployment cannot sink the whole
// run; only watchlist and resolver failures abort it.
func (o *Orchestrator) scan(ctx context.Context) (result *ScanResult, err error) {
	if o.scanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.scanTimeout)
		defer cancel()
	}

	started := o.now()
	o.setRunning(started)
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		duration := o.now().Sub(started)
		if result != nil {
			result.Duration = duration
		}
		o.setFinished(result, err)
		observability.RecordScanRun(status, duration.Seconds())
	}()

	result = &ScanResult{}

	symbols, err := o.watchlist.Symbols(ctx)
	if err != nil {
		return result, fmt.Errorf("load watchlist: %w", err)
	}
	if len(symbols) == 0 {
		o.log.Info("watchlist empty, nothing to scan")
		return result, nil
	}
	result.Symbols = len(symbols)

	tokens, err := o.resolver.Resolve(ctx, symbols, o.chains)
	if err != nil {
		return result, fmt.Errorf("resolve symbols: %w", err)
	}

	to := o.now().UnixMilli()
	from := to - detection.Window(o.interval).Milliseconds()

	var freshCandidates []domain.WalletCandidate
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("scan aborted: %w", err)
		}

		for _, token := range tokens[symbol] {
			result.Tokens++

			candidates, err := o.scanner.Scan(ctx, token, from, to)
			if err != nil {
				o.log.Warn("token scan failed, skipping deployment",
					zap.String("symbol", token.Symbol),
					zap.String("chain", token.Chain),
					zap.Error(err))
				result.Errors = append(result.Errors,
					fmt.Sprintf("scan %s on %s: %v", token.Symbol, token.Chain, err))
				continue
			}
			result.Candidates += len(candidates)

			for _, candidate := range candidates {
				fresh, err := o.verifier.IsFresh(ctx, candidate.Address, candidate.Chain, candidate.Timestamp, candidate.Symbol)
				if err != nil {
					o.log.Warn("freshness check incomplete, treating wallet as not fresh",
						zap.String("wallet", candidate.Address),
						zap.String("chain", candidate.Chain),
						zap.Error(err))
					result.Errors = append(result.Errors,
						fmt.Sprintf("verify %s on %s: %v", candidate.Address, candidate.Chain, err))
					continue
				}
				if fresh {
					freshCandidates = append(freshCandidates, candidate)
				}
			}
		}
	}
	observability.RecordCandidates(result.Candidates)

	wallets := make([]domain.FreshWallet, 0, len(freshCandidates))
	winners := make(map[string]domain.WalletCandidate, len(freshCandidates))
	for _, candidate := range freshCandidates {
		wallets = append(wallets, domain.FreshWallet{
			Wallet:         candidate.Address,
			Chain:          candidate.Chain,
			InitDepositUSD: candidate.DepositUSD,
		})
		// Remember which deposit produced each merged wallet so the
		// notification can reference its transaction.
		key := walletKey(candidate.Address, candidate.Chain)
		if current, ok := winners[key]; !ok || candidate.DepositUSD > current.DepositUSD {
			winners[key] = candidate
		}
	}

	result.Wallets = detection.Merge(wallets)
	observability.RecordFreshWallets(len(result.Wallets))

	detectedAt := o.now()
	for _, wallet := range result.Wallets {
		winner := winners[walletKey(wallet.Wallet, wallet.Chain)]
		scanCtx := notify.ScanContext{
			Symbol:     winner.Symbol,
			TxHash:     winner.TxHash,
			DetectedAt: detectedAt,
		}

		for _, notifier := range o.notifiers {
			if err := notifier.Notify(ctx, wallet, scanCtx); err != nil {
				o.log.Error("notification failed",
					zap.String("notifier", notifier.Name()),
					zap.String("wallet", wallet.Wallet),
					zap.Error(err))
				observability.RecordNotification(notifier.Name(), "error")
				result.Errors = append(result.Errors,
					fmt.Sprintf("notify %s via %s: %v", wallet.Wallet, notifier.Name(), err))
				continue
			}
			observability.RecordNotification(notifier.Name(), "ok")
		}
	}

	o.log.Info("scan run complete",
		zap.Int("symbols", result.Symbols),
		zap.Int("tokens", result.Tokens),
		zap.Int("candidates", result.Candidates),
		zap.Int("fresh_wallets", len(result.Wallets)),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

func walletKey(address, chain string) string {
	return detection.NormalizeAddress(address) + "|" + chain
}

func (o *Orchestrator) setRunning(startedAt time.Time) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	o.status.Running = true
	o.status.LastStartedAt = startedAt
}

func (o *Orchestrator) setFinished(result *ScanResult, err error) {
	o.stateMu.Lock()
	defer o.stateMu.Unlock()
	o.status.Running = false
	o.status.Runs++
	o.status.LastFinishedAt = o.now()
	o.status.LastError = ""
	if err != nil {
		o.status.LastError = err.Error()
	}
	if result != nil && err == nil {
		o.status.LastWallets = len(result.Wallets)
		o.lastResult = append([]domain.FreshWallet(nil), result.Wallets...)
	}
}

// Status returns a snapshot of the orchestrator state.
func (o *Orchestrator) Status() Status {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.status
}

// LastResults returns the wallets found by the most recent successful
// run.
func (o *Orchestrator) LastResults() []domain.FreshWallet {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return append([]domain.FreshWallet(nil), o.lastResult...)
}
