// Package resolver maps watched token symbols to the concrete token
// deployments that carry them on each chain.
package resolver

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"fresh-wallet-scout/internal/cache"
	"fresh-wallet-scout/internal/chaindata"
	"fresh-wallet-scout/internal/domain"
	"fresh-wallet-scout/internal/observability"
)

const (
	// screenerLookback bounds screener queries to recently active tokens.
	screenerLookback = 24 * time.Hour

	// Liquidity floors applied to every screener query. Deployments below
	// them are shadow listings of the watched symbol, not the real token.
	minVolumeUSD    = 1000
	minMarketCapUSD = 10000

	pageSize = 500

	// Chains are screened in small sequential batches with a pause
	// between calls to stay inside the upstream rate budget.
	chainBatchSize  = 3
	interChainDelay = 200 * time.Millisecond

	// DefaultTTL is how long a resolution result stays cached.
	DefaultTTL = time.Hour

	cacheName = "resolver"
)

// Resolver turns symbols into per-chain token descriptors via the
// upstream screener, caching results between scan runs.
type Resolver struct {
	client chaindata.Client
	cache  *cache.Cache[map[string][]domain.TokenDescriptor]
	ttl    time.Duration
	log    *zap.Logger

	// Injection points for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Options configures a Resolver. Client is required, everything else
// falls back to defaults.
type Options struct {
	Client chaindata.Client
	Cache  *cache.Cache[map[string][]domain.TokenDescriptor]
	TTL    time.Duration
	Logger *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(opts Options) *Resolver {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	store := opts.Cache
	if store == nil {
		store = cache.New[map[string][]domain.TokenDescriptor](ttl, 2*ttl)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		client: opts.Client,
		cache:  store,
		ttl:    ttl,
		log:    log.Named("resolver"),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Resolve returns, for every watched symbol, the deployments found on
// the given chains. Matching is case-insensitive and map keys keep the
// requested spelling. A symbol with no match on any chain is absent
// from the result. Concurrent calls for the same symbol and chain set
// share one upstream pass.
func (r *Resolver) Resolve(ctx context.Context, symbols, chains []string) (map[string][]domain.TokenDescriptor, error) {
	if len(symbols) == 0 || len(chains) == 0 {
		return map[string][]domain.TokenDescriptor{}, nil
	}

	key := cacheKey(symbols, chains)
	if r.cache.Has(key) {
		observability.RecordCacheHit(cacheName)
	} else {
		observability.RecordCacheMiss(cacheName)
	}

	return r.cache.GetOrSet(key, r.ttl, func() (map[string][]domain.TokenDescriptor, error) {
		return r.resolve(ctx, symbols, chains)
	})
}

func (r *Resolver) resolve(ctx context.Context, symbols, chains []string) (map[string][]domain.TokenDescriptor, error) {
	// Lowercased symbol back to its requested spelling.
	wanted := make(map[string]string, len(symbols))
	for _, symbol := range symbols {
		wanted[strings.ToLower(symbol)] = symbol
	}

	fromTimestamp := r.now().Add(-screenerLookback).UnixMilli()

	out := make(map[string][]domain.TokenDescriptor, len(symbols))
	seen := make(map[string]struct{})

	first := true
	for start := 0; start < len(chains); start += chainBatchSize {
		end := start + chainBatchSize
		if end > len(chains) {
			end = len(chains)
		}

		for _, chain := range chains[start:end] {
			if !first {
				if err := r.sleep(ctx, interChainDelay); err != nil {
					return nil, err
				}
			}
			first = false

			tokens, err := r.client.ScreenTokens(ctx, chaindata.ScreenerParams{
				Chain:           chain,
				FromTimestamp:   fromTimestamp,
				MinVolumeUSD:    minVolumeUSD,
				MinMarketCapUSD: minMarketCapUSD,
				SortBy:          "volume",
				SortOrder:       "desc",
			}, chaindata.Pagination{Page: 1, RecordsPerPage: pageSize})
			if err != nil {
				r.log.Warn("token screener failed, skipping chain",
					zap.String("chain", chain),
					zap.Error(err))
				continue
			}

			for _, token := range tokens {
				requested, ok := wanted[strings.ToLower(token.Symbol)]
				if !ok {
					continue
				}
				dedupKey := token.Chain + "|" + strings.ToLower(token.Address)
				if _, dup := seen[dedupKey]; dup {
					continue
				}
				seen[dedupKey] = struct{}{}

				out[requested] = append(out[requested], domain.TokenDescriptor{
					Symbol:  requested,
					Chain:   token.Chain,
					Address: token.Address,
				})
			}
		}
	}

	return out, nil
}

// cacheKey is stable under symbol casing and ordering of both inputs.
func cacheKey(symbols, chains []string) string {
	loweredSymbols := make([]string, len(symbols))
	for i, symbol := range symbols {
		loweredSymbols[i] = strings.ToLower(symbol)
	}
	sort.Strings(loweredSymbols)

	sortedChains := append([]string(nil), chains...)
	sort.Strings(sortedChains)

	return strings.Join(loweredSymbols, ",") + "|" + strings.Join(sortedChains, ",")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
