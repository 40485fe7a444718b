// Package stub provides a scripted chaindata.Client for tests.
package stub

import (
	"context"
	"strings"
	"sync"
	"time"

	"fresh-wallet-scout/internal/chaindata"
)

// Client implements chaindata.Client from in-memory fixtures.
type Client struct {
	mu sync.Mutex

	// Screener rows keyed by chain.
	ScreenedTokens map[string][]chaindata.ScreenedToken
	// Transfers keyed by chain + "|" + lowercase token address.
	Transfers map[string][]chaindata.Transfer
	// History keyed by lowercase wallet address.
	History map[string][]chaindata.AddressTransaction
	// Balances keyed by lowercase wallet address.
	Balances map[string][]chaindata.TokenBalance
	// Snapshots keyed by lowercase wallet address.
	Snapshots map[string][]chaindata.BalanceSnapshot

	// ScreenErrs injects a failure for one chain.
	ScreenErrs map[string]error
	// Errors injected per method.
	TransfersErr error
	HistoryErr   error
	BalancesErr  error
	SnapshotsErr error

	// Delay is applied at the start of every call.
	Delay time.Duration

	// Call counters.
	ScreenCalls    int
	TransfersCalls int
	HistoryCalls   int
	BalancesCalls  int
	SnapshotsCalls int
}

var _ chaindata.Client = (*Client)(nil)

// NewClient creates an empty stub client.
func NewClient() *Client {
	return &Client{
		ScreenedTokens: make(map[string][]chaindata.ScreenedToken),
		Transfers:      make(map[string][]chaindata.Transfer),
		History:        make(map[string][]chaindata.AddressTransaction),
		Balances:       make(map[string][]chaindata.TokenBalance),
		Snapshots:      make(map[string][]chaindata.BalanceSnapshot),
		ScreenErrs:     make(map[string]error),
	}
}

func (c *Client) ScreenTokens(ctx context.Context, params chaindata.ScreenerParams, page chaindata.Pagination) ([]chaindata.ScreenedToken, error) {
	if err := c.delay(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ScreenCalls++
	if err := c.ScreenErrs[params.Chain]; err != nil {
		return nil, err
	}
	return pageOf(c.ScreenedTokens[params.Chain], page), nil
}

func (c *Client) TokenTransfers(ctx context.Context, params chaindata.TransfersParams, page chaindata.Pagination) ([]chaindata.Transfer, error) {
	if err := c.delay(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.TransfersCalls++
	if c.TransfersErr != nil {
		return nil, c.TransfersErr
	}
	return pageOf(c.Transfers[transferKey(params.Chain, params.TokenAddress)], page), nil
}

func (c *Client) AddressTransactions(ctx context.Context, params chaindata.AddressTxParams, page chaindata.Pagination) ([]chaindata.AddressTransaction, error) {
	if err := c.delay(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.HistoryCalls++
	if c.HistoryErr != nil {
		return nil, c.HistoryErr
	}
	var out []chaindata.AddressTransaction
	for _, tx := range c.History[strings.ToLower(params.Address)] {
		if tx.VolumeUSD >= params.MinVolumeUSD {
			out = append(out, tx)
		}
	}
	return pageOf(out, page), nil
}

func (c *Client) AddressBalances(ctx context.Context, params chaindata.BalancesParams) ([]chaindata.TokenBalance, error) {
	if err := c.delay(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.BalancesCalls++
	if c.BalancesErr != nil {
		return nil, c.BalancesErr
	}
	return c.Balances[strings.ToLower(params.Address)], nil
}

func (c *Client) AddressHistoricalBalances(ctx context.Context, params chaindata.HistoricalBalancesParams) ([]chaindata.BalanceSnapshot, error) {
	if err := c.delay(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SnapshotsCalls++
	if c.SnapshotsErr != nil {
		return nil, c.SnapshotsErr
	}
	var out []chaindata.BalanceSnapshot
	for _, snap := range c.Snapshots[strings.ToLower(params.Address)] {
		if snap.Timestamp >= params.FromTimestamp && snap.Timestamp <= params.ToTimestamp {
			out = append(out, snap)
		}
	}
	return out, nil
}

// AddScreenedToken adds a screener row for a chain.
func (c *Client) AddScreenedToken(chain string, token chaindata.ScreenedToken) {
	c.ScreenedTokens[chain] = append(c.ScreenedTokens[chain], token)
}

// AddTransfers adds transfer fixtures for a token on a chain.
func (c *Client) AddTransfers(chain, tokenAddress string, transfers ...chaindata.Transfer) {
	key := transferKey(chain, tokenAddress)
	c.Transfers[key] = append(c.Transfers[key], transfers...)
}

// AddHistory adds history fixtures for a wallet.
func (c *Client) AddHistory(address string, txs ...chaindata.AddressTransaction) {
	key := strings.ToLower(address)
	c.History[key] = append(c.History[key], txs...)
}

// AddBalances adds current balance fixtures for a wallet.
func (c *Client) AddBalances(address string, balances ...chaindata.TokenBalance) {
	key := strings.ToLower(address)
	c.Balances[key] = append(c.Balances[key], balances...)
}

// AddSnapshots adds historical balance fixtures for a wallet.
func (c *Client) AddSnapshots(address string, snaps ...chaindata.BalanceSnapshot) {
	key := strings.ToLower(address)
	c.Snapshots[key] = append(c.Snapshots[key], snaps...)
}

func (c *Client) delay(ctx context.Context) error {
	c.mu.Lock()
	d := c.Delay
	c.mu.Unlock()
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func transferKey(chain, tokenAddress string) string {
	return chain + "|" + strings.ToLower(tokenAddress)
}

// pageOf applies 1-based pagination to a fixture slice.
func pageOf[T any](items []T, page chaindata.Pagination) []T {
	if page.Page < 1 || page.RecordsPerPage < 1 {
		return items
	}
	start := (page.Page - 1) * page.RecordsPerPage
	if start >= len(items) {
		return nil
	}
	end := start + page.RecordsPerPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
