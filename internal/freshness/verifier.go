// Package freshness decides whether a wallet had any on-chain life
// before a given deposit.
package freshness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fresh-wallet-scout/internal/chaindata"
)

const (
	// DefaultMinTxVolumeUSD keeps dust and spam transfers out of the
	// history query. Airdropped spam would otherwise mark every wallet
	// as used.
	DefaultMinTxVolumeUSD = 100

	// DefaultDustUSD is the balance below which a holding does not
	// count as prior activity in the secondary checks.
	DefaultDustUSD = 10

	// DefaultHistoricalLookback bounds the balance snapshot check.
	DefaultHistoricalLookback = 30 * 24 * time.Hour

	pageSize = 500
)

// IndeterminateError reports that freshness could not be decided
// because the wallet's history could not be fetched. Callers must not
// treat the wallet as fresh.
type IndeterminateError struct {
	Cause error
}

func (e *IndeterminateError) Error() string {
	return fmt.Sprintf("freshness indeterminate: %v", e.Cause)
}

func (e *IndeterminateError) Unwrap() error { return e.Cause }

// Verifier checks wallet candidates against their full cross-chain
// transaction history.
type Verifier struct {
	client             chaindata.Client
	minTxVolumeUSD     float64
	dustUSD            float64
	historicalLookback time.Duration
	checkBalances      bool
	checkHistorical    bool
}

// Options configures a Verifier. Client is required. The secondary
// balance checks are off unless enabled.
type Options struct {
	Client                  chaindata.Client
	MinTxVolumeUSD          float64
	DustUSD                 float64
	HistoricalLookback      time.Duration
	CheckBalances           bool
	CheckHistoricalBalances bool
}

// NewVerifier creates a Verifier.
func NewVerifier(opts Options) *Verifier {
	minVolume := opts.MinTxVolumeUSD
	if minVolume <= 0 {
		minVolume = DefaultMinTxVolumeUSD
	}
	dust := opts.DustUSD
	if dust <= 0 {
		dust = DefaultDustUSD
	}
	lookback := opts.HistoricalLookback
	if lookback <= 0 {
		lookback = DefaultHistoricalLookback
	}
	return &Verifier{
		client:             opts.Client,
		minTxVolumeUSD:     minVolume,
		dustUSD:            dust,
		historicalLookback: lookback,
		checkBalances:      opts.CheckBalances,
		checkHistorical:    opts.CheckHistoricalBalances,
	}
}

// IsFresh reports whether the wallet shows no activity before
// transferTimestamp. History entries that only received currentSymbol
// are part of the deposit stream under scan and do not disqualify the
// wallet. On upstream failure the result is (false, *IndeterminateError)
// so an unreachable history never passes as fresh.
func (v *Verifier) IsFresh(ctx context.Context, wallet, chain string, transferTimestamp int64, currentSymbol string) (bool, error) {
	history, err := v.fullHistory(ctx, wallet)
	if err != nil {
		return false, &IndeterminateError{Cause: fmt.Errorf("wallet %s on %s: %w", wallet, chain, err)}
	}

	for _, tx := range history {
		// Only strictly earlier transactions count. The deposit itself
		// shows up in history with the transfer's own timestamp.
		if tx.Timestamp >= transferTimestamp {
			continue
		}
		if onlyCurrentToken(tx, currentSymbol) {
			continue
		}
		return false, nil
	}

	if !v.checkBalances && !v.checkHistorical {
		return true, nil
	}

	var balancesDirty, snapshotsDirty bool
	g, gctx := errgroup.WithContext(ctx)
	if v.checkBalances {
		g.Go(func() error {
			dirty, err := v.hasForeignBalances(gctx, wallet, currentSymbol)
			if err != nil {
				return err
			}
			balancesDirty = dirty
			return nil
		})
	}
	if v.checkHistorical {
		g.Go(func() error {
			dirty, err := v.hasPriorSnapshots(gctx, wallet, transferTimestamp, currentSymbol)
			if err != nil {
				return err
			}
			snapshotsDirty = dirty
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, &IndeterminateError{Cause: fmt.Errorf("wallet %s on %s: %w", wallet, chain, err)}
	}

	return !balancesDirty && !snapshotsDirty, nil
}

// fullHistory pages through every transaction of the wallet across all
// chains above the volume floor.
func (v *Verifier) fullHistory(ctx context.Context, wallet string) ([]chaindata.AddressTransaction, error) {
	var history []chaindata.AddressTransaction

	for page := 1; ; page++ {
		txs, err := v.client.AddressTransactions(ctx, chaindata.AddressTxParams{
			Address:      wallet,
			MinVolumeUSD: v.minTxVolumeUSD,
		}, chaindata.Pagination{Page: page, RecordsPerPage: pageSize})
		if err != nil {
			return nil, fmt.Errorf("address history page %d: %w", page, err)
		}
		history = append(history, txs...)
		if len(txs) < pageSize {
			break
		}
	}

	return history, nil
}

// onlyCurrentToken reports whether every token received in tx matches
// currentSymbol. A transaction that received nothing is not part of
// the deposit stream and counts as prior activity.
func onlyCurrentToken(tx chaindata.AddressTransaction, currentSymbol string) bool {
	if len(tx.Received) == 0 {
		return false
	}
	for _, token := range tx.Received {
		if !strings.EqualFold(token.Symbol, currentSymbol) {
			return false
		}
	}
	return true
}

func (v *Verifier) hasForeignBalances(ctx context.Context, wallet, currentSymbol string) (bool, error) {
	balances, err := v.client.AddressBalances(ctx, chaindata.BalancesParams{Address: wallet})
	if err != nil {
		return false, fmt.Errorf("address balances: %w", err)
	}

	for _, balance := range balances {
		if strings.EqualFold(balance.Symbol, currentSymbol) {
			continue
		}
		if balance.USDValue > v.dustUSD {
			return true, nil
		}
	}
	return false, nil
}

func (v *Verifier) hasPriorSnapshots(ctx context.Context, wallet string, transferTimestamp int64, currentSymbol string) (bool, error) {
	snapshots, err := v.client.AddressHistoricalBalances(ctx, chaindata.HistoricalBalancesParams{
		Address:       wallet,
		FromTimestamp: transferTimestamp - v.historicalLookback.Milliseconds(),
		ToTimestamp:   transferTimestamp,
	})
	if err != nil {
		return false, fmt.Errorf("historical balances: %w", err)
	}

	for _, snapshot := range snapshots {
		if snapshot.Timestamp >= transferTimestamp {
			continue
		}
		for _, balance := range snapshot.Balances {
			if strings.EqualFold(balance.Symbol, currentSymbol) {
				continue
			}
			if balance.USDValue > v.dustUSD {
				return true, nil
			}
		}
	}
	return false, nil
}
