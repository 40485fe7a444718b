// Package detection finds first-touch deposits into private wallets in
// token transfer streams.
package detection

import (
	"context"
	"fmt"
	"time"

	"fresh-wallet-scout/internal/chaindata"
	"fresh-wallet-scout/internal/domain"
)

const (
	// DefaultMinDepositUSD is the deposit size floor when none is
	// configured.
	DefaultMinDepositUSD = 1000

	pageSize = 500

	// minWindow keeps short scan intervals from missing transfers the
	// upstream indexes late.
	minWindow     = 2 * time.Hour
	windowPadding = time.Minute
)

// Window returns the transfer lookback for a scan interval. Successive
// windows overlap so a transfer near an interval boundary is seen by at
// least one scan.
func Window(interval time.Duration) time.Duration {
	w := interval + windowPadding
	if w < minWindow {
		return minWindow
	}
	return w
}

// Transfer types that can seed a wallet. Everything else (approvals,
// liquidity events, contract calls) is ignored.
var candidateTxTypes = map[chaindata.TxType]struct{}{
	chaindata.TxTypeTransfer:   {},
	chaindata.TxTypeSwap:       {},
	chaindata.TxTypeSimpleSwap: {},
}

// Scanner pulls transfers for one token deployment and keeps the ones
// that look like initial deposits into private wallets.
type Scanner struct {
	client        chaindata.Client
	minDepositUSD float64
}

// Options configures a Scanner.
type Options struct {
	Client        chaindata.Client
	MinDepositUSD float64
}

// NewScanner creates a Scanner.
func NewScanner(opts Options) *Scanner {
	minDeposit := opts.MinDepositUSD
	if minDeposit <= 0 {
		minDeposit = DefaultMinDepositUSD
	}
	return &Scanner{client: opts.Client, minDepositUSD: minDeposit}
}

// Scan walks all transfers of token within [from, to] (unix ms) and
// returns the wallet candidates found. Pages are fetched until a short
// page signals the end of the result set.
func (s *Scanner) Scan(ctx context.Context, token domain.TokenDescriptor, from, to int64) ([]domain.WalletCandidate, error) {
	var candidates []domain.WalletCandidate

	for page := 1; ; page++ {
		transfers, err := s.client.TokenTransfers(ctx, chaindata.TransfersParams{
			Chain:         token.Chain,
			TokenAddress:  token.Address,
			FromTimestamp: from,
			ToTimestamp:   to,
			IncludeDex:    true,
			IncludeCex:    true,
		}, chaindata.Pagination{Page: page, RecordsPerPage: pageSize})
		if err != nil {
			return nil, fmt.Errorf("transfers page %d for %s on %s: %w", page, token.Symbol, token.Chain, err)
		}

		for _, transfer := range transfers {
			if candidate, ok := s.evaluate(token, transfer); ok {
				candidates = append(candidates, candidate)
			}
		}

		if len(transfers) < pageSize {
			break
		}
	}

	return candidates, nil
}

func (s *Scanner) evaluate(token domain.TokenDescriptor, transfer chaindata.Transfer) (domain.WalletCandidate, bool) {
	if transfer.USDValue < s.minDepositUSD {
		return domain.WalletCandidate{}, false
	}
	if _, ok := candidateTxTypes[transfer.TxType]; !ok {
		return domain.WalletCandidate{}, false
	}
	if Classify(transfer.ToAddress, transfer.ToLabel) != domain.AddressKindPrivate {
		return domain.WalletCandidate{}, false
	}

	return domain.WalletCandidate{
		Address:    transfer.ToAddress,
		Chain:      transfer.Chain,
		Symbol:     token.Symbol,
		DepositUSD: transfer.USDValue,
		Timestamp:  transfer.Timestamp,
		TxHash:     transfer.TxHash,
	}, true
}
