package detection

import (
	"sort"

	"fresh-wallet-scout/internal/domain"
)

// Merge deduplicates wallets found across token deployments. The same
// wallet and chain may surface once per deployment; the entry with the
// largest initial deposit wins. The result is sorted by deposit size
// descending, ties broken by wallet then chain.
func Merge(wallets []domain.FreshWallet) []domain.FreshWallet {
	type walletKey struct {
		wallet string
		chain  string
	}

	best := make(map[walletKey]domain.FreshWallet, len(wallets))
	for _, w := range wallets {
		k := walletKey{wallet: NormalizeAddress(w.Wallet), chain: w.Chain}
		if current, ok := best[k]; !ok || w.InitDepositUSD > current.InitDepositUSD {
			best[k] = w
		}
	}

	merged := make([]domain.FreshWallet, 0, len(best))
	for _, w := range best {
		merged = append(merged, w)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].InitDepositUSD != merged[j].InitDepositUSD {
			return merged[i].InitDepositUSD > merged[j].InitDepositUSD
		}
		if merged[i].Wallet != merged[j].Wallet {
			return merged[i].Wallet < merged[j].Wallet
		}
		return merged[i].Chain < merged[j].Chain
	})

	return merged
}
