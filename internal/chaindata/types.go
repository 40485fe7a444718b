package chaindata

import "fmt"

// TxType classifies a token transfer as reported upstream.
type TxType string

const (
	TxTypeTransfer   TxType = "transfer"
	TxTypeSwap       TxType = "swap"
	TxTypeSimpleSwap TxType = "simpleSwap"
)

// Pagination selects one result page. Pages are 1-based.
type Pagination struct {
	Page           int `json:"page"`
	RecordsPerPage int `json:"recordsPerPage"`
}

// request is the envelope every endpoint accepts.
type request struct {
	Parameters any        `json:"parameters"`
	Pagination Pagination `json:"pagination"`
}

// ScreenerParams filters the token screener.
type ScreenerParams struct {
	Chain           string  `json:"chain"`
	FromTimestamp   int64   `json:"fromTimestamp"` // unix ms
	MinVolumeUSD    float64 `json:"minVolumeUsd"`
	MinMarketCapUSD float64 `json:"minMarketCapUsd"`
	SortBy          string  `json:"sortBy"`
	SortOrder       string  `json:"sortOrder"`
}

// ScreenedToken is one row of the token screener response.
type ScreenedToken struct {
	Chain        string  `json:"chain"`
	Address      string  `json:"address"`
	Symbol       string  `json:"symbol"`
	Name         string  `json:"name"`
	VolumeUSD    float64 `json:"volumeUsd"`
	MarketCapUSD float64 `json:"marketCapUsd"`
}

func (t ScreenedToken) validate() error {
	if t.Chain == "" {
		return fmt.Errorf("screener row: missing chain")
	}
	if t.Address == "" {
		return fmt.Errorf("screener row: missing address")
	}
	if t.Symbol == "" {
		return fmt.Errorf("screener row %s: missing symbol", t.Address)
	}
	return nil
}

// TransfersParams filters the transfer stream of one token.
type TransfersParams struct {
	Chain         string `json:"chain"`
	TokenAddress  string `json:"tokenAddress"`
	FromTimestamp int64  `json:"fromTimestamp"` // unix ms
	ToTimestamp   int64  `json:"toTimestamp"`   // unix ms
	IncludeDex    bool   `json:"includeDex"`
	IncludeCex    bool   `json:"includeCex"`
}

// Transfer is one token transfer record.
type Transfer struct {
	Chain        string  `json:"chain"`
	TxHash       string  `json:"txHash"`
	Timestamp    int64   `json:"timestamp"` // unix ms
	FromAddress  string  `json:"fromAddress"`
	ToAddress    string  `json:"toAddress"`
	ToLabel      string  `json:"toLabel"`
	TokenAddress string  `json:"tokenAddress"`
	Symbol       string  `json:"symbol"`
	USDValue     float64 `json:"usdValue"`
	TxType       TxType  `json:"txType"`
}

func (t Transfer) validate() error {
	if t.TxHash == "" {
		return fmt.Errorf("transfer row: missing txHash")
	}
	if t.Chain == "" {
		return fmt.Errorf("transfer %s: missing chain", t.TxHash)
	}
	if t.ToAddress == "" {
		return fmt.Errorf("transfer %s: missing toAddress", t.TxHash)
	}
	if t.Timestamp <= 0 {
		return fmt.Errorf("transfer %s: missing timestamp", t.TxHash)
	}
	if t.USDValue < 0 {
		return fmt.Errorf("transfer %s: negative usdValue %v", t.TxHash, t.USDValue)
	}
	return nil
}

// AddressTxParams selects the transaction history of an address. The
// endpoint aggregates across all chains; there is no chain filter.
type AddressTxParams struct {
	Address      string  `json:"address"`
	MinVolumeUSD float64 `json:"minVolumeUsd"`
}

// AddressTransaction is one historical transaction of an address.
type AddressTransaction struct {
	Chain     string        `json:"chain"`
	TxHash    string        `json:"txHash"`
	Timestamp int64         `json:"timestamp"` // unix ms
	VolumeUSD float64       `json:"volumeUsd"`
	Received  []TokenAmount `json:"receivedTokens"`
}

func (t AddressTransaction) validate() error {
	if t.TxHash == "" {
		return fmt.Errorf("address transaction: missing txHash")
	}
	if t.Timestamp <= 0 {
		return fmt.Errorf("address transaction %s: missing timestamp", t.TxHash)
	}
	return nil
}

// TokenAmount is a token position inside a transaction or balance set.
type TokenAmount struct {
	Symbol       string  `json:"symbol"`
	TokenAddress string  `json:"tokenAddress"`
	USDValue     float64 `json:"usdValue"`
}

// BalancesParams selects the current balances of an address.
type BalancesParams struct {
	Address string `json:"address"`
}

// TokenBalance is one current balance row.
type TokenBalance struct {
	Chain        string  `json:"chain"`
	Symbol       string  `json:"symbol"`
	TokenAddress string  `json:"tokenAddress"`
	Amount       float64 `json:"amount"`
	USDValue     float64 `json:"usdValue"`
}

func (b TokenBalance) validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("balance row: missing symbol")
	}
	return nil
}

// HistoricalBalancesParams selects balance snapshots of an address
// inside a time range.
type HistoricalBalancesParams struct {
	Address       string `json:"address"`
	FromTimestamp int64  `json:"fromTimestamp"` // unix ms
	ToTimestamp   int64  `json:"toTimestamp"`   // unix ms
}

// BalanceSnapshot is the balance set of an address at one point in
// time.
type BalanceSnapshot struct {
	Timestamp int64          `json:"timestamp"` // unix ms
	Balances  []TokenBalance `json:"balances"`
}

func (s BalanceSnapshot) validate() error {
	if s.Timestamp <= 0 {
		return fmt.Errorf("balance snapshot: missing timestamp")
	}
	for _, b := range s.Balances {
		if err := b.validate(); err != nil {
			return fmt.Errorf("balance snapshot at %d: %w", s.Timestamp, err)
		}
	}
	return nil
}
