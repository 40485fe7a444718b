package chaindata

import (
	"context"
	"fmt"
)

// API endpoint paths.
const (
	pathTokenScreener       = "/v1/tokens/screener"
	pathTokenTransfers      = "/v1/tokens/transfers"
	pathAddressTransactions = "/v1/addresses/transactions"
	pathAddressBalances     = "/v1/addresses/balances"
	pathAddressHistory      = "/v1/addresses/historical-balances"
)

// Client is the typed surface of the chain-data provider used by the
// rest of the pipeline.
type Client interface {
	// ScreenTokens lists tokens matching the screener filters.
	ScreenTokens(ctx context.Context, params ScreenerParams, page Pagination) ([]ScreenedToken, error)
	// TokenTransfers lists transfers of one token in a time range.
	TokenTransfers(ctx context.Context, params TransfersParams, page Pagination) ([]Transfer, error)
	// AddressTransactions lists the transaction history of an address
	// across all chains.
	AddressTransactions(ctx context.Context, params AddressTxParams, page Pagination) ([]AddressTransaction, error)
	// AddressBalances lists the current balances of an address.
	AddressBalances(ctx context.Context, params BalancesParams) ([]TokenBalance, error)
	// AddressHistoricalBalances lists balance snapshots of an address.
	AddressHistoricalBalances(ctx context.Context, params HistoricalBalancesParams) ([]BalanceSnapshot, error)
}

// HTTPClient implements Client against the provider REST API. Every
// response is validated before it reaches a caller, so malformed rows
// fail loudly instead of defaulting to zero values.
type HTTPClient struct {
	gw *Gateway
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client dispatching through gw.
func NewHTTPClient(gw *Gateway) *HTTPClient {
	return &HTTPClient{gw: gw}
}

func (c *HTTPClient) ScreenTokens(ctx context.Context, params ScreenerParams, page Pagination) ([]ScreenedToken, error) {
	var out []ScreenedToken
	if err := c.gw.Post(ctx, pathTokenScreener, request{Parameters: params, Pagination: page}, &out); err != nil {
		return nil, err
	}
	for _, row := range out {
		if err := row.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", pathTokenScreener, err)
		}
	}
	return out, nil
}

func (c *HTTPClient) TokenTransfers(ctx context.Context, params TransfersParams, page Pagination) ([]Transfer, error) {
	var out []Transfer
	if err := c.gw.Post(ctx, pathTokenTransfers, request{Parameters: params, Pagination: page}, &out); err != nil {
		return nil, err
	}
	for _, row := range out {
		if err := row.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", pathTokenTransfers, err)
		}
	}
	return out, nil
}

func (c *HTTPClient) AddressTransactions(ctx context.Context, params AddressTxParams, page Pagination) ([]AddressTransaction, error) {
	var out []AddressTransaction
	if err := c.gw.Post(ctx, pathAddressTransactions, request{Parameters: params, Pagination: page}, &out); err != nil {
		return nil, err
	}
	for _, row := range out {
		if err := row.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", pathAddressTransactions, err)
		}
	}
	return out, nil
}

func (c *HTTPClient) AddressBalances(ctx context.Context, params BalancesParams) ([]TokenBalance, error) {
	var out []TokenBalance
	// Balance sets fit a single page.
	req := request{Parameters: params, Pagination: Pagination{Page: 1, RecordsPerPage: 500}}
	if err := c.gw.Post(ctx, pathAddressBalances, req, &out); err != nil {
		return nil, err
	}
	for _, row := range out {
		if err := row.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", pathAddressBalances, err)
		}
	}
	return out, nil
}

func (c *HTTPClient) AddressHistoricalBalances(ctx context.Context, params HistoricalBalancesParams) ([]BalanceSnapshot, error) {
	var out []BalanceSnapshot
	req := request{Parameters: params, Pagination: Pagination{Page: 1, RecordsPerPage: 500}}
	if err := c.gw.Post(ctx, pathAddressHistory, req, &out); err != nil {
		return nil, err
	}
	for _, row := range out {
		if err := row.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", pathAddressHistory, err)
		}
	}
	return out, nil
}
