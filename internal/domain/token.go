// Package domain contains the core data model shared across the
// detection pipeline.
package domain

// TokenDescriptor identifies one deployment of a watched token on a
// specific chain.
type TokenDescriptor struct {
	Symbol  string // ticker as spelled on the watchlist
	Chain   string // chain identifier, e.g. "ethereum"
	Address string // token contract address on that chain
}
