// Package notify delivers detected fresh wallets to downstream sinks.
package notify

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"fresh-wallet-scout/internal/domain"
)

// ScanContext carries details of the detection run that produced a
// wallet.
type ScanContext struct {
	Symbol     string
	TxHash     string
	DetectedAt time.Time
}

// Notifier delivers one fresh wallet to a sink.
type Notifier interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	Notify(ctx context.Context, wallet domain.FreshWallet, scan ScanContext) error
}

// displayAddress renders hex addresses in their checksummed form.
// Anything else passes through unchanged.
func displayAddress(address string) string {
	if common.IsHexAddress(address) {
		return common.HexToAddress(address).Hex()
	}
	return address
}
