package notify

import (
	"context"

	"go.uber.org/zap"

	"fresh-wallet-scout/internal/domain"
)

// LogNotifier writes fresh wallets to the application log. It is always
// on, so a run leaves a trace even with no external sink configured.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log.Named("notify")}
}

var _ Notifier = (*LogNotifier)(nil)

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) Notify(ctx context.Context, wallet domain.FreshWallet, scan ScanContext) error {
	n.log.Info("fresh wallet detected",
		zap.String("wallet", displayAddress(wallet.Wallet)),
		zap.String("chain", wallet.Chain),
		zap.String("symbol", scan.Symbol),
		zap.Float64("init_deposit_usd", wallet.InitDepositUSD),
		zap.String("tx_hash", scan.TxHash),
		zap.Time("detected_at", scan.DetectedAt),
	)
	return nil
}
