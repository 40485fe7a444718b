package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"fresh-wallet-scout/internal/domain"
)

func TestLogNotifier_EmitsOneEntryPerWallet(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	wallet := domain.FreshWallet{
		Wallet:         "0xdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef",
		Chain:          "ethereum",
		InitDepositUSD: 5000,
	}
	scan := ScanContext{
		Symbol:     "PEPE",
		TxHash:     "0xtx1",
		DetectedAt: time.Unix(1_700_000_000, 0),
	}

	if err := n.Notify(context.Background(), wallet, scan); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	entries := logs.FilterMessage("fresh wallet detected").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["chain"] != "ethereum" || fields["symbol"] != "PEPE" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if fields["init_deposit_usd"] != 5000.0 {
		t.Errorf("init_deposit_usd = %v, want 5000", fields["init_deposit_usd"])
	}
	logged, ok := fields["wallet"].(string)
	if !ok || !strings.EqualFold(logged, wallet.Wallet) {
		t.Errorf("wallet = %v, want %v up to checksum casing", fields["wallet"], wallet.Wallet)
	}
}

func TestDisplayAddress(t *testing.T) {
	// Hex addresses gain the 0x prefix and checksum casing.
	bare := "deadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
	got := displayAddress(bare)
	if !strings.EqualFold(got, "0x"+bare) {
		t.Errorf("displayAddress(%q) = %q", bare, got)
	}

	// Non-hex addresses pass through untouched.
	sol := "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	if displayAddress(sol) != sol {
		t.Errorf("displayAddress(%q) = %q, want unchanged", sol, displayAddress(sol))
	}
}
