package detection

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fresh-wallet-scout/internal/chaindata"
	"fresh-wallet-scout/internal/chaindata/stub"
	"fresh-wallet-scout/internal/domain"
)

var testToken = domain.TokenDescriptor{
	Symbol:  "PEPE",
	Chain:   "ethereum",
	Address: "0xtoken",
}

func TestScanner_KeepsQualifyingDeposits(t *testing.T) {
	client := stub.NewClient()
	client.AddTransfers(testToken.Chain, testToken.Address,
		chaindata.Transfer{
			Chain: "ethereum", TxHash: "0xtx1", Timestamp: 1000,
			ToAddress: "0xab12cd34ef56ab12cd34ef56ab12cd34ef56ab12",
			Symbol:    "PEPE", USDValue: 5000, TxType: chaindata.TxTypeTransfer,
		},
		chaindata.Transfer{
			// Below the deposit floor.
			Chain: "ethereum", TxHash: "0xtx2", Timestamp: 1001,
			ToAddress: "0xab12cd34ef56ab12cd34ef56ab12cd34ef56ab13",
			Symbol:    "PEPE", USDValue: 999, TxType: chaindata.TxTypeTransfer,
		},
		chaindata.Transfer{
			// Approval, not a deposit.
			Chain: "ethereum", TxHash: "0xtx3", Timestamp: 1002,
			ToAddress: "0xab12cd34ef56ab12cd34ef56ab12cd34ef56ab14",
			Symbol:    "PEPE", USDValue: 5000, TxType: "approve",
		},
		chaindata.Transfer{
			// Vanity contract recipient.
			Chain: "ethereum", TxHash: "0xtx4", Timestamp: 1003,
			ToAddress: "0x00000000001234567890abcdef123456789abcde",
			Symbol:    "PEPE", USDValue: 5000, TxType: chaindata.TxTypeSwap,
		},
		chaindata.Transfer{
			// Labeled exchange wallet.
			Chain: "ethereum", TxHash: "0xtx5", Timestamp: 1004,
			ToAddress: "0xab12cd34ef56ab12cd34ef56ab12cd34ef56ab15",
			ToLabel:   "Binance 14",
			Symbol:    "PEPE", USDValue: 5000, TxType: chaindata.TxTypeSwap,
		},
		chaindata.Transfer{
			Chain: "ethereum", TxHash: "0xtx6", Timestamp: 1005,
			ToAddress: "0xab12cd34ef56ab12cd34ef56ab12cd34ef56ab16",
			ToLabel:   "unlabeled address",
			Symbol:    "PEPE", USDValue: 1000, TxType: chaindata.TxTypeSimpleSwap,
		},
	)

	scanner := NewScanner(Options{Client: client, MinDepositUSD: 1000})
	candidates, err := scanner.Scan(context.Background(), testToken, 0, 2000)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d: %+v", len(candidates), candidates)
	}

	first := candidates[0]
	if first.TxHash != "0xtx1" || first.DepositUSD != 5000 || first.Symbol != "PEPE" {
		t.Errorf("unexpected first candidate: %+v", first)
	}
	second := candidates[1]
	if second.TxHash != "0xtx6" || second.DepositUSD != 1000 {
		t.Errorf("unexpected second candidate: %+v", second)
	}
}

func TestScanner_WalksAllPages(t *testing.T) {
	client := stub.NewClient()

	transfers := make([]chaindata.Transfer, 0, pageSize+3)
	for i := 0; i < pageSize+3; i++ {
		transfers = append(transfers, chaindata.Transfer{
			Chain:     "ethereum",
			TxHash:    fmt.Sprintf("0xtx%d", i),
			Timestamp: int64(1000 + i),
			ToAddress: fmt.Sprintf("0xab%036xcd", i),
			Symbol:    "PEPE",
			USDValue:  2000,
			TxType:    chaindata.TxTypeTransfer,
		})
	}
	client.AddTransfers(testToken.Chain, testToken.Address, transfers...)

	scanner := NewScanner(Options{Client: client, MinDepositUSD: 1000})
	candidates, err := scanner.Scan(context.Background(), testToken, 0, 10_000)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(candidates) != pageSize+3 {
		t.Errorf("expected %d candidates, got %d", pageSize+3, len(candidates))
	}
	// A full first page forces a second fetch, the short page ends it.
	if client.TransfersCalls != 2 {
		t.Errorf("expected 2 transfer pages, got %d", client.TransfersCalls)
	}
}

func TestScanner_PropagatesUpstreamError(t *testing.T) {
	client := stub.NewClient()
	client.TransfersErr = fmt.Errorf("boom")

	scanner := NewScanner(Options{Client: client})
	if _, err := scanner.Scan(context.Background(), testToken, 0, 2000); err == nil {
		t.Fatal("expected error from failed transfer fetch")
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		interval time.Duration
		want     time.Duration
	}{
		{interval: 5 * time.Minute, want: 2 * time.Hour},
		{interval: 2 * time.Hour, want: 2*time.Hour + time.Minute},
		{interval: 6 * time.Hour, want: 6*time.Hour + time.Minute},
	}

	for _, tt := range tests {
		if got := Window(tt.interval); got != tt.want {
			t.Errorf("Window(%v) = %v, want %v", tt.interval, got, tt.want)
		}
	}
}
