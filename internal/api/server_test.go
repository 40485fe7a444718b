package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fresh-wallet-scout/internal/chaindata"
	"fresh-wallet-scout/internal/chaindata/stub"
	"fresh-wallet-scout/internal/detection"
	"fresh-wallet-scout/internal/domain"
	"fresh-wallet-scout/internal/freshness"
	"fresh-wallet-scout/internal/orchestrator"
	"fresh-wallet-scout/internal/resolver"
	"fresh-wallet-scout/internal/storage/memory"
)

func newTestServer(t *testing.T, client *stub.Client) *Server {
	t.Helper()

	watchlist := memory.NewWatchlistStore()
	orch := orchestrator.New(orchestrator.Options{
		Resolver:  resolver.NewResolver(resolver.Options{Client: client, TTL: time.Minute}),
		Scanner:   detection.NewScanner(detection.Options{Client: client}),
		Verifier:  freshness.NewVerifier(freshness.Options{Client: client}),
		Watchlist: watchlist,
		Chains:    []string{"ethereum"},
		Interval:  5 * time.Minute,
	})
	return NewServer(Options{Addr: ":0", Orchestrator: orch, Watchlist: watchlist})
}

func doRequest(t *testing.T, srv *Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	srv := newTestServer(t, stub.NewClient())

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /healthz = %d, want 200", rec.Code)
	}
}

func TestServer_SymbolLifecycle(t *testing.T) {
	srv := newTestServer(t, stub.NewClient())

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/symbols", []byte(`{"symbol":"PEPE"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("add symbol = %d, want 201: %s", rec.Code, rec.Body)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/symbols", []byte(`{"symbol":"pepe"}`))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate symbol = %d, want 409", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/symbols", []byte(`{}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing symbol = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/symbols", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list symbols = %d, want 200", rec.Code)
	}
	var listResp struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listResp.Symbols) != 1 || listResp.Symbols[0] != "PEPE" {
		t.Errorf("symbols = %v, want [PEPE]", listResp.Symbols)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/symbols/pepe", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("remove symbol = %d, want 200", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/symbols/pepe", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("remove missing symbol = %d, want 404", rec.Code)
	}
}

func TestServer_StatusBeforeFirstRun(t *testing.T) {
	srv := newTestServer(t, stub.NewClient())

	rec := doRequest(t, srv, http.MethodGet, "/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /status = %d, want 200", rec.Code)
	}
	var status orchestrator.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Running || status.Runs != 0 {
		t.Errorf("unexpected initial status: %+v", status)
	}
}

func TestServer_TriggerScanAndFetchResults(t *testing.T) {
	client := stub.NewClient()
	client.Delay = 200 * time.Millisecond
	client.AddScreenedToken("ethereum", chaindata.ScreenedToken{
		Chain: "ethereum", Address: "0xtok", Symbol: "PEPE",
	})
	client.AddTransfers("ethereum", "0xtok", chaindata.Transfer{
		Chain: "ethereum", TxHash: "0xdeposit",
		Timestamp: time.Now().Add(-time.Minute).UnixMilli(),
		ToAddress: "0xab12cd34ef56ab12cd34ef56ab12cd34ef56ab12",
		Symbol:    "PEPE", USDValue: 5000, TxType: chaindata.TxTypeTransfer,
	})

	srv := newTestServer(t, client)
	if rec := doRequest(t, srv, http.MethodPost, "/api/v1/symbols", []byte(`{"symbol":"PEPE"}`)); rec.Code != http.StatusCreated {
		t.Fatalf("seed watchlist = %d: %s", rec.Code, rec.Body)
	}

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/scan", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("trigger scan = %d, want 202: %s", rec.Code, rec.Body)
	}

	// The stubbed delay keeps the first run busy for a moment.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/scan", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("second trigger = %d, want 409", rec.Code)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		rec = doRequest(t, srv, http.MethodGet, "/status", nil)
		var status orchestrator.Status
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("decode status: %v", err)
		}
		if status.Runs > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("scan never finished")
		}
		time.Sleep(20 * time.Millisecond)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/results", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /results = %d, want 200", rec.Code)
	}
	var resultsResp struct {
		Wallets []domain.FreshWallet `json:"wallets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resultsResp); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(resultsResp.Wallets) != 1 {
		t.Fatalf("expected 1 wallet in results, got %+v", resultsResp.Wallets)
	}
	if resultsResp.Wallets[0].InitDepositUSD != 5000 {
		t.Errorf("unexpected wallet: %+v", resultsResp.Wallets[0])
	}
}
