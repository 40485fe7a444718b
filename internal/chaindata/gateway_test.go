package chaindata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// fastGateway builds a gateway with test-friendly backoff and no
// effective rate limiting.
func fastGateway(url string, opts ...GatewayOption) *Gateway {
	base := []GatewayOption{
		WithBackoffBase(time.Millisecond),
		WithRateLimits(1000, 10000),
		WithTimeout(2 * time.Second),
	}
	return NewGateway(url, "test-key", append(base, opts...)...)
}

func TestGateway_Post_Success(t *testing.T) {
	var gotKey, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`[{"value":7}]`))
	}))
	defer server.Close()

	g := fastGateway(server.URL)

	var out []struct {
		Value int `json:"value"`
	}
	if err := g.Post(context.Background(), "/v1/test", map[string]int{"a": 1}, &out); err != nil {
		t.Fatalf("Post failed: %v", err)
	}

	if len(out) != 1 || out[0].Value != 7 {
		t.Errorf("unexpected response: %+v", out)
	}
	if gotKey != "test-key" {
		t.Errorf("expected API key header, got %q", gotKey)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotContentType)
	}
}

func TestGateway_Post_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	g := fastGateway(server.URL, WithRetryAttempts(3))

	var out []struct{}
	if err := g.Post(context.Background(), "/v1/test", nil, &out); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 attempts, got %d", n)
	}
}

func TestGateway_Post_RetriesOn500(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	g := fastGateway(server.URL, WithRetryAttempts(2))

	var out []struct{}
	if err := g.Post(context.Background(), "/v1/test", nil, &out); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 attempts, got %d", n)
	}
}

func TestGateway_Post_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`bad request`))
	}))
	defer server.Close()

	g := fastGateway(server.URL, WithRetryAttempts(3))

	err := g.Post(context.Background(), "/v1/test", nil, nil)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.Code != http.StatusBadRequest {
		t.Errorf("expected code 400, got %d", statusErr.Code)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected exactly 1 attempt for client error, got %d", n)
	}
}

func TestGateway_Post_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	g := fastGateway(server.URL, WithRetryAttempts(2))

	err := g.Post(context.Background(), "/v1/test", nil, nil)
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusInternalServerError {
		t.Errorf("expected wrapped 500 StatusError, got %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", n)
	}
}

func TestGateway_Post_TimeoutRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	g := fastGateway(server.URL, WithRetryAttempts(2), WithTimeout(50*time.Millisecond))

	var out []struct{}
	if err := g.Post(context.Background(), "/v1/test", nil, &out); err != nil {
		t.Fatalf("expected success after timeout retry, got %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 attempts, got %d", n)
	}
}

func TestGateway_Post_ContextCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	g := fastGateway(server.URL, WithRetryAttempts(3), WithBackoffBase(10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	err := g.Post(ctx, "/v1/test", nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took too long: %v", elapsed)
	}
}

func TestGateway_Post_RateLimitApplied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	g := NewGateway(server.URL, "test-key", WithRateLimits(2, 100))

	start := time.Now()
	for i := 0; i < 3; i++ {
		var out []struct{}
		if err := g.Post(context.Background(), "/v1/test", nil, &out); err != nil {
			t.Fatalf("Post %d failed: %v", i, err)
		}
	}

	// The third request has to wait for the first to leave the one
	// second window.
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("expected third request to be delayed about 1s, elapsed %v", elapsed)
	}
}
