// Package chaindata is the client for the chain-data provider API.
//
// All endpoint calls funnel through a single Gateway that applies the
// provider's rate limits, authenticates the request and retries
// transient failures with exponential backoff.
package chaindata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"fresh-wallet-scout/internal/observability"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Default configuration values.
const (
	DefaultTimeout       = 10 * time.Second
	DefaultRetryAttempts = 3
	DefaultMaxPerSecond  = 5
	DefaultMaxPerMinute  = 100

	defaultBackoffBase = 1 * time.Second
	headerAPIKey       = "X-API-Key"
)

// Gateway is the single dispatch point for upstream requests.
type Gateway struct {
	baseURL     string
	apiKey      string
	client      *fasthttp.Client
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
	limiter     *windowLimiter
	log         *zap.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// WithRetryAttempts sets how many times a transient failure is retried.
func WithRetryAttempts(n int) GatewayOption {
	return func(g *Gateway) {
		g.maxAttempts = n
	}
}

// WithRateLimits sets the per-second and per-minute dispatch caps.
func WithRateLimits(perSecond, perMinute int) GatewayOption {
	return func(g *Gateway) {
		g.limiter = newWindowLimiter(perSecond, perMinute)
	}
}

// WithBackoffBase sets the backoff unit between retries.
func WithBackoffBase(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.backoffBase = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		g.log = l.Named("gateway")
	}
}

// WithTransport sets a custom fasthttp client.
func WithTransport(c *fasthttp.Client) GatewayOption {
	return func(g *Gateway) {
		g.client = c
	}
}

// NewGateway creates a Gateway for the given API base URL and key.
func NewGateway(baseURL, apiKey string, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		client:      &fasthttp.Client{},
		timeout:     DefaultTimeout,
		maxAttempts: DefaultRetryAttempts,
		backoffBase: defaultBackoffBase,
		limiter:     newWindowLimiter(DefaultMaxPerSecond, DefaultMaxPerMinute),
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Post sends payload to path and decodes the JSON response into out.
// Transient failures (timeouts, connection errors, 429 and 5xx) are
// retried with exponential backoff; other client errors surface
// immediately.
func (g *Gateway) Post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxAttempts; attempt++ {
		if attempt > 0 {
			// 2s, 4s, 8s, ...
			delay := g.backoffBase << attempt
			g.log.Warn("retrying upstream request",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			if err := sleepContext(ctx, delay); err != nil {
				return err
			}
		}

		waitStart := time.Now()
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
		observability.RecordRateLimitWait(time.Since(waitStart).Seconds())

		start := time.Now()
		respBody, err := g.send(path, body)
		observability.RecordUpstreamRequest(path, statusCode(err), time.Since(start).Seconds())
		if err == nil {
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
			return nil
		}
		if !transient(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, g.maxAttempts+1, lastErr)
}

// send performs one HTTP round trip.
func (g *Gateway) send(path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(g.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(headerAPIKey, g.apiKey)
	req.SetBody(body)

	if err := g.client.DoDeadline(req, resp, time.Now().Add(g.timeout)); err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}

	code := resp.StatusCode()
	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		return nil, &StatusError{Code: code, Body: string(resp.Body())}
	}

	// The response buffer is pooled, copy before release.
	out := make([]byte, len(resp.Body()))
	copy(out, resp.Body())
	return out, nil
}

// statusCode extracts the HTTP status for metrics, zero when the
// request never produced a response.
func statusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code
	}
	return 0
}
