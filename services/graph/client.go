package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/adplane/ads-control-plane/config"
	"github.com/adplane/ads-control-plane/services"
	"github.com/adplane/ads-control-plane/services/credentials"
	"go.uber.org/zap"
)

// CredentialResolver supplies the access token for a tenant. Satisfied by
// credentials.CredentialService.
type CredentialResolver interface {
	Resolve(ctx context.Context, tenantID string) (*credentials.Credential, error)
}

// SleepFunc blocks for d or until the context is cancelled
type SleepFunc func(ctx context.Context, d time.Duration) error

// Client executes platform API calls with credential resolution, retry
// with exponential backoff, usage telemetry parsing, and per-account
// serialization through the queue.
type Client struct {
	cfg        config.PlatformConfig
	resolver   CredentialResolver
	httpClient *http.Client
	queue      *AccountQueue
	logger     *zap.Logger
	sleep      SleepFunc
	jitter     func(maxMs int) time.Duration
}

// NewClient creates a new platform Client instance
func NewClient(cfg config.PlatformConfig, resolver CredentialResolver, queue *AccountQueue, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		cfg:      cfg,
		resolver: resolver,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		queue:  queue,
		logger: logger,
		sleep:  ctxSleep,
		jitter: func(maxMs int) time.Duration {
			if maxMs <= 0 {
				return 0
			}
			return time.Duration(rand.Int63n(int64(maxMs))) * time.Millisecond
		},
	}
}

// SetSleepFunc overrides the retry sleep. Tests use this to avoid real
// delays; the replacement must still honor context cancellation.
func (c *Client) SetSleepFunc(fn SleepFunc) {
	c.sleep = fn
}

// Do executes the request. Calls that carry an ad account id are
// serialized behind every other in-flight call for that account.
func (c *Client) Do(ctx context.Context, tenantID string, req *Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}

	if c.queue != nil && req.AccountID != "" {
		return c.queue.Run(ctx, req.AccountID, func(ctx context.Context) (*Response, error) {
			return c.doWithRetry(ctx, tenantID, req)
		})
	}
	return c.doWithRetry(ctx, tenantID, req)
}

// Get performs a GET against a version-relative path
func (c *Client) Get(ctx context.Context, tenantID, path, accountID string, query url.Values) (*Response, error) {
	return c.Do(ctx, tenantID, &Request{
		Method:    http.MethodGet,
		Path:      path,
		AccountID: accountID,
		Query:     query,
	})
}

// Post performs a POST with a JSON body against a version-relative path
func (c *Client) Post(ctx context.Context, tenantID, path, accountID string, body map[string]interface{}) (*Response, error) {
	return c.Do(ctx, tenantID, &Request{
		Method:    http.MethodPost,
		Path:      path,
		AccountID: accountID,
		Body:      body,
	})
}

// Delete performs a DELETE against a version-relative path
func (c *Client) Delete(ctx context.Context, tenantID, path, accountID string) (*Response, error) {
	return c.Do(ctx, tenantID, &Request{
		Method:    http.MethodDelete,
		Path:      path,
		AccountID: accountID,
	})
}

// doWithRetry runs the attempt loop. Throttling signals are retried with
// exponential backoff whatever HTTP status carried them; everything else
// fails fast.
func (c *Client) doWithRetry(ctx context.Context, tenantID string, req *Request) (*Response, error) {
	maxAttempts := c.cfg.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// Resolved fresh on every attempt so a token rotated mid-retry
		// takes effect.
		cred, err := c.resolver.Resolve(ctx, tenantID)
		if err != nil {
			return nil, err
		}

		httpReq, err := c.buildHTTPRequest(ctx, req, cred.Token)
		if err != nil {
			return nil, services.WrapInternal("failed to build platform request", err)
		}

		httpResp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn("platform request failed",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("attempt", attempt),
				zap.Error(err))
			if attempt == maxAttempts {
				return nil, networkError(req, attempt, err)
			}
			if sleepErr := c.backoff(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}

		body, readErr := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if readErr != nil {
			if attempt == maxAttempts {
				return nil, networkError(req, attempt, readErr)
			}
			if sleepErr := c.backoff(ctx, attempt); sleepErr != nil {
				return nil, sleepErr
			}
			continue
		}

		usage := parseUsage(httpResp.Header)
		if usage != nil {
			c.logUsage(req, usage)
		}

		if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 {
			return &Response{
				StatusCode: httpResp.StatusCode,
				Body:       body,
				Header:     httpResp.Header,
				Usage:      usage,
				Attempts:   attempt,
			}, nil
		}

		platformErr := parsePlatformError(body)
		retryable := statusRetryable(httpResp.StatusCode) || platformErr.Retryable()

		if !retryable || attempt == maxAttempts {
			return nil, terminalError(req, httpResp.StatusCode, attempt, platformErr, body)
		}

		c.logger.Warn("retrying throttled platform request",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Int("attempt", attempt),
			zap.Int("status", httpResp.StatusCode),
			zap.String("platform_error", platformErr.Flatten()))

		if sleepErr := c.backoff(ctx, attempt); sleepErr != nil {
			return nil, sleepErr
		}
	}

	// Unreachable: the final attempt always returns above.
	return nil, services.ErrPlatformUnavailable
}

// backoff waits before the next attempt. Delay doubles per attempt from
// the configured base, plus uniform jitter, capped at the configured max.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt-1))
	delay += c.jitter(c.cfg.RetryJitterMs)
	if c.cfg.RetryMaxDelay > 0 && delay > c.cfg.RetryMaxDelay {
		delay = c.cfg.RetryMaxDelay
	}
	return c.sleep(ctx, delay)
}

// buildHTTPRequest assembles the outgoing request. The access token rides
// as a query parameter; mutation bodies are JSON.
func (c *Client) buildHTTPRequest(ctx context.Context, req *Request, token string) (*http.Request, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + c.cfg.APIVersion + req.Path

	query := url.Values{}
	for key, values := range req.Query {
		for _, value := range values {
			query.Add(key, value)
		}
	}
	query.Set("access_token", token)

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint+"?"+query.Encode(), body)
	if err != nil {
		return nil, err
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}

// logUsage surfaces platform quota telemetry. Exhausted budgets log at
// Warn so operators see throttling before calls start failing.
func (c *Client) logUsage(req *Request, usage *UsageReport) {
	fields := []zap.Field{
		zap.String("path", req.Path),
		zap.Float64("max_utilization_pct", usage.MaxUtilization()),
	}
	if usage.AdAccount != nil {
		fields = append(fields, zap.Float64("ad_account_util_pct", usage.AdAccount.UtilPct))
	}
	if cooldown := usage.CooldownFor(req.AccountID); cooldown > 0 {
		fields = append(fields, zap.Duration("regain_access_in", cooldown))
	}

	if usage.Throttled() {
		c.logger.Warn("platform usage budget exhausted", fields...)
		return
	}
	c.logger.Debug("platform usage", fields...)
}

// ctxSleep is the default SleepFunc
func ctxSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
