package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/adplane/ads-control-plane/config"
	"github.com/adplane/ads-control-plane/services"
	"github.com/adplane/ads-control-plane/services/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubResolver struct {
	mu     sync.Mutex
	tokens []string
	calls  int
	err    error
}

func (r *stubResolver) Resolve(_ context.Context, _ string) (*credentials.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	r.calls++
	token := "tok-test"
	if len(r.tokens) > 0 {
		idx := r.calls - 1
		if idx >= len(r.tokens) {
			idx = len(r.tokens) - 1
		}
		token = r.tokens[idx]
	}
	return &credentials.Credential{Token: token, Source: "tenant:test"}, nil
}

func (r *stubResolver) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func testPlatformConfig(baseURL string, maxRetries int) config.PlatformConfig {
	return config.PlatformConfig{
		BaseURL:        baseURL,
		APIVersion:     "v19.0",
		Timeout:        5 * time.Second,
		MaxRetries:     maxRetries,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
		RetryJitterMs:  0,
	}
}

func noSleep(_ context.Context, _ time.Duration) error {
	return nil
}

func TestClient_RateLimitCodeRetriedRegardlessOfStatus(t *testing.T) {
	// The platform reports throttling with HTTP 400 and code 4. One
	// configured retry must produce exactly two attempts.
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Application request limit reached","type":"OAuthException","code":4,"fbtrace_id":"AbCdEf"}}`))
	}))
	defer server.Close()

	client := NewClient(testPlatformConfig(server.URL, 1), &stubResolver{}, nil, zaptest.NewLogger(t))
	client.SetSleepFunc(noSleep)

	_, err := client.Get(context.Background(), "acme", "/act_123/campaigns", "act_123", nil)

	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.True(t, services.IsRateLimitError(err))
	assert.Contains(t, err.Error(), "code=4")
	assert.Equal(t, 2, services.GetErrorDetails(err)["attempts"])
}

func TestClient_AccountThrottleSubcodeRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":{"message":"Please reduce the amount of data","type":"OAuthException","code":1,"error_subcode":2446079}}`))
			return
		}
		w.Write([]byte(`{"id":"23850000000001"}`))
	}))
	defer server.Close()

	client := NewClient(testPlatformConfig(server.URL, 2), &stubResolver{}, nil, zaptest.NewLogger(t))
	client.SetSleepFunc(noSleep)

	resp, err := client.Post(context.Background(), "acme", "/act_123/campaigns", "act_123", map[string]interface{}{"name": "Spring Sale"})

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Attempts)

	var created CreatedID
	require.NoError(t, resp.Decode(&created))
	assert.Equal(t, "23850000000001", created.ID)
}

func TestClient_ServerErrorsRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := NewClient(testPlatformConfig(server.URL, 3), &stubResolver{}, nil, zaptest.NewLogger(t))
	client.SetSleepFunc(noSleep)

	resp, err := client.Get(context.Background(), "acme", "/act_123/adsets", "act_123", nil)

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Attempts)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_TerminalErrorsNotRetried(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100}}`))
	}))
	defer server.Close()

	client := NewClient(testPlatformConfig(server.URL, 3), &stubResolver{}, nil, zaptest.NewLogger(t))
	client.SetSleepFunc(noSleep)

	_, err := client.Get(context.Background(), "acme", "/act_123/campaigns", "act_123", nil)

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.True(t, services.IsExternalError(err))
}

func TestClient_CredentialResolvedPerAttempt(t *testing.T) {
	var tokens []string
	var mu sync.Mutex
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		tokens = append(tokens, r.URL.Query().Get("access_token"))
		mu.Unlock()
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id":"1"}`))
	}))
	defer server.Close()

	resolver := &stubResolver{tokens: []string{"tok-old", "tok-rotated"}}
	client := NewClient(testPlatformConfig(server.URL, 1), resolver, nil, zaptest.NewLogger(t))
	client.SetSleepFunc(noSleep)

	_, err := client.Get(context.Background(), "acme", "/act_123", "act_123", nil)

	require.NoError(t, err)
	assert.Equal(t, 2, resolver.callCount())
	assert.Equal(t, []string{"tok-old", "tok-rotated"}, tokens)
}

func TestClient_CredentialErrorFailsFast(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	resolver := &stubResolver{err: services.ErrCredentialMissing}
	client := NewClient(testPlatformConfig(server.URL, 3), resolver, nil, zaptest.NewLogger(t))
	client.SetSleepFunc(noSleep)

	_, err := client.Get(context.Background(), "acme", "/act_123", "act_123", nil)

	require.Error(t, err)
	assert.True(t, services.IsCredentialError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestClient_UsageHeadersParsed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-App-Usage", `{"call_count":28,"total_time":25,"total_cputime":25}`)
		w.Header().Set("X-Ad-Account-Usage", `{"acc_id_util_pct":9.67}`)
		w.Header().Set("X-Business-Use-Case-Usage", `{"123":[{"type":"ads_management","call_count":95,"total_cputime":20,"total_time":20,"estimated_time_to_regain_access":0}]}`)
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	client := NewClient(testPlatformConfig(server.URL, 0), &stubResolver{}, nil, zaptest.NewLogger(t))
	client.SetSleepFunc(noSleep)

	resp, err := client.Get(context.Background(), "acme", "/act_123/campaigns", "act_123", nil)

	require.NoError(t, err)
	require.NotNil(t, resp.Usage)
	require.NotNil(t, resp.Usage.App)
	assert.Equal(t, 28, resp.Usage.App.CallCount)
	require.NotNil(t, resp.Usage.AdAccount)
	assert.InDelta(t, 9.67, resp.Usage.AdAccount.UtilPct, 0.001)
	require.Contains(t, resp.Usage.BusinessUseCase, "123")
	assert.Equal(t, "ads_management", resp.Usage.BusinessUseCase["123"][0].Type)
}

func TestClient_BackoffDelaysGrowAndCap(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := testPlatformConfig(server.URL, 3)
	cfg.RetryBaseDelay = 100 * time.Millisecond
	cfg.RetryMaxDelay = 300 * time.Millisecond
	cfg.RetryJitterMs = 0

	var delays []time.Duration
	client := NewClient(cfg, &stubResolver{}, nil, zaptest.NewLogger(t))
	client.SetSleepFunc(func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	})

	_, err := client.Get(context.Background(), "acme", "/act_123", "act_123", nil)

	require.Error(t, err)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		300 * time.Millisecond, // capped, uncapped would be 400ms
	}, delays)
}

func TestClient_SleepCancellationStopsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(testPlatformConfig(server.URL, 5), &stubResolver{}, nil, zaptest.NewLogger(t))
	client.SetSleepFunc(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	})

	_, err := client.Get(ctx, "acme", "/act_123", "act_123", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_QueueSerializesCallsPerAccount(t *testing.T) {
	var inFlight, maxInFlight int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&inFlight, 1)
		for {
			observed := atomic.LoadInt32(&maxInFlight)
			if current <= observed || atomic.CompareAndSwapInt32(&maxInFlight, observed, current) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	queue := NewAccountQueue(zaptest.NewLogger(t))
	client := NewClient(testPlatformConfig(server.URL, 0), &stubResolver{}, queue, zaptest.NewLogger(t))
	client.SetSleepFunc(noSleep)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Get(context.Background(), "acme", "/act_123/campaigns", "act_123", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}
