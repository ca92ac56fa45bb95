package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aman-zulfiqar/token-ratio-chart/internal/gecko"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/models"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/observability"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/poolselect"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/ratio"
	"github.com/aman-zulfiqar/token-ratio-chart/internal/storage"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	solMint  = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

type fakeRatio struct {
	err     error
	block   bool // wait for the request deadline
	lastReq ratio.Request
	calls   int
}

func (f *fakeRatio) Run(ctx context.Context, req ratio.Request) (*ratio.Result, error) {
	f.calls++
	f.lastReq = req
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ratio.Result{
		Request: req,
		LegA:    ratio.Leg{Token: req.TokenA, Symbol: "SOL"},
		LegB:    ratio.Leg{Token: req.TokenB, Symbol: "USDC"},
		Points: []models.RatioPoint{
			{TimestampMs: 1_700_006_400_000, Ratio: 150, PriceA: 150, PriceB: 1},
		},
		Chart: "Only one data point (ratio 150); not enough to draw a chart.\n",
	}, nil
}

func (f *fakeRatio) Pools(_ context.Context, token string, _ models.Interval, _ int) (*ratio.PoolReport, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	sel := models.PoolCandidate{Address: "pool1", TokenAddress: token, HistoryDepth: 30}
	return &ratio.PoolReport{Token: token, Symbol: "SOL", Selected: &sel, Reason: poolselect.ReasonLiquidity}, nil
}

func newTestServer(t *testing.T, svc RatioService, cfg ServerConfig) http.Handler {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	srv, err := NewServer(ServerDeps{
		Handlers: &Handlers{Service: svc, Network: "solana", DevMode: true, Logger: logger},
		Config:   cfg,
	})
	require.NoError(t, err)
	return srv.Handler()
}

func do(h http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	return doMethod(h, http.MethodGet, target, headers...)
}

func doMethod(h http.Handler, method, target string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func ratioURL(path string) string {
	return fmt.Sprintf("%s?token_a=%s&token_b=%s&interval=weekly&days=60", path, solMint, usdcMint)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &fakeRatio{}, ServerConfig{})

	rec := do(h, "/v1/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"network":"solana","cache":false}`, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestRatio_JSON(t *testing.T) {
	svc := &fakeRatio{}
	h := newTestServer(t, svc, ServerConfig{})

	rec := do(h, ratioURL("/v1/ratio"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ratio.Request{TokenA: solMint, TokenB: usdcMint, Interval: models.IntervalWeekly, Days: 60}, svc.lastReq)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, solMint, body["token_a"])
	assert.Equal(t, "weekly", body["interval"])
	assert.Len(t, body["points"], 1)
}

func TestRatio_Chart(t *testing.T) {
	h := newTestServer(t, &fakeRatio{}, ServerConfig{})

	rec := do(h, ratioURL("/v1/ratio/chart"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "Only one data point (ratio 150); not enough to draw a chart.\n", rec.Body.String())
}

func TestRatio_CSV(t *testing.T) {
	h := newTestServer(t, &fakeRatio{}, ServerConfig{})

	rec := do(h, ratioURL("/v1/ratio/csv"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Equal(t, "timestamp,ratio,price_a,price_b\n2023-11-15T00:00:00Z,150,150,1\n", rec.Body.String())
}

func TestRatio_BadParams(t *testing.T) {
	svc := &fakeRatio{}
	h := newTestServer(t, svc, ServerConfig{})

	for _, target := range []string{
		"/v1/ratio?token_a=" + solMint,
		"/v1/ratio?token_a=" + solMint + "&token_b=" + usdcMint + "&interval=monthly",
		"/v1/ratio?token_a=" + solMint + "&token_b=" + usdcMint + "&days=0",
		"/v1/ratio?token_a=" + solMint + "&token_b=" + usdcMint + "&days=abc",
	} {
		rec := do(h, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
	assert.Zero(t, svc.calls)
}

func TestRatio_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("token a: %w", storage.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("select: %w", poolselect.ErrNoUsableCandidates), http.StatusNotFound},
		{fmt.Errorf("price: %w", storage.ErrNoData), http.StatusNotFound},
		{fmt.Errorf("pools: %w", &gecko.HTTPError{StatusCode: 503}), http.StatusBadGateway},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			h := newTestServer(t, &fakeRatio{err: tc.err}, ServerConfig{})
			rec := do(h, ratioURL("/v1/ratio"))
			assert.Equal(t, tc.code, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.code, resp.Code)
			assert.NotNil(t, resp.Details, "dev mode includes details")
		})
	}
}

func TestPools(t *testing.T) {
	h := newTestServer(t, &fakeRatio{}, ServerConfig{})

	rec := do(h, "/v1/pools/"+solMint+"?interval=hourly&days=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var report ratio.PoolReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.NotNil(t, report.Selected)
	assert.Equal(t, "pool1", report.Selected.Address)
	assert.Equal(t, poolselect.ReasonLiquidity, report.Reason)
}

func TestTicks(t *testing.T) {
	h := newTestServer(t, &fakeRatio{}, ServerConfig{})

	rec := do(h, "/v1/ticks?min=0&max=1&count=6")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TicksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	values := make([]float64, len(resp.Ticks))
	for i, tk := range resp.Ticks {
		values[i] = tk.Value
	}
	assert.Equal(t, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}, values)
	assert.Equal(t, "0.2", resp.Ticks[1].Label)

	assert.Equal(t, http.StatusBadRequest, do(h, "/v1/ticks?min=2&max=1").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, "/v1/ticks?min=x&max=1").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, "/v1/ticks?min=0&max=1&count=1").Code)
}

func TestAPIKey(t *testing.T) {
	h := newTestServer(t, &fakeRatio{}, ServerConfig{APIKey: "secret"})

	assert.Equal(t, http.StatusOK, do(h, "/v1/health").Code, "health is open")
	assert.Equal(t, http.StatusOK, do(h, "/v1/ticks?min=0&max=1", "X-API-Key", "secret").Code)

	for _, key := range []string{"", "wrong"} {
		rec := do(h, "/v1/ticks?min=0&max=1", "X-API-Key", key)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "key %q", key)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "invalid or missing api key", body.Error)
		assert.Equal(t, http.StatusUnauthorized, body.Code)
	}
}

func TestRatioRateLimited(t *testing.T) {
	svc := &fakeRatio{}
	h := newTestServer(t, svc, ServerConfig{RatioRate: 0.001})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		codes = append(codes, do(h, ratioURL("/v1/ratio")).Code)
	}
	assert.Equal(t, []int{200, 200, 200, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 3, svc.calls)

	rec := do(h, ratioURL("/v1/ratio"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate limit exceeded", body.Error)

	assert.Equal(t, http.StatusOK, do(h, "/v1/ticks?min=0&max=1").Code, "ticks are not limited")
}

func TestMetricsEndpoint(t *testing.T) {
	m := observability.NewMetrics("server_test")
	m.ObserveRun("ok", 0)
	h := newTestServer(t, &fakeRatio{}, ServerConfig{Metrics: m})

	rec := do(h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "server_test_ratio_runs_total")
}

func TestNotFound(t *testing.T) {
	h := newTestServer(t, &fakeRatio{}, ServerConfig{})

	rec := do(h, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found","code":404}`, rec.Body.String())
}

func TestUnhandledErrorIsLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)

	srv, err := NewServer(ServerDeps{
		Handlers: &Handlers{Service: &fakeRatio{}, Logger: logger},
	})
	require.NoError(t, err)
	srv.e.GET("/v1/broken", func(echo.Context) error { return errors.New("disk on fire") })

	rec := do(srv.Handler(), "/v1/broken")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error","code":500}`, rec.Body.String())
	assert.Contains(t, logs.String(), "unhandled error")
	assert.Contains(t, logs.String(), "disk on fire")
	assert.Contains(t, logs.String(), "/v1/broken")
}

func TestShutdownTwice(t *testing.T) {
	srv, err := NewServer(ServerDeps{Handlers: &Handlers{Service: &fakeRatio{}}})
	require.NoError(t, err)

	require.NotPanics(t, func() {
		assert.NoError(t, srv.Shutdown(context.Background()))
		assert.NoError(t, srv.Shutdown(context.Background()))
	})
	assert.NoError(t, srv.WaitClosed(context.Background()))
}

type fakeCache struct {
	tokens []string
	err    error
}

func (f *fakeCache) Invalidate(_ context.Context, token string) error {
	f.tokens = append(f.tokens, token)
	return f.err
}

func TestInvalidateCache(t *testing.T) {
	cache := &fakeCache{}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	srv, err := NewServer(ServerDeps{
		Handlers: &Handlers{Service: &fakeRatio{}, Network: "solana", Cache: cache, Logger: logger},
		Config:   ServerConfig{APIKey: "secret"},
	})
	require.NoError(t, err)
	h := srv.Handler()

	assert.Equal(t, http.StatusUnauthorized, doMethod(h, http.MethodDelete, "/v1/cache/"+solMint).Code)
	assert.Equal(t, http.StatusNoContent, doMethod(h, http.MethodDelete, "/v1/cache/"+solMint, "X-API-Key", "secret").Code)
	assert.Equal(t, http.StatusBadRequest, doMethod(h, http.MethodDelete, "/v1/cache/not-a-mint", "X-API-Key", "secret").Code)
	assert.Equal(t, []string{solMint}, cache.tokens)

	cache.err = errors.New("redis down")
	assert.Equal(t, http.StatusInternalServerError, doMethod(h, http.MethodDelete, "/v1/cache/"+usdcMint, "X-API-Key", "secret").Code)
}

func TestInvalidateCache_DisabledWithoutCache(t *testing.T) {
	h := newTestServer(t, &fakeRatio{}, ServerConfig{})
	assert.Equal(t, http.StatusNotFound, doMethod(h, http.MethodDelete, "/v1/cache/"+solMint).Code)
}

func TestRatioRequestTimeout(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	srv, err := NewServer(ServerDeps{
		Handlers: &Handlers{Service: &fakeRatio{block: true}, Timeout: 20 * time.Millisecond, Logger: logger},
	})
	require.NoError(t, err)

	start := time.Now()
	rec := do(srv.Handler(), ratioURL("/v1/ratio"))
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Less(t, time.Since(start), 5*time.Second)
}
