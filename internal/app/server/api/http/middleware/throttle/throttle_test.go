package throttle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"excelkeeper/internal/ratelimit"
	"excelkeeper/internal/utils/clientip"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis down")
}

func (failingLimiter) Undo(context.Context, string, ratelimit.Result) error {
	return errors.New("redis down")
}

type statusInput struct {
	Fail bool `query:"fail"`
}

func memory(t *testing.T, limit int) *ratelimit.Memory {
	t.Helper()
	m, err := ratelimit.NewMemory(ratelimit.Rule{Name: "test", Limit: limit, Window: time.Minute})
	require.NoError(t, err)
	return m
}

func setup(t *testing.T, mw func(huma.Context, func(huma.Context))) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	huma.Register(api, huma.Operation{
		OperationID: "limited",
		Method:      http.MethodGet,
		Path:        "/limited",
		Middlewares: huma.Middlewares{mw},
	}, func(_ context.Context, in *statusInput) (*struct{}, error) {
		if in.Fail {
			return nil, huma.Error401Unauthorized("nope")
		}
		return nil, nil
	})
	return api
}

func TestThrottle_Middleware(t *testing.T) {
	th := New(memory(t, 3), MessageUpload, slog.Default())
	api := setup(t, th.Middleware())

	for i := 0; i < 3; i++ {
		resp := api.Get("/limited")
		require.Less(t, resp.Code, 300, "request %d", i)
	}

	resp := api.Get("/limited")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))
	assert.Equal(t, "3", resp.Header().Get("RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header().Get("RateLimit-Remaining"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Equal(t, MessageUpload, body["error"])
	assert.Equal(t, "RATE_LIMITED", body["code"])
}

func TestThrottle_FailuresOnly(t *testing.T) {
	th := New(memory(t, 2), MessageLogin, slog.Default())
	api := setup(t, th.FailuresOnly())

	for i := 0; i < 5; i++ {
		resp := api.Get("/limited")
		require.Less(t, resp.Code, 300, "successful request %d must not count", i)
	}

	assert.Equal(t, http.StatusUnauthorized, api.Get("/limited?fail=true").Code)
	assert.Equal(t, http.StatusUnauthorized, api.Get("/limited?fail=true").Code)

	resp := api.Get("/limited")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Contains(t, resp.Body.String(), MessageLogin)
}

func TestThrottle_FailuresOnlyConcurrent(t *testing.T) {
	const limit = 5
	th := New(memory(t, limit), MessageLogin, slog.Default())

	var reached atomic.Int32
	_, api := humatest.New(t)
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/login",
		Middlewares: huma.Middlewares{th.FailuresOnly()},
	}, func(_ context.Context, _ *struct{}) (*struct{}, error) {
		reached.Add(1)
		time.Sleep(50 * time.Millisecond)
		return nil, huma.Error401Unauthorized("wrong password")
	})

	var wg sync.WaitGroup
	codes := make(chan int, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := httptest.NewRequest(http.MethodPost, "/login", nil)
			r.RemoteAddr = "203.0.113.7:5000"
			rec := httptest.NewRecorder()
			api.Adapter().ServeHTTP(rec, r)
			codes <- rec.Code
		}()
	}
	wg.Wait()
	close(codes)

	var unauthorized, limited int
	for code := range codes {
		switch code {
		case http.StatusUnauthorized:
			unauthorized++
		case http.StatusTooManyRequests:
			limited++
		}
	}

	assert.Equal(t, int32(limit), reached.Load())
	assert.Equal(t, limit, unauthorized)
	assert.Equal(t, 50-limit, limited)
}

func TestThrottle_FailuresOnlyRefundsSuccess(t *testing.T) {
	th := New(memory(t, 1), MessageLogin, slog.Default())
	api := setup(t, th.FailuresOnly())

	for i := 0; i < 3; i++ {
		require.Less(t, api.Get("/limited").Code, 300)
	}

	assert.Equal(t, http.StatusUnauthorized, api.Get("/limited?fail=true").Code)
	assert.Equal(t, http.StatusTooManyRequests, api.Get("/limited?fail=true").Code)
}

func TestThrottle_FailsClosed(t *testing.T) {
	th := New(failingLimiter{}, MessageLogin, slog.Default())

	assert.Equal(t, http.StatusServiceUnavailable, setup(t, th.Middleware()).Get("/limited").Code)
	assert.Equal(t, http.StatusServiceUnavailable, setup(t, th.FailuresOnly()).Get("/limited").Code)

	rec := httptest.NewRecorder()
	th.Handler(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestThrottle_HandlerKeysByClientIP(t *testing.T) {
	th := New(memory(t, 1), MessageGeneral, slog.Default())
	h := clientip.Middleware(nil)(th.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	do := func(remote string) int {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, do("203.0.113.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, do("203.0.113.1:2000"))
	assert.Equal(t, http.StatusNoContent, do("203.0.113.2:1000"))
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, "192.0.2.1", keyFor(context.Background(), "192.0.2.1:443"))
	assert.Equal(t, "pipe", keyFor(context.Background(), "pipe"))
	assert.Equal(t, "198.51.100.9", keyFor(clientip.WithIP(context.Background(), "198.51.100.9"), "192.0.2.1:443"))
}
