package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestHandlerEnforcesLimit(t *testing.T) {
	limiter, _ := testLimiter(t)
	handler := Handler{
		Limiter: limiter,
		Config: Config{
			Key:    func(*http.Request) string { return "static" },
			Window: time.Second,
			Max:    1,
		},
	}

	wrapped := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/quotes/compare", nil)

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, req.Clone(req.Context()))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, req.Clone(req.Context()))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	require.Equal(t, "1", second.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "application/json", second.Header().Get("Content-Type"))
	require.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestIPKeyUsesForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/quotes/compare", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	require.Equal(t, "ip:203.0.113.9", IPKey(req))
}

func TestHandlerFailsOpenOnLimiterError(t *testing.T) {
	// unreachable redis
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })

	var reported error
	handler := Handler{
		Limiter: Limiter{Client: client, Prefix: "ratelimit:"},
		Config: Config{
			Key:    func(*http.Request) string { return "err" },
			Window: time.Second,
			Max:    1,
		},
		OnError: func(err error) { reported = err },
	}

	wrapped := handler.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/quotes/compare", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Error(t, reported)
}

func TestHandlerSkipsWithoutKeyFunc(t *testing.T) {
	wrapped := Handler{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/quotes/abc", nil))
	require.Equal(t, http.StatusOK, rr.Code)
}
