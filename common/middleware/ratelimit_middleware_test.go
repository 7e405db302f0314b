package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/vidgrab/common/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLimiter struct {
	global  *ratelimit.RateLimitResult
	client  *ratelimit.RateLimitResult
	err     error
	clients []string
}

func (f *fakeLimiter) Limits() ratelimit.Limits { return ratelimit.DefaultLimits }

func (f *fakeLimiter) CheckGlobalLimit(ctx context.Context) (*ratelimit.RateLimitResult, error) {
	return f.global, f.err
}

func (f *fakeLimiter) CheckClientLimit(ctx context.Context, clientID string) (*ratelimit.RateLimitResult, error) {
	f.clients = append(f.clients, clientID)
	return f.client, f.err
}

func serve(t *testing.T, mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/download", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}, mw)

	req := httptest.NewRequest(http.MethodGet, "/download", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestClientRateLimit_Allows(t *testing.T) {
	limiter := &fakeLimiter{client: &ratelimit.RateLimitResult{Allowed: true, CurrentCount: 1, Limit: 10}}

	rec := serve(t, ClientRateLimitMiddleware(limiter))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"203.0.113.7"}, limiter.clients)
}

func TestClientRateLimit_Rejects(t *testing.T) {
	limiter := &fakeLimiter{client: &ratelimit.RateLimitResult{Allowed: false, CurrentCount: 11, Limit: 10, RetryAfterSeconds: 42}}

	rec := serve(t, ClientRateLimitMiddleware(limiter))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "42", rec.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "client_rate_limit_exceeded", body["error"])
}

func TestGlobalRateLimit_Rejects(t *testing.T) {
	limiter := &fakeLimiter{global: &ratelimit.RateLimitResult{Allowed: false, Limit: 100, RetryAfterSeconds: 5}}

	rec := serve(t, GlobalRateLimitMiddleware(limiter))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "global_rate_limit_exceeded")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis: connection refused")}

	assert.Equal(t, http.StatusOK, serve(t, GlobalRateLimitMiddleware(limiter)).Code)
	assert.Equal(t, http.StatusOK, serve(t, ClientRateLimitMiddleware(limiter)).Code)
}
