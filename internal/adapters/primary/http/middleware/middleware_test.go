package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prajwalc1/employee-timeline/internal/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestJWTMiddlewareAndRequireRole(t *testing.T) {
	tm := auth.NewTokenManager("middleware-secret", time.Hour)
	handler := JWTMiddleware(tm)(RequireRole(auth.RoleAdmin)(okHandler()))

	adminToken, err := tm.GenerateToken(uuid.New(), auth.RoleAdmin)
	require.NoError(t, err)
	employeeToken, err := tm.GenerateToken(uuid.New(), auth.RoleEmployee)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + adminToken, http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
		{"employee forbidden", "Bearer " + employeeToken, http.StatusForbidden},
		{"admin allowed", "Bearer " + adminToken, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequestID_PropagatesHeader(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestKeyedLimiter_ByCaller(t *testing.T) {
	tm := auth.NewTokenManager("middleware-secret", time.Hour)
	rl := NewKeyedLimiter(LimiterConfig{RequestsPerSecond: 0.0001, Burst: 1})
	handler := JWTMiddleware(tm)(rl.ByCaller(okHandler()))

	first, err := tm.GenerateToken(uuid.New(), auth.RoleService)
	require.NoError(t, err)
	second, err := tm.GenerateToken(uuid.New(), auth.RoleService)
	require.NoError(t, err)

	send := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send(first).Code)

	limited := send(first)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests. Please try again later.","code":"RATE_LIMITED"}`, limited.Body.String())

	assert.Equal(t, http.StatusNoContent, send(second).Code)
}

func TestKeyedLimiter_ByClientIP(t *testing.T) {
	rl := NewKeyedLimiter(LimiterConfig{RequestsPerSecond: 0.0001, Burst: 1})
	handler := rl.ByClientIP(okHandler())

	send := func(remote, forwarded string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("10.0.0.1:5000", ""))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:6000", ""))

	// Same first hop behind the proxy shares a bucket.
	assert.Equal(t, http.StatusNoContent, send("10.0.0.9:1", "203.0.113.7, 10.0.0.9"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.9:2", "203.0.113.7"))
}

func TestKeyedLimiter_SweepsIdleKeys(t *testing.T) {
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	rl := NewKeyedLimiter(LimiterConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 2, rl.Tracked())

	now = now.Add(30 * time.Second)
	assert.True(t, rl.Allow("b"))

	now = now.Add(40 * time.Second)
	assert.True(t, rl.Allow("c"))
	assert.Equal(t, 2, rl.Tracked(), "a idle past the TTL is dropped, b and c remain")
}
