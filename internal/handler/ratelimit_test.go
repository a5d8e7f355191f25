package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/recipebook/internal/config"
)

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2, ClientTTL: time.Minute}, zerolog.Nop())
	t.Cleanup(rl.Close)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	hit := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/recipes", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusNoContent, hit("10.0.0.1:1000"))
	require.Equal(t, http.StatusNoContent, hit("10.0.0.1:1001"))
	require.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1:1002"), "burst spent, port ignored")
	require.Equal(t, http.StatusNoContent, hit("10.0.0.2:1000"), "clients are independent")

	now = now.Add(time.Second)
	require.Equal(t, http.StatusNoContent, hit("10.0.0.1:1003"), "refilled")

	now = now.Add(2 * time.Minute)
	rl.cleanup()
	rl.mu.Lock()
	require.Empty(t, rl.clients)
	rl.mu.Unlock()
}
