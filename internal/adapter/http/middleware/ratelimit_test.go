package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/iho/gofinance/internal/infrastructure/metrics"
)

func TestRateLimiter_PerOwner(t *testing.T) {
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())
	rl := NewRateLimiter(0.0001, 2, m)
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	serve := func(owner string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req = req.WithContext(WithOwnerID(req.Context(), owner))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, serve("user-1"))
	assert.Equal(t, http.StatusOK, serve("user-1"))
	assert.Equal(t, http.StatusTooManyRequests, serve("user-1"))
	assert.Equal(t, http.StatusOK, serve("user-2"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimitHits.WithLabelValues("user-1")))
}

func TestRateLimiter_CleanupDropsIdleLimiters(t *testing.T) {
	rl := NewRateLimiter(10, 10, nil)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("old")
	now = now.Add(time.Hour)
	rl.getLimiter("fresh")

	rl.Cleanup(30 * time.Minute)
	assert.Equal(t, 1, rl.size())
}
