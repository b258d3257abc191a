package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGetIP(t *testing.T) {
	tests := []struct {
		name      string
		forwarded string
		realIP    string
		remote    string
		want      string
	}{
		{"forwarded chain", "10.0.0.1, 192.168.1.1", "", "1.1.1.1:80", "10.0.0.1"},
		{"real ip", "", "10.0.0.2", "1.1.1.1:80", "10.0.0.2"},
		{"remote addr with port", "", "", "1.2.3.4:5678", "1.2.3.4"},
		{"remote addr without port", "", "", "1.2.3.4", "1.2.3.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, getIP(req))
		})
	}
}

func TestRateLimiterCountsRejections(t *testing.T) {
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_rate_limit_hits"}, []string{"ip"})
	rl := NewRateLimiter(1, 1).WithHitCounter(hits)
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "9.9.9.9:1000"
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(hits.WithLabelValues("9.9.9.9")))
}

func TestCleanupLimitersDropsIdleVisitors(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(10, 10)
	rl.now = func() time.Time { return now }

	rl.getLimiter("old")
	now = now.Add(time.Hour)
	rl.getLimiter("fresh")

	removed := rl.CleanupLimiters(30 * time.Minute)

	assert.Equal(t, 1, removed)
	_, hasOld := rl.visitors["old"]
	_, hasFresh := rl.visitors["fresh"]
	assert.False(t, hasOld)
	assert.True(t, hasFresh)
}
