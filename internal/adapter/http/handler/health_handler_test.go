package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandlerLiveness(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthHandler().Liveness(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHealthHandlerReadiness(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	rr := httptest.NewRecorder()
	NewHealthHandler().WithCheck("postgres", ok).WithCheck("redis", ok).
		Readiness(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"postgres":"ok"`)

	rr = httptest.NewRecorder()
	NewHealthHandler().WithCheck("postgres", ok).WithCheck("redis", down).
		Readiness(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "redis unhealthy")
}
