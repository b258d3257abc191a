package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/clientledger/internal/adapter/http/dto"
	"github.com/iho/clientledger/internal/usecase"
)

type stubReconciler struct {
	reportFn  func(ctx context.Context) (*usecase.ReconciliationReport, error)
	accountFn func(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
	rebuildFn func(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
}

func (s *stubReconciler) GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return s.reportFn(ctx)
}

func (s *stubReconciler) ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
	return s.accountFn(ctx, accountID)
}

func (s *stubReconciler) RebuildProjection(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
	return s.rebuildFn(ctx, accountID)
}

func withAccountParam(req *http.Request, accountID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("accountID", accountID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestReconciliationHandlerReport(t *testing.T) {
	svc := &stubReconciler{
		reportFn: func(ctx context.Context) (*usecase.ReconciliationReport, error) {
			return &usecase.ReconciliationReport{CheckedAt: time.Now(), TotalAccounts: 3, ReconciledAccounts: 3}, nil
		},
	}
	h := NewReconciliationHandler(svc)

	rr := httptest.NewRecorder()
	h.Report(rr, httptest.NewRequest(http.MethodGet, "/api/v1/reconciliation", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp dto.ReconciliationReportResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Consistent)
	assert.Equal(t, 3, resp.TotalAccounts)
}

func TestReconciliationHandlerAccount(t *testing.T) {
	svc := &stubReconciler{
		accountFn: func(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
			return &usecase.ReconciliationResult{
				AccountID:         accountID,
				ProjectedBalance:  decimal.NewFromInt(10),
				CalculatedBalance: decimal.NewFromInt(15),
				Difference:        decimal.NewFromInt(-5),
			}, nil
		},
	}
	h := NewReconciliationHandler(svc)

	rr := httptest.NewRecorder()
	h.Account(rr, withAccountParam(httptest.NewRequest(http.MethodGet, "/api/v1/reconciliation/c1", nil), "c1"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp dto.ReconciliationResultResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "c1", resp.AccountID)
	assert.Equal(t, "-5", resp.Difference)
	assert.False(t, resp.IsReconciled)
}

func TestReconciliationHandlerRebuild(t *testing.T) {
	var rebuilt string
	svc := &stubReconciler{
		rebuildFn: func(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
			rebuilt = accountID
			return &usecase.ReconciliationResult{AccountID: accountID, IsReconciled: true}, nil
		},
	}
	h := NewReconciliationHandler(svc)

	rr := httptest.NewRecorder()
	h.Rebuild(rr, withAccountParam(httptest.NewRequest(http.MethodPost, "/api/v1/reconciliation/c9/rebuild", nil), "c9"))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "c9", rebuilt)

	rr = httptest.NewRecorder()
	h.Rebuild(rr, withAccountParam(httptest.NewRequest(http.MethodPost, "/api/v1/reconciliation/x/rebuild", nil), "bad id!"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
