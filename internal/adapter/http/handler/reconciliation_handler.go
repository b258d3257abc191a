package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/clientledger/internal/adapter/http/dto"
	"github.com/iho/clientledger/internal/domain"
	"github.com/iho/clientledger/internal/usecase"
)

// Reconciler compares projections with the event log and repairs them.
type Reconciler interface {
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
	ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
	RebuildProjection(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
}

// ReconciliationHandler exposes operator reconciliation endpoints.
type ReconciliationHandler struct {
	reconciler Reconciler
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciler Reconciler) *ReconciliationHandler {
	return &ReconciliationHandler{reconciler: reconciler}
}

// Report handles GET /reconciliation.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciler.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromUseCase(report))
}

// Account handles GET /reconciliation/{accountID}.
func (h *ReconciliationHandler) Account(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	if err := domain.ValidateAccountID(accountID); err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.reconciler.ReconcileAccount(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationResultFromUseCase(result))
}

// Rebuild handles POST /reconciliation/{accountID}/rebuild.
func (h *ReconciliationHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountID")
	if err := domain.ValidateAccountID(accountID); err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.reconciler.RebuildProjection(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationResultFromUseCase(result))
}
