// Package httphandler is the HTTP driving adapter serving the credential
// vault and budget reconciliation REST API.
package httphandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/adbudget/internal/application"
	"github.com/ericfisherdev/adbudget/internal/domain/model"
)

// CredentialManager is the credential use-case surface the handlers call.
type CredentialManager interface {
	ListPlatforms(ctx context.Context) ([]model.Platform, error)
	Create(ctx context.Context, in model.NewCredential) (*model.Credential, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Credential, error)
	Get(ctx context.Context, id, ownerID string) (*model.Credential, error)
	Update(ctx context.Context, id, ownerID string, patch model.CredentialPatch) (*model.Credential, error)
	Revoke(ctx context.Context, id, ownerID string) error
	RecordValidation(ctx context.Context, id, ownerID string, status model.CredentialStatus, errorMessage string) (*model.Credential, error)
}

// BudgetReconciler is the budget workflow surface the handlers call.
type BudgetReconciler interface {
	GetBudgetInfo(ctx context.Context, ref model.CredentialRef, accountIDs []string) (*model.BudgetInfoOutcome, error)
	SetBudget(ctx context.Context, ref model.CredentialRef, updates []model.BudgetUpdateRequest) (*model.ReconciliationOutcome, error)
	Recharge(ctx context.Context, ref model.CredentialRef, requests []model.RechargeRequest) (*model.ReconciliationOutcome, error)
}

// HealthChecker reports service health.
type HealthChecker interface {
	Check(ctx context.Context) application.HealthReport
}

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	credentials CredentialManager
	budgets     BudgetReconciler
	health      HealthChecker
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	credentials CredentialManager,
	budgets BudgetReconciler,
	health HealthChecker,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		credentials: credentials,
		budgets:     budgets,
		health:      health,
		logger:      logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware. Credential and budget routes require
// the owner header named by ownerHeader.
func NewServeMux(h *Handler, ownerHeader string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	owned := func(fn http.HandlerFunc) http.Handler {
		return ownerMiddleware(ownerHeader, fn)
	}

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/platforms", h.ListPlatforms)

	mux.Handle("GET /api/v1/credentials", owned(h.ListCredentials))
	mux.Handle("POST /api/v1/credentials", owned(h.CreateCredential))
	mux.Handle("GET /api/v1/credentials/{id}", owned(h.GetCredential))
	mux.Handle("PATCH /api/v1/credentials/{id}", owned(h.UpdateCredential))
	mux.Handle("DELETE /api/v1/credentials/{id}", owned(h.RevokeCredential))
	mux.Handle("POST /api/v1/credentials/{id}/validation", owned(h.RecordValidation))

	mux.Handle("POST /api/v1/budgets/info", owned(h.GetBudgetInfo))
	mux.Handle("POST /api/v1/budgets/set", owned(h.SetBudget))
	mux.Handle("POST /api/v1/budgets/recharge", owned(h.Recharge))

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health reports database reachability. A degraded service answers 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	report := h.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != application.HealthStatusOK {
		status = http.StatusServiceUnavailable
	}

	platforms := report.Platforms
	if platforms == nil {
		platforms = []string{}
	}

	writeJSON(w, status, HealthResponse{
		Status:    report.Status,
		Database:  report.Database,
		Platforms: platforms,
		Time:      report.CheckedAt.UTC().Format(time.RFC3339),
	})
}

// ListPlatforms returns the active platforms with their rendered descriptions.
func (h *Handler) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	platforms, err := h.credentials.ListPlatforms(r.Context())
	if err != nil {
		h.writeServiceError(w, "list platforms", err)
		return
	}

	resp := make([]PlatformResponse, 0, len(platforms))
	for _, p := range platforms {
		resp = append(resp, toPlatformResponse(p))
	}

	writeJSON(w, http.StatusOK, resp)
}
