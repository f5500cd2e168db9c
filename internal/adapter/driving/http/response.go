package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeServiceError maps a service error onto a status code. Unclassified
// errors are logged and hidden behind a generic 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, action string, err error) {
	var upstream *model.UpstreamError

	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "credential not found")
	case errors.Is(err, model.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &upstream):
		h.logger.Warn(action+" failed upstream", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:    upstream.Error(),
			Upstream: toUpstreamResponse(upstream),
		})
	default:
		h.logger.Error(action+" failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error    string            `json:"error"`
	Upstream *UpstreamResponse `json:"upstream,omitempty"`
}

// UpstreamResponse describes a failed call to the remote platform.
type UpstreamResponse struct {
	StatusCode int    `json:"status_code,omitempty"`
	APICode    int    `json:"api_code,omitempty"`
	Message    string `json:"message,omitempty"`
	Details    string `json:"details,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status    string   `json:"status"`
	Database  string   `json:"database"`
	Platforms []string `json:"platforms"`
	Time      string   `json:"time"`
}

// PlatformResponse is the JSON representation of a platform.
type PlatformResponse struct {
	ID               string `json:"id"`
	DisplayName      string `json:"display_name"`
	Description      string `json:"description"`
	DescriptionHTML  string `json:"description_html"`
	LogoURL          string `json:"logo_url"`
	DocumentationURL string `json:"documentation_url"`
}

// CredentialResponse is the JSON representation of a credential. It never
// carries secret material.
type CredentialResponse struct {
	ID                 string   `json:"id"`
	PlatformID         string   `json:"platform_id"`
	Name               string   `json:"name"`
	ExternalAccountIDs []string `json:"external_account_ids"`
	AccountEmail       string   `json:"account_email"`
	Status             string   `json:"status"`
	TokenExpiresAt     *string  `json:"token_expires_at"`
	LastValidatedAt    *string  `json:"last_validated_at"`
	LastUsedAt         *string  `json:"last_used_at"`
	LastErrorMessage   string   `json:"last_error_message"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}

// CreateCredentialRequest is the JSON body for the create credential endpoint.
type CreateCredentialRequest struct {
	PlatformID         string     `json:"platform_id"`
	Name               string     `json:"name"`
	AccessToken        string     `json:"access_token"`
	ExternalAccountIDs []string   `json:"external_account_ids"`
	AccountEmail       string     `json:"account_email"`
	TokenExpiresAt     *time.Time `json:"token_expires_at"`
}

// UpdateCredentialRequest is the JSON body for the update credential endpoint.
// Omitted fields are left unchanged.
type UpdateCredentialRequest struct {
	Name               *string    `json:"name"`
	AccessToken        *string    `json:"access_token"`
	ExternalAccountIDs *[]string  `json:"external_account_ids"`
	AccountEmail       *string    `json:"account_email"`
	TokenExpiresAt     *time.Time `json:"token_expires_at"`
	// ClearTokenExpiresAt removes the stored expiry.
	ClearTokenExpiresAt bool `json:"clear_token_expires_at"`
}

// RecordValidationRequest is the JSON body for the validation endpoint.
type RecordValidationRequest struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// BudgetInfoRequest is the JSON body for the budget info endpoint.
type BudgetInfoRequest struct {
	CredentialID string   `json:"credential_id"`
	PlatformID   string   `json:"platform_id"`
	AccountIDs   []string `json:"account_ids"`
}

// BudgetAccountResponse is one account in a budget info response.
type BudgetAccountResponse struct {
	AccountID        string   `json:"account_id"`
	SpendingCapCents *int64   `json:"spending_cap_cents"`
	SpendingCap      *float64 `json:"spending_cap"`
	CanViewBudget    bool     `json:"can_view_budget"`
}

// BudgetInfoSummary aggregates a budget info response.
type BudgetInfoSummary struct {
	TotalAccounts      int `json:"total_accounts"`
	AccountsWithAccess int `json:"accounts_with_access"`
}

// BudgetInfoResponse is the JSON representation of a budget info query.
type BudgetInfoResponse struct {
	CredentialName string                  `json:"credential_name"`
	Accounts       []BudgetAccountResponse `json:"accounts"`
	Summary        BudgetInfoSummary       `json:"summary"`
}

// BudgetUpdateItem is one absolute budget in dollars.
type BudgetUpdateItem struct {
	AccountID string  `json:"account_id"`
	Budget    float64 `json:"budget"`
}

// SetBudgetRequest is the JSON body for the set budget endpoint.
type SetBudgetRequest struct {
	CredentialID string             `json:"credential_id"`
	PlatformID   string             `json:"platform_id"`
	Updates      []BudgetUpdateItem `json:"updates"`
}

// RechargeItem is one amount in dollars to add to an account's budget.
type RechargeItem struct {
	AccountID      string  `json:"account_id"`
	RechargeAmount float64 `json:"recharge_amount"`
}

// RechargeBudgetRequest is the JSON body for the recharge endpoint.
type RechargeBudgetRequest struct {
	CredentialID string         `json:"credential_id"`
	PlatformID   string         `json:"platform_id"`
	Recharges    []RechargeItem `json:"recharges"`
}

// AccountOutcomeResponse is one account in a reconciliation response.
// Budgets are reported in cents.
type AccountOutcomeResponse struct {
	AccountID       string  `json:"account_id"`
	RequestedAmount float64 `json:"requested_amount"`
	PreviousCents   *int64  `json:"previous_budget_cents,omitempty"`
	NewCents        *int64  `json:"new_budget_cents,omitempty"`
	UpdateMessage   string  `json:"update_message,omitempty"`
	Success         bool    `json:"success"`
	Error           string  `json:"error,omitempty"`
}

// OutcomeSummaryResponse aggregates per-account outcomes.
type OutcomeSummaryResponse struct {
	TotalAccounts int `json:"total_accounts"`
	Successful    int `json:"successful"`
	Failed        int `json:"failed"`
}

// ReconciliationResponse is the JSON representation of a set or recharge outcome.
type ReconciliationResponse struct {
	Success        bool                     `json:"success"`
	CredentialName string                   `json:"credential_name"`
	Accounts       []AccountOutcomeResponse `json:"accounts"`
	Summary        OutcomeSummaryResponse   `json:"summary"`
	Error          string                   `json:"error,omitempty"`
	Upstream       *UpstreamResponse        `json:"upstream,omitempty"`
}

func formatOptionalTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

// toPlatformResponse converts a domain Platform and renders its markdown description.
func toPlatformResponse(p model.Platform) PlatformResponse {
	return PlatformResponse{
		ID:               p.ID,
		DisplayName:      p.DisplayName,
		Description:      p.Description,
		DescriptionHTML:  renderMarkdown(p.Description),
		LogoURL:          p.LogoURL,
		DocumentationURL: p.DocumentationURL,
	}
}

// toCredentialResponse converts a domain Credential to its JSON representation.
func toCredentialResponse(c model.Credential) CredentialResponse {
	ids := c.ExternalAccountIDs
	if ids == nil {
		ids = []string{}
	}

	return CredentialResponse{
		ID:                 c.ID,
		PlatformID:         c.PlatformID,
		Name:               c.Name,
		ExternalAccountIDs: ids,
		AccountEmail:       c.AccountEmail,
		Status:             string(c.Status),
		TokenExpiresAt:     formatOptionalTime(c.TokenExpiresAt),
		LastValidatedAt:    formatOptionalTime(c.LastValidatedAt),
		LastUsedAt:         formatOptionalTime(c.LastUsedAt),
		LastErrorMessage:   c.LastErrorMessage,
		CreatedAt:          c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toBudgetInfoResponse(o *model.BudgetInfoOutcome) BudgetInfoResponse {
	accounts := make([]BudgetAccountResponse, 0, len(o.Accounts))
	for _, a := range o.Accounts {
		resp := BudgetAccountResponse{
			AccountID:        a.AccountID,
			SpendingCapCents: a.SpendingCapCents,
			CanViewBudget:    a.CanViewBudget,
		}
		if a.SpendingCapCents != nil {
			dollars := float64(*a.SpendingCapCents) / 100
			resp.SpendingCap = &dollars
		}
		accounts = append(accounts, resp)
	}

	return BudgetInfoResponse{
		CredentialName: o.CredentialName,
		Accounts:       accounts,
		Summary: BudgetInfoSummary{
			TotalAccounts:      o.TotalAccounts,
			AccountsWithAccess: o.AccountsWithAccess,
		},
	}
}

func toReconciliationResponse(o *model.ReconciliationOutcome) ReconciliationResponse {
	accounts := make([]AccountOutcomeResponse, 0, len(o.Accounts))
	for _, a := range o.Accounts {
		accounts = append(accounts, AccountOutcomeResponse{
			AccountID:       a.AccountID,
			RequestedAmount: a.RequestedAmount,
			PreviousCents:   a.PreviousCents,
			NewCents:        a.NewCents,
			UpdateMessage:   a.UpdateMessage,
			Success:         a.Success,
			Error:           a.ErrorMessage,
		})
	}

	return ReconciliationResponse{
		Success:        o.Success,
		CredentialName: o.CredentialName,
		Accounts:       accounts,
		Summary: OutcomeSummaryResponse{
			TotalAccounts: o.Summary.TotalAccounts,
			Successful:    o.Summary.SuccessCount,
			Failed:        o.Summary.FailureCount,
		},
		Error:    o.Error,
		Upstream: toUpstreamResponse(o.Upstream),
	}
}

func toUpstreamResponse(e *model.UpstreamError) *UpstreamResponse {
	if e == nil {
		return nil
	}
	return &UpstreamResponse{
		StatusCode: e.StatusCode,
		APICode:    e.APICode,
		Message:    e.Message,
		Details:    e.Body,
	}
}
