package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
)

// GetBudgetInfo returns the current spending caps of the requested accounts.
func (h *Handler) GetBudgetInfo(w http.ResponseWriter, r *http.Request) {
	var req BudgetInfoRequest
	if !decodeBody(w, r, &req) {
		return
	}

	outcome, err := h.budgets.GetBudgetInfo(r.Context(), credentialRef(r, req.CredentialID, req.PlatformID), req.AccountIDs)
	if err != nil {
		h.writeServiceError(w, "get budget info", err)
		return
	}

	writeJSON(w, http.StatusOK, toBudgetInfoResponse(outcome))
}

// SetBudget sets absolute spending caps. Per-account failures are reported in
// the body with a 200 status; only rejected input and unusable credentials
// produce an error status.
func (h *Handler) SetBudget(w http.ResponseWriter, r *http.Request) {
	var req SetBudgetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	updates := make([]model.BudgetUpdateRequest, 0, len(req.Updates))
	for _, u := range req.Updates {
		updates = append(updates, model.BudgetUpdateRequest{AccountID: u.AccountID, AmountDollars: u.Budget})
	}

	outcome, err := h.budgets.SetBudget(r.Context(), credentialRef(r, req.CredentialID, req.PlatformID), updates)
	if err != nil {
		h.writeServiceError(w, "set budget", err)
		return
	}

	writeJSON(w, http.StatusOK, toReconciliationResponse(outcome))
}

// Recharge adds amounts to current spending caps.
func (h *Handler) Recharge(w http.ResponseWriter, r *http.Request) {
	var req RechargeBudgetRequest
	if !decodeBody(w, r, &req) {
		return
	}

	requests := make([]model.RechargeRequest, 0, len(req.Recharges))
	for _, rc := range req.Recharges {
		requests = append(requests, model.RechargeRequest{AccountID: rc.AccountID, AmountDollars: rc.RechargeAmount})
	}

	outcome, err := h.budgets.Recharge(r.Context(), credentialRef(r, req.CredentialID, req.PlatformID), requests)
	if err != nil {
		h.writeServiceError(w, "recharge budget", err)
		return
	}

	writeJSON(w, http.StatusOK, toReconciliationResponse(outcome))
}

func credentialRef(r *http.Request, credentialID, platformID string) model.CredentialRef {
	return model.CredentialRef{
		OwnerID:      ownerFromContext(r.Context()),
		CredentialID: credentialID,
		PlatformID:   platformID,
	}
}
