package httphandler

import (
	"net/http"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
)

// ListCredentials returns the caller's credentials, newest first.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	creds, err := h.credentials.ListByOwner(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, "list credentials", err)
		return
	}

	resp := make([]CredentialResponse, 0, len(creds))
	for _, c := range creds {
		resp = append(resp, toCredentialResponse(c))
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateCredential stores a new credential for the caller.
func (h *Handler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	var req CreateCredentialRequest
	if !decodeBody(w, r, &req) {
		return
	}

	platformID := req.PlatformID
	if platformID == "" {
		platformID = model.PlatformNewsBreak
	}

	cred, err := h.credentials.Create(r.Context(), model.NewCredential{
		OwnerID:            ownerFromContext(r.Context()),
		PlatformID:         platformID,
		Name:               req.Name,
		Secret:             req.AccessToken,
		ExternalAccountIDs: req.ExternalAccountIDs,
		AccountEmail:       req.AccountEmail,
		TokenExpiresAt:     req.TokenExpiresAt,
	})
	if err != nil {
		h.writeServiceError(w, "create credential", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCredentialResponse(*cred))
}

// GetCredential returns one of the caller's credentials.
func (h *Handler) GetCredential(w http.ResponseWriter, r *http.Request) {
	cred, err := h.credentials.Get(r.Context(), r.PathValue("id"), ownerFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, "get credential", err)
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(*cred))
}

// UpdateCredential applies a partial edit. Sending access_token rotates the secret.
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	var req UpdateCredentialRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cred, err := h.credentials.Update(r.Context(), r.PathValue("id"), ownerFromContext(r.Context()), model.CredentialPatch{
		Name:                req.Name,
		Secret:              req.AccessToken,
		ExternalAccountIDs:  req.ExternalAccountIDs,
		AccountEmail:        req.AccountEmail,
		TokenExpiresAt:      req.TokenExpiresAt,
		ClearTokenExpiresAt: req.ClearTokenExpiresAt,
	})
	if err != nil {
		h.writeServiceError(w, "update credential", err)
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(*cred))
}

// RevokeCredential revokes a credential. Repeating the call is not an error.
func (h *Handler) RevokeCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.credentials.Revoke(r.Context(), r.PathValue("id"), ownerFromContext(r.Context())); err != nil {
		h.writeServiceError(w, "revoke credential", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecordValidation stores the result of an external token check.
func (h *Handler) RecordValidation(w http.ResponseWriter, r *http.Request) {
	var req RecordValidationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	cred, err := h.credentials.RecordValidation(r.Context(), r.PathValue("id"), ownerFromContext(r.Context()),
		model.CredentialStatus(req.Status), req.ErrorMessage)
	if err != nil {
		h.writeServiceError(w, "record validation", err)
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(*cred))
}
