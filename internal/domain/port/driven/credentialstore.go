// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
)

// ErrStatusConflict is returned by CredentialStore.Update when the row exists
// but its current status is not in CredentialUpdate.RequireStatusIn.
var ErrStatusConflict = errors.New("credential status conflict")

// CredentialUpdate is a single-row field set applied by CredentialStore.Update.
// Nil fields are left unchanged. Sealed replaces the payload and IV together.
type CredentialUpdate struct {
	Name               *string
	Sealed             *model.SealedSecret
	ExternalAccountIDs *[]string
	AccountEmail       *string
	TokenExpiresAt     *time.Time
	Status             *model.CredentialStatus
	LastErrorMessage   *string
	LastValidatedAt    *time.Time
	LastUsedAt         *time.Time
	// ClearTokenExpiresAt sets the expiry to NULL. It takes precedence over
	// TokenExpiresAt.
	ClearTokenExpiresAt bool
	// UpdatedAt is written when non-zero.
	UpdatedAt time.Time
	// RequireStatusIn makes the update conditional on the current status.
	// Empty means unconditional.
	RequireStatusIn []model.CredentialStatus
}

// CredentialStore defines the driven port for credential persistence.
// Every lookup and mutation is keyed by id and owner; a row owned by another
// principal behaves exactly like a missing row (model.ErrNotFound).
// The store never sees plaintext secrets.
type CredentialStore interface {
	// Insert persists a new credential and returns it with its generated id
	// and timestamps.
	Insert(ctx context.Context, cred model.Credential, sealed model.SealedSecret) (*model.Credential, error)

	// ListByOwner returns the owner's credentials, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]model.Credential, error)

	// Get returns a single credential without secret material.
	Get(ctx context.Context, id, ownerID string) (*model.Credential, error)

	// GetSealed returns a credential together with its sealed secret.
	GetSealed(ctx context.Context, id, ownerID string) (*model.Credential, model.SealedSecret, error)

	// Update applies u to the row and returns the updated credential.
	// Returns model.ErrNotFound when no row matches id+owner and
	// ErrStatusConflict when the RequireStatusIn guard rejects the row.
	Update(ctx context.Context, id, ownerID string, u CredentialUpdate) (*model.Credential, error)
}
