// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
	"github.com/ericfisherdev/adbudget/internal/domain/port/driven"
)

// nonRevoked lists every status from which the owner may still change a record.
var nonRevoked = []model.CredentialStatus{
	model.CredentialStatusActive,
	model.CredentialStatusExpired,
	model.CredentialStatusInvalid,
}

// CredentialService owns the credential lifecycle. It is the only component
// that seals or opens secrets, and every status change goes through the
// transition table on model.CredentialStatus.
type CredentialService struct {
	store     driven.CredentialStore
	platforms driven.PlatformStore
	cipher    driven.TokenCipher
	logger    *slog.Logger
	now       func() time.Time
}

// NewCredentialService creates a new CredentialService with the required dependencies.
func NewCredentialService(
	store driven.CredentialStore,
	platforms driven.PlatformStore,
	cipher driven.TokenCipher,
	logger *slog.Logger,
) *CredentialService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialService{
		store:     store,
		platforms: platforms,
		cipher:    cipher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListPlatforms returns the platforms a credential can be created for.
func (s *CredentialService) ListPlatforms(ctx context.Context) ([]model.Platform, error) {
	return s.platforms.ListActive(ctx)
}

// Create validates in, seals the secret and stores an active credential.
func (s *CredentialService) Create(ctx context.Context, in model.NewCredential) (*model.Credential, error) {
	if in.OwnerID == "" {
		return nil, model.Validationf("owner is required")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.Validationf("name is required")
	}
	if in.Secret == "" {
		return nil, model.Validationf("access token is required")
	}

	accountIDs, err := normalizeAccountIDs(in.ExternalAccountIDs)
	if err != nil {
		return nil, err
	}
	if len(accountIDs) == 0 {
		return nil, model.Validationf("at least one external account id is required")
	}

	email, err := normalizeEmail(in.AccountEmail)
	if err != nil {
		return nil, err
	}

	if err := s.requireActivePlatform(ctx, in.PlatformID); err != nil {
		return nil, err
	}

	sealed, err := s.cipher.Seal(in.Secret)
	if err != nil {
		return nil, fmt.Errorf("seal access token: %w", err)
	}

	cred, err := s.store.Insert(ctx, model.Credential{
		OwnerID:            in.OwnerID,
		PlatformID:         in.PlatformID,
		Name:               name,
		ExternalAccountIDs: accountIDs,
		AccountEmail:       email,
		Status:             model.CredentialStatusActive,
		TokenExpiresAt:     in.TokenExpiresAt,
		CreatedAt:          s.now(),
	}, sealed)
	if err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}

	s.logger.Info("credential created",
		"credential_id", cred.ID,
		"owner_id", cred.OwnerID,
		"platform_id", cred.PlatformID,
	)

	return cred, nil
}

// ListByOwner returns the owner's credentials newest first. It never changes
// status, even for records whose token has passed its expiry.
func (s *CredentialService) ListByOwner(ctx context.Context, ownerID string) ([]model.Credential, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Get returns one credential. A record owned by someone else is ErrNotFound.
func (s *CredentialService) Get(ctx context.Context, id, ownerID string) (*model.Credential, error) {
	return s.store.Get(ctx, id, ownerID)
}

// Update applies patch. Supplying a new secret re-seals it and returns the
// record to active; a revoked record cannot be rotated.
func (s *CredentialService) Update(ctx context.Context, id, ownerID string, patch model.CredentialPatch) (*model.Credential, error) {
	if patch.ClearTokenExpiresAt && patch.TokenExpiresAt != nil {
		return nil, model.Validationf("token expiry cannot be set and cleared at once")
	}

	u := driven.CredentialUpdate{
		TokenExpiresAt:      patch.TokenExpiresAt,
		ClearTokenExpiresAt: patch.ClearTokenExpiresAt,
		UpdatedAt:           s.now(),
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, model.Validationf("name must not be empty")
		}
		u.Name = &name
	}

	if patch.ExternalAccountIDs != nil {
		ids, err := normalizeAccountIDs(*patch.ExternalAccountIDs)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, model.Validationf("at least one external account id is required")
		}
		u.ExternalAccountIDs = &ids
	}

	if patch.AccountEmail != nil {
		email, err := normalizeEmail(*patch.AccountEmail)
		if err != nil {
			return nil, err
		}
		u.AccountEmail = &email
	}

	if patch.Secret != nil {
		if *patch.Secret == "" {
			return nil, model.Validationf("access token must not be empty")
		}

		current, err := s.store.Get(ctx, id, ownerID)
		if err != nil {
			return nil, err
		}
		if !current.Status.CanRotate() {
			return nil, model.Forbiddenf("credential is %s", current.Status)
		}

		sealed, err := s.cipher.Seal(*patch.Secret)
		if err != nil {
			return nil, fmt.Errorf("seal access token: %w", err)
		}

		active := model.CredentialStatusActive
		cleared := ""
		u.Sealed = &sealed
		u.Status = &active
		u.LastErrorMessage = &cleared
		u.RequireStatusIn = nonRevoked
	}

	cred, err := s.store.Update(ctx, id, ownerID, u)
	if errors.Is(err, driven.ErrStatusConflict) {
		return nil, model.Forbiddenf("credential is %s", model.CredentialStatusRevoked)
	}
	if err != nil {
		return nil, err
	}

	if patch.Secret != nil {
		s.logger.Info("credential secret rotated", "credential_id", id, "owner_id", ownerID)
	}

	return cred, nil
}

// Revoke marks the credential revoked. Revoking a revoked record succeeds.
func (s *CredentialService) Revoke(ctx context.Context, id, ownerID string) error {
	current, err := s.store.Get(ctx, id, ownerID)
	if err != nil {
		return err
	}
	if current.Status == model.CredentialStatusRevoked {
		return nil
	}

	revoked := model.CredentialStatusRevoked
	_, err = s.store.Update(ctx, id, ownerID, driven.CredentialUpdate{
		Status:          &revoked,
		UpdatedAt:       s.now(),
		RequireStatusIn: nonRevoked,
	})
	if err != nil && !errors.Is(err, driven.ErrStatusConflict) {
		return err
	}

	s.logger.Info("credential revoked", "credential_id", id, "owner_id", ownerID)
	return nil
}

// RecordValidation stores the result of an external token check. It is the
// only way a credential becomes invalid. A check can confirm an active
// credential but never reactivate one; that takes a secret rotation.
func (s *CredentialService) RecordValidation(ctx context.Context, id, ownerID string, status model.CredentialStatus, errorMessage string) (*model.Credential, error) {
	if !status.Valid() || status == model.CredentialStatusRevoked {
		return nil, model.Validationf("validation status must be active, expired or invalid, got %q", status)
	}

	current, err := s.store.Get(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, model.Forbiddenf("credential is %s and cannot become %s", current.Status, status)
	}

	now := s.now()
	u := driven.CredentialUpdate{
		Status:           &status,
		LastErrorMessage: &errorMessage,
		LastValidatedAt:  &now,
		UpdatedAt:        now,
		RequireStatusIn:  []model.CredentialStatus{current.Status},
	}

	cred, err := s.store.Update(ctx, id, ownerID, u)
	if errors.Is(err, driven.ErrStatusConflict) {
		return nil, model.Forbiddenf("credential status changed concurrently")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("credential validation recorded",
		"credential_id", id,
		"owner_id", ownerID,
		"status", string(status),
	)

	return cred, nil
}

// ResolveUsableSecret returns the decrypted token of an active, unexpired
// credential. It is the only method that exposes plaintext.
func (s *CredentialService) ResolveUsableSecret(ctx context.Context, id, ownerID string) (string, error) {
	_, secret, err := s.resolve(ctx, id, ownerID)
	return secret, err
}

// ResolveRef picks the credential named by ref, or the owner's newest active
// credential of ref.PlatformID when no id is given, and opens its secret.
func (s *CredentialService) ResolveRef(ctx context.Context, ref model.CredentialRef) (*model.Credential, string, error) {
	platformID := ref.PlatformID
	if platformID == "" {
		platformID = model.PlatformNewsBreak
	}

	id := ref.CredentialID
	if id == "" {
		creds, err := s.store.ListByOwner(ctx, ref.OwnerID)
		if err != nil {
			return nil, "", err
		}
		for _, c := range creds {
			if c.PlatformID == platformID && c.Status == model.CredentialStatusActive {
				id = c.ID
				break
			}
		}
		if id == "" {
			return nil, "", model.Forbiddenf("no active %s credential", platformID)
		}
	}

	if ref.CredentialID != "" && ref.PlatformID != "" {
		cred, err := s.store.Get(ctx, id, ref.OwnerID)
		if err != nil {
			return nil, "", err
		}
		if cred.PlatformID != ref.PlatformID {
			return nil, "", model.Validationf("credential %s belongs to platform %s", cred.ID, cred.PlatformID)
		}
	}

	return s.resolve(ctx, id, ref.OwnerID)
}

func (s *CredentialService) resolve(ctx context.Context, id, ownerID string) (*model.Credential, string, error) {
	cred, sealed, err := s.store.GetSealed(ctx, id, ownerID)
	if err != nil {
		return nil, "", err
	}

	if cred.Status != model.CredentialStatusActive {
		return nil, "", model.Forbiddenf("credential is %s", cred.Status)
	}

	now := s.now()
	if cred.IsExpiredAt(now) {
		expired := model.CredentialStatusExpired
		_, err := s.store.Update(ctx, id, ownerID, driven.CredentialUpdate{
			Status:          &expired,
			UpdatedAt:       now,
			RequireStatusIn: []model.CredentialStatus{model.CredentialStatusActive},
		})
		if err != nil && !errors.Is(err, driven.ErrStatusConflict) {
			return nil, "", fmt.Errorf("mark credential %s expired: %w", id, err)
		}
		s.logger.Info("credential expired on use", "credential_id", id, "owner_id", ownerID)
		return nil, "", model.Forbiddenf("credential is %s", model.CredentialStatusExpired)
	}

	secret, err := s.cipher.Open(sealed)
	if err != nil {
		s.logger.Error("stored credential cannot be decrypted", "credential_id", id, "error", err)
		return nil, "", fmt.Errorf("%w: decrypt credential %s: %w", model.ErrInternal, id, err)
	}

	if _, err := s.store.Update(ctx, id, ownerID, driven.CredentialUpdate{LastUsedAt: &now}); err != nil {
		return nil, "", fmt.Errorf("touch credential %s: %w", id, err)
	}
	cred.LastUsedAt = &now

	return cred, secret, nil
}

func (s *CredentialService) requireActivePlatform(ctx context.Context, platformID string) error {
	if platformID == "" {
		return model.Validationf("platform is required")
	}

	platform, err := s.platforms.Get(ctx, platformID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Validationf("unknown platform %q", platformID)
	}
	if err != nil {
		return err
	}
	if !platform.IsActive {
		return model.Validationf("platform %q is not active", platformID)
	}
	return nil
}

func normalizeAccountIDs(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, model.Validationf("external account ids must not be empty")
		}
		out = append(out, id)
	}
	return out, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return "", model.Validationf("invalid account email %q", email)
	}
	return addr.Address, nil
}
