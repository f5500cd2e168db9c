package application_test

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
	"github.com/ericfisherdev/adbudget/internal/domain/port/driven"
)

// --- credential store ---

type storedCredential struct {
	cred   model.Credential
	sealed model.SealedSecret
}

type mockCredentialStore struct {
	mu      sync.Mutex
	rows    []*storedCredential
	nextID  int
	updates []driven.CredentialUpdate
}

func (m *mockCredentialStore) Insert(_ context.Context, cred model.Credential, sealed model.SealedSecret) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	cred.ID = fmt.Sprintf("cred-%d", m.nextID)
	cred.UpdatedAt = cred.CreatedAt
	m.rows = append(m.rows, &storedCredential{cred: cred, sealed: sealed})
	out := cred
	return &out, nil
}

func (m *mockCredentialStore) ListByOwner(_ context.Context, ownerID string) ([]model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Credential{}
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].cred.OwnerID == ownerID {
			out = append(out, m.rows[i].cred)
		}
	}
	return out, nil
}

func (m *mockCredentialStore) find(id, ownerID string) *storedCredential {
	for _, r := range m.rows {
		if r.cred.ID == id && r.cred.OwnerID == ownerID {
			return r
		}
	}
	return nil
}

func (m *mockCredentialStore) Get(_ context.Context, id, ownerID string) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(id, ownerID)
	if r == nil {
		return nil, fmt.Errorf("get credential %s: %w", id, model.ErrNotFound)
	}
	out := r.cred
	return &out, nil
}

func (m *mockCredentialStore) GetSealed(_ context.Context, id, ownerID string) (*model.Credential, model.SealedSecret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.find(id, ownerID)
	if r == nil {
		return nil, model.SealedSecret{}, fmt.Errorf("get credential %s: %w", id, model.ErrNotFound)
	}
	out := r.cred
	return &out, r.sealed, nil
}

func (m *mockCredentialStore) Update(_ context.Context, id, ownerID string, u driven.CredentialUpdate) (*model.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, u)

	r := m.find(id, ownerID)
	if r == nil {
		return nil, fmt.Errorf("update credential %s: %w", id, model.ErrNotFound)
	}
	if len(u.RequireStatusIn) > 0 && !slices.Contains(u.RequireStatusIn, r.cred.Status) {
		return nil, fmt.Errorf("update credential %s: %w", id, driven.ErrStatusConflict)
	}

	c := &r.cred
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Sealed != nil {
		r.sealed = *u.Sealed
	}
	if u.ExternalAccountIDs != nil {
		c.ExternalAccountIDs = *u.ExternalAccountIDs
	}
	if u.AccountEmail != nil {
		c.AccountEmail = *u.AccountEmail
	}
	if u.ClearTokenExpiresAt {
		c.TokenExpiresAt = nil
	} else if u.TokenExpiresAt != nil {
		c.TokenExpiresAt = u.TokenExpiresAt
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.LastErrorMessage != nil {
		c.LastErrorMessage = *u.LastErrorMessage
	}
	if u.LastValidatedAt != nil {
		c.LastValidatedAt = u.LastValidatedAt
	}
	if u.LastUsedAt != nil {
		c.LastUsedAt = u.LastUsedAt
	}
	if !u.UpdatedAt.IsZero() {
		c.UpdatedAt = u.UpdatedAt
	}

	out := *c
	return &out, nil
}

// row returns a copy of the stored record regardless of owner.
func (m *mockCredentialStore) row(id string) (model.Credential, model.SealedSecret) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.cred.ID == id {
			return r.cred, r.sealed
		}
	}
	return model.Credential{}, model.SealedSecret{}
}

// --- platform store ---

type mockPlatformStore struct {
	platforms []model.Platform
}

func newMockPlatformStore() *mockPlatformStore {
	return &mockPlatformStore{platforms: []model.Platform{
		{ID: model.PlatformNewsBreak, DisplayName: "NewsBreak", IsActive: true},
		{ID: "retired", DisplayName: "Retired", IsActive: false},
	}}
}

func (m *mockPlatformStore) ListActive(_ context.Context) ([]model.Platform, error) {
	out := []model.Platform{}
	for _, p := range m.platforms {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPlatformStore) Get(_ context.Context, id string) (*model.Platform, error) {
	for _, p := range m.platforms {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, fmt.Errorf("get platform %s: %w", id, model.ErrNotFound)
}

// --- cipher ---

// mockCipher prefixes the plaintext so tests can see what was sealed.
type mockCipher struct {
	openErr error
	seals   int
}

func (m *mockCipher) Seal(plaintext string) (model.SealedSecret, error) {
	m.seals++
	return model.SealedSecret{Payload: "sealed:" + plaintext, IV: fmt.Sprintf("iv-%d", m.seals)}, nil
}

func (m *mockCipher) Open(sealed model.SealedSecret) (string, error) {
	if m.openErr != nil {
		return "", m.openErr
	}
	const prefix = "sealed:"
	if len(sealed.Payload) < len(prefix) {
		return "", model.ErrMalformedStorage
	}
	return sealed.Payload[len(prefix):], nil
}

// --- budget client ---

type mockBudgetClient struct {
	fetch func(ctx context.Context, secret string, ids []string) ([]model.BudgetAccountInfo, error)
	apply func(ctx context.Context, secret string, updates []model.BudgetUpdate) ([]model.BudgetUpdateResult, error)

	fetchCalls [][]string
	applyCalls [][]model.BudgetUpdate
	secrets    []string
}

func (m *mockBudgetClient) FetchBudgetInfo(ctx context.Context, secret string, ids []string) ([]model.BudgetAccountInfo, error) {
	m.fetchCalls = append(m.fetchCalls, ids)
	m.secrets = append(m.secrets, secret)
	if m.fetch == nil {
		return []model.BudgetAccountInfo{}, nil
	}
	return m.fetch(ctx, secret, ids)
}

func (m *mockBudgetClient) ApplyBudgetUpdates(ctx context.Context, secret string, updates []model.BudgetUpdate) ([]model.BudgetUpdateResult, error) {
	m.applyCalls = append(m.applyCalls, updates)
	m.secrets = append(m.secrets, secret)
	if m.apply == nil {
		results := make([]model.BudgetUpdateResult, len(updates))
		for i, u := range updates {
			results[i] = model.BudgetUpdateResult{AccountID: u.AccountID, Message: "Budget updated successfully"}
		}
		return results, nil
	}
	return m.apply(ctx, secret, updates)
}

// --- resolver ---

type mockResolver struct {
	cred   *model.Credential
	secret string
	err    error
	refs   []model.CredentialRef
}

func (m *mockResolver) ResolveRef(_ context.Context, ref model.CredentialRef) (*model.Credential, string, error) {
	m.refs = append(m.refs, ref)
	if m.err != nil {
		return nil, "", m.err
	}
	out := *m.cred
	return &out, m.secret, nil
}

// --- pinger ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }
