package model

import "time"

// Credential is a stored third-party access credential without its secret
// material. OwnerID scopes every lookup; PlatformID names the external
// platform ("newsbreak") the token authenticates against.
type Credential struct {
	ID                 string
	OwnerID            string
	PlatformID         string
	Name               string
	ExternalAccountIDs []string
	AccountEmail       string
	Status             CredentialStatus
	TokenExpiresAt     *time.Time
	LastValidatedAt    *time.Time
	LastUsedAt         *time.Time
	LastErrorMessage   string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsExpiredAt reports whether the token carries an expiry that lies before now.
func (c *Credential) IsExpiredAt(now time.Time) bool {
	return c.TokenExpiresAt != nil && c.TokenExpiresAt.Before(now)
}

// SealedSecret is the storage form of an encrypted token: the ciphertext and
// authentication tag joined into Payload, and the IV kept separately.
// Both fields are replaced together or not at all.
type SealedSecret struct {
	Payload string
	IV      string
}

// NewCredential carries the fields required to create a credential.
type NewCredential struct {
	OwnerID            string
	PlatformID         string
	Name               string
	Secret             string
	ExternalAccountIDs []string
	AccountEmail       string
	TokenExpiresAt     *time.Time
}

// CredentialPatch describes an owner-initiated edit. Nil fields are left
// unchanged. A non-nil Secret rotates the token and resets the status to active.
// ClearTokenExpiresAt removes a stored expiry and cannot be combined with
// TokenExpiresAt.
type CredentialPatch struct {
	Name                *string
	Secret              *string
	ExternalAccountIDs  *[]string
	AccountEmail        *string
	TokenExpiresAt      *time.Time
	ClearTokenExpiresAt bool
}

// CredentialRef selects the credential a budget workflow runs with. When
// CredentialID is empty the newest active credential of PlatformID is used.
type CredentialRef struct {
	OwnerID      string
	CredentialID string
	PlatformID   string
}
