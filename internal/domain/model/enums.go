package model

// CredentialStatus represents the lifecycle state of a stored credential.
type CredentialStatus string

const (
	CredentialStatusActive  CredentialStatus = "active"
	CredentialStatusExpired CredentialStatus = "expired"
	CredentialStatusInvalid CredentialStatus = "invalid"
	CredentialStatusRevoked CredentialStatus = "revoked"
)

// credentialTransitions lists the status changes any caller may make. Revoked
// has no outgoing edges. Returning to active is not listed: it only happens
// when the secret is rotated, see CanRotate.
var credentialTransitions = map[CredentialStatus][]CredentialStatus{
	CredentialStatusActive:  {CredentialStatusExpired, CredentialStatusInvalid, CredentialStatusRevoked},
	CredentialStatusExpired: {CredentialStatusInvalid, CredentialStatusRevoked},
	CredentialStatusInvalid: {CredentialStatusRevoked},
	CredentialStatusRevoked: {},
}

// Valid reports whether s is one of the known statuses.
func (s CredentialStatus) Valid() bool {
	_, ok := credentialTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Staying in the same status is allowed for any known status.
func (s CredentialStatus) CanTransitionTo(next CredentialStatus) bool {
	if s == next {
		return s.Valid()
	}
	for _, allowed := range credentialTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanRotate reports whether a new secret may replace the stored one, which
// moves the credential back to active.
func (s CredentialStatus) CanRotate() bool {
	return s.Valid() && !s.IsTerminal()
}

// IsTerminal reports whether no further transitions are possible.
func (s CredentialStatus) IsTerminal() bool {
	return s == CredentialStatusRevoked
}
