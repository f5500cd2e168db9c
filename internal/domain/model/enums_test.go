package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from CredentialStatus
		to   CredentialStatus
		want bool
	}{
		{CredentialStatusActive, CredentialStatusExpired, true},
		{CredentialStatusActive, CredentialStatusRevoked, true},
		{CredentialStatusActive, CredentialStatusInvalid, true},
		{CredentialStatusExpired, CredentialStatusRevoked, true},
		{CredentialStatusInvalid, CredentialStatusRevoked, true},
		{CredentialStatusExpired, CredentialStatusInvalid, true},
		{CredentialStatusExpired, CredentialStatusActive, false},
		{CredentialStatusInvalid, CredentialStatusActive, false},
		{CredentialStatusInvalid, CredentialStatusExpired, false},
		{CredentialStatusRevoked, CredentialStatusActive, false},
		{CredentialStatusRevoked, CredentialStatusExpired, false},
		{CredentialStatusRevoked, CredentialStatusInvalid, false},
		{CredentialStatusActive, CredentialStatusActive, true},
		{CredentialStatus("bogus"), CredentialStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestCredentialStatus_IsTerminal(t *testing.T) {
	assert.True(t, CredentialStatusRevoked.IsTerminal())
	assert.False(t, CredentialStatusExpired.IsTerminal())
	assert.False(t, CredentialStatusActive.IsTerminal())
}

func TestCredentialStatus_CanRotate(t *testing.T) {
	assert.True(t, CredentialStatusActive.CanRotate())
	assert.True(t, CredentialStatusExpired.CanRotate())
	assert.True(t, CredentialStatusInvalid.CanRotate())
	assert.False(t, CredentialStatusRevoked.CanRotate())
	assert.False(t, CredentialStatus("bogus").CanRotate())
}
