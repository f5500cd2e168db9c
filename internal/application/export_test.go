package application

import "time"

// SetClock replaces the service clock in tests.
func (s *CredentialService) SetClock(now func() time.Time) {
	s.now = now
}
