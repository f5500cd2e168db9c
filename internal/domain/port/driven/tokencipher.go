package driven

import "github.com/ericfisherdev/adbudget/internal/domain/model"

// TokenCipher seals and opens secret strings for storage.
// Open returns an error wrapping model.ErrIntegrity when authentication fails
// and model.ErrMalformedStorage when the stored form cannot be decoded.
type TokenCipher interface {
	Seal(plaintext string) (model.SealedSecret, error)
	Open(sealed model.SealedSecret) (string, error)
}
