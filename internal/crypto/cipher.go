// Package crypto implements the token cipher used to store platform access
// tokens at rest: AES-256-GCM with a fresh random IV per call and a two-column
// storage encoding.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/ericfisherdev/adbudget/internal/domain/model"
	"github.com/ericfisherdev/adbudget/internal/domain/port/driven"
)

const (
	// KeyLength is the length of the encryption key in bytes (256 bits).
	KeyLength = 32
	// IVLength is the length of the GCM initialization vector in bytes.
	IVLength = 16
	// TagLength is the length of the GCM authentication tag in bytes.
	TagLength = 16

	// storageDelimiter separates ciphertext and tag in the stored payload.
	// It never occurs in hex output.
	storageDelimiter = ":"
)

// ErrInvalidKeyLength is returned when the key is not exactly KeyLength bytes.
var ErrInvalidKeyLength = errors.New("invalid key length: must be 32 bytes")

// Compile-time interface satisfaction check.
var _ driven.TokenCipher = (*Cipher)(nil)

// Sealed is the raw output of Encrypt.
type Sealed struct {
	CipherText []byte
	IV         []byte
	AuthTag    []byte
}

// Cipher encrypts and decrypts tokens with a single process-wide key.
// It is immutable after construction and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// New validates key and builds a Cipher. A bad key is reported here, before
// any encryption or decryption is attempted.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeyLength {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, IVLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{aead: gcm}, nil
}

// GenerateKey returns a random key of exactly KeyLength printable characters,
// suitable for ADBUDGET_TOKEN_ENCRYPTION_KEY.
func GenerateKey() (string, error) {
	raw := make([]byte, KeyLength*3/4)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Encrypt seals plaintext under a freshly generated IV.
func (c *Cipher) Encrypt(plaintext string) (Sealed, error) {
	iv := make([]byte, IVLength)
	if _, err := rand.Read(iv); err != nil {
		return Sealed{}, fmt.Errorf("failed to generate iv: %w", err)
	}

	// Seal returns ciphertext || tag.
	out := c.aead.Seal(nil, iv, []byte(plaintext), nil)
	split := len(out) - TagLength

	return Sealed{
		CipherText: out[:split],
		IV:         iv,
		AuthTag:    out[split:],
	}, nil
}

// Decrypt opens a sealed value. It wraps model.ErrIntegrity when the tag does
// not verify (tampering, corruption or a different key).
func (c *Cipher) Decrypt(s Sealed) (string, error) {
	if len(s.IV) != IVLength {
		return "", fmt.Errorf("%w: iv must be %d bytes, got %d", model.ErrMalformedStorage, IVLength, len(s.IV))
	}
	if len(s.AuthTag) != TagLength {
		return "", fmt.Errorf("%w: auth tag must be %d bytes, got %d", model.ErrMalformedStorage, TagLength, len(s.AuthTag))
	}

	data := make([]byte, 0, len(s.CipherText)+len(s.AuthTag))
	data = append(data, s.CipherText...)
	data = append(data, s.AuthTag...)

	plaintext, err := c.aead.Open(nil, s.IV, data, nil)
	if err != nil {
		return "", model.ErrIntegrity
	}
	return string(plaintext), nil
}

// Encode converts a Sealed value to its two-column storage form:
// Payload is "<ciphertext hex>:<tag hex>" and IV is hex.
func Encode(s Sealed) model.SealedSecret {
	return model.SealedSecret{
		Payload: hex.EncodeToString(s.CipherText) + storageDelimiter + hex.EncodeToString(s.AuthTag),
		IV:      hex.EncodeToString(s.IV),
	}
}

// Decode parses the storage form produced by Encode.
func Decode(stored model.SealedSecret) (Sealed, error) {
	cipherHex, tagHex, found := strings.Cut(stored.Payload, storageDelimiter)
	if !found {
		return Sealed{}, fmt.Errorf("%w: missing delimiter", model.ErrMalformedStorage)
	}
	if tagHex == "" {
		return Sealed{}, fmt.Errorf("%w: missing auth tag", model.ErrMalformedStorage)
	}

	cipherText, err := hex.DecodeString(cipherHex)
	if err != nil {
		return Sealed{}, fmt.Errorf("%w: ciphertext: %v", model.ErrMalformedStorage, err)
	}
	tag, err := hex.DecodeString(tagHex)
	if err != nil {
		return Sealed{}, fmt.Errorf("%w: auth tag: %v", model.ErrMalformedStorage, err)
	}
	iv, err := hex.DecodeString(stored.IV)
	if err != nil {
		return Sealed{}, fmt.Errorf("%w: iv: %v", model.ErrMalformedStorage, err)
	}

	return Sealed{CipherText: cipherText, IV: iv, AuthTag: tag}, nil
}

// Seal encrypts plaintext and returns its storage form.
func (c *Cipher) Seal(plaintext string) (model.SealedSecret, error) {
	s, err := c.Encrypt(plaintext)
	if err != nil {
		return model.SealedSecret{}, err
	}
	return Encode(s), nil
}

// Open decodes and decrypts a stored secret.
func (c *Cipher) Open(stored model.SealedSecret) (string, error) {
	s, err := Decode(stored)
	if err != nil {
		return "", err
	}
	return c.Decrypt(s)
}
