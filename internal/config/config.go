// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// tokenKeyLength is the required length of ADBUDGET_TOKEN_ENCRYPTION_KEY in bytes.
const tokenKeyLength = 32

// Errors returned by Load for the token encryption key. The process must not
// start without a usable key.
var (
	ErrMissingTokenKey = errors.New("ADBUDGET_TOKEN_ENCRYPTION_KEY is not set")
	ErrTokenKeyLength  = fmt.Errorf("ADBUDGET_TOKEN_ENCRYPTION_KEY must be exactly %d bytes", tokenKeyLength)
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	TokenEncryptionKey []byte
	ListenAddr         string
	DBPath             string
	NewsBreakBaseURL   string
	HTTPTimeout        time.Duration
	OwnerHeader        string
}

// Load reads configuration from environment variables and returns a validated Config.
// ADBUDGET_TOKEN_ENCRYPTION_KEY is required and must be exactly 32 bytes.
// Optional variables with defaults: ADBUDGET_LISTEN_ADDR (127.0.0.1:8080),
// ADBUDGET_DB_PATH (adbudget.db), ADBUDGET_NEWSBREAK_BASE_URL (production API),
// ADBUDGET_HTTP_TIMEOUT (30s), ADBUDGET_OWNER_HEADER (X-Owner-ID).
func Load() (*Config, error) {
	key, ok := os.LookupEnv("ADBUDGET_TOKEN_ENCRYPTION_KEY")
	if !ok || key == "" {
		return nil, ErrMissingTokenKey
	}
	if len(key) != tokenKeyLength {
		return nil, fmt.Errorf("%w, got %d", ErrTokenKeyLength, len(key))
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("ADBUDGET_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "adbudget.db"
	if v, ok := os.LookupEnv("ADBUDGET_DB_PATH"); ok {
		dbPath = v
	}

	baseURL := "https://business.newsbreak.com/business-api/v1"
	if v, ok := os.LookupEnv("ADBUDGET_NEWSBREAK_BASE_URL"); ok && v != "" {
		u, err := url.Parse(v)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("ADBUDGET_NEWSBREAK_BASE_URL has invalid URL %q", v)
		}
		baseURL = strings.TrimRight(v, "/")
	}

	timeout := 30 * time.Second
	if v, ok := os.LookupEnv("ADBUDGET_HTTP_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ADBUDGET_HTTP_TIMEOUT has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("ADBUDGET_HTTP_TIMEOUT must be positive, got %s", parsed)
		}
		timeout = parsed
	}

	ownerHeader := "X-Owner-ID"
	if v, ok := os.LookupEnv("ADBUDGET_OWNER_HEADER"); ok && strings.TrimSpace(v) != "" {
		ownerHeader = strings.TrimSpace(v)
	}

	return &Config{
		TokenEncryptionKey: []byte(key),
		ListenAddr:         listenAddr,
		DBPath:             dbPath,
		NewsBreakBaseURL:   baseURL,
		HTTPTimeout:        timeout,
		OwnerHeader:        ownerHeader,
	}, nil
}
