package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every ADBUDGET_ env var that Load() reads.
var allConfigKeys = []string{
	"ADBUDGET_TOKEN_ENCRYPTION_KEY",
	"ADBUDGET_LISTEN_ADDR",
	"ADBUDGET_DB_PATH",
	"ADBUDGET_NEWSBREAK_BASE_URL",
	"ADBUDGET_HTTP_TIMEOUT",
	"ADBUDGET_OWNER_HEADER",
}

const testKey = "0123456789abcdef0123456789abcdef"

// isolateConfigEnv saves and unsets all ADBUDGET_ env vars so tests don't
// inherit values from the host environment (e.g. a running dev server).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("ADBUDGET_TOKEN_ENCRYPTION_KEY", testKey)
	t.Setenv("ADBUDGET_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("ADBUDGET_DB_PATH", "/tmp/test.db")
	t.Setenv("ADBUDGET_NEWSBREAK_BASE_URL", "http://localhost:4010/v1/")
	t.Setenv("ADBUDGET_HTTP_TIMEOUT", "5s")
	t.Setenv("ADBUDGET_OWNER_HEADER", "X-Forwarded-User")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []byte(testKey), cfg.TokenEncryptionKey)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "http://localhost:4010/v1", cfg.NewsBreakBaseURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "X-Forwarded-User", cfg.OwnerHeader)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("ADBUDGET_TOKEN_ENCRYPTION_KEY", testKey)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "adbudget.db", cfg.DBPath)
	assert.Equal(t, "https://business.newsbreak.com/business-api/v1", cfg.NewsBreakBaseURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "X-Owner-ID", cfg.OwnerHeader)
}

func TestLoad_MissingKey(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrMissingTokenKey)
}

func TestLoad_WrongKeyLength(t *testing.T) {
	for _, key := range []string{"short", testKey + "x", strings.Repeat("k", 31)} {
		isolateConfigEnv(t)
		t.Setenv("ADBUDGET_TOKEN_ENCRYPTION_KEY", key)

		cfg, err := Load()

		assert.Nil(t, cfg)
		assert.ErrorIs(t, err, ErrTokenKeyLength)
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	for _, v := range []string{"soon", "0s", "-1m"} {
		isolateConfigEnv(t)
		t.Setenv("ADBUDGET_TOKEN_ENCRYPTION_KEY", testKey)
		t.Setenv("ADBUDGET_HTTP_TIMEOUT", v)

		_, err := Load()
		assert.Error(t, err, v)
		assert.Contains(t, err.Error(), "ADBUDGET_HTTP_TIMEOUT")
	}
}

func TestLoad_InvalidBaseURL(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("ADBUDGET_TOKEN_ENCRYPTION_KEY", testKey)
	t.Setenv("ADBUDGET_NEWSBREAK_BASE_URL", "not a url")

	_, err := Load()
	assert.Error(t, err)
}
