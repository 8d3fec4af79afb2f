package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every DORY_ env var that Load() reads.
var allConfigKeys = []string{
	"DORY_BASE_URL",
	"DORY_DB_PATH",
	"DORY_SECRET_KEY",
	"DORY_POLL_INTERVAL",
	"DORY_POLL_BUDGET",
	"DORY_VALIDATE_SESSIONS",
}

// isolateConfigEnv saves and unsets all DORY_ env vars so tests don't
// inherit values from the host environment. t.Cleanup restores originals.
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

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://dorry-backend.onrender.com", cfg.BaseURL)
	assert.Equal(t, "dory.db", cfg.DBPath)
	assert.Nil(t, cfg.SecretKey)
	assert.Equal(t, 4*time.Second, cfg.PollInterval)
	assert.Equal(t, uint64(150), cfg.PollBudget)
	assert.True(t, cfg.ValidateSessions)
}

func TestLoad_Overrides(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DORY_BASE_URL", "http://localhost:8080")
	t.Setenv("DORY_DB_PATH", "/tmp/test.db")
	t.Setenv("DORY_SECRET_KEY", strings.Repeat("ab", 32))
	t.Setenv("DORY_POLL_INTERVAL", "250ms")
	t.Setenv("DORY_POLL_BUDGET", "10")
	t.Setenv("DORY_VALIDATE_SESSIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Len(t, cfg.SecretKey, 32)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, uint64(10), cfg.PollBudget)
	assert.False(t, cfg.ValidateSessions)
}

func TestLoad_InvalidSecretKeyHex(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DORY_SECRET_KEY", "not-hex!")

	_, err := Load()
	assert.ErrorContains(t, err, "DORY_SECRET_KEY")
}

func TestLoad_SecretKeyWrongLength(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DORY_SECRET_KEY", "abcd")

	_, err := Load()
	assert.ErrorContains(t, err, "32 bytes")
}

func TestLoad_InvalidPollInterval(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DORY_POLL_INTERVAL", "every-so-often")

	_, err := Load()
	assert.ErrorContains(t, err, "DORY_POLL_INTERVAL")
}

func TestLoad_InvalidPollBudget(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DORY_POLL_BUDGET", "0")

	_, err := Load()
	assert.ErrorContains(t, err, "DORY_POLL_BUDGET")
}

func TestLoad_InvalidValidateSessions(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("DORY_VALIDATE_SESSIONS", "maybe")

	_, err := Load()
	assert.ErrorContains(t, err, "DORY_VALIDATE_SESSIONS")
}
