// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	BaseURL          string
	DBPath           string
	SecretKey        []byte // 32-byte AES key, nil when unset.
	PollInterval     time.Duration
	PollBudget       uint64
	ValidateSessions bool
}

// Load reads configuration from environment variables and returns a
// validated Config. DORY_SECRET_KEY is optional; without it the binary
// starts but credential storage is disabled. Optional variables with
// defaults: DORY_BASE_URL (the hosted backend), DORY_DB_PATH (dory.db),
// DORY_POLL_INTERVAL (4s), DORY_POLL_BUDGET (150 attempts),
// DORY_VALIDATE_SESSIONS (true).
func Load() (*Config, error) {
	baseURL := "https://dorry-backend.onrender.com"
	if v, ok := os.LookupEnv("DORY_BASE_URL"); ok && v != "" {
		baseURL = v
	}

	dbPath := "dory.db"
	if v, ok := os.LookupEnv("DORY_DB_PATH"); ok && v != "" {
		dbPath = v
	}

	var secretKey []byte
	if v := os.Getenv("DORY_SECRET_KEY"); v != "" {
		key, err := hex.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("DORY_SECRET_KEY is not valid hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("DORY_SECRET_KEY must decode to 32 bytes, got %d", len(key))
		}
		secretKey = key
	}

	pollInterval := 4 * time.Second
	if v, ok := os.LookupEnv("DORY_POLL_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DORY_POLL_INTERVAL has invalid duration %q: %w", v, err)
		}
		pollInterval = parsed
	}

	pollBudget := uint64(150)
	if v, ok := os.LookupEnv("DORY_POLL_BUDGET"); ok {
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil || parsed == 0 {
			return nil, fmt.Errorf("DORY_POLL_BUDGET must be a positive integer, got %q", v)
		}
		pollBudget = parsed
	}

	validateSessions := true
	if v, ok := os.LookupEnv("DORY_VALIDATE_SESSIONS"); ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("DORY_VALIDATE_SESSIONS has invalid boolean %q: %w", v, err)
		}
		validateSessions = parsed
	}

	return &Config{
		BaseURL:          baseURL,
		DBPath:           dbPath,
		SecretKey:        secretKey,
		PollInterval:     pollInterval,
		PollBudget:       pollBudget,
		ValidateSessions: validateSessions,
	}, nil
}
