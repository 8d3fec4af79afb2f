package driven

import (
	"context"
	"errors"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// DORY_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set DORY_SECRET_KEY")

// CredentialStore defines the driven port for bearer-token persistence.
// At most one token is stored at a time. The adapter layer handles
// encryption at rest; this interface operates on the plaintext token.
type CredentialStore interface {
	// SaveToken stores or replaces the bearer token. Returns
	// ErrEncryptionKeyNotSet if the adapter has no encryption key.
	SaveToken(ctx context.Context, token string) error

	// LoadToken retrieves the stored token. Returns ("", nil) when no
	// token is stored. Returns ErrEncryptionKeyNotSet if the adapter has
	// no encryption key.
	LoadToken(ctx context.Context) (string, error)

	// DeleteToken removes the stored token. Deleting a token that does
	// not exist is a success.
	DeleteToken(ctx context.Context) error
}
