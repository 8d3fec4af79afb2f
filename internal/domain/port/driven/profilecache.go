package driven

import (
	"context"

	"github.com/dorylabs/dorycli/internal/domain/model"
)

// ProfileCache defines the driven port for the locally cached user profile.
// The cache mirrors the server record so a session can be restored without
// a network call when the backend offers no validation endpoint.
type ProfileCache interface {
	// SaveProfile stores or replaces the cached profile.
	SaveProfile(ctx context.Context, user model.User) error

	// LoadProfile retrieves the cached profile, or (nil, nil) when none
	// is cached.
	LoadProfile(ctx context.Context) (*model.User, error)

	// DeleteProfile removes the cached profile. Deleting an absent
	// profile is a success.
	DeleteProfile(ctx context.Context) error
}
