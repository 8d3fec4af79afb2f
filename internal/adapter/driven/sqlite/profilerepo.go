package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dorylabs/dorycli/internal/domain/model"
	"github.com/dorylabs/dorycli/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProfileCache = (*ProfileRepo)(nil)

// ProfileRepo is the SQLite implementation of the ProfileCache port. The
// profile is stored as a single JSON payload; it mirrors the server record
// and is not sensitive, so it is kept in the clear.
type ProfileRepo struct {
	db *DB
}

// NewProfileRepo creates a ProfileRepo.
func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// SaveProfile stores or replaces the cached profile.
func (r *ProfileRepo) SaveProfile(ctx context.Context, user model.User) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	const query = `INSERT OR REPLACE INTO profile_cache (id, payload, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)`
	if _, err := r.db.Writer.ExecContext(ctx, query, string(payload)); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// LoadProfile retrieves the cached profile, or (nil, nil) when none is cached.
func (r *ProfileRepo) LoadProfile(ctx context.Context) (*model.User, error) {
	const query = `SELECT payload FROM profile_cache WHERE id = 1`
	var payload string
	err := r.db.Reader.QueryRowContext(ctx, query).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var user model.User
	if err := json.Unmarshal([]byte(payload), &user); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &user, nil
}

// DeleteProfile removes the cached profile. Deleting an absent profile succeeds.
func (r *ProfileRepo) DeleteProfile(ctx context.Context) error {
	const query = `DELETE FROM profile_cache WHERE id = 1`
	if _, err := r.db.Writer.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
