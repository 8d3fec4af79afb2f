// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dorylabs/dorycli/internal/domain/model"
	"github.com/dorylabs/dorycli/internal/domain/port/driven"
)

// SessionManager owns sign-in, sign-out, and session restoration. Session
// transitions are serialized through its entry points, so the credential
// store sees at most one writer.
type SessionManager struct {
	gateway  driven.Gateway
	creds    driven.CredentialStore
	profiles driven.ProfileCache
	validate bool
	logger   *slog.Logger
}

// NewSessionManager creates a SessionManager. validateSessions selects the
// backend contract: true validates restored sessions against /api/auth/me
// and fails closed; false trusts the locally cached profile (for backends
// without a validation endpoint).
func NewSessionManager(
	gateway driven.Gateway,
	creds driven.CredentialStore,
	profiles driven.ProfileCache,
	validateSessions bool,
	logger *slog.Logger,
) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		gateway:  gateway,
		creds:    creds,
		profiles: profiles,
		validate: validateSessions,
		logger:   logger,
	}
}

// SignIn exchanges an externally obtained identity token for a backend
// session and persists it. On any failure the stored credential is left
// untouched.
func (s *SessionManager) SignIn(ctx context.Context, idToken string) (model.User, error) {
	token, user, err := s.gateway.Login(ctx, idToken)
	if err != nil {
		return model.User{}, err
	}

	if err := s.creds.SaveToken(ctx, token); err != nil {
		return model.User{}, fmt.Errorf("save token: %w", err)
	}
	if err := s.profiles.SaveProfile(ctx, user); err != nil {
		s.logger.Warn("profile cache write failed", "error", err)
	}

	s.logger.Info("signed in", "user", user.Email)
	return user, nil
}

// RestoreSession resumes a previously stored session. With no stored token
// it returns (nil, nil) without a network call. A stored token the server
// rejects clears the local session and returns (nil, nil); an unverifiable
// session is treated as logged out. Errors other than rejection propagate
// untouched and leave the credential in place.
func (s *SessionManager) RestoreSession(ctx context.Context) (*model.User, error) {
	token, err := s.creds.LoadToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	if token == "" {
		return nil, nil
	}

	if !s.validate {
		user, err := s.profiles.LoadProfile(ctx)
		if err != nil {
			return nil, fmt.Errorf("load cached profile: %w", err)
		}
		if user == nil {
			// A token without a usable profile cannot be resumed.
			s.clear(ctx)
			return nil, nil
		}
		return user, nil
	}

	user, err := s.gateway.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, driven.ErrUnauthorized) {
			s.logger.Info("stored session rejected, clearing credentials")
			s.clear(ctx)
			return nil, nil
		}
		return nil, err
	}

	if err := s.profiles.SaveProfile(ctx, user); err != nil {
		s.logger.Warn("profile cache write failed", "error", err)
	}
	return &user, nil
}

// SignOut clears the stored session. Idempotent; storage failures are
// logged, never surfaced.
func (s *SessionManager) SignOut(ctx context.Context) {
	s.clear(ctx)
	s.logger.Info("signed out")
}

func (s *SessionManager) clear(ctx context.Context) {
	if err := s.creds.DeleteToken(ctx); err != nil {
		s.logger.Warn("token delete failed", "error", err)
	}
	if err := s.profiles.DeleteProfile(ctx); err != nil {
		s.logger.Warn("profile delete failed", "error", err)
	}
}
