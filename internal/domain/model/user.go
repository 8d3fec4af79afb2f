// Package model contains the domain types mirrored from the dory backend.
package model

import (
	"strings"
	"time"
)

// User mirrors the backend's user record. It has no identity of its own;
// the server copy is authoritative.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	ProfilePhoto string    `json:"profilePhoto,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DisplayName returns the explicit name when set, otherwise the local part
// of the email address, otherwise a generic fallback.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if local, _, _ := strings.Cut(u.Email, "@"); local != "" {
		return local
	}
	return "User"
}
