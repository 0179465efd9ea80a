package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no live session exists for an id.
var ErrNotFound = errors.New("session not found")

// SessionRecord stores one signed-in browser session.
type SessionRecord struct {
	ID           string         `json:"id"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	TokenExpiry  time.Time      `json:"token_expiry"`
	UserID       string         `json:"user_id"`
	Email        string         `json:"email"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	// ExpiresAt is when the record itself is dropped, independent of the
	// access token lifetime.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its storage lifetime.
func (r SessionRecord) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// SessionStore persists session records by id.
type SessionStore interface {
	Close() error
	// GetSession returns ErrNotFound for unknown or expired ids.
	GetSession(ctx context.Context, id string) (SessionRecord, error)
	PutSession(ctx context.Context, record SessionRecord) error
	DeleteSession(ctx context.Context, id string) error
}
