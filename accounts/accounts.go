// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package accounts

import (
	"context"
	"time"

	"github.com/zeebo/errs"
)

var (
	// Error is the default accounts error class.
	Error = errs.Class("accounts")

	// ErrUnauthorized is returned when credentials or a session token are not valid.
	ErrUnauthorized = errs.Class("unauthorized")
	// ErrInactive is returned when an account is not activated.
	ErrInactive = errs.Class("account inactive")
	// ErrUserNotFound is returned when no account has the requested email.
	ErrUserNotFound = errs.Class("user not found")
	// ErrRateLimited is returned when there were too many login attempts.
	ErrRateLimited = errs.Class("too many login attempts")
	// ErrSessionNotFound is returned by DB implementations for unknown session tokens.
	ErrSessionNotFound = errs.Class("session not found")
	// ErrEmailTaken is returned when an account with the email already exists.
	ErrEmailTaken = errs.Class("email already in use")
)

// User is an account that can publish charts.
type User struct {
	ID           int64
	Email        string
	PasswordHash []byte
	Active       bool
	CreatedAt    time.Time
}

// Session is a logged-in session of a user.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// Expired returns whether the session is no longer valid at now.
func (session *Session) Expired(now time.Time) bool {
	return !now.Before(session.ExpiresAt)
}

// DB contains access to the account tables.
//
// architecture: Database
type DB interface {
	// Users returns the users table.
	Users() Users
	// Sessions returns the sessions table.
	Sessions() Sessions
}

// Users exposes methods to manage the users table.
type Users interface {
	// Insert creates a user. ErrEmailTaken is returned when the email is in use.
	Insert(ctx context.Context, user User) (User, error)
	// Get returns the user with the given id or ErrUserNotFound.
	Get(ctx context.Context, id int64) (User, error)
	// GetByEmail returns the user with the given email or ErrUserNotFound.
	GetByEmail(ctx context.Context, email string) (User, error)
	// SetActive activates or deactivates the user.
	SetActive(ctx context.Context, id int64, active bool) error
}

// Sessions exposes methods to manage the sessions table.
type Sessions interface {
	// Insert stores a new session.
	Insert(ctx context.Context, session Session) error
	// Get returns the session with the given token or ErrSessionNotFound.
	Get(ctx context.Context, token string) (Session, error)
	// Delete removes the session with the given token.
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes sessions that expired at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
