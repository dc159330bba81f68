// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package accounts implements user accounts and login sessions.
package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var mon = monkit.Package()

// Config configures accounts and sessions.
type Config struct {
	SessionDuration time.Duration `help:"lifetime of a login session" default:"168h"`
	PasswordCost    int           `help:"bcrypt cost of password hashes" default:"10"`
	Limiter         LimiterConfig
}

// Service implements logging users in and resolving sessions to users.
//
// architecture: Service
type Service struct {
	log     *zap.Logger
	db      DB
	limiter *Limiter
	config  Config

	nowFn func() time.Time
}

// NewService returns a new accounts service.
func NewService(log *zap.Logger, db DB, limiter *Limiter, config Config) *Service {
	if config.SessionDuration <= 0 {
		config.SessionDuration = 7 * 24 * time.Hour
	}
	if config.PasswordCost < bcrypt.MinCost {
		config.PasswordCost = bcrypt.DefaultCost
	}
	return &Service{
		log:     log,
		db:      db,
		limiter: limiter,
		config:  config,
		nowFn:   time.Now,
	}
}

// TestSetNow replaces the clock used for sessions.
func (service *Service) TestSetNow(now func() time.Time) { service.nowFn = now }

// CreateUser creates an active user with the given credentials.
func (service *Service) CreateUser(ctx context.Context, email, password string) (_ User, err error) {
	defer mon.Task()(&ctx)(&err)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return User{}, Error.New("email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), service.config.PasswordCost)
	if err != nil {
		return User{}, Error.Wrap(err)
	}

	user, err := service.db.Users().Insert(ctx, User{
		Email:        email,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    service.nowFn().UTC(),
	})
	if err != nil {
		return User{}, err
	}

	service.log.Info("user created", zap.Int64("id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// EnsureInitialUser creates the user when no account with the email exists.
func (service *Service) EnsureInitialUser(ctx context.Context, email, password string) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = service.db.Users().GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil
	case !ErrUserNotFound.Has(err):
		return err
	}

	_, err = service.CreateUser(ctx, email, password)
	if ErrEmailTaken.Has(err) {
		return nil
	}
	return err
}

// Login checks the credentials and starts a new session.
//
// remoteKey identifies the client for throttling.
func (service *Service) Login(ctx context.Context, remoteKey, email, password string) (_ Session, _ User, err error) {
	defer mon.Task()(&ctx)(&err)

	if service.limiter != nil && !service.limiter.Allow(remoteKey) {
		mon.Event("login_rate_limited")
		return Session{}, User{}, ErrRateLimited.New("try again later")
	}

	user, err := service.db.Users().GetByEmail(ctx, email)
	if err != nil {
		return Session{}, User{}, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		mon.Event("login_failed")
		return Session{}, User{}, ErrUnauthorized.New("provided credentials do not match any account")
	}

	if !user.Active {
		return Session{}, User{}, ErrInactive.New("the account %s is not activated", user.Email)
	}

	token, err := uuid.NewRandom()
	if err != nil {
		return Session{}, User{}, Error.Wrap(err)
	}

	session := Session{
		Token:     token.String(),
		UserID:    user.ID,
		ExpiresAt: service.nowFn().UTC().Add(service.config.SessionDuration),
	}
	if err := service.db.Sessions().Insert(ctx, session); err != nil {
		return Session{}, User{}, err
	}

	if err := service.DeleteExpiredSessions(ctx); err != nil {
		service.log.Warn("failed to remove expired sessions", zap.Error(err))
	}

	service.log.Debug("user logged in", zap.Int64("id", user.ID))
	return session, user, nil
}

// Authenticate returns the user of the session token.
func (service *Service) Authenticate(ctx context.Context, token string) (_ User, err error) {
	defer mon.Task()(&ctx)(&err)

	if _, err := uuid.Parse(token); err != nil {
		return User{}, ErrUnauthorized.New("malformed session token")
	}

	session, err := service.db.Sessions().Get(ctx, token)
	if err != nil {
		if ErrSessionNotFound.Has(err) {
			return User{}, ErrUnauthorized.New("session does not exist")
		}
		return User{}, err
	}

	if session.Expired(service.nowFn()) {
		return User{}, ErrUnauthorized.New("session expired")
	}

	user, err := service.db.Users().Get(ctx, session.UserID)
	if err != nil {
		if ErrUserNotFound.Has(err) {
			return User{}, ErrUnauthorized.New("session user does not exist")
		}
		return User{}, err
	}
	if !user.Active {
		return User{}, ErrInactive.New("the account %s is not activated", user.Email)
	}
	return user, nil
}

// Logout ends the session.
func (service *Service) Logout(ctx context.Context, token string) (err error) {
	defer mon.Task()(&ctx)(&err)

	return service.db.Sessions().Delete(ctx, token)
}

// DeleteExpiredSessions removes sessions that are no longer valid.
func (service *Service) DeleteExpiredSessions(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	deleted, err := service.db.Sessions().DeleteExpired(ctx, service.nowFn().UTC())
	if err != nil {
		return err
	}
	if deleted > 0 {
		service.log.Debug("expired sessions removed", zap.Int64("count", deleted))
	}
	return nil
}
