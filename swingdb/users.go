// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package swingdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/swingcharts/swing/accounts"
)

// ensures that usersDB implements accounts.Users interface.
var _ accounts.Users = (*usersDB)(nil)

// usersDB works with the users table.
type usersDB struct {
	db *DB
}

// Insert creates a user.
func (users *usersDB) Insert(ctx context.Context, user accounts.User) (_ accounts.User, err error) {
	defer mon.Task()(&ctx)(&err)

	err = users.db.db.QueryRowContext(ctx, users.db.rebind(`
		INSERT INTO users (email, password_hash, active, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		user.Email, string(user.PasswordHash), user.Active, user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		return accounts.User{}, wrapConstraint(err, &accounts.ErrEmailTaken, "%s", user.Email)
	}
	return user, nil
}

// Get returns the user with the given id.
func (users *usersDB) Get(ctx context.Context, id int64) (_ accounts.User, err error) {
	defer mon.Task()(&ctx)(&err)

	row := users.db.db.QueryRowContext(ctx, users.db.rebind(`
		SELECT id, email, password_hash, active, created_at
		FROM users WHERE id = ?`), id)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return accounts.User{}, accounts.ErrUserNotFound.New("no user with id %d was found", id)
	}
	return user, ErrDatabase.Wrap(err)
}

// GetByEmail returns the user with the given email.
func (users *usersDB) GetByEmail(ctx context.Context, email string) (_ accounts.User, err error) {
	defer mon.Task()(&ctx)(&err)

	row := users.db.db.QueryRowContext(ctx, users.db.rebind(`
		SELECT id, email, password_hash, active, created_at
		FROM users WHERE email = ?`), email)

	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return accounts.User{}, accounts.ErrUserNotFound.New("no user with email %q was found", email)
	}
	return user, ErrDatabase.Wrap(err)
}

// SetActive activates or deactivates the user.
func (users *usersDB) SetActive(ctx context.Context, id int64, active bool) (err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := users.db.db.ExecContext(ctx, users.db.rebind(`UPDATE users SET active = ? WHERE id = ?`), active, id)
	if err != nil {
		return ErrDatabase.Wrap(err)
	}
	updated, err := result.RowsAffected()
	if err != nil {
		return ErrDatabase.Wrap(err)
	}
	if updated == 0 {
		return accounts.ErrUserNotFound.New("no user with id %d was found", id)
	}
	return nil
}

func scanUser(row scanner) (user accounts.User, err error) {
	var hash string
	err = row.Scan(&user.ID, &user.Email, &hash, &user.Active, &user.CreatedAt)
	user.PasswordHash = []byte(hash)
	return user, err
}

// ensures that sessionsDB implements accounts.Sessions interface.
var _ accounts.Sessions = (*sessionsDB)(nil)

// sessionsDB works with the sessions table.
type sessionsDB struct {
	db *DB
}

// Insert stores a new session.
func (sessions *sessionsDB) Insert(ctx context.Context, session accounts.Session) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = sessions.db.db.ExecContext(ctx, sessions.db.rebind(`
		INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`),
		session.Token, session.UserID, session.ExpiresAt)
	return ErrDatabase.Wrap(err)
}

// Get returns the session with the given token.
func (sessions *sessionsDB) Get(ctx context.Context, token string) (_ accounts.Session, err error) {
	defer mon.Task()(&ctx)(&err)

	var session accounts.Session
	err = sessions.db.db.QueryRowContext(ctx, sessions.db.rebind(`
		SELECT token, user_id, expires_at FROM sessions WHERE token = ?`), token,
	).Scan(&session.Token, &session.UserID, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return accounts.Session{}, accounts.ErrSessionNotFound.New("")
	}
	return session, ErrDatabase.Wrap(err)
}

// Delete removes the session with the given token.
func (sessions *sessionsDB) Delete(ctx context.Context, token string) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = sessions.db.db.ExecContext(ctx, sessions.db.rebind(`DELETE FROM sessions WHERE token = ?`), token)
	return ErrDatabase.Wrap(err)
}

// DeleteExpired removes sessions that expired at or before now.
func (sessions *sessionsDB) DeleteExpired(ctx context.Context, now time.Time) (_ int64, err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := sessions.db.db.ExecContext(ctx, sessions.db.rebind(`DELETE FROM sessions WHERE expires_at <= ?`), now)
	if err != nil {
		return 0, ErrDatabase.Wrap(err)
	}
	deleted, err := result.RowsAffected()
	return deleted, ErrDatabase.Wrap(err)
}
