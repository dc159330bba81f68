// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package swingdb implements the server databases on top of sqlite3 or postgres.
package swingdb

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"           // used indirectly.
	_ "github.com/mattn/go-sqlite3" // used indirectly.
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/swingcharts/swing/accounts"
	"github.com/swingcharts/swing/catalog"
	"github.com/swingcharts/swing/private/dbutil"
	"github.com/swingcharts/swing/private/dbutil/sqliteutil"
	"github.com/swingcharts/swing/private/dbutil/txutil"
	"github.com/swingcharts/swing/server"
)

var (
	mon = monkit.Package()

	// ErrDatabase represents errors from the databases.
	ErrDatabase = errs.Class("database")

	_ server.DB = (*DB)(nil)
)

// DB contains access to the server tables.
type DB struct {
	log  *zap.Logger
	db   *sql.DB
	impl dbutil.Implementation
	url  string
}

// Open opens the database at databaseURL.
//
// Supported urls are `postgres://...` and `sqlite3://<path>`.
func Open(ctx context.Context, log *zap.Logger, databaseURL string) (*DB, error) {
	driver, source, impl, err := dbutil.SplitConnStr(databaseURL)
	if err != nil {
		return nil, ErrDatabase.Wrap(err)
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, ErrDatabase.Wrap(err)
	}

	if impl == dbutil.SQLite3 {
		// sqlite allows a single writer, serialize all access through one connection.
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxIdleConns(10)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, ErrDatabase.Wrap(errs.Combine(err, db.Close()))
	}

	log.Debug("connected", zap.Stringer("implementation", impl))

	return &DB{
		log:  log,
		db:   db,
		impl: impl,
		url:  databaseURL,
	}, nil
}

// Implementation returns the database implementation in use.
func (db *DB) Implementation() dbutil.Implementation { return db.impl }

// Close closes the underlying database.
func (db *DB) Close() error {
	return ErrDatabase.Wrap(db.db.Close())
}

// Catalog returns the catalog tables.
func (db *DB) Catalog() catalog.DB { return &catalogDB{db: db} }

// Accounts returns the account tables.
func (db *DB) Accounts() accounts.DB { return &accountsDB{db: db} }

func (db *DB) rebind(query string) string { return dbutil.Rebind(db.impl, query) }

// lower returns the expression folding column to lower case the way strings.ToLower does.
func (db *DB) lower(column string) string {
	if db.impl == dbutil.SQLite3 {
		return sqliteutil.LowerFunc + "(" + column + ")"
	}
	return "LOWER(" + column + ")"
}

// byName returns the ordering by package name in byte order on every implementation.
func (db *DB) byName() string {
	if db.impl == dbutil.Postgres {
		return `name COLLATE "C" ASC`
	}
	return "name ASC"
}

func (db *DB) withTx(ctx context.Context, fn func(context.Context, *sql.Tx) error) error {
	return txutil.WithTx(ctx, db.db, nil, fn)
}

type catalogDB struct{ db *DB }

func (c *catalogDB) Packages() catalog.Packages { return &packagesDB{db: c.db} }
func (c *catalogDB) Releases() catalog.Releases { return &releasesDB{db: c.db} }

type accountsDB struct{ db *DB }

func (a *accountsDB) Users() accounts.Users       { return &usersDB{db: a.db} }
func (a *accountsDB) Sessions() accounts.Sessions { return &sessionsDB{db: a.db} }

// wrapConstraint translates a uniqueness violation into class.
func wrapConstraint(err error, class *errs.Class, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if dbutil.IsConstraintError(err) {
		return class.New(format, args...)
	}
	return ErrDatabase.Wrap(err)
}
