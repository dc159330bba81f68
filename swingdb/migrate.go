// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package swingdb

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/swingcharts/swing/private/dbutil"
	"github.com/swingcharts/swing/private/migrate"
)

// VersionTable is the table that stores the version info in each db.
const VersionTable = "versions"

// MigrateToLatest migrates the database to the latest version.
func (db *DB) MigrateToLatest(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	return ErrDatabase.Wrap(db.Migration().Run(ctx, db.log.Named("migrate"), db.db, db.impl))
}

// CheckVersion confirms the database is at the latest version.
func (db *DB) CheckVersion(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	return ErrDatabase.Wrap(db.Migration().ValidateVersions(ctx, db.log, db.db, db.impl))
}

// Migration returns the steps needed for migrating the database.
func (db *DB) Migration() *migrate.Migration {
	return &migrate.Migration{
		Table: VersionTable,
		Steps: []*migrate.Step{
			{
				Description: "Initial setup",
				Version:     0,
				Action: schema(
					`CREATE TABLE users (
						id $SERIAL,
						email TEXT NOT NULL UNIQUE,
						password_hash TEXT NOT NULL,
						active BOOLEAN NOT NULL DEFAULT FALSE,
						created_at TIMESTAMP NOT NULL
					)`,
					`CREATE TABLE sessions (
						token TEXT NOT NULL PRIMARY KEY,
						user_id BIGINT NOT NULL REFERENCES users (id) ON DELETE CASCADE,
						expires_at TIMESTAMP NOT NULL
					)`,
					`CREATE TABLE packages (
						id $SERIAL,
						name TEXT NOT NULL UNIQUE,
						description TEXT NOT NULL DEFAULT '',
						owner_id BIGINT NOT NULL,
						created_at TIMESTAMP NOT NULL
					)`,
					`CREATE TABLE releases (
						id $SERIAL,
						package_id BIGINT NOT NULL REFERENCES packages (id),
						version TEXT NOT NULL,
						notes TEXT NOT NULL DEFAULT '',
						created_at TIMESTAMP NOT NULL,
						UNIQUE (package_id, version)
					)`,
				),
			},
			{
				Description: "Add index on session expiration",
				Version:     1,
				Action: migrate.SQL{
					`CREATE INDEX sessions_expires_at_index ON sessions (expires_at)`,
				},
			},
		},
	}
}

// schema returns statements where $SERIAL is replaced by the auto-incrementing
// primary key definition of the implementation. Identifiers are never reused,
// since a release identifier also names its archive.
func schema(statements ...string) migrate.Action {
	return migrate.Func(func(ctx context.Context, log *zap.Logger, impl dbutil.Implementation, tx *sql.Tx) error {
		serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
		if impl == dbutil.Postgres {
			serial = "BIGSERIAL PRIMARY KEY"
		}

		resolved := make(migrate.SQL, 0, len(statements))
		for _, statement := range statements {
			resolved = append(resolved, strings.ReplaceAll(statement, "$SERIAL", serial))
		}
		return resolved.Run(ctx, log, impl, tx)
	})
}
