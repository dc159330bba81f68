// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package swingdbtest runs tests against every supported database.
package swingdbtest

// This package should be referenced only in test files!

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"

	"github.com/zeebo/errs"
	"go.uber.org/zap/zaptest"

	"github.com/swingcharts/swing/private/dbutil/pgutil/pgtest"
	"github.com/swingcharts/swing/private/testcontext"
	"github.com/swingcharts/swing/swingdb"
)

// Database describes a test database.
type Database struct {
	Name    string
	URL     string
	Message string
}

// Databases returns default databases.
func Databases() []Database {
	return []Database{
		{Name: "Sqlite", URL: "sqlite3://file:{name}?mode=memory&cache=shared"},
		{Name: "Postgres", URL: *pgtest.ConnStr, Message: "Postgres flag missing, example: -postgres-test-db=" + pgtest.DefaultConnStr + " or use SWING_POSTGRES_TEST environment variable."},
	}
}

// Run method will iterate over all supported databases. Will establish
// connection and will create tables for each DB.
func Run(t *testing.T, test func(ctx *testcontext.Context, t *testing.T, db *swingdb.DB)) {
	for _, dbInfo := range Databases() {
		dbInfo := dbInfo
		t.Run(dbInfo.Name, func(t *testing.T) {
			if dbInfo.URL == "" {
				t.Skip(dbInfo.Message)
			}

			ctx := testcontext.New(t)
			defer ctx.Cleanup()

			db, cleanup, err := openUnique(ctx, t, dbInfo.URL)
			if err != nil {
				t.Fatal(err)
			}
			defer ctx.Check(cleanup)

			if err := db.MigrateToLatest(ctx); err != nil {
				t.Fatal(err)
			}

			test(ctx, t, db)
		})
	}
}

// openUnique opens a database that is not shared with any other test.
func openUnique(ctx context.Context, t *testing.T, databaseURL string) (_ *swingdb.DB, cleanup func() error, err error) {
	name := uniqueName(t.Name())
	log := zaptest.NewLogger(t)

	if strings.HasPrefix(databaseURL, "sqlite3://") {
		db, err := swingdb.Open(ctx, log, strings.ReplaceAll(databaseURL, "{name}", name))
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}

	admin, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, nil, errs.Wrap(err)
	}
	if _, err := admin.ExecContext(ctx, `CREATE SCHEMA `+quoteIdentifier(name)); err != nil {
		return nil, nil, errs.Combine(err, admin.Close())
	}
	dropSchema := func() error {
		_, err := admin.ExecContext(context.Background(), `DROP SCHEMA `+quoteIdentifier(name)+` CASCADE`)
		return errs.Combine(err, admin.Close())
	}

	db, err := swingdb.Open(ctx, log, withSchema(databaseURL, name))
	if err != nil {
		return nil, nil, errs.Combine(err, dropSchema())
	}

	return db, func() error {
		return errs.Combine(db.Close(), dropSchema())
	}, nil
}

// uniqueName returns a short identifier usable as a schema or in-memory database name.
func uniqueName(testName string) string {
	var suffix [4]byte
	_, _ = rand.Read(suffix[:])

	prefix := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		default:
			return '_'
		}
	}, testName)
	if len(prefix) > 40 {
		prefix = prefix[:40]
	}
	return prefix + "_" + hex.EncodeToString(suffix[:])
}

// withSchema adds the search_path parameter to a postgres connection string.
func withSchema(connstr, schema string) string {
	separator := "?"
	if strings.Contains(connstr, "?") {
		separator = "&"
	}
	return connstr + separator + "search_path=" + url.QueryEscape(quoteIdentifier(schema))
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
