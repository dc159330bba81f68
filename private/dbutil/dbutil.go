// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package dbutil contains helpers shared by the sql database implementations.
package dbutil

import (
	"strconv"
	"strings"

	"github.com/zeebo/errs"

	"github.com/swingcharts/swing/private/dbutil/pgutil"
	"github.com/swingcharts/swing/private/dbutil/sqliteutil"
)

// Error is the default dbutil error class.
var Error = errs.Class("dbutil")

// Implementation type of valid DBs.
type Implementation int

const (
	// Unknown is an unknown db type.
	Unknown Implementation = iota
	// Postgres is a Postgresdb type.
	Postgres
	// SQLite3 is a sqlite3 file or in-memory database.
	SQLite3
)

// String returns the name of the implementation.
func (impl Implementation) String() string {
	switch impl {
	case Postgres:
		return "postgres"
	case SQLite3:
		return "sqlite3"
	default:
		return "unknown"
	}
}

// SplitConnStr returns the driver name and data source for a database url.
//
// Postgres urls are passed to the driver as-is, `sqlite3://<path>` urls
// pass everything after the scheme.
func SplitConnStr(url string) (driver, source string, impl Implementation, err error) {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return "", "", Unknown, Error.New("database url %q is missing a scheme", url)
	}

	switch scheme {
	case "postgres", "postgresql":
		return "postgres", url, Postgres, nil
	case "sqlite3", "sqlite":
		if rest == "" {
			return "", "", Unknown, Error.New("database url %q is missing a path", url)
		}
		return sqliteutil.DriverName, rest, SQLite3, nil
	default:
		return "", "", Unknown, Error.New("unsupported database scheme %q", scheme)
	}
}

// Rebind replaces `?` placeholders with the numbered form postgres expects.
func Rebind(impl Implementation, query string) string {
	if impl != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inString := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inString = !inString
			b.WriteByte(c)
		case c == '?' && !inString:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// IsConstraintError checks if given error is about constraint violation.
func IsConstraintError(err error) bool {
	return pgutil.IsConstraintError(err) || sqliteutil.IsConstraintError(err)
}
