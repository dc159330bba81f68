// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package sqliteutil contains sqlite3 specific helpers.
package sqliteutil

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/zeebo/errs"
)

// DriverName is the sqlite3 driver with the unicode functions registered.
const DriverName = "sqlite3_swing"

// LowerFunc is the sql function that lowercases text like strings.ToLower.
//
// The builtin LOWER only folds ASCII letters.
const LowerFunc = "unicode_lower"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(LowerFunc, strings.ToLower, true)
		},
	})
}

// IsConstraintError checks if given error is about constraint violation.
func IsConstraintError(err error) bool {
	return errs.IsFunc(err, func(err error) bool {
		switch e := err.(type) {
		case sqlite3.Error:
			return e.Code == sqlite3.ErrConstraint
		case *sqlite3.Error:
			return e.Code == sqlite3.ErrConstraint
		}
		return false
	})
}
