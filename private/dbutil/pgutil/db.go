// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package pgutil contains postgres specific helpers.
package pgutil

import (
	"github.com/lib/pq"
	"github.com/zeebo/errs"
)

// IsConstraintError checks if given error is about constraint violation.
func IsConstraintError(err error) bool {
	return errs.IsFunc(err, func(err error) bool {
		if e, ok := err.(*pq.Error); ok {
			if e.Code.Class() == "23" {
				return true
			}
		}
		return false
	})
}

// IsSerializationError checks if the transaction failed because of a concurrent update.
func IsSerializationError(err error) bool {
	return errs.IsFunc(err, func(err error) bool {
		if e, ok := err.(*pq.Error); ok {
			return e.Code == "40001"
		}
		return false
	})
}
