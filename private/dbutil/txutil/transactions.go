// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package txutil provides safe transaction-encapsulation functions.
package txutil

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"

	"github.com/swingcharts/swing/private/dbutil/pgutil"
)

var mon = monkit.Package()

// maxRetries bounds the number of times a transaction is restarted after a serialization failure.
const maxRetries = 5

// WithTx starts a transaction on the given sql.DB. While in the transaction, fn is called with a
// handle to the transaction in order to make use of it. If fn returns an error, the transaction
// is rolled back. If fn returns nil, the transaction is committed.
//
// Postgres serialization failures restart the transaction, so fn must not have side
// effects outside of the database.
func WithTx(ctx context.Context, db *sql.DB, txOpts *sql.TxOptions, fn func(context.Context, *sql.Tx) error) (err error) {
	defer mon.Task()(&ctx)(&err)

	for i := 0; ; i++ {
		err, rollbackErr := withTxOnce(ctx, db, txOpts, fn)
		if i < maxRetries && pgutil.IsSerializationError(err) {
			mon.Event(fmt.Sprintf("transaction_retry_%d", i+1))
			continue
		}
		mon.IntVal("transaction_retries").Observe(int64(i))
		return errs.Combine(err, rollbackErr)
	}
}

// withTxOnce creates a transaction, ensures that it is eventually released (commit or rollback)
// and passes it to the provided callback.
func withTxOnce(ctx context.Context, db *sql.DB, txOpts *sql.TxOptions, fn func(context.Context, *sql.Tx) error) (err, rollbackErr error) {
	defer mon.Task()(&ctx)(&err)

	tx, err := db.BeginTx(ctx, txOpts)
	if err != nil {
		return errs.Wrap(err), nil
	}
	defer func() {
		if err == nil {
			err = tx.Commit()
		} else {
			rollbackErr = tx.Rollback()
		}
	}()

	return fn(ctx, tx), nil
}
