// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package migrate applies versioned schema changes to a sql database.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/swingcharts/swing/private/dbutil"
	"github.com/swingcharts/swing/private/dbutil/txutil"
)

var (
	// Error is the default migrate error class.
	Error = errs.Class("migrate")
	// ErrValidateVersionMismatch is when the migration version does not match the current database version.
	ErrValidateVersionMismatch = errs.Class("validate db version mismatch")
)

/*

Scenarios it doesn't handle properly.

1. Undoing migrations.

	Intentionally left out, the schema only moves forward.

2. Steps with side effects outside of the database.

	A step runs inside a transaction, but anything it does besides
	executing statements is not rolled back when it fails.
*/

// Migration describes a migration steps.
type Migration struct {
	Table string
	Steps []*Step
}

// Step describes a single step in migration.
type Step struct {
	Description string
	Version     int // Versions should start at 0
	Action      Action
}

// Action is something that needs to be done.
type Action interface {
	Run(ctx context.Context, log *zap.Logger, impl dbutil.Implementation, tx *sql.Tx) error
}

// ValidTableName checks whether the specified table name is valid.
func (migration *Migration) ValidTableName() error {
	matched, err := regexp.MatchString(`^[a-z_]+$`, migration.Table)
	if !matched || err != nil {
		return Error.New("invalid table name: %v", migration.Table)
	}
	return nil
}

// ValidateSteps checks that the version for each migration step increments in order.
func (migration *Migration) ValidateSteps() error {
	sorted := sort.SliceIsSorted(migration.Steps, func(i, j int) bool {
		return migration.Steps[i].Version < migration.Steps[j].Version
	})
	if !sorted {
		return Error.New("steps have incorrect order")
	}
	for i := 1; i < len(migration.Steps); i++ {
		if migration.Steps[i-1].Version == migration.Steps[i].Version {
			return Error.New("duplicate step version %d", migration.Steps[i].Version)
		}
	}
	return nil
}

// ValidateVersions checks that the database has all steps of the migration applied.
func (migration *Migration) ValidateVersions(ctx context.Context, log *zap.Logger, db *sql.DB, impl dbutil.Implementation) error {
	version, err := migration.CurrentVersion(ctx, log, db, impl)
	if err != nil {
		return err
	}
	if len(migration.Steps) == 0 {
		return nil
	}

	last := migration.Steps[len(migration.Steps)-1]
	if last.Version > version {
		return ErrValidateVersionMismatch.New("expected %d <= %d", last.Version, version)
	}
	log.Debug("Database version is up to date", zap.Int("version", version))
	return nil
}

// Run runs the migration steps that have not been applied yet.
func (migration *Migration) Run(ctx context.Context, log *zap.Logger, db *sql.DB, impl dbutil.Implementation) error {
	if err := migration.ValidTableName(); err != nil {
		return err
	}
	if err := migration.ValidateSteps(); err != nil {
		return err
	}

	version, err := migration.CurrentVersion(ctx, log, db, impl)
	if err != nil {
		return err
	}
	initialSetup := version < 0

	for _, step := range migration.Steps {
		if step.Version <= version {
			continue
		}

		stepLog := log.Named(strconv.Itoa(step.Version))
		if !initialSetup {
			stepLog.Info(step.Description)
		}

		err = txutil.WithTx(ctx, db, nil, func(ctx context.Context, tx *sql.Tx) error {
			if err := step.Action.Run(ctx, stepLog, impl, tx); err != nil {
				return err
			}
			return migration.addVersion(ctx, tx, impl, step.Version)
		})
		if err != nil {
			return Error.New("step %d (%s): %v", step.Version, step.Description, err)
		}
	}

	if len(migration.Steps) > 0 {
		last := migration.Steps[len(migration.Steps)-1]
		if initialSetup {
			log.Info("Database Created", zap.Int("version", last.Version))
		} else {
			log.Info("Database Version", zap.Int("version", last.Version))
		}
	} else {
		log.Info("No Versions")
	}

	return nil
}

// CurrentVersion finds the latest applied version. It returns -1 when nothing has been applied.
func (migration *Migration) CurrentVersion(ctx context.Context, log *zap.Logger, db *sql.DB, impl dbutil.Implementation) (int, error) {
	if err := migration.ensureVersionTable(ctx, db, impl); err != nil {
		return -1, err
	}
	return migration.getLatestVersion(ctx, db, impl)
}

// ensureVersionTable creates migration.Table table if not exists.
func (migration *Migration) ensureVersionTable(ctx context.Context, db *sql.DB, impl dbutil.Implementation) error {
	err := txutil.WithTx(ctx, db, nil, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migration.Table+` (version int, committed_at text)`)
		return err
	})
	return Error.Wrap(err)
}

// getLatestVersion finds the latest version in migration.Table.
func (migration *Migration) getLatestVersion(ctx context.Context, db *sql.DB, impl dbutil.Implementation) (int, error) {
	var version sql.NullInt64
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM `+migration.Table).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !version.Valid) {
		return -1, nil
	}
	if err != nil {
		return -1, Error.Wrap(err)
	}
	return int(version.Int64), nil
}

// addVersion adds information about a new migration.
func (migration *Migration) addVersion(ctx context.Context, tx *sql.Tx, impl dbutil.Implementation, version int) error {
	_, err := tx.ExecContext(ctx, dbutil.Rebind(impl, `
		INSERT INTO `+migration.Table+` (version, committed_at) VALUES (?, ?)`),
		version, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// SQL statements that are executed on the database.
type SQL []string

// Run runs the SQL statements.
func (statements SQL) Run(ctx context.Context, log *zap.Logger, impl dbutil.Implementation, tx *sql.Tx) (err error) {
	for _, query := range statements {
		_, err := tx.ExecContext(ctx, dbutil.Rebind(impl, query))
		if err != nil {
			return errs.Wrap(err)
		}
	}
	return nil
}

// Func is an arbitrary operation.
type Func func(ctx context.Context, log *zap.Logger, impl dbutil.Implementation, tx *sql.Tx) error

// Run runs the migration.
func (fn Func) Run(ctx context.Context, log *zap.Logger, impl dbutil.Implementation, tx *sql.Tx) error {
	return fn(ctx, log, impl, tx)
}
