// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package swingdb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/zeebo/errs"

	"github.com/swingcharts/swing/catalog"
)

// ensures that releasesDB implements catalog.Releases interface.
var _ catalog.Releases = (*releasesDB)(nil)

// releasesDB works with the releases table.
type releasesDB struct {
	db *DB
}

// Insert creates a release and overwrites the package description in the same transaction.
func (releases *releasesDB) Insert(ctx context.Context, release catalog.Release, description string) (_ catalog.Release, err error) {
	defer mon.Task()(&ctx)(&err)

	err = releases.db.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, releases.db.rebind(`
			INSERT INTO releases (package_id, version, notes, created_at)
			VALUES (?, ?, ?, ?)
			RETURNING id`),
			release.PackageID, release.Version, release.Notes, release.CreatedAt,
		).Scan(&release.ID)
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, releases.db.rebind(`
			UPDATE packages SET description = ? WHERE id = ?`),
			description, release.PackageID)
		if err != nil {
			return err
		}
		updated, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if updated == 0 {
			return catalog.ErrPackageNotFound.New("no chart with id %d was found", release.PackageID)
		}
		return nil
	})
	if err != nil {
		if catalog.ErrPackageNotFound.Has(err) {
			return catalog.Release{}, err
		}
		return catalog.Release{}, wrapConstraint(err, &catalog.ErrAlreadyExists, "release %s", release.Version)
	}
	return release, nil
}

// Get returns the release of a package with the given version.
func (releases *releasesDB) Get(ctx context.Context, packageID int64, version string) (_ catalog.Release, err error) {
	defer mon.Task()(&ctx)(&err)

	row := releases.db.db.QueryRowContext(ctx, releases.db.rebind(`
		SELECT id, package_id, version, notes, created_at
		FROM releases WHERE package_id = ? AND version = ?`), packageID, version)

	release, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Release{}, catalog.ErrReleaseNotFound.New("no release with version %q was found", version)
	}
	return release, ErrDatabase.Wrap(err)
}

// GetByID returns the release with the given id.
func (releases *releasesDB) GetByID(ctx context.Context, id int64) (_ catalog.Release, err error) {
	defer mon.Task()(&ctx)(&err)

	row := releases.db.db.QueryRowContext(ctx, releases.db.rebind(`
		SELECT id, package_id, version, notes, created_at
		FROM releases WHERE id = ?`), id)

	release, err := scanRelease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Release{}, catalog.ErrReleaseNotFound.New("no release with id %d was found", id)
	}
	return release, ErrDatabase.Wrap(err)
}

// List returns all releases of a package.
func (releases *releasesDB) List(ctx context.Context, packageID int64) (_ []catalog.Release, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := releases.db.db.QueryContext(ctx, releases.db.rebind(`
		SELECT id, package_id, version, notes, created_at
		FROM releases WHERE package_id = ?`), packageID)
	if err != nil {
		return nil, ErrDatabase.Wrap(err)
	}
	defer func() { err = errs.Combine(err, ErrDatabase.Wrap(rows.Close())) }()

	list := []catalog.Release{}
	for rows.Next() {
		release, err := scanRelease(rows)
		if err != nil {
			return nil, ErrDatabase.Wrap(err)
		}
		list = append(list, release)
	}
	return list, ErrDatabase.Wrap(rows.Err())
}

// Delete removes the release row.
func (releases *releasesDB) Delete(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = releases.db.db.ExecContext(ctx, releases.db.rebind(`DELETE FROM releases WHERE id = ?`), id)
	return ErrDatabase.Wrap(err)
}

func scanRelease(row scanner) (release catalog.Release, err error) {
	err = row.Scan(&release.ID, &release.PackageID, &release.Version, &release.Notes, &release.CreatedAt)
	return release, err
}
