// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package swingdb

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/zeebo/errs"

	"github.com/swingcharts/swing/catalog"
)

// ensures that packagesDB implements catalog.Packages interface.
var _ catalog.Packages = (*packagesDB)(nil)

// packagesDB works with the packages table.
type packagesDB struct {
	db *DB
}

// Insert creates a package.
func (packages *packagesDB) Insert(ctx context.Context, pkg catalog.Package) (_ catalog.Package, err error) {
	defer mon.Task()(&ctx)(&err)

	err = packages.db.db.QueryRowContext(ctx, packages.db.rebind(`
		INSERT INTO packages (name, description, owner_id, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		pkg.Name, pkg.Description, pkg.OwnerID, pkg.CreatedAt,
	).Scan(&pkg.ID)
	if err != nil {
		return catalog.Package{}, wrapConstraint(err, &catalog.ErrAlreadyExists, "package %q", pkg.Name)
	}
	return pkg, nil
}

// Get returns the package with the given name.
func (packages *packagesDB) Get(ctx context.Context, name string) (_ catalog.Package, err error) {
	defer mon.Task()(&ctx)(&err)

	row := packages.db.db.QueryRowContext(ctx, packages.db.rebind(`
		SELECT id, name, description, owner_id, created_at
		FROM packages WHERE name = ?`), name)

	pkg, err := scanPackage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Package{}, catalog.ErrPackageNotFound.New("no chart called %q was found", name)
	}
	return pkg, ErrDatabase.Wrap(err)
}

// GetByID returns the package with the given id.
func (packages *packagesDB) GetByID(ctx context.Context, id int64) (_ catalog.Package, err error) {
	defer mon.Task()(&ctx)(&err)

	row := packages.db.db.QueryRowContext(ctx, packages.db.rebind(`
		SELECT id, name, description, owner_id, created_at
		FROM packages WHERE id = ?`), id)

	pkg, err := scanPackage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Package{}, catalog.ErrPackageNotFound.New("no chart with id %d was found", id)
	}
	return pkg, ErrDatabase.Wrap(err)
}

// List returns packages whose name or description contains query, ignoring case.
func (packages *packagesDB) List(ctx context.Context, query string) (_ []catalog.Package, err error) {
	defer mon.Task()(&ctx)(&err)

	var rows *sql.Rows
	if query == "" {
		rows, err = packages.db.db.QueryContext(ctx, `
			SELECT id, name, description, owner_id, created_at
			FROM packages ORDER BY `+packages.db.byName())
	} else {
		lower := packages.db.lower
		pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
		rows, err = packages.db.db.QueryContext(ctx, packages.db.rebind(`
			SELECT id, name, description, owner_id, created_at
			FROM packages
			WHERE `+lower("name")+` LIKE ? ESCAPE '\' OR `+lower("description")+` LIKE ? ESCAPE '\'
			ORDER BY `+packages.db.byName()), pattern, pattern)
	}
	if err != nil {
		return nil, ErrDatabase.Wrap(err)
	}
	defer func() { err = errs.Combine(err, ErrDatabase.Wrap(rows.Close())) }()

	list := []catalog.Package{}
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, ErrDatabase.Wrap(err)
		}
		list = append(list, pkg)
	}
	return list, ErrDatabase.Wrap(rows.Err())
}

// Delete removes the given release rows and then the package. The release
// rows are removed even when the package keeps other releases, in which
// case ErrPackageChanged is returned and the package stays.
func (packages *packagesDB) Delete(ctx context.Context, id int64, releaseIDs []int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	var remaining int64
	err = packages.db.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		for _, releaseID := range releaseIDs {
			_, err := tx.ExecContext(ctx, packages.db.rebind(`
				DELETE FROM releases WHERE id = ? AND package_id = ?`), releaseID, id)
			if err != nil {
				return err
			}
		}

		err := tx.QueryRowContext(ctx, packages.db.rebind(`
			SELECT COUNT(*) FROM releases WHERE package_id = ?`), id).Scan(&remaining)
		if err != nil || remaining > 0 {
			return err
		}

		_, err = tx.ExecContext(ctx, packages.db.rebind(`DELETE FROM packages WHERE id = ?`), id)
		return err
	})
	if err != nil {
		return ErrDatabase.Wrap(err)
	}
	if remaining > 0 {
		return catalog.ErrPackageChanged.New("chart %d received %d new release(s) while being removed", id, remaining)
	}
	return nil
}

// Count returns the number of packages.
func (packages *packagesDB) Count(ctx context.Context) (_ int64, err error) {
	defer mon.Task()(&ctx)(&err)

	var count int64
	err = packages.db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM packages`).Scan(&count)
	return count, ErrDatabase.Wrap(err)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPackage(row scanner) (pkg catalog.Package, err error) {
	err = row.Scan(&pkg.ID, &pkg.Name, &pkg.Description, &pkg.OwnerID, &pkg.CreatedAt)
	return pkg, err
}

// escapeLike escapes the LIKE wildcards of s using `\`.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
