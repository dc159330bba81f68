// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package catalog

import (
	"context"
	"time"

	"github.com/zeebo/errs"

	"github.com/swingcharts/swing/blobstore"
)

var (
	// Error is the default catalog error class.
	Error = errs.Class("catalog")

	// ErrOwnership is returned when a principal publishes or removes a package owned by someone else.
	ErrOwnership = errs.Class("package ownership conflict")
	// ErrDuplicateRelease is returned when a version of a package is published twice.
	ErrDuplicateRelease = errs.Class("duplicate release")
	// ErrPackageNotFound is returned when no package has the requested name.
	ErrPackageNotFound = errs.Class("package not found")
	// ErrReleaseNotFound is returned when a package has no release with the requested version.
	ErrReleaseNotFound = errs.Class("release not found")

	// ErrPackageChanged is returned when a release is published while its package is removed.
	ErrPackageChanged = errs.Class("package changed")

	// ErrAlreadyExists is returned by DB implementations on a uniqueness violation.
	ErrAlreadyExists = errs.Class("already exists")
)

// Package is a named chart owned by a single principal.
type Package struct {
	ID          int64
	Name        string
	Description string
	OwnerID     int64
	CreatedAt   time.Time
}

// Release is a single published version of a package.
type Release struct {
	ID        int64
	PackageID int64
	Version   string
	Notes     string
	CreatedAt time.Time
}

// Ref returns the archive identifier of the release.
func (release *Release) Ref() blobstore.Ref { return blobstore.Ref(release.ID) }

// DB contains access to the catalog tables.
//
// architecture: Database
type DB interface {
	// Packages returns the packages table.
	Packages() Packages
	// Releases returns the releases table.
	Releases() Releases
}

// Packages exposes methods to manage the packages table.
type Packages interface {
	// Insert creates a package. ErrAlreadyExists is returned when the name is taken.
	Insert(ctx context.Context, pkg Package) (Package, error)
	// Get returns the package with the given name or ErrPackageNotFound.
	Get(ctx context.Context, name string) (Package, error)
	// GetByID returns the package with the given id or ErrPackageNotFound.
	GetByID(ctx context.Context, id int64) (Package, error)
	// List returns packages whose name or description contains query, ignoring case, ordered by name.
	List(ctx context.Context, query string) ([]Package, error)
	// Delete removes the listed release rows and then the package.
	// ErrPackageChanged is returned when the package has other releases.
	Delete(ctx context.Context, id int64, releaseIDs []int64) error
	// Count returns the number of packages.
	Count(ctx context.Context) (int64, error)
}

// Releases exposes methods to manage the releases table.
type Releases interface {
	// Insert creates a release and overwrites the description of its package
	// within a single transaction. ErrAlreadyExists is returned when the
	// version is already published.
	Insert(ctx context.Context, release Release, description string) (Release, error)
	// Get returns the release of a package with the given version or ErrReleaseNotFound.
	Get(ctx context.Context, packageID int64, version string) (Release, error)
	// GetByID returns the release with the given id or ErrReleaseNotFound.
	GetByID(ctx context.Context, id int64) (Release, error)
	// List returns all releases of a package in no particular order.
	List(ctx context.Context, packageID int64) ([]Release, error)
	// Delete removes the release row.
	Delete(ctx context.Context, id int64) error
}
