// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package catalog keeps track of packages and their releases.
//
// The catalog owns the uniqueness and ownership rules of packages and
// releases. It is the only component that deletes archives from the
// blob store: an archive is removed before the row that references it.
package catalog

import (
	"context"
	"sort"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"

	"github.com/swingcharts/swing/blobstore"
	"github.com/swingcharts/swing/naming"
)

var mon = monkit.Package()

// Service implements the catalog operations.
//
// architecture: Service
type Service struct {
	log   *zap.Logger
	db    DB
	blobs blobstore.Blobs

	nowFn func() time.Time
}

// NewService returns a new catalog service.
func NewService(log *zap.Logger, db DB, blobs blobstore.Blobs) *Service {
	return &Service{
		log:   log,
		db:    db,
		blobs: blobs,
		nowFn: time.Now,
	}
}

// TestSetNow replaces the clock used for new rows.
func (service *Service) TestSetNow(now func() time.Time) { service.nowFn = now }

// FindOrCreatePackage returns the package called name, creating it for owner when it
// does not exist yet. ErrOwnership is returned when the package belongs to someone else.
func (service *Service) FindOrCreatePackage(ctx context.Context, name, description string, owner int64) (_ Package, err error) {
	defer mon.Task()(&ctx)(&err)

	pkg, err := service.db.Packages().Get(ctx, name)
	switch {
	case err == nil:
		return pkg, checkOwner(pkg, owner)
	case !ErrPackageNotFound.Has(err):
		return Package{}, err
	}

	pkg, err = service.db.Packages().Insert(ctx, Package{
		Name:        name,
		Description: description,
		OwnerID:     owner,
		CreatedAt:   service.nowFn().UTC(),
	})
	if err == nil {
		service.log.Info("package created", zap.String("name", name), zap.Int64("owner", owner))
		return pkg, nil
	}
	if !ErrAlreadyExists.Has(err) {
		return Package{}, err
	}

	// a concurrent publication created the package first.
	pkg, err = service.db.Packages().Get(ctx, name)
	if err != nil {
		return Package{}, err
	}
	return pkg, checkOwner(pkg, owner)
}

func checkOwner(pkg Package, owner int64) error {
	if pkg.OwnerID != owner {
		return ErrOwnership.New("package %q belongs to another user", pkg.Name)
	}
	return nil
}

// CreateRelease records version of the package and overwrites the package description.
// ErrDuplicateRelease is returned when the version was published before.
func (service *Service) CreateRelease(ctx context.Context, packageID int64, version, notes, description string) (_ Release, err error) {
	defer mon.Task()(&ctx)(&err)

	release, err := service.db.Releases().Insert(ctx, Release{
		PackageID: packageID,
		Version:   version,
		Notes:     notes,
		CreatedAt: service.nowFn().UTC(),
	}, description)
	if err != nil {
		if ErrAlreadyExists.Has(err) {
			return Release{}, ErrDuplicateRelease.New("version %s is already published", version)
		}
		return Release{}, err
	}
	return release, nil
}

// GetPackage returns the package called name.
func (service *Service) GetPackage(ctx context.Context, name string) (_ Package, err error) {
	defer mon.Task()(&ctx)(&err)

	return service.db.Packages().Get(ctx, name)
}

// GetRelease returns the release of a package with the given version.
func (service *Service) GetRelease(ctx context.Context, packageID int64, version string) (_ Release, err error) {
	defer mon.Task()(&ctx)(&err)

	return service.db.Releases().Get(ctx, packageID, version)
}

// ListPackages returns packages whose name or description contains query, ignoring case.
// An empty query lists every package.
func (service *Service) ListPackages(ctx context.Context, query string) (_ []Package, err error) {
	defer mon.Task()(&ctx)(&err)

	return service.db.Packages().List(ctx, query)
}

// ListReleases returns the releases of a package, newest version first.
func (service *Service) ListReleases(ctx context.Context, packageID int64) (_ []Release, err error) {
	defer mon.Task()(&ctx)(&err)

	releases, err := service.db.Releases().List(ctx, packageID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(releases, func(i, k int) bool {
		return naming.CompareVersions(releases[i].Version, releases[k].Version) > 0
	})
	return releases, nil
}

// CountPackages returns the number of packages.
func (service *Service) CountPackages(ctx context.Context) (_ int64, err error) {
	defer mon.Task()(&ctx)(&err)

	return service.db.Packages().Count(ctx)
}

// RemoveRelease deletes the archive of the release and then the release itself.
func (service *Service) RemoveRelease(ctx context.Context, releaseID int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	release, err := service.db.Releases().GetByID(ctx, releaseID)
	if err != nil {
		return err
	}

	if err := service.blobs.Delete(ctx, release.Ref()); err != nil {
		return Error.Wrap(err)
	}
	if err := service.db.Releases().Delete(ctx, release.ID); err != nil {
		return err
	}

	service.log.Info("release removed", zap.Int64("package", release.PackageID), zap.String("version", release.Version))
	return nil
}

// RemovePackage deletes the archives of every release of the package and then the package rows.
// A release published in the meantime keeps the package alive and ErrPackageChanged is returned.
func (service *Service) RemovePackage(ctx context.Context, packageID int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	pkg, err := service.db.Packages().GetByID(ctx, packageID)
	if err != nil {
		return err
	}

	releases, err := service.db.Releases().List(ctx, pkg.ID)
	if err != nil {
		return err
	}
	releaseIDs := make([]int64, 0, len(releases))
	for _, release := range releases {
		if err := service.blobs.Delete(ctx, release.Ref()); err != nil {
			return Error.Wrap(err)
		}
		releaseIDs = append(releaseIDs, release.ID)
	}

	if err := service.db.Packages().Delete(ctx, pkg.ID, releaseIDs); err != nil {
		return err
	}

	service.log.Info("package removed", zap.String("name", pkg.Name), zap.Int("releases", len(releases)))
	return nil
}
