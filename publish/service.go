// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package publish implements publishing, downloading and removing chart releases.
//
// Publishing runs the steps
//
//	received -> validated -> package resolved -> release committed -> archive stored
//
// and stops at the first failure. Steps that already committed are not rolled
// back: a new package stays when its first release is a duplicate, and a crash
// between committing a release and storing its archive leaves a release
// without an archive. Downloads of such a release fail with ErrBlobMissing.
package publish

import (
	"bytes"
	"context"
	"path"
	"strings"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/swingcharts/swing/blobstore"
	"github.com/swingcharts/swing/catalog"
	"github.com/swingcharts/swing/chart"
	"github.com/swingcharts/swing/naming"
)

var (
	// Error is the default publish error class.
	Error = errs.Class("publish")

	// ErrInvalidRequest is returned for requests rejected before reaching the catalog.
	ErrInvalidRequest = errs.Class("invalid request")
	// ErrBlobMissing is returned when a release exists but its archive does not.
	ErrBlobMissing = errs.Class("release archive missing")
	// ErrStorageWrite is returned when an archive could not be stored.
	ErrStorageWrite = errs.Class("storage write failure")

	mon = monkit.Package()
)

// Config configures the publication service.
type Config struct {
	PublicURL string `help:"public base url used in archive links" default:"http://localhost:5000"`
}

// Service publishes releases.
//
// architecture: Service
type Service struct {
	log     *zap.Logger
	catalog *catalog.Service
	blobs   blobstore.Blobs
	config  Config
}

// NewService returns a new publication service.
func NewService(log *zap.Logger, catalog *catalog.Service, blobs blobstore.Blobs, config Config) *Service {
	return &Service{
		log:     log,
		catalog: catalog,
		blobs:   blobs,
		config:  config,
	}
}

// Publish validates the uploaded archive and stores it as a new release owned by principal.
func (service *Service) Publish(ctx context.Context, principal int64, upload Upload) (_ ReleaseInfo, err error) {
	defer mon.Task()(&ctx)(&err)

	if len(upload.Data) == 0 {
		return ReleaseInfo{}, ErrInvalidRequest.New("the archived chart was not provided")
	}
	if upload.Filename != "" {
		filename := path.Base(strings.ReplaceAll(upload.Filename, `\`, "/"))
		if !naming.IsValidFilename(filename) {
			return ReleaseInfo{}, ErrInvalidRequest.New("provided archive file %q has not a valid name", filename)
		}
	}

	archive, err := chart.OpenArchive(upload.Data)
	if err != nil {
		mon.Event("upload_rejected")
		return ReleaseInfo{}, err
	}
	definition, err := chart.Validate(archive)
	if err != nil {
		mon.Event("upload_rejected")
		return ReleaseInfo{}, err
	}

	pkg, err := service.catalog.FindOrCreatePackage(ctx, definition.Name, definition.Description, principal)
	if err != nil {
		return ReleaseInfo{}, err
	}

	release, err := service.catalog.CreateRelease(ctx, pkg.ID, definition.Version, upload.Notes, definition.Description)
	if err != nil {
		return ReleaseInfo{}, err
	}

	if err := service.blobs.Upload(ctx, release.Ref(), bytes.NewReader(upload.Data)); err != nil {
		service.log.Error("failed to store archive",
			zap.String("archive", definition.Filename()),
			zap.Stringer("ref", release.Ref()),
			zap.Error(err))
		return ReleaseInfo{}, ErrStorageWrite.Wrap(err)
	}

	mon.Counter("published_releases").Inc(1)
	service.log.Info("release published",
		zap.String("archive", definition.Filename()),
		zap.Int64("owner", principal))

	return service.releaseInfo(pkg.Name, release), nil
}

// Download opens the archive of the release called filename.
func (service *Service) Download(ctx context.Context, filename string) (_ Download, err error) {
	defer mon.Task()(&ctx)(&err)

	if !naming.IsValidFilename(filename) {
		return Download{}, ErrInvalidRequest.New("the requested release %q has not a valid format", filename)
	}
	name, version, err := naming.ParseFilename(filename)
	if err != nil {
		return Download{}, ErrInvalidRequest.Wrap(err)
	}

	pkg, err := service.catalog.GetPackage(ctx, name)
	if err != nil {
		return Download{}, err
	}
	release, err := service.catalog.GetRelease(ctx, pkg.ID, version)
	if err != nil {
		return Download{}, err
	}

	blob, err := service.blobs.Download(ctx, release.Ref())
	if err != nil {
		if blobstore.ErrNotFound.Has(err) {
			service.log.Error("release archive is missing", zap.String("filename", filename), zap.Stringer("ref", release.Ref()))
			return Download{}, ErrBlobMissing.New("the release %s could not be loaded", filename)
		}
		return Download{}, Error.Wrap(err)
	}

	return Download{
		Name:     name,
		Version:  version,
		Filename: naming.Filename(name, version),
		Blob:     blob,
	}, nil
}

// Packages lists packages whose name or description contains query.
func (service *Service) Packages(ctx context.Context, query string) (_ []PackageInfo, err error) {
	defer mon.Task()(&ctx)(&err)

	packages, err := service.catalog.ListPackages(ctx, query)
	if err != nil {
		return nil, err
	}

	infos := make([]PackageInfo, 0, len(packages))
	for _, pkg := range packages {
		infos = append(infos, packageInfo(pkg))
	}
	return infos, nil
}

// Releases lists the releases of the package called name, newest version first.
func (service *Service) Releases(ctx context.Context, name string) (_ []ReleaseInfo, err error) {
	defer mon.Task()(&ctx)(&err)

	if name == "" {
		return nil, ErrInvalidRequest.New("chart name has to be provided")
	}
	if !naming.IsValidName(name) {
		return nil, ErrInvalidRequest.New("provided name %q is not a valid chart name", name)
	}

	pkg, err := service.catalog.GetPackage(ctx, name)
	if err != nil {
		return nil, err
	}
	releases, err := service.catalog.ListReleases(ctx, pkg.ID)
	if err != nil {
		return nil, err
	}

	infos := make([]ReleaseInfo, 0, len(releases))
	for _, release := range releases {
		infos = append(infos, service.releaseInfo(pkg.Name, release))
	}
	return infos, nil
}

// RemoveRelease deletes one release of a package owned by principal.
func (service *Service) RemoveRelease(ctx context.Context, principal int64, name, version string) (_ ReleaseInfo, err error) {
	defer mon.Task()(&ctx)(&err)

	pkg, err := service.ownedPackage(ctx, principal, name)
	if err != nil {
		return ReleaseInfo{}, err
	}
	if !naming.IsValidVersion(version) {
		return ReleaseInfo{}, ErrInvalidRequest.New("provided version %q is not a valid release version", version)
	}

	release, err := service.catalog.GetRelease(ctx, pkg.ID, version)
	if err != nil {
		return ReleaseInfo{}, err
	}
	if err := service.catalog.RemoveRelease(ctx, release.ID); err != nil {
		return ReleaseInfo{}, err
	}
	return service.releaseInfo(pkg.Name, release), nil
}

// RemovePackage deletes a package owned by principal together with all of its releases.
func (service *Service) RemovePackage(ctx context.Context, principal int64, name string) (_ PackageInfo, err error) {
	defer mon.Task()(&ctx)(&err)

	pkg, err := service.ownedPackage(ctx, principal, name)
	if err != nil {
		return PackageInfo{}, err
	}
	if err := service.catalog.RemovePackage(ctx, pkg.ID); err != nil {
		return PackageInfo{}, err
	}
	return packageInfo(pkg), nil
}

func (service *Service) ownedPackage(ctx context.Context, principal int64, name string) (catalog.Package, error) {
	if !naming.IsValidName(name) {
		return catalog.Package{}, ErrInvalidRequest.New("provided name %q is not a valid chart name", name)
	}

	pkg, err := service.catalog.GetPackage(ctx, name)
	if err != nil {
		return catalog.Package{}, err
	}
	if pkg.OwnerID != principal {
		return catalog.Package{}, catalog.ErrOwnership.New("you are not allowed to delete a chart you do not own")
	}
	return pkg, nil
}

// Status returns the number of published charts.
func (service *Service) Status(ctx context.Context) (charts int64, err error) {
	defer mon.Task()(&ctx)(&err)

	return service.catalog.CountPackages(ctx)
}
