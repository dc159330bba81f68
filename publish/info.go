// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package publish

import (
	"time"

	"github.com/swingcharts/swing/blobstore"
	"github.com/swingcharts/swing/catalog"
	"github.com/swingcharts/swing/naming"
)

// Upload is an archive received from a publisher.
type Upload struct {
	// Filename is the name the client declared for the archive, it may be empty.
	Filename string
	Data     []byte
	Notes    string
}

// PackageInfo is the public representation of a package.
type PackageInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ReleaseInfo is the public representation of a release.
type ReleaseInfo struct {
	Version     string    `json:"version"`
	ReleaseDate time.Time `json:"releaseDate"`
	Notes       string    `json:"notes"`
	ArchiveURL  string    `json:"archiveUrl"`
}

// Download is an opened release archive.
type Download struct {
	Name     string
	Version  string
	Filename string
	Blob     blobstore.BlobReader
}

func packageInfo(pkg catalog.Package) PackageInfo {
	return PackageInfo{
		Name:        pkg.Name,
		Description: pkg.Description,
	}
}

func (service *Service) releaseInfo(name string, release catalog.Release) ReleaseInfo {
	return ReleaseInfo{
		Version:     release.Version,
		ReleaseDate: release.CreatedAt,
		Notes:       release.Notes,
		ArchiveURL:  naming.ArchiveURL(service.config.PublicURL, name, release.Version),
	}
}
