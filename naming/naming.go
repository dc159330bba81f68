// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package naming implements the grammars for chart names, release versions
// and the public archive filename `<name>-<version>.zip`.
package naming

import (
	"regexp"
	"strings"

	"github.com/zeebo/errs"
)

// Error is the default naming error class.
var Error = errs.Class("naming")

// ArchiveExt is the extension of every public release archive.
const ArchiveExt = ".zip"

var (
	nameRegexp     = regexp.MustCompile(`^[a-z]+(?:-[a-z]+)*$`)
	versionRegexp  = regexp.MustCompile(`^\d+(?:\.\d+)+$`)
	filenameRegexp = regexp.MustCompile(`^[a-z]+(?:-[a-z]+)*-\d+(?:\.\d+)+\.zip$`)
)

// IsValidName reports whether name is lowercase letter tokens joined by single hyphens.
func IsValidName(name string) bool {
	return nameRegexp.MatchString(name)
}

// IsValidVersion reports whether version has at least two dot-separated numeric components.
func IsValidVersion(version string) bool {
	return versionRegexp.MatchString(version)
}

// IsValidFilename reports whether filename is a routable release archive name.
func IsValidFilename(filename string) bool {
	return filenameRegexp.MatchString(filename)
}

// Filename returns the public archive filename of a release.
func Filename(name, version string) string {
	return name + "-" + version + ArchiveExt
}

// ParseFilename splits an archive filename into chart name and version.
//
// The version is the last hyphen-separated token; everything before it is the name.
func ParseFilename(filename string) (name, version string, err error) {
	if !IsValidFilename(filename) {
		return "", "", Error.New("invalid archive filename %q", filename)
	}

	base := strings.TrimSuffix(filename, ArchiveExt)
	split := strings.LastIndexByte(base, '-')
	return base[:split], base[split+1:], nil
}

// ArchiveURL returns the externally visible download URL of a release.
func ArchiveURL(publicURL, name, version string) string {
	return strings.TrimRight(publicURL, "/") + "/release/" + Filename(name, version)
}
