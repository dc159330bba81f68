// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package chart

import "github.com/zeebo/errs"

var (
	// Error is the default chart error class.
	Error = errs.Class("chart")

	// ErrMalformedArchive is returned when the upload is not a readable ZIP archive.
	ErrMalformedArchive = errs.Class("malformed archive")

	// ErrMissingArtifact is the class of errors for required files absent from the archive.
	ErrMissingArtifact = errs.Class("missing chart artifact")
	// ErrMissingDefinition is returned when neither chart.yaml nor chart.yml is present.
	ErrMissingDefinition = ErrMissingArtifact.New("chart definition (chart.yaml) not found")
	// ErrMissingValues is returned when neither values.yaml nor values.yml is present.
	ErrMissingValues = ErrMissingArtifact.New("default values (values.yaml) not found")
	// ErrMissingDeployment is returned when no deployment template is present.
	ErrMissingDeployment = ErrMissingArtifact.New("deployment specification (deployment.yaml) not found")

	// ErrUnsupportedDependencies is returned for archives declaring requirements.
	ErrUnsupportedDependencies = errs.Class("unsupported dependencies")

	// ErrManifestParse is returned when the chart definition cannot be decoded.
	ErrManifestParse = errs.Class("chart definition parse")

	// ErrInvalidDefinition is the class of semantic chart definition failures.
	ErrInvalidDefinition = errs.Class("invalid chart definition")
	// ErrEmptyName is returned when the definition has no name.
	ErrEmptyName = ErrInvalidDefinition.New("chart name can not be empty")
	// ErrEmptyVersion is returned when the definition has no version.
	ErrEmptyVersion = ErrInvalidDefinition.New("release version can not be empty")
	// ErrInvalidName is returned when the definition name does not match the name grammar.
	ErrInvalidName = ErrInvalidDefinition.New("chart name has not a valid format")
	// ErrInvalidVersion is returned when the definition version does not match the version grammar.
	ErrInvalidVersion = ErrInvalidDefinition.New("release version has not a valid format")
)

// IsValidationError reports whether err is one of the reasons an archive is rejected.
func IsValidationError(err error) bool {
	return ErrMalformedArchive.Has(err) ||
		ErrMissingArtifact.Has(err) ||
		ErrUnsupportedDependencies.Has(err) ||
		ErrManifestParse.Has(err) ||
		ErrInvalidDefinition.Has(err)
}
