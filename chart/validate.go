// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package chart validates uploaded chart archives and decodes their definition.
package chart

var (
	definitionFiles   = []string{"chart.yaml", "chart.yml"}
	valuesFiles       = []string{"values.yaml", "values.yml"}
	deploymentFiles   = []string{"deployment.yaml", "deployment.yml", "deployment.yaml.j2", "deployment.yml.j2"}
	requirementsFiles = []string{"requirements.yaml", "requirements.yml"}
)

// Layout is the result of the structural check of an archive.
type Layout struct {
	// Definition is the entry holding the chart definition.
	Definition string
	// Values is the entry holding default values.
	Values string
	// Deployment is the entry holding the deployment template.
	Deployment string
}

// CheckFiles runs the structural and dependency checks on an archive listing.
func CheckFiles(names []string) (Layout, error) {
	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}

	var layout Layout
	var ok bool

	if layout.Definition, ok = firstPresent(present, definitionFiles); !ok {
		return Layout{}, ErrMissingDefinition
	}
	if layout.Values, ok = firstPresent(present, valuesFiles); !ok {
		return Layout{}, ErrMissingValues
	}
	if layout.Deployment, ok = firstPresent(present, deploymentFiles); !ok {
		return Layout{}, ErrMissingDeployment
	}

	if name, found := firstPresent(present, requirementsFiles); found {
		return Layout{}, ErrUnsupportedDependencies.New("recursive dependencies (%s) are not supported", name)
	}

	return layout, nil
}

// Validate runs every check on the archive and returns its definition.
//
// Checks run in a fixed order and stop at the first failure: required files,
// dependency rejection, definition parsing, definition fields.
func Validate(files Files) (Definition, error) {
	layout, err := CheckFiles(files.Names())
	if err != nil {
		return Definition{}, err
	}

	data, err := files.ReadFile(layout.Definition)
	if err != nil {
		if ErrMalformedArchive.Has(err) {
			return Definition{}, err
		}
		return Definition{}, ErrManifestParse.Wrap(err)
	}

	definition, err := ParseDefinition(data)
	if err != nil {
		return Definition{}, err
	}

	if err := definition.Validate(); err != nil {
		return Definition{}, err
	}

	return definition, nil
}

func firstPresent(present map[string]bool, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if present[candidate] {
			return candidate, true
		}
	}
	return "", false
}
