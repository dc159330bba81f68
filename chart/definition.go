// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/swingcharts/swing/naming"
)

// Definition is the chart manifest (chart.yaml) declared inside an archive.
type Definition struct {
	Name        string
	Version     string
	Description string
}

// definitionDocument is the on-disk shape of a chart definition.
type definitionDocument struct {
	Name        scalar `yaml:"name"`
	Version     scalar `yaml:"version"`
	Description scalar `yaml:"description"`
}

// scalar decodes any YAML scalar by its literal text, so `version: 1.0` stays "1.0".
type scalar string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *scalar) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.AliasNode && value.Alias != nil {
		value = value.Alias
	}
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected a scalar value at line %d", value.Line)
	}
	if value.ShortTag() == "!!null" {
		*s = ""
		return nil
	}
	*s = scalar(value.Value)
	return nil
}

// ParseDefinition decodes a chart definition document.
func ParseDefinition(data []byte) (Definition, error) {
	var root yaml.Node
	err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Definition{}, ErrManifestParse.New("document is empty")
		}
		return Definition{}, ErrManifestParse.Wrap(err)
	}

	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return Definition{}, ErrManifestParse.New("document is not a mapping")
	}

	var doc definitionDocument
	if err := root.Content[0].Decode(&doc); err != nil {
		return Definition{}, ErrManifestParse.Wrap(err)
	}

	return Definition{
		Name:        string(doc.Name),
		Version:     string(doc.Version),
		Description: string(doc.Description),
	}, nil
}

// Validate checks the required fields of the definition in a fixed order:
// empty name, empty version, name format, version format.
func (definition Definition) Validate() error {
	switch {
	case definition.Name == "":
		return ErrEmptyName
	case definition.Version == "":
		return ErrEmptyVersion
	case !naming.IsValidName(definition.Name):
		return ErrInvalidName
	case !naming.IsValidVersion(definition.Version):
		return ErrInvalidVersion
	}
	return nil
}

// Filename returns the public archive filename for the definition.
func (definition Definition) Filename() string {
	return naming.Filename(definition.Name, definition.Version)
}
