// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package charttest builds chart archives for tests.
package charttest

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"testing"
)

// File is a single archive entry.
type File struct {
	Name    string
	Content string
}

// Archive builds a ZIP archive holding files in the given order.
func Archive(t testing.TB, files ...File) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, file := range files {
		w, err := writer.Create(file.Name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(file.Content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// FromMap builds an archive from name to content, sorted by name.
func FromMap(t testing.TB, files map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	list := make([]File, 0, len(names))
	for _, name := range names {
		list = append(list, File{Name: name, Content: files[name]})
	}
	return Archive(t, list...)
}

// Definition renders a chart.yaml document.
func Definition(name, version, description string) string {
	doc := fmt.Sprintf("name: %s\nversion: %s\n", name, version)
	if description != "" {
		doc += fmt.Sprintf("description: %s\n", description)
	}
	return doc
}

// Valid builds a complete chart archive.
func Valid(t testing.TB, name, version, description string) []byte {
	t.Helper()

	return Archive(t,
		File{Name: "chart.yaml", Content: Definition(name, version, description)},
		File{Name: "values.yaml", Content: "replicas: 1\n"},
		File{Name: "deployment.yaml", Content: "kind: Deployment\n"},
	)
}
