// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package chart

import (
	"archive/zip"
	"bytes"
	"io"

	"github.com/zeebo/errs"
)

// maxDefinitionSize bounds how much of a chart definition entry is read.
const maxDefinitionSize = 1 << 20

// Files is a listing of archive entries that can read a single entry by name.
type Files interface {
	// Names returns the entry names in archive order.
	Names() []string
	// ReadFile returns the content of the named entry.
	ReadFile(name string) ([]byte, error)
}

// Archive is an uploaded ZIP archive held in memory.
type Archive struct {
	reader *zip.Reader
	names  []string
	index  map[string]*zip.File
}

var _ Files = (*Archive)(nil)

// OpenArchive reads the central directory of a ZIP archive.
func OpenArchive(data []byte) (*Archive, error) {
	if len(data) == 0 {
		return nil, ErrMalformedArchive.New("archive is empty")
	}

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ErrMalformedArchive.Wrap(err)
	}

	archive := &Archive{
		reader: reader,
		names:  make([]string, 0, len(reader.File)),
		index:  make(map[string]*zip.File, len(reader.File)),
	}
	for _, file := range reader.File {
		archive.names = append(archive.names, file.Name)
		if _, ok := archive.index[file.Name]; !ok {
			archive.index[file.Name] = file
		}
	}
	return archive, nil
}

// Names returns the entry names in archive order.
func (archive *Archive) Names() []string {
	return append([]string(nil), archive.names...)
}

// ReadFile returns the content of the named entry.
func (archive *Archive) ReadFile(name string) (_ []byte, err error) {
	file, ok := archive.index[name]
	if !ok {
		return nil, Error.New("%q not found in archive", name)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, ErrMalformedArchive.Wrap(err)
	}
	defer func() { err = errs.Combine(err, rc.Close()) }()

	data, err := io.ReadAll(io.LimitReader(rc, maxDefinitionSize+1))
	if err != nil {
		return nil, ErrMalformedArchive.Wrap(err)
	}
	if len(data) > maxDefinitionSize {
		return nil, Error.New("%q exceeds %d bytes", name, maxDefinitionSize)
	}
	return data, nil
}
