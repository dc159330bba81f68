// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/swingcharts/swing/blobstore"
)

const (
	blobExt = ".zip"
	tempDir = "temp"
)

// Dir represents the single-level directory holding release archives.
type Dir struct {
	log  *zap.Logger
	path string
}

// NewDir returns the directory at path, creating it and its temp directory if needed.
func NewDir(log *zap.Logger, path string) (*Dir, error) {
	dir := &Dir{log: log, path: path}
	return dir, errs.Combine(
		os.MkdirAll(path, 0700),
		os.MkdirAll(dir.tempdir(), 0700),
	)
}

// Path returns the directory path.
func (dir *Dir) Path() string { return dir.path }

func (dir *Dir) tempdir() string { return filepath.Join(dir.path, tempDir) }

// blobToPath maps a ref to `<dir>/<ref>.zip`.
func (dir *Dir) blobToPath(ref blobstore.Ref) (string, error) {
	if !ref.IsValid() {
		return "", Error.New("invalid blob ref %d", ref)
	}
	return filepath.Join(dir.path, ref.String()+blobExt), nil
}

// CreateTemporaryFile creates a new file in the temp directory.
func (dir *Dir) CreateTemporaryFile(ctx context.Context) (_ *os.File, err error) {
	defer mon.Task()(&ctx)(&err)

	return os.CreateTemp(dir.tempdir(), "blob-*.partial")
}

// DeleteTemporary deletes a temporary file.
func (dir *Dir) DeleteTemporary(ctx context.Context, file *os.File) (err error) {
	defer mon.Task()(&ctx)(&err)

	closeErr := file.Close()
	removeErr := os.Remove(file.Name())
	if errors.Is(removeErr, os.ErrNotExist) {
		removeErr = nil
	}
	return errs.Combine(closeErr, removeErr)
}

// Commit places a fully written temporary file at the location of ref.
//
// The file is hard-linked into place so that an existing blob is never replaced
// and readers never observe a partially written blob. committed is false when
// another writer already stored a blob for ref.
func (dir *Dir) Commit(ctx context.Context, file *os.File, ref blobstore.Ref, sync bool) (committed bool, err error) {
	defer mon.Task()(&ctx)(&err)

	path, err := dir.blobToPath(ref)
	if err != nil {
		return false, errs.Combine(err, dir.DeleteTemporary(ctx, file))
	}

	if sync {
		if err := file.Sync(); err != nil {
			return false, errs.Combine(err, dir.DeleteTemporary(ctx, file))
		}
	}

	if err := file.Close(); err != nil {
		return false, errs.Combine(err, os.Remove(file.Name()))
	}
	defer func() {
		if removeErr := os.Remove(file.Name()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			err = errs.Combine(err, removeErr)
		}
	}()

	linkErr := os.Link(file.Name(), path)
	switch {
	case linkErr == nil:
		return true, nil
	case errors.Is(linkErr, os.ErrExist):
		return false, nil
	}

	// some filesystems do not support hard links.
	dir.log.Debug("hard link failed, falling back to rename", zap.Stringer("ref", ref), zap.Error(linkErr))
	if _, statErr := os.Stat(path); statErr == nil {
		return false, nil
	}
	if err := os.Rename(file.Name(), path); err != nil {
		return false, err
	}
	return true, nil
}

// Open opens the blob file for reading.
func (dir *Dir) Open(ctx context.Context, ref blobstore.Ref) (_ *os.File, err error) {
	defer mon.Task()(&ctx)(&err)

	path, err := dir.blobToPath(ref)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Stat looks up disk metadata on the blob file.
func (dir *Dir) Stat(ctx context.Context, ref blobstore.Ref) (_ os.FileInfo, err error) {
	defer mon.Task()(&ctx)(&err)

	path, err := dir.blobToPath(ref)
	if err != nil {
		return nil, err
	}
	return os.Stat(path)
}

// Delete removes the blob file. Deleting a missing blob is not an error.
func (dir *Dir) Delete(ctx context.Context, ref blobstore.Ref) (err error) {
	defer mon.Task()(&ctx)(&err)

	path, err := dir.blobToPath(ref)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// GarbageCollect removes temporary files left behind by interrupted uploads.
func (dir *Dir) GarbageCollect(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	entries, err := os.ReadDir(dir.tempdir())
	if err != nil {
		return err
	}

	var group errs.Group
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		err := os.Remove(filepath.Join(dir.tempdir(), entry.Name()))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			group.Add(err)
		}
	}
	return group.Err()
}
