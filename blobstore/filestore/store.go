// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package filestore stores release archives in a local directory.
package filestore

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/swingcharts/swing/blobstore"
)

var (
	// Error is the default filestore error class.
	Error = errs.Class("filestore")

	mon = monkit.Package()

	_ blobstore.Blobs = (*Store)(nil)
)

// Config is configuration for the local blob store.
type Config struct {
	Dir             string `help:"directory where release archives are stored" default:"$CONFDIR/archives"`
	WriteBufferSize int    `help:"in-memory buffer for uploads in bytes" default:"131072"`
	ForceSync       bool   `help:"if true, force disk synchronization before an archive becomes visible" default:"false"`
}

// Store implements a blob store in a local directory.
type Store struct {
	log    *zap.Logger
	dir    *Dir
	config Config
}

// New creates a new disk blob store in the specified directory.
func New(log *zap.Logger, dir *Dir, config Config) *Store {
	if config.WriteBufferSize <= 0 {
		config.WriteBufferSize = 128 << 10
	}
	return &Store{log: log, dir: dir, config: config}
}

// NewAt creates a new disk blob store in the specified directory.
func NewAt(log *zap.Logger, path string, config Config) (*Store, error) {
	dir, err := NewDir(log, path)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return New(log, dir, config), nil
}

// Close closes the store.
func (store *Store) Close() error { return nil }

// Exists returns whether an archive is stored for ref.
func (store *Store) Exists(ctx context.Context, ref blobstore.Ref) (_ bool, err error) {
	defer mon.Task()(&ctx)(&err)

	info, err := store.dir.Stat(ctx, ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, Error.Wrap(err)
	}
	return info.Mode().IsRegular(), nil
}

// Upload stores the archive for ref unless one is already stored.
func (store *Store) Upload(ctx context.Context, ref blobstore.Ref, data io.Reader) (err error) {
	defer mon.Task()(&ctx)(&err)

	exists, err := store.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if exists {
		store.log.Debug("archive already stored, skipping upload", zap.Stringer("ref", ref))
		return nil
	}

	file, err := store.dir.CreateTemporaryFile(ctx)
	if err != nil {
		return Error.Wrap(err)
	}

	buffer := bufio.NewWriterSize(file, store.config.WriteBufferSize)
	if _, err := io.Copy(buffer, data); err != nil {
		return Error.Wrap(errs.Combine(err, store.dir.DeleteTemporary(ctx, file)))
	}
	if err := buffer.Flush(); err != nil {
		return Error.Wrap(errs.Combine(err, store.dir.DeleteTemporary(ctx, file)))
	}

	committed, err := store.dir.Commit(ctx, file, ref, store.config.ForceSync)
	if err != nil {
		return Error.Wrap(err)
	}
	if !committed {
		store.log.Debug("concurrent upload stored the archive first", zap.Stringer("ref", ref))
	}
	return nil
}

// Download opens the archive stored for ref.
func (store *Store) Download(ctx context.Context, ref blobstore.Ref) (_ blobstore.BlobReader, err error) {
	defer mon.Task()(&ctx)(&err)

	file, err := store.dir.Open(ctx, ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, blobstore.ErrNotFound.New("%s", ref)
		}
		return nil, Error.Wrap(err)
	}
	return newBlobReader(file), nil
}

// Delete deletes the archive stored for ref.
func (store *Store) Delete(ctx context.Context, ref blobstore.Ref) (err error) {
	defer mon.Task()(&ctx)(&err)

	return Error.Wrap(store.dir.Delete(ctx, ref))
}

// GarbageCollect removes leftovers of interrupted uploads.
func (store *Store) GarbageCollect(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	return Error.Wrap(store.dir.GarbageCollect(ctx))
}
