// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package blobstore defines the storage of release archives.
package blobstore

import (
	"context"
	"io"
	"strconv"

	"github.com/zeebo/errs"
)

var (
	// Error is the default blobstore error class.
	Error = errs.Class("blobstore")

	// ErrNotFound is returned by Download when no blob is stored for a ref.
	ErrNotFound = errs.Class("blob not found")
)

// Ref identifies the blob of a single release. It is the release identifier.
type Ref int64

// String returns the decimal form of the ref.
func (ref Ref) String() string { return strconv.FormatInt(int64(ref), 10) }

// IsValid returns whether the ref can identify a release.
func (ref Ref) IsValid() bool { return ref > 0 }

// BlobReader is an interface that groups Read, Seek and Close.
type BlobReader interface {
	io.Reader
	io.Seeker
	io.Closer
	// Size returns the size of the blob.
	Size() (int64, error)
}

// Blobs is a release archive storage interface.
//
// All methods are safe to call concurrently for distinct refs.
type Blobs interface {
	// Exists returns whether a blob is stored for ref.
	Exists(ctx context.Context, ref Ref) (bool, error)
	// Upload stores data for ref. When a blob already exists, Upload does nothing.
	Upload(ctx context.Context, ref Ref, data io.Reader) error
	// Download opens the blob for ref. ErrNotFound is returned when there is no blob.
	Download(ctx context.Context, ref Ref) (BlobReader, error)
	// Delete removes the blob for ref, if any.
	Delete(ctx context.Context, ref Ref) error
	// Close releases resources held by the store.
	Close() error
}
