// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package catalog_test

import (
	"context"
	"io"

	"github.com/swingcharts/swing/blobstore"
)

// failingBlobs is a blob store whose deletes fail on demand.
type failingBlobs struct {
	deleteErr error
}

func (blobs *failingBlobs) Exists(ctx context.Context, ref blobstore.Ref) (bool, error) {
	return false, nil
}

func (blobs *failingBlobs) Upload(ctx context.Context, ref blobstore.Ref, data io.Reader) error {
	return nil
}

func (blobs *failingBlobs) Download(ctx context.Context, ref blobstore.Ref) (blobstore.BlobReader, error) {
	return nil, blobstore.ErrNotFound.New("%s", ref)
}

func (blobs *failingBlobs) Delete(ctx context.Context, ref blobstore.Ref) error {
	return blobs.deleteErr
}

func (blobs *failingBlobs) Close() error { return nil }
