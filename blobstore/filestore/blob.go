// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package filestore

import (
	"os"

	"github.com/swingcharts/swing/blobstore"
)

var _ blobstore.BlobReader = (*blobReader)(nil)

// blobReader implements reading blobs.
type blobReader struct {
	*os.File
}

func newBlobReader(file *os.File) *blobReader {
	return &blobReader{file}
}

// Size returns how large is the blob.
func (blob *blobReader) Size() (int64, error) {
	stat, err := blob.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), err
}
