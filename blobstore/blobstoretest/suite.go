// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package blobstoretest contains the contract tests every blobstore.Blobs implementation must pass.
package blobstoretest

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swingcharts/swing/blobstore"
)

// RunBlobs runs the blob store contract against blobs.
func RunBlobs(t *testing.T, blobs blobstore.Blobs) {
	t.Run("UploadDownload", func(t *testing.T) { testUploadDownload(t, blobs) })
	t.Run("FirstWriteWins", func(t *testing.T) { testFirstWriteWins(t, blobs) })
	t.Run("MissingBlob", func(t *testing.T) { testMissingBlob(t, blobs) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, blobs) })
	t.Run("Concurrent", func(t *testing.T) { testConcurrent(t, blobs) })
	t.Run("InvalidRef", func(t *testing.T) { testInvalidRef(t, blobs) })
}

// RandomArchive returns size random bytes.
func RandomArchive(t testing.TB, size int) []byte {
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	return data
}

// ReadAll downloads and reads the blob at ref.
func ReadAll(ctx context.Context, t testing.TB, blobs blobstore.Blobs, ref blobstore.Ref) []byte {
	t.Helper()

	reader, err := blobs.Download(ctx, ref)
	require.NoError(t, err)
	defer func() { require.NoError(t, reader.Close()) }()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	return data
}

func testUploadDownload(t *testing.T, blobs blobstore.Blobs) {
	ctx := context.Background()
	const ref = blobstore.Ref(1)

	data := RandomArchive(t, 8<<10)

	exists, err := blobs.Exists(ctx, ref)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, blobs.Upload(ctx, ref, bytes.NewReader(data)))

	exists, err = blobs.Exists(ctx, ref)
	require.NoError(t, err)
	require.True(t, exists)

	reader, err := blobs.Download(ctx, ref)
	require.NoError(t, err)

	size, err := reader.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)

	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// readers are seekable, so they can be served with range requests.
	_, err = reader.Seek(0, io.SeekStart)
	require.NoError(t, err)
	got, err = io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, reader.Close())
}

func testFirstWriteWins(t *testing.T, blobs blobstore.Blobs) {
	ctx := context.Background()
	const ref = blobstore.Ref(2)

	first := RandomArchive(t, 1<<10)
	second := RandomArchive(t, 2<<10)

	require.NoError(t, blobs.Upload(ctx, ref, bytes.NewReader(first)))
	require.NoError(t, blobs.Upload(ctx, ref, bytes.NewReader(second)))

	assert.Equal(t, first, ReadAll(ctx, t, blobs, ref))
}

func testMissingBlob(t *testing.T, blobs blobstore.Blobs) {
	ctx := context.Background()
	const ref = blobstore.Ref(3)

	reader, err := blobs.Download(ctx, ref)
	require.Error(t, err)
	assert.Nil(t, reader)
	assert.True(t, blobstore.ErrNotFound.Has(err), err)

	// deleting a missing blob is not an error
	require.NoError(t, blobs.Delete(ctx, ref))
}

func testDelete(t *testing.T, blobs blobstore.Blobs) {
	ctx := context.Background()
	const ref = blobstore.Ref(4)

	require.NoError(t, blobs.Upload(ctx, ref, bytes.NewReader([]byte("archive"))))
	require.NoError(t, blobs.Delete(ctx, ref))

	exists, err := blobs.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = blobs.Download(ctx, ref)
	assert.True(t, blobstore.ErrNotFound.Has(err), err)

	// a deleted ref can be stored again
	require.NoError(t, blobs.Upload(ctx, ref, bytes.NewReader([]byte("again"))))
	assert.Equal(t, []byte("again"), ReadAll(ctx, t, blobs, ref))
	require.NoError(t, blobs.Delete(ctx, ref))
}

func testConcurrent(t *testing.T, blobs blobstore.Blobs) {
	ctx := context.Background()
	const writers = 8

	// distinct refs
	archives := make([][]byte, writers)
	for i := range archives {
		archives[i] = RandomArchive(t, 4<<10)
	}

	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = blobs.Upload(ctx, blobstore.Ref(100+i), bytes.NewReader(archives[i]))
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, archives[i], ReadAll(ctx, t, blobs, blobstore.Ref(100+i)))
	}

	// the same ref, exactly one of the archives ends up stored in full.
	const shared = blobstore.Ref(200)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = blobs.Upload(ctx, shared, bytes.NewReader(archives[i]))
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
	}
	stored := ReadAll(ctx, t, blobs, shared)
	assert.Contains(t, archives, stored)
}

func testInvalidRef(t *testing.T, blobs blobstore.Blobs) {
	ctx := context.Background()

	err := blobs.Upload(ctx, blobstore.Ref(0), bytes.NewReader([]byte("archive")))
	require.Error(t, err)

	_, err = blobs.Download(ctx, blobstore.Ref(-1))
	require.Error(t, err)
	assert.False(t, blobstore.ErrNotFound.Has(err))
}
