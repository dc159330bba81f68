// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package redisstore stores release archives in Redis.
package redisstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/swingcharts/swing/blobstore"
)

var (
	// Error is the default redisstore error class.
	Error = errs.Class("redisstore")

	mon = monkit.Package()

	_ blobstore.Blobs = (*Store)(nil)
)

// Config is configuration for the redis blob store.
type Config struct {
	URL       string `help:"redis connection url" default:"redis://localhost:6379/0"`
	KeyPrefix string `help:"prefix of keys holding release archives" default:"swing:archive:"`
}

// Store implements a blob store on top of redis.
type Store struct {
	log    *zap.Logger
	client *redis.Client
	prefix string
}

// Open connects to the redis server described by config.
func Open(ctx context.Context, log *zap.Logger, config Config) (*Store, error) {
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, Error.Wrap(errs.Combine(err, client.Close()))
	}

	return New(log, client, config.KeyPrefix), nil
}

// New wraps an existing redis client.
func New(log *zap.Logger, client *redis.Client, prefix string) *Store {
	return &Store{log: log, client: client, prefix: prefix}
}

// Close closes the underlying redis client.
func (store *Store) Close() error {
	return Error.Wrap(store.client.Close())
}

func (store *Store) key(ref blobstore.Ref) (string, error) {
	if !ref.IsValid() {
		return "", Error.New("invalid blob ref %d", ref)
	}
	return store.prefix + ref.String(), nil
}

// Exists returns whether an archive is stored for ref.
func (store *Store) Exists(ctx context.Context, ref blobstore.Ref) (_ bool, err error) {
	defer mon.Task()(&ctx)(&err)

	key, err := store.key(ref)
	if err != nil {
		return false, err
	}

	n, err := store.client.Exists(ctx, key).Result()
	if err != nil {
		return false, Error.Wrap(err)
	}
	return n > 0, nil
}

// Upload stores the archive for ref unless one is already stored.
// SETNX makes the first writer win atomically.
func (store *Store) Upload(ctx context.Context, ref blobstore.Ref, data io.Reader) (err error) {
	defer mon.Task()(&ctx)(&err)

	key, err := store.key(ref)
	if err != nil {
		return err
	}

	content, err := io.ReadAll(data)
	if err != nil {
		return Error.Wrap(err)
	}

	stored, err := store.client.SetNX(ctx, key, content, 0).Result()
	if err != nil {
		return Error.Wrap(err)
	}
	if !stored {
		store.log.Debug("archive already stored, skipping upload", zap.Stringer("ref", ref))
	}
	return nil
}

// Download returns the archive stored for ref.
func (store *Store) Download(ctx context.Context, ref blobstore.Ref) (_ blobstore.BlobReader, err error) {
	defer mon.Task()(&ctx)(&err)

	key, err := store.key(ref)
	if err != nil {
		return nil, err
	}

	content, err := store.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, blobstore.ErrNotFound.New("%s", ref)
		}
		return nil, Error.Wrap(err)
	}
	return &blobReader{Reader: bytes.NewReader(content)}, nil
}

// Delete deletes the archive stored for ref.
func (store *Store) Delete(ctx context.Context, ref blobstore.Ref) (err error) {
	defer mon.Task()(&ctx)(&err)

	key, err := store.key(ref)
	if err != nil {
		return err
	}
	return Error.Wrap(store.client.Del(ctx, key).Err())
}

// blobReader serves an archive that was fetched into memory.
type blobReader struct {
	*bytes.Reader
}

// Size returns the size of the archive.
func (blob *blobReader) Size() (int64, error) { return blob.Reader.Size(), nil }

// Close implements io.Closer.
func (blob *blobReader) Close() error { return nil }
