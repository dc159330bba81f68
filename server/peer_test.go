// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/swingcharts/swing/accounts"
	"github.com/swingcharts/swing/blobstore/filestore"
	"github.com/swingcharts/swing/blobstore/redisstore"
	"github.com/swingcharts/swing/private/testcontext"
	"github.com/swingcharts/swing/server"
	"github.com/swingcharts/swing/swingdb"
	"github.com/swingcharts/swing/swingdb/swingdbtest"
)

func validConfig(dir string) server.Config {
	return server.Config{
		Address:         "127.0.0.1:0",
		Database:        "sqlite3://" + dir + "/swing.db",
		ShutdownTimeout: time.Second,
		Storage: server.StorageConfig{
			Type:  server.StorageLocal,
			Local: filestore.Config{Dir: dir + "/archives"},
		},
		Accounts: accounts.Config{
			SessionDuration: time.Hour,
			PasswordCost:    4,
			Limiter:         accounts.LimiterConfig{Attempts: 5, LockInterval: time.Minute, CleanupPeriod: time.Minute},
		},
	}
}

func TestConfigValidate(t *testing.T) {
	config := validConfig("/tmp/swing")
	require.NoError(t, config.Validate())

	for _, tc := range []struct {
		name   string
		modify func(*server.Config)
	}{
		{"no database", func(c *server.Config) { c.Database = "" }},
		{"no address", func(c *server.Config) { c.Address = "" }},
		{"unknown storage", func(c *server.Config) { c.Storage.Type = "s3" }},
		{"no local dir", func(c *server.Config) { c.Storage.Local.Dir = "" }},
		{"no redis url", func(c *server.Config) {
			c.Storage.Type = server.StorageRedis
			c.Storage.Redis.URL = ""
		}},
		{"initial user without password", func(c *server.Config) { c.InitialUser.Email = "admin@example.com" }},
	} {
		t.Run(tc.name, func(t *testing.T) {
			config := validConfig("/tmp/swing")
			tc.modify(&config)
			err := config.Validate()
			require.Error(t, err)
			require.True(t, server.ErrConfig.Has(err))
		})
	}
}

func TestOpenBlobs(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()
	log := zaptest.NewLogger(t)

	local, err := server.OpenBlobs(ctx, log, server.StorageConfig{
		Type:  server.StorageLocal,
		Local: filestore.Config{Dir: ctx.Dir("archives")},
	})
	require.NoError(t, err)
	require.IsType(t, &filestore.Store{}, local)
	require.NoError(t, local.Close())

	redis := miniredis.RunT(t)
	remote, err := server.OpenBlobs(ctx, log, server.StorageConfig{
		Type:  server.StorageRedis,
		Redis: redisstore.Config{URL: "redis://" + redis.Addr() + "/0", KeyPrefix: "swing:"},
	})
	require.NoError(t, err)
	require.IsType(t, &redisstore.Store{}, remote)
	require.NoError(t, remote.Close())

	_, err = server.OpenBlobs(ctx, log, server.StorageConfig{Type: "ftp"})
	require.True(t, server.ErrConfig.Has(err))
}

func TestPeerRun(t *testing.T) {
	swingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *swingdb.DB) {
		log := zaptest.NewLogger(t)

		config := validConfig(ctx.Dir())
		config.InitialUser = server.InitialUserConfig{Email: "admin@example.com", Password: "secret"}

		blobs, err := server.OpenBlobs(ctx, log, config.Storage)
		require.NoError(t, err)

		peer, err := server.New(log, db, blobs, config)
		require.NoError(t, err)
		defer ctx.Check(peer.Close)

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- peer.Run(runCtx) }()

		client := &http.Client{Timeout: 5 * time.Second}

		var status struct {
			Status string `json:"status"`
			Charts int64  `json:"charts"`
		}
		require.Eventually(t, func() bool {
			resp, err := client.Get(peer.URL() + "/status")
			if err != nil {
				return false
			}
			defer func() { _ = resp.Body.Close() }()
			return resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&status) == nil
		}, 5*time.Second, 10*time.Millisecond)
		require.Equal(t, "ok", status.Status)
		require.EqualValues(t, 0, status.Charts)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, peer.URL()+"/login", nil)
		require.NoError(t, err)
		req.SetBasicAuth("admin@example.com", "secret")
		resp, err := client.Do(req)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode)

		cancel()
		require.NoError(t, <-done)
	})
}
