// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package swingdb_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/swingcharts/swing/accounts"
	"github.com/swingcharts/swing/catalog"
	"github.com/swingcharts/swing/private/testcontext"
	"github.com/swingcharts/swing/swingdb"
	"github.com/swingcharts/swing/swingdb/swingdbtest"
)

func TestMigration(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	db, err := swingdb.Open(ctx, zaptest.NewLogger(t), "sqlite3://"+ctx.File("swing.db"))
	require.NoError(t, err)
	defer ctx.Check(db.Close)

	require.Error(t, db.CheckVersion(ctx))
	require.NoError(t, db.MigrateToLatest(ctx))
	require.NoError(t, db.CheckVersion(ctx))

	// migrating twice is a no-op
	require.NoError(t, db.MigrateToLatest(ctx))
}

func TestOpenInvalid(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	_, err := swingdb.Open(ctx, zaptest.NewLogger(t), "mysql://localhost/swing")
	require.Error(t, err)
	assert.True(t, swingdb.ErrDatabase.Has(err))
}

func TestPackages(t *testing.T) {
	swingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *swingdb.DB) {
		packages := db.Catalog().Packages()
		now := time.Now().UTC().Truncate(time.Second)

		redis, err := packages.Insert(ctx, catalog.Package{Name: "redis", Description: "In-memory store", OwnerID: 1, CreatedAt: now})
		require.NoError(t, err)
		assert.NotZero(t, redis.ID)

		_, err = packages.Insert(ctx, catalog.Package{Name: "redis", OwnerID: 2, CreatedAt: now})
		require.Error(t, err)
		assert.True(t, catalog.ErrAlreadyExists.Has(err), err)

		postgres, err := packages.Insert(ctx, catalog.Package{Name: "postgres", Description: "SQL database with 100% uptime", OwnerID: 1, CreatedAt: now})
		require.NoError(t, err)

		got, err := packages.Get(ctx, "redis")
		require.NoError(t, err)
		assert.Equal(t, redis.ID, got.ID)
		assert.Equal(t, "In-memory store", got.Description)
		assert.Equal(t, int64(1), got.OwnerID)
		assert.WithinDuration(t, now, got.CreatedAt, time.Second)

		got, err = packages.GetByID(ctx, postgres.ID)
		require.NoError(t, err)
		assert.Equal(t, "postgres", got.Name)

		_, err = packages.Get(ctx, "mysql")
		assert.True(t, catalog.ErrPackageNotFound.Has(err), err)
		_, err = packages.GetByID(ctx, postgres.ID+100)
		assert.True(t, catalog.ErrPackageNotFound.Has(err), err)

		list, err := packages.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"postgres", "redis"}, names(list))

		list, err = packages.List(ctx, "MEMORY")
		require.NoError(t, err)
		assert.Equal(t, []string{"redis"}, names(list))

		list, err = packages.List(ctx, "gres")
		require.NoError(t, err)
		assert.Equal(t, []string{"postgres"}, names(list))

		// wildcards are matched literally
		list, err = packages.List(ctx, "100%")
		require.NoError(t, err)
		assert.Equal(t, []string{"postgres"}, names(list))
		list, err = packages.List(ctx, "_")
		require.NoError(t, err)
		assert.Empty(t, list)

		count, err := packages.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		require.NoError(t, packages.Delete(ctx, redis.ID, nil))
		count, err = packages.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestReleases(t *testing.T) {
	swingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *swingdb.DB) {
		packages := db.Catalog().Packages()
		releases := db.Catalog().Releases()
		now := time.Now().UTC()

		pkg, err := packages.Insert(ctx, catalog.Package{Name: "redis", Description: "old", OwnerID: 1, CreatedAt: now})
		require.NoError(t, err)

		first, err := releases.Insert(ctx, catalog.Release{PackageID: pkg.ID, Version: "1.0", Notes: "first", CreatedAt: now}, "new")
		require.NoError(t, err)
		assert.NotZero(t, first.ID)

		got, err := packages.Get(ctx, "redis")
		require.NoError(t, err)
		assert.Equal(t, "new", got.Description)

		_, err = releases.Insert(ctx, catalog.Release{PackageID: pkg.ID, Version: "1.0", CreatedAt: now}, "newer")
		require.Error(t, err)
		assert.True(t, catalog.ErrAlreadyExists.Has(err), err)

		// the failed insert did not touch the description
		got, err = packages.Get(ctx, "redis")
		require.NoError(t, err)
		assert.Equal(t, "new", got.Description)

		second, err := releases.Insert(ctx, catalog.Release{PackageID: pkg.ID, Version: "1.10", CreatedAt: now}, "new")
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)

		release, err := releases.Get(ctx, pkg.ID, "1.0")
		require.NoError(t, err)
		require.Empty(t, cmp.Diff(first, release, cmpopts.EquateApproxTime(time.Second)))
		assert.Equal(t, "first", release.Notes)

		release, err = releases.GetByID(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, "1.10", release.Version)

		_, err = releases.Get(ctx, pkg.ID, "2.0")
		assert.True(t, catalog.ErrReleaseNotFound.Has(err), err)

		list, err := releases.List(ctx, pkg.ID)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		require.NoError(t, releases.Delete(ctx, first.ID))
		_, err = releases.GetByID(ctx, first.ID)
		assert.True(t, catalog.ErrReleaseNotFound.Has(err), err)

		// identifiers are never reused
		third, err := releases.Insert(ctx, catalog.Release{PackageID: pkg.ID, Version: "1.0", CreatedAt: now}, "new")
		require.NoError(t, err)
		assert.Greater(t, third.ID, second.ID)

		// a release missing from the delete keeps the package
		err = packages.Delete(ctx, pkg.ID, []int64{second.ID})
		require.Error(t, err)
		assert.True(t, catalog.ErrPackageChanged.Has(err), err)

		list, err = releases.List(ctx, pkg.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, third.ID, list[0].ID)
		_, err = packages.GetByID(ctx, pkg.ID)
		require.NoError(t, err)

		require.NoError(t, packages.Delete(ctx, pkg.ID, []int64{third.ID}))
		list, err = releases.List(ctx, pkg.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
		_, err = packages.GetByID(ctx, pkg.ID)
		assert.True(t, catalog.ErrPackageNotFound.Has(err), err)
	})
}

func TestListPackagesUnicodeAndOrder(t *testing.T) {
	swingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *swingdb.DB) {
		packages := db.Catalog().Packages()
		now := time.Now().UTC()

		for _, pkg := range []catalog.Package{
			{Name: "apfel", Description: "Äpfel Chart"},
			{Name: "redisa", Description: "cache"},
			{Name: "redis-z", Description: "cache"},
		} {
			pkg.OwnerID, pkg.CreatedAt = 1, now
			_, err := packages.Insert(ctx, pkg)
			require.NoError(t, err)
		}

		for _, query := range []string{"Äpfel", "äpfel", "ÄPFEL", "Chart", "chart"} {
			list, err := packages.List(ctx, query)
			require.NoError(t, err)
			assert.Equal(t, []string{"apfel"}, names(list), query)
		}

		// names are ordered bytewise, '-' sorts before letters
		list, err := packages.List(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"apfel", "redis-z", "redisa"}, names(list))

		list, err = packages.List(ctx, "CACHE")
		require.NoError(t, err)
		assert.Equal(t, []string{"redis-z", "redisa"}, names(list))
	})
}

func TestUsersAndSessions(t *testing.T) {
	swingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db *swingdb.DB) {
		users := db.Accounts().Users()
		sessions := db.Accounts().Sessions()
		now := time.Now().UTC()

		user, err := users.Insert(ctx, accounts.User{Email: "admin@example.com", PasswordHash: []byte("hash"), Active: true, CreatedAt: now})
		require.NoError(t, err)

		_, err = users.Insert(ctx, accounts.User{Email: "admin@example.com", PasswordHash: []byte("hash"), CreatedAt: now})
		assert.True(t, accounts.ErrEmailTaken.Has(err), err)

		got, err := users.GetByEmail(ctx, "admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, []byte("hash"), got.PasswordHash)
		assert.True(t, got.Active)

		_, err = users.GetByEmail(ctx, "nobody@example.com")
		assert.True(t, accounts.ErrUserNotFound.Has(err), err)

		require.NoError(t, users.SetActive(ctx, user.ID, false))
		got, err = users.Get(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, got.Active)

		assert.True(t, accounts.ErrUserNotFound.Has(users.SetActive(ctx, user.ID+100, true)))

		valid := accounts.Session{Token: "valid", UserID: user.ID, ExpiresAt: now.Add(time.Hour)}
		expired := accounts.Session{Token: "expired", UserID: user.ID, ExpiresAt: now.Add(-time.Hour)}
		require.NoError(t, sessions.Insert(ctx, valid))
		require.NoError(t, sessions.Insert(ctx, expired))

		session, err := sessions.Get(ctx, "valid")
		require.NoError(t, err)
		assert.Equal(t, user.ID, session.UserID)
		assert.WithinDuration(t, valid.ExpiresAt, session.ExpiresAt, time.Second)

		deleted, err := sessions.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)

		_, err = sessions.Get(ctx, "expired")
		assert.True(t, accounts.ErrSessionNotFound.Has(err), err)

		require.NoError(t, sessions.Delete(ctx, "valid"))
		_, err = sessions.Get(ctx, "valid")
		assert.True(t, accounts.ErrSessionNotFound.Has(err), err)
	})
}

func names(packages []catalog.Package) []string {
	list := []string{}
	for _, pkg := range packages {
		list = append(list, pkg.Name)
	}
	return list
}
