// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package testcontext_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swingcharts/swing/private/testcontext"
)

func TestBasic(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	ctx.Go(func() error {
		return nil
	})

	dir := ctx.Dir("a", "b")
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	file := ctx.File("a", "c.txt")
	require.Equal(t, filepath.Join(ctx.Dir("a"), "c.txt"), file)
	ctx.Check(func() error {
		return os.WriteFile(file, []byte("hello"), 0644)
	})
}

func TestSubtestDirectory(t *testing.T) {
	t.Run("nested/name", func(t *testing.T) {
		ctx := testcontext.New(t)
		defer ctx.Cleanup()

		require.DirExists(t, ctx.Dir())
	})
}
