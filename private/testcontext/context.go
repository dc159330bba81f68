// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package testcontext implements a context for tests with goroutine tracking and temporary directories.
package testcontext

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultTimeout is the default timeout used by the context.
const DefaultTimeout = 3 * time.Minute

// Context is a context that has utility methods for testing and waiting for asynchronous errors.
type Context struct {
	context.Context
	cancel context.CancelFunc

	group *errgroup.Group
	test  testing.TB

	once      sync.Once
	directory string
}

// New creates a new test context with the default timeout.
func New(test testing.TB) *Context {
	return NewWithTimeout(test, DefaultTimeout)
}

// NewWithTimeout creates a new test context that is canceled after timeout.
func NewWithTimeout(test testing.TB, timeout time.Duration) *Context {
	parent, cancel := context.WithTimeout(context.Background(), timeout)
	group, ctx := errgroup.WithContext(parent)

	return &Context{
		Context: ctx,
		cancel:  cancel,
		group:   group,
		test:    test,
	}
}

// Go runs fn in a goroutine.
// Call Cleanup to check the result.
func (ctx *Context) Go(fn func() error) {
	ctx.test.Helper()
	ctx.group.Go(fn)
}

// Check calls fn and fails the test when it returns an error.
func (ctx *Context) Check(fn func() error) {
	ctx.test.Helper()
	if err := fn(); err != nil {
		ctx.test.Fatal(err)
	}
}

// Dir returns a directory path inside the temporary directory, creating it.
func (ctx *Context) Dir(subs ...string) string {
	ctx.test.Helper()

	ctx.once.Do(func() {
		var err error
		ctx.directory, err = os.MkdirTemp("", sanitize(ctx.test.Name()))
		if err != nil {
			ctx.test.Fatal(err)
		}
	})

	dir := filepath.Join(append([]string{ctx.directory}, subs...)...)
	if err := os.MkdirAll(dir, 0755); err != nil {
		ctx.test.Fatal(err)
	}
	return dir
}

// File returns a file path inside the temporary directory.
func (ctx *Context) File(subs ...string) string {
	ctx.test.Helper()

	if len(subs) == 0 {
		ctx.test.Fatal("expected at least one argument")
	}

	dir := ctx.Dir(subs[:len(subs)-1]...)
	return filepath.Join(dir, subs[len(subs)-1])
}

// Cleanup waits for all goroutines to complete, checks their errors
// and removes the temporary directory.
func (ctx *Context) Cleanup() {
	ctx.test.Helper()

	defer ctx.deleteTemporary()
	defer ctx.cancel()

	if err := ctx.group.Wait(); err != nil {
		ctx.test.Fatal(err)
	}
}

func (ctx *Context) deleteTemporary() {
	if ctx.directory == "" {
		return
	}
	if err := os.RemoveAll(ctx.directory); err != nil {
		ctx.test.Fatal(err)
	}
}

// sanitize makes a test name usable as a directory pattern.
func sanitize(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_").Replace(name)
}
