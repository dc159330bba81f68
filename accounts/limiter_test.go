// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter(t *testing.T) {
	limiter := NewLimiter(LimiterConfig{
		Attempts:     3,
		LockInterval: 3 * time.Minute,
	})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.True(t, limiter.allowAt("1.2.3.4", now), i)
	}
	require.False(t, limiter.allowAt("1.2.3.4", now))
	require.True(t, limiter.allowAt("5.6.7.8", now))

	// one attempt is restored every LockInterval/Attempts
	require.True(t, limiter.allowAt("1.2.3.4", now.Add(time.Minute)))
	require.False(t, limiter.allowAt("1.2.3.4", now.Add(time.Minute)))

	require.Equal(t, 2, limiter.Len())
}

func TestLimiterCleanUp(t *testing.T) {
	limiter := NewLimiter(LimiterConfig{Attempts: 1, LockInterval: time.Minute})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.True(t, limiter.allowAt("a", now))
	require.True(t, limiter.allowAt("b", now.Add(30*time.Second)))

	limiter.cleanUp(now.Add(70 * time.Second))
	require.Equal(t, 1, limiter.Len())

	limiter.cleanUp(now.Add(2 * time.Minute))
	require.Equal(t, 0, limiter.Len())

	// a removed entry starts with a full budget
	require.True(t, limiter.allowAt("a", now.Add(2*time.Minute)))
}

func TestLimiterRun(t *testing.T) {
	limiter := NewLimiter(LimiterConfig{CleanupPeriod: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- limiter.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("limiter did not stop")
	}
}
