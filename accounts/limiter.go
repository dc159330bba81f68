// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package accounts

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterConfig configures login throttling.
type LimiterConfig struct {
	Attempts      int           `help:"number of login attempts allowed per lock interval" default:"5"`
	LockInterval  time.Duration `help:"interval in which failed attempts are counted" default:"5m"`
	CleanupPeriod time.Duration `help:"how often expired throttling entries are removed" default:"10m"`
}

// limited stores information about a throttled key.
type limited struct {
	limiter *rate.Limiter
	expire  time.Time
}

// Limiter throttles operations by key, usually the remote address of a client.
type Limiter struct {
	config LimiterConfig

	mu      sync.Mutex
	limited map[string]*limited
}

// NewLimiter is a constructor for Limiter.
func NewLimiter(config LimiterConfig) *Limiter {
	if config.Attempts <= 0 {
		config.Attempts = 5
	}
	if config.LockInterval <= 0 {
		config.LockInterval = 5 * time.Minute
	}
	if config.CleanupPeriod <= 0 {
		config.CleanupPeriod = 10 * time.Minute
	}
	return &Limiter{
		config:  config,
		limited: map[string]*limited{},
	}
}

// Allow records an attempt for key and reports whether it is allowed.
func (limiter *Limiter) Allow(key string) bool {
	return limiter.allowAt(key, time.Now())
}

func (limiter *Limiter) allowAt(key string, now time.Time) bool {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	entry, found := limiter.limited[key]
	if !found {
		entry = &limited{
			limiter: rate.NewLimiter(rate.Every(limiter.config.LockInterval/time.Duration(limiter.config.Attempts)), limiter.config.Attempts),
		}
		limiter.limited[key] = entry
	}
	entry.expire = now.Add(limiter.config.LockInterval)

	return entry.limiter.AllowN(now, 1)
}

// Run periodically removes entries that have not been used for a lock interval.
func (limiter *Limiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(limiter.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			limiter.cleanUp(now)
		}
	}
}

func (limiter *Limiter) cleanUp(now time.Time) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	for key, entry := range limiter.limited {
		if now.After(entry.expire) {
			delete(limiter.limited, key)
		}
	}
}

// Len returns the number of tracked keys.
func (limiter *Limiter) Len() int {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	return len(limiter.limited)
}
