// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package store

import (
	"context"
	"math"
	"time"
)

// maxBackoff caps Backoff.
const maxBackoff = 30 * time.Second

// Backoff returns base·2^attempt, capped at 30s.
func Backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 10 * time.Millisecond
	}
	if attempt > 30 {
		return maxBackoff
	}
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry runs fn until it succeeds, returns a non-retryable error, or
// maxAttempts is reached. retryable decides which errors are transient.
func Retry(ctx context.Context, maxAttempts int, base time.Duration, retryable func(error) bool, fn func() error) (int, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil || !retryable(err) {
			return attempt + 1, err
		}
		if attempt == maxAttempts-1 {
			break
		}
		if werr := sleepCtx(ctx, Backoff(base, attempt)); werr != nil {
			return attempt + 1, werr
		}
	}
	return maxAttempts, err
}
