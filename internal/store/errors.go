// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document exists for a key.
	ErrNotFound = errors.New("store: item not found")

	// ErrConditionFailed is returned when a conditional write's precondition does not hold.
	ErrConditionFailed = errors.New("store: conditional check failed")

	// ErrBatchTooLarge is returned for batches above MaxBatchSize.
	ErrBatchTooLarge = errors.New("store: batch exceeds item limit")

	// ErrThroughputExceeded is returned when the store is shedding load.
	ErrThroughputExceeded = errors.New("store: throughput exceeded")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store: closed")

	// ErrSkipWrite may be returned by an UpdateFunc to leave the document untouched.
	ErrSkipWrite = errors.New("store: skip write")

	// ErrInvalidKey is returned for empty tables or keys, or keys containing the separator byte.
	ErrInvalidKey = errors.New("store: invalid table or key")
)

// PersistenceError reports a write that still failed after retries.
type PersistenceError struct {
	Op       string
	Table    string
	Key      string
	Attempts int
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("store: %s %s/%s failed after %d attempts: %v", e.Op, e.Table, e.Key, e.Attempts, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient store condition worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrThroughputExceeded)
}
