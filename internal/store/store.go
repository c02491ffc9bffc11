// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package store

import (
	"context"
	"time"

	"github.com/tomtom215/kingsroom/internal/models"
)

// MaxBatchSize is the largest number of writes accepted by BatchWrite.
const MaxBatchSize = 25

// Item is a stored document with its metadata.
type Item struct {
	Table         string
	Key           string
	Version       int64
	LastChangedAt time.Time
	Data          []byte
}

// Indexes maps index name to the value a document is filed under.
// Empty values are not indexed.
type Indexes map[string]string

// Condition restricts when a write may proceed.
type Condition struct {
	// IfNotExists fails the write when the key already holds a document.
	IfNotExists bool

	// ExpectedVersion fails the write unless the stored _version matches.
	// Zero means no document is expected.
	ExpectedVersion *int64
}

// Write is a single put or delete.
type Write struct {
	Table     string
	Key       string
	Data      []byte
	Indexes   Indexes
	Condition Condition
	Delete    bool
}

// Query selects documents through a secondary index.
type Query struct {
	Table string
	Index string
	Value string

	// Prefix matches every index value beginning with Value.
	Prefix bool

	// Limit caps the number of results; zero means unlimited.
	Limit int
}

// UpdateFunc receives the current item (nil when absent) and returns the
// replacement document and its index values. It may run more than once when
// the transaction conflicts and must not have side effects.
type UpdateFunc func(current *Item) (data []byte, indexes Indexes, err error)

// Store is the document-store contract used by the enrichment pipeline.
type Store interface {
	Get(ctx context.Context, table, key string) (*Item, error)
	Query(ctx context.Context, q Query) ([]Item, error)
	Scan(ctx context.Context, table string, fn func(Item) error) error
	Put(ctx context.Context, w Write) (*Item, error)
	Update(ctx context.Context, table, key string, fn UpdateFunc) (*Item, error)
	Delete(ctx context.Context, table, key string) error
	BatchWrite(ctx context.Context, writes []Write) error
	Close() error
}

// ChangeSink receives every committed write.
// Emit is called after commit and must not block for long.
type ChangeSink interface {
	Emit(ctx context.Context, ev models.ChangeEvent)
}

// ChangeSinkFunc adapts a function to ChangeSink.
type ChangeSinkFunc func(ctx context.Context, ev models.ChangeEvent)

func (f ChangeSinkFunc) Emit(ctx context.Context, ev models.ChangeEvent) {
	f(ctx, ev)
}
