// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kingsroom/internal/store"
)

// Secondary index names.
const (
	IndexGameByVenue         = "byVenue"
	IndexGameByEntity        = "byEntity"
	IndexGameByRecurringGame = "byRecurringGame"
	IndexGameBySeries        = "bySeries"

	IndexVenueByEntity     = "byEntity"
	IndexVenueByEntityName = "byEntityName"

	IndexRecurringByEntityVenueDay = "byEntityVenueDay"
	IndexRecurringByEntityDay      = "byEntityDay"

	IndexInstanceByTemplate     = "byTemplate"
	IndexInstanceByTemplateDate = "byTemplateDate"
	IndexInstanceByStatusDate   = "byStatusDate"

	IndexSeriesByEntityTitleYear     = "byEntityTitleYear"
	IndexSeriesByEntityVenueNameYear = "byEntityVenueNameYear"

	IndexSeriesTitleByEntityName = "byEntityName"

	IndexSnapshotByVenue = "byVenue"
)

// DB is the typed data-access layer over a document store.
type DB struct {
	store  store.Store
	tables store.Tables
}

// New returns a DB over s using the given table names.
func New(s store.Store, tables store.Tables) *DB {
	return &DB{store: s, tables: tables}
}

// Tables returns the table names in use.
func (db *DB) Tables() store.Tables {
	return db.tables
}

// Store returns the underlying document store.
func (db *DB) Store() store.Store {
	return db.store
}

// Ping reads a key that never exists to confirm the store answers.
func (db *DB) Ping(ctx context.Context) error {
	_, err := db.store.Get(ctx, db.tables.Entity, "__ping__")
	if err == nil || errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

// Close closes the underlying store.
func (db *DB) Close() error {
	return db.store.Close()
}

// compositeKey joins index components with '#'.
func compositeKey(parts ...string) string {
	return strings.Join(parts, "#")
}

func yearKey(year int) string {
	return strconv.Itoa(year)
}

// lowerKey is the case-insensitive form used in name indexes.
func lowerKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func decode[T any](item *store.Item) (*T, error) {
	var v T
	if err := json.Unmarshal(item.Data, &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", item.Table, item.Key, err)
	}
	return &v, nil
}

func get[T any](ctx context.Context, s store.Store, table, key string) (*T, error) {
	item, err := s.Get(ctx, table, key)
	if err != nil {
		return nil, err
	}
	return decode[T](item)
}

func query[T any](ctx context.Context, s store.Store, q store.Query) ([]*T, error) {
	items, err := s.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(items))
	for i := range items {
		v, err := decode[T](&items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func scan[T any](ctx context.Context, s store.Store, table string, fn func(*T) error) error {
	return s.Scan(ctx, table, func(item store.Item) error {
		v, err := decode[T](&item)
		if err != nil {
			return err
		}
		return fn(v)
	})
}

func put[T any](ctx context.Context, s store.Store, table, key string, v *T, idx store.Indexes, cond store.Condition) (*T, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s/%s: %w", table, key, err)
	}
	item, err := s.Put(ctx, store.Write{Table: table, Key: key, Data: data, Indexes: idx, Condition: cond})
	if err != nil {
		return nil, err
	}
	return decode[T](item)
}

// update runs fn over the current document (nil when absent) inside a
// versioned read-modify-write. fn may return store.ErrSkipWrite to leave the
// document untouched, in which case the current value is returned.
func update[T any](ctx context.Context, s store.Store, table, key string, indexes func(*T) store.Indexes, fn func(cur *T) (*T, error)) (*T, error) {
	item, err := s.Update(ctx, table, key, func(cur *store.Item) ([]byte, store.Indexes, error) {
		var current *T
		if cur != nil {
			v, err := decode[T](cur)
			if err != nil {
				return nil, nil, err
			}
			current = v
		}
		next, err := fn(current)
		if err != nil {
			return nil, nil, err
		}
		if next == nil {
			return nil, nil, store.ErrSkipWrite
		}
		data, err := json.Marshal(next)
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s/%s: %w", table, key, err)
		}
		return data, indexes(next), nil
	})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	return decode[T](item)
}

// createIfAbsent writes v unless key already exists. It returns the stored
// document and whether this call created it.
func createIfAbsent[T any](ctx context.Context, s store.Store, table, key string, v *T, idx store.Indexes) (*T, bool, error) {
	created, err := put(ctx, s, table, key, v, idx, store.Condition{IfNotExists: true})
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, store.ErrConditionFailed) {
		return nil, false, err
	}
	existing, err := get[T](ctx, s, table, key)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// encodeWrite builds a batch write entry for v.
func encodeWrite[T any](table, key string, v *T, idx store.Indexes) (store.Write, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return store.Write{}, fmt.Errorf("encode %s/%s: %w", table, key, err)
	}
	return store.Write{Table: table, Key: key, Data: data, Indexes: idx}, nil
}
