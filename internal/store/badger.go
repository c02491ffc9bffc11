// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/metrics"
	"github.com/tomtom215/kingsroom/internal/models"
)

const (
	sep          = "\x00"
	prefixDoc    = "d" + sep
	prefixIndex  = "i" + sep
	versionField = "_version"
	stampField   = "_lastChangedAt"
)

// Options configures a BadgerStore.
type Options struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps all data in memory (tests and previews).
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// MaxConflictRetries bounds transaction retries on write conflicts.
	// Default: 16
	MaxConflictRetries int

	// RetryBackoff is the base delay between conflict retries.
	// Default: 5ms
	RetryBackoff time.Duration

	// Now overrides the commit clock.
	Now func() time.Time
}

// envelope is the persisted form of a document.
type envelope struct {
	Version       int64           `json:"v"`
	LastChangedAt time.Time       `json:"t"`
	Indexes       Indexes         `json:"i,omitempty"`
	Doc           json.RawMessage `json:"d"`
}

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db   *badger.DB
	opts Options

	mu     sync.RWMutex
	closed bool
	sink   ChangeSink
}

// Open opens (or creates) a BadgerStore.
func Open(opts Options) (*BadgerStore, error) {
	if opts.MaxConflictRetries <= 0 {
		opts.MaxConflictRetries = 16
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 5 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, fmt.Errorf("%w: path required for on-disk store", ErrInvalidKey)
		}
		bopts = badger.DefaultOptions(opts.Path)
		bopts.SyncWrites = opts.SyncWrites
	}
	bopts.Logger = nil

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", opts.Path).
		Bool("in_memory", opts.InMemory).
		Bool("sync_writes", opts.SyncWrites).
		Msg("Document store opened")

	return &BadgerStore{db: db, opts: opts}, nil
}

// OpenInMemory opens an empty in-memory store.
func OpenInMemory() (*BadgerStore, error) {
	return Open(Options{InMemory: true})
}

// SetChangeSink installs the receiver of committed writes.
func (s *BadgerStore) SetChangeSink(sink ChangeSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

func docKey(table, key string) []byte {
	return []byte(prefixDoc + table + sep + key)
}

func indexPrefix(table, index, value string, exact bool) []byte {
	p := prefixIndex + table + sep + index + sep + value
	if exact {
		p += sep
	}
	return []byte(p)
}

func indexKey(table, index, value, key string) []byte {
	return []byte(prefixIndex + table + sep + index + sep + value + sep + key)
}

func validKey(parts ...string) error {
	for _, p := range parts {
		if p == "" || strings.Contains(p, sep) {
			return ErrInvalidKey
		}
	}
	return nil
}

func (s *BadgerStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func loadEnvelope(txn *badger.Txn, table, key string) (*envelope, error) {
	item, err := txn.Get(docKey(table, key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &env)
	}); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", table, key, err)
	}
	return &env, nil
}

func (e *envelope) item(table, key string) *Item {
	return &Item{
		Table:         table,
		Key:           key,
		Version:       e.Version,
		LastChangedAt: e.LastChangedAt,
		Data:          append([]byte(nil), e.Doc...),
	}
}

// stamp writes the store metadata into the document body.
func stamp(data []byte, version int64, at time.Time) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("document is not a JSON object: %w", err)
		}
	}
	v, err := json.Marshal(version)
	if err != nil {
		return nil, err
	}
	t, err := json.Marshal(at)
	if err != nil {
		return nil, err
	}
	fields[versionField] = v
	fields[stampField] = t
	return json.Marshal(fields)
}

func checkCondition(cur *envelope, c Condition) error {
	if c.IfNotExists && cur != nil {
		return ErrConditionFailed
	}
	if c.ExpectedVersion != nil {
		var have int64
		if cur != nil {
			have = cur.Version
		}
		if have != *c.ExpectedVersion {
			return fmt.Errorf("%w: expected version %d, found %d", ErrConditionFailed, *c.ExpectedVersion, have)
		}
	}
	return nil
}

// put writes data over cur inside txn and returns the change it produced.
func (s *BadgerStore) put(txn *badger.Txn, table, key string, data []byte, idx Indexes, cur *envelope) (*envelope, models.ChangeEvent, error) {
	version := int64(1)
	if cur != nil {
		version = cur.Version + 1
	}
	now := s.opts.Now().UTC()

	doc, err := stamp(data, version, now)
	if err != nil {
		return nil, models.ChangeEvent{}, err
	}

	clean := Indexes{}
	for name, value := range idx {
		if value == "" {
			continue
		}
		if err := validKey(name, value); err != nil {
			return nil, models.ChangeEvent{}, fmt.Errorf("index %s: %w", name, err)
		}
		clean[name] = value
	}

	if cur != nil {
		for name, value := range cur.Indexes {
			if clean[name] == value {
				continue
			}
			if err := txn.Delete(indexKey(table, name, value, key)); err != nil {
				return nil, models.ChangeEvent{}, err
			}
		}
	}
	for name, value := range clean {
		if cur != nil && cur.Indexes[name] == value {
			continue
		}
		if err := txn.Set(indexKey(table, name, value, key), nil); err != nil {
			return nil, models.ChangeEvent{}, err
		}
	}

	next := &envelope{Version: version, LastChangedAt: now, Indexes: clean, Doc: doc}
	raw, err := json.Marshal(next)
	if err != nil {
		return nil, models.ChangeEvent{}, err
	}
	if err := txn.Set(docKey(table, key), raw); err != nil {
		return nil, models.ChangeEvent{}, err
	}

	ev := models.ChangeEvent{
		EventName:  models.EventInsert,
		Table:      table,
		Key:        key,
		Version:    version,
		NewImage:   doc,
		ObservedAt: now,
	}
	if cur != nil {
		ev.EventName = models.EventModify
		ev.OldImage = cur.Doc
	}
	return next, ev, nil
}

func (s *BadgerStore) remove(txn *badger.Txn, table, key string, cur *envelope) (models.ChangeEvent, error) {
	for name, value := range cur.Indexes {
		if err := txn.Delete(indexKey(table, name, value, key)); err != nil {
			return models.ChangeEvent{}, err
		}
	}
	if err := txn.Delete(docKey(table, key)); err != nil {
		return models.ChangeEvent{}, err
	}
	return models.ChangeEvent{
		EventName:  models.EventRemove,
		Table:      table,
		Key:        key,
		Version:    cur.Version,
		OldImage:   cur.Doc,
		ObservedAt: s.opts.Now().UTC(),
	}, nil
}

// update runs fn in a read-write transaction, retrying on conflicts, and
// emits the collected change events after a successful commit.
func (s *BadgerStore) update(ctx context.Context, op, table, key string, fn func(txn *badger.Txn) ([]models.ChangeEvent, error)) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	start := time.Now()

	var events []models.ChangeEvent
	attempts, err := Retry(ctx, s.opts.MaxConflictRetries, s.opts.RetryBackoff,
		func(err error) bool { return errors.Is(err, badger.ErrConflict) },
		func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.db.Update(func(txn *badger.Txn) error {
				var err error
				events, err = fn(txn)
				return err
			})
		})

	if errors.Is(err, badger.ErrTxnTooBig) {
		err = fmt.Errorf("%w: %v", ErrBatchTooLarge, err)
	}
	if errors.Is(err, badger.ErrConflict) {
		err = &PersistenceError{Op: op, Table: table, Key: key, Attempts: attempts, Err: fmt.Errorf("%w: %v", ErrThroughputExceeded, err)}
	}
	metrics.RecordStoreOperation(op, table, err, time.Since(start))
	if err != nil {
		return err
	}

	s.emit(ctx, events)
	return nil
}

func (s *BadgerStore) emit(ctx context.Context, events []models.ChangeEvent) {
	s.mu.RLock()
	sink := s.sink
	s.mu.RUnlock()
	if sink == nil {
		return
	}
	for _, ev := range events {
		sink.Emit(ctx, ev)
	}
}

// Get returns the document stored at table/key.
func (s *BadgerStore) Get(ctx context.Context, table, key string) (*Item, error) {
	if err := validKey(table, key); err != nil {
		return nil, err
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var out *Item
	err := s.db.View(func(txn *badger.Txn) error {
		env, err := loadEnvelope(txn, table, key)
		if err != nil {
			return err
		}
		if env == nil {
			return ErrNotFound
		}
		out = env.item(table, key)
		return nil
	})
	metrics.RecordStoreOperation("get", table, ignoreNotFound(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// Query returns documents filed under an index value, ordered by index value then key.
func (s *BadgerStore) Query(ctx context.Context, q Query) ([]Item, error) {
	if err := validKey(q.Table, q.Index); err != nil {
		return nil, err
	}
	if strings.Contains(q.Value, sep) || (!q.Prefix && q.Value == "") {
		return nil, ErrInvalidKey
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	start := time.Now()

	var items []Item
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := indexPrefix(q.Table, q.Index, q.Value, !q.Prefix)
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		var keys []string
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			k := string(it.Item().Key())
			keys = append(keys, k[strings.LastIndex(k, sep)+1:])
			if q.Limit > 0 && len(keys) >= q.Limit {
				break
			}
		}

		for _, key := range keys {
			env, err := loadEnvelope(txn, q.Table, key)
			if err != nil {
				return err
			}
			if env == nil {
				logging.Warn().Str("table", q.Table).Str("index", q.Index).Str("key", key).
					Msg("Index entry without document")
				continue
			}
			items = append(items, *env.item(q.Table, key))
		}
		return nil
	})
	metrics.RecordStoreOperation("query", q.Table, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Scan visits every document of a table in key order.
func (s *BadgerStore) Scan(ctx context.Context, table string, fn func(Item) error) error {
	if err := validKey(table); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixDoc + table + sep)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			var env envelope
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				return fmt.Errorf("decode %s/%s: %w", table, key, err)
			}
			if err := fn(*env.item(table, key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Put writes one document subject to w.Condition.
func (s *BadgerStore) Put(ctx context.Context, w Write) (*Item, error) {
	if err := validKey(w.Table, w.Key); err != nil {
		return nil, err
	}
	var out *Item
	err := s.update(ctx, "put", w.Table, w.Key, func(txn *badger.Txn) ([]models.ChangeEvent, error) {
		cur, err := loadEnvelope(txn, w.Table, w.Key)
		if err != nil {
			return nil, err
		}
		if err := checkCondition(cur, w.Condition); err != nil {
			return nil, err
		}
		next, ev, err := s.put(txn, w.Table, w.Key, w.Data, w.Indexes, cur)
		if err != nil {
			return nil, err
		}
		out = next.item(w.Table, w.Key)
		return []models.ChangeEvent{ev}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update atomically replaces the document at table/key with fn's result.
// When fn returns ErrSkipWrite the current item is returned unchanged.
func (s *BadgerStore) Update(ctx context.Context, table, key string, fn UpdateFunc) (*Item, error) {
	if err := validKey(table, key); err != nil {
		return nil, err
	}
	var out *Item
	err := s.update(ctx, "update", table, key, func(txn *badger.Txn) ([]models.ChangeEvent, error) {
		out = nil
		cur, err := loadEnvelope(txn, table, key)
		if err != nil {
			return nil, err
		}
		var curItem *Item
		if cur != nil {
			curItem = cur.item(table, key)
		}
		data, idx, err := fn(curItem)
		if errors.Is(err, ErrSkipWrite) {
			out = curItem
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		next, ev, err := s.put(txn, table, key, data, idx, cur)
		if err != nil {
			return nil, err
		}
		out = next.item(table, key)
		return []models.ChangeEvent{ev}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a document. Deleting a missing key is not an error.
func (s *BadgerStore) Delete(ctx context.Context, table, key string) error {
	if err := validKey(table, key); err != nil {
		return err
	}
	return s.update(ctx, "delete", table, key, func(txn *badger.Txn) ([]models.ChangeEvent, error) {
		cur, err := loadEnvelope(txn, table, key)
		if err != nil || cur == nil {
			return nil, err
		}
		ev, err := s.remove(txn, table, key, cur)
		if err != nil {
			return nil, err
		}
		return []models.ChangeEvent{ev}, nil
	})
}

// BatchWrite applies up to MaxBatchSize writes in one transaction.
// A failed condition on any item aborts the whole batch.
func (s *BadgerStore) BatchWrite(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}
	if len(writes) > MaxBatchSize {
		return fmt.Errorf("%w: %d items (max %d)", ErrBatchTooLarge, len(writes), MaxBatchSize)
	}
	seen := make(map[string]struct{}, len(writes))
	for _, w := range writes {
		if err := validKey(w.Table, w.Key); err != nil {
			return err
		}
		id := w.Table + sep + w.Key
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate key %s/%s in batch", ErrInvalidKey, w.Table, w.Key)
		}
		seen[id] = struct{}{}
	}

	table := writes[0].Table
	return s.update(ctx, "batch_write", table, "", func(txn *badger.Txn) ([]models.ChangeEvent, error) {
		events := make([]models.ChangeEvent, 0, len(writes))
		for _, w := range writes {
			cur, err := loadEnvelope(txn, w.Table, w.Key)
			if err != nil {
				return nil, err
			}
			if err := checkCondition(cur, w.Condition); err != nil {
				return nil, fmt.Errorf("%s/%s: %w", w.Table, w.Key, err)
			}
			if w.Delete {
				if cur == nil {
					continue
				}
				ev, err := s.remove(txn, w.Table, w.Key, cur)
				if err != nil {
					return nil, err
				}
				events = append(events, ev)
				continue
			}
			_, ev, err := s.put(txn, w.Table, w.Key, w.Data, w.Indexes, cur)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
		return events, nil
	})
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	logging.Info().Msg("Document store closed")
	return nil
}

// RunGC reclaims value-log space until no file can be rewritten.
func (s *BadgerStore) RunGC(ratio float64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.opts.InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(ratio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

