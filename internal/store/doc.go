// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package store provides the schemaless document store used by Kingsroom.

Documents are JSON objects addressed by table name and primary key. Each
document carries store-managed metadata: _version is incremented on every
write and _lastChangedAt is stamped with the commit time.

Operations:

  - Get: point read by primary key
  - Query: secondary-index lookup by exact value or value prefix
  - Put: conditional write (if-not-exists or expected version)
  - Update: atomic read-modify-write with conflict retry
  - BatchWrite: transactional write of at most MaxBatchSize items
  - Delete, Scan

BadgerStore keeps documents and index entries in BadgerDB under separate
key prefixes and updates both in a single transaction. Every committed
write is reported to an optional ChangeSink as a models.ChangeEvent, which
feeds the change-stream router.

BreakerStore wraps any Store with a circuit breaker. While the breaker is
open calls fail fast with ErrThroughputExceeded so that bulk callers back off.
*/
package store
