// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

// Package database provides typed access to the Kingsroom tables.
//
// # Overview
//
// DB wraps a store.Store and the deployment's table names. Each aggregate has
// its own file:
//   - crud_games.go: games and their secondary indexes
//   - crud_venues.go: entities, venues and venue details
//   - crud_recurring.go: recurring-game templates and their instances
//   - crud_series.go: tournament series and series titles
//   - crud_financials.go: financial snapshots and cost records
//
// # Writes
//
// Games are written last-writer-wins. Templates, series, instances and venue
// details are changed through Update*, which runs the caller's function
// inside a versioned read-modify-write so concurrent updates never lose data.
// Create*IfAbsent converges concurrent creators on a single record.
//
// Errors wrap store sentinels; use errors.Is with store.ErrNotFound and
// store.ErrConditionFailed.
package database
