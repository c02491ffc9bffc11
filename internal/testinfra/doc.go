// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

// Package testinfra provides shared fixtures for tests that need a real store.
//
// NewDB opens an in-memory BadgerDB so that resolver, orchestrator and
// aggregator tests exercise the same persistence code as production:
//
//	func TestResolve(t *testing.T) {
//	    db := testinfra.NewDB(t)
//	    venue := testinfra.SeedVenue(t, db, "entity-1", "Penrith Panthers")
//	    game := testinfra.NewGame("Thursday $5k GTD", testinfra.Thursday(0))
//	    // ...
//	}
//
// Clock is a settable time source for code that stamps timestamps.
package testinfra
