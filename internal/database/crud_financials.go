// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/store"
)

func snapshotIndexes(s *models.GameFinancialSnapshot) store.Indexes {
	if models.IsSentinelVenue(s.VenueID) {
		return nil
	}
	return store.Indexes{IndexSnapshotByVenue: s.VenueID}
}

// WriteFinancials stores a game's snapshot and cost record in one batch.
func (db *DB) WriteFinancials(ctx context.Context, snap *models.GameFinancialSnapshot, cost *models.GameCost) error {
	sw, err := encodeWrite(db.tables.GameFinancialSnapshot, snap.GameID, snap, snapshotIndexes(snap))
	if err != nil {
		return err
	}
	cw, err := encodeWrite(db.tables.GameCost, cost.GameID, cost, nil)
	if err != nil {
		return err
	}
	if err := db.store.BatchWrite(ctx, []store.Write{sw, cw}); err != nil {
		return fmt.Errorf("write financials %s: %w", snap.GameID, err)
	}
	return nil
}

// GetFinancials returns a game's snapshot and cost record. Either may be nil
// when it was never written.
func (db *DB) GetFinancials(ctx context.Context, gameID string) (*models.GameFinancialSnapshot, *models.GameCost, error) {
	snap, err := get[models.GameFinancialSnapshot](ctx, db.store, db.tables.GameFinancialSnapshot, gameID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("get snapshot %s: %w", gameID, err)
	}
	cost, err := get[models.GameCost](ctx, db.store, db.tables.GameCost, gameID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("get cost %s: %w", gameID, err)
	}
	return snap, cost, nil
}

// ListSnapshotsByVenue returns the snapshots filed under a venue.
func (db *DB) ListSnapshotsByVenue(ctx context.Context, venueID string) ([]*models.GameFinancialSnapshot, error) {
	out, err := query[models.GameFinancialSnapshot](ctx, db.store, store.Query{
		Table: db.tables.GameFinancialSnapshot,
		Index: IndexSnapshotByVenue,
		Value: venueID,
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots of %s: %w", venueID, err)
	}
	return out, nil
}

// ScanSnapshots calls fn for every stored snapshot.
func (db *DB) ScanSnapshots(ctx context.Context, fn func(*models.GameFinancialSnapshot) error) error {
	return scan(ctx, db.store, db.tables.GameFinancialSnapshot, fn)
}
