// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/store"
)

func venueIndexes(v *models.Venue) store.Indexes {
	return store.Indexes{
		IndexVenueByEntity:     v.EntityID,
		IndexVenueByEntityName: compositeKey(v.EntityID, lowerKey(v.Name)),
	}
}

func noIndexes[T any](*T) store.Indexes { return nil }

// GetEntity retrieves an entity.
func (db *DB) GetEntity(ctx context.Context, id string) (*models.Entity, error) {
	e, err := get[models.Entity](ctx, db.store, db.tables.Entity, id)
	if err != nil {
		return nil, fmt.Errorf("get entity %s: %w", id, err)
	}
	return e, nil
}

// PutEntity writes an entity.
func (db *DB) PutEntity(ctx context.Context, e *models.Entity) (*models.Entity, error) {
	stored, err := put(ctx, db.store, db.tables.Entity, e.ID, e, nil, store.Condition{})
	if err != nil {
		return nil, fmt.Errorf("put entity %s: %w", e.ID, err)
	}
	return stored, nil
}

// GetVenue retrieves a venue.
func (db *DB) GetVenue(ctx context.Context, id string) (*models.Venue, error) {
	v, err := get[models.Venue](ctx, db.store, db.tables.Venue, id)
	if err != nil {
		return nil, fmt.Errorf("get venue %s: %w", id, err)
	}
	return v, nil
}

// FindVenue returns the venue or nil when it does not exist.
func (db *DB) FindVenue(ctx context.Context, id string) (*models.Venue, error) {
	v, err := db.GetVenue(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// PutVenue writes a venue.
func (db *DB) PutVenue(ctx context.Context, v *models.Venue) (*models.Venue, error) {
	stored, err := put(ctx, db.store, db.tables.Venue, v.ID, v, venueIndexes(v), store.Condition{})
	if err != nil {
		return nil, fmt.Errorf("put venue %s: %w", v.ID, err)
	}
	return stored, nil
}

// ListVenuesByEntity returns the venues of an entity.
func (db *DB) ListVenuesByEntity(ctx context.Context, entityID string) ([]*models.Venue, error) {
	venues, err := query[models.Venue](ctx, db.store, store.Query{Table: db.tables.Venue, Index: IndexVenueByEntity, Value: entityID})
	if err != nil {
		return nil, fmt.Errorf("list venues of %s: %w", entityID, err)
	}
	return venues, nil
}

// FindVenuesByName returns the venues of an entity whose name equals name, ignoring case.
func (db *DB) FindVenuesByName(ctx context.Context, entityID, name string) ([]*models.Venue, error) {
	venues, err := query[models.Venue](ctx, db.store, store.Query{
		Table: db.tables.Venue,
		Index: IndexVenueByEntityName,
		Value: compositeKey(entityID, lowerKey(name)),
	})
	if err != nil {
		return nil, fmt.Errorf("find venue %q of %s: %w", name, entityID, err)
	}
	return venues, nil
}

// RecordGameAdded bumps the game counters of the entity and venue a new game
// was filed under. Missing records are skipped.
func (db *DB) RecordGameAdded(ctx context.Context, entityID, venueID string, at time.Time) error {
	at = at.UTC()
	if entityID != "" {
		_, err := update(ctx, db.store, db.tables.Entity, entityID, noIndexes[models.Entity],
			func(e *models.Entity) (*models.Entity, error) {
				if e == nil {
					return nil, store.ErrSkipWrite
				}
				e.GameCount++
				if e.LastGameAddedAt == nil || at.After(*e.LastGameAddedAt) {
					e.LastGameAddedAt = &at
				}
				return e, nil
			})
		if err != nil {
			return fmt.Errorf("count game on entity %s: %w", entityID, err)
		}
	}
	if !models.IsSentinelVenue(venueID) {
		_, err := update(ctx, db.store, db.tables.Venue, venueID, venueIndexes,
			func(v *models.Venue) (*models.Venue, error) {
				if v == nil {
					return nil, store.ErrSkipWrite
				}
				v.GameCount++
				if v.LastGameAddedAt == nil || at.After(*v.LastGameAddedAt) {
					v.LastGameAddedAt = &at
				}
				return v, nil
			})
		if err != nil {
			return fmt.Errorf("count game on venue %s: %w", venueID, err)
		}
	}
	return nil
}

// GetVenueDetails retrieves the aggregate record of a venue.
func (db *DB) GetVenueDetails(ctx context.Context, venueID string) (*models.VenueDetails, error) {
	d, err := get[models.VenueDetails](ctx, db.store, db.tables.VenueDetails, venueID)
	if err != nil {
		return nil, fmt.Errorf("get venue details %s: %w", venueID, err)
	}
	return d, nil
}

// UpdateVenueDetails applies fn to a venue's aggregate record atomically.
// fn receives nil when no record exists yet.
func (db *DB) UpdateVenueDetails(ctx context.Context, venueID string, fn func(*models.VenueDetails) (*models.VenueDetails, error)) (*models.VenueDetails, error) {
	d, err := update(ctx, db.store, db.tables.VenueDetails, venueID, noIndexes[models.VenueDetails], fn)
	if err != nil {
		return nil, fmt.Errorf("update venue details %s: %w", venueID, err)
	}
	return d, nil
}

// UpdateVenue applies fn to a venue atomically.
func (db *DB) UpdateVenue(ctx context.Context, venueID string, fn func(*models.Venue) (*models.Venue, error)) (*models.Venue, error) {
	v, err := update(ctx, db.store, db.tables.Venue, venueID, venueIndexes, fn)
	if err != nil {
		return nil, fmt.Errorf("update venue %s: %w", venueID, err)
	}
	return v, nil
}
