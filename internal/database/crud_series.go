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

func seriesIndexes(s *models.TournamentSeries) store.Indexes {
	idx := store.Indexes{}
	if s.SeriesTitleID != "" {
		idx[IndexSeriesByEntityTitleYear] = compositeKey(s.EntityID, s.SeriesTitleID, yearKey(s.Year))
	}
	if s.NormalizedName != "" {
		idx[IndexSeriesByEntityVenueNameYear] = compositeKey(s.EntityID, s.VenueID, s.NormalizedName, yearKey(s.Year))
	}
	return idx
}

func seriesTitleIndexes(t *models.TournamentSeriesTitle) store.Indexes {
	return store.Indexes{IndexSeriesTitleByEntityName: compositeKey(t.EntityID, lowerKey(t.Title))}
}

// GetSeries retrieves a tournament series.
func (db *DB) GetSeries(ctx context.Context, id string) (*models.TournamentSeries, error) {
	s, err := get[models.TournamentSeries](ctx, db.store, db.tables.TournamentSeries, id)
	if err != nil {
		return nil, fmt.Errorf("get series %s: %w", id, err)
	}
	return s, nil
}

// FindSeries returns the series or nil when it does not exist.
func (db *DB) FindSeries(ctx context.Context, id string) (*models.TournamentSeries, error) {
	s, err := db.GetSeries(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return s, err
}

// CreateSeriesIfAbsent stores s unless its id already exists.
func (db *DB) CreateSeriesIfAbsent(ctx context.Context, s *models.TournamentSeries) (*models.TournamentSeries, bool, error) {
	stored, created, err := createIfAbsent(ctx, db.store, db.tables.TournamentSeries, s.ID, s, seriesIndexes(s))
	if err != nil {
		return nil, false, fmt.Errorf("create series %s: %w", s.ID, err)
	}
	return stored, created, nil
}

// UpdateSeries applies fn to a series atomically.
func (db *DB) UpdateSeries(ctx context.Context, id string, fn func(*models.TournamentSeries) (*models.TournamentSeries, error)) (*models.TournamentSeries, error) {
	s, err := update(ctx, db.store, db.tables.TournamentSeries, id, seriesIndexes, fn)
	if err != nil {
		return nil, fmt.Errorf("update series %s: %w", id, err)
	}
	return s, nil
}

// FindSeriesByTitleYear returns the series of a title in a year, or nil.
func (db *DB) FindSeriesByTitleYear(ctx context.Context, entityID, titleID string, year int) (*models.TournamentSeries, error) {
	return db.findOneSeries(ctx, IndexSeriesByEntityTitleYear, compositeKey(entityID, titleID, yearKey(year)))
}

// FindSeriesByVenueNameYear returns the series with a normalized name at a venue in a year, or nil.
func (db *DB) FindSeriesByVenueNameYear(ctx context.Context, entityID, venueID, normalizedName string, year int) (*models.TournamentSeries, error) {
	return db.findOneSeries(ctx, IndexSeriesByEntityVenueNameYear, compositeKey(entityID, venueID, normalizedName, yearKey(year)))
}

// findOneSeries returns the lowest-id match so repeated lookups agree.
func (db *DB) findOneSeries(ctx context.Context, index, value string) (*models.TournamentSeries, error) {
	out, err := query[models.TournamentSeries](ctx, db.store, store.Query{Table: db.tables.TournamentSeries, Index: index, Value: value})
	if err != nil {
		return nil, fmt.Errorf("find series %s=%s: %w", index, value, err)
	}
	var best *models.TournamentSeries
	for _, s := range out {
		if best == nil || s.ID < best.ID {
			best = s
		}
	}
	return best, nil
}

// GetSeriesTitle retrieves a series title.
func (db *DB) GetSeriesTitle(ctx context.Context, id string) (*models.TournamentSeriesTitle, error) {
	t, err := get[models.TournamentSeriesTitle](ctx, db.store, db.tables.TournamentSeriesTitle, id)
	if err != nil {
		return nil, fmt.Errorf("get series title %s: %w", id, err)
	}
	return t, nil
}

// PutSeriesTitle writes a series title.
func (db *DB) PutSeriesTitle(ctx context.Context, t *models.TournamentSeriesTitle) (*models.TournamentSeriesTitle, error) {
	stored, err := put(ctx, db.store, db.tables.TournamentSeriesTitle, t.ID, t, seriesTitleIndexes(t), store.Condition{})
	if err != nil {
		return nil, fmt.Errorf("put series title %s: %w", t.ID, err)
	}
	return stored, nil
}

// FindSeriesTitleByName returns the entity's title named name, ignoring case, or nil.
func (db *DB) FindSeriesTitleByName(ctx context.Context, entityID, name string) (*models.TournamentSeriesTitle, error) {
	out, err := query[models.TournamentSeriesTitle](ctx, db.store, store.Query{
		Table: db.tables.TournamentSeriesTitle,
		Index: IndexSeriesTitleByEntityName,
		Value: compositeKey(entityID, lowerKey(name)),
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("find series title %q: %w", name, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}
