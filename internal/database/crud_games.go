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

func gameIndexes(g *models.Game) store.Indexes {
	idx := store.Indexes{
		IndexGameByEntity:        g.EntityID,
		IndexGameByRecurringGame: g.RecurringGameID,
		IndexGameBySeries:        g.TournamentSeriesID,
	}
	if !models.IsSentinelVenue(g.VenueID) {
		idx[IndexGameByVenue] = g.VenueID
	}
	return idx
}

// GetGame retrieves a game by id.
func (db *DB) GetGame(ctx context.Context, id string) (*models.Game, error) {
	g, err := get[models.Game](ctx, db.store, db.tables.Game, id)
	if err != nil {
		return nil, fmt.Errorf("get game %s: %w", id, err)
	}
	return g, nil
}

// FindGame returns the game or nil when it does not exist.
func (db *DB) FindGame(ctx context.Context, id string) (*models.Game, error) {
	g, err := db.GetGame(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return g, err
}

// PutGame writes g unconditionally and returns the stored record with its
// new version. Concurrent writers of the same game resolve last-writer-wins.
func (db *DB) PutGame(ctx context.Context, g *models.Game) (*models.Game, error) {
	stored, err := put(ctx, db.store, db.tables.Game, g.ID, g, gameIndexes(g), store.Condition{})
	if err != nil {
		return nil, fmt.Errorf("put game %s: %w", g.ID, err)
	}
	return stored, nil
}

// UpdateGame applies fn to the stored game atomically. fn receives nil when
// the game does not exist and may return store.ErrSkipWrite.
func (db *DB) UpdateGame(ctx context.Context, id string, fn func(*models.Game) (*models.Game, error)) (*models.Game, error) {
	g, err := update(ctx, db.store, db.tables.Game, id, gameIndexes, fn)
	if err != nil {
		return nil, fmt.Errorf("update game %s: %w", id, err)
	}
	return g, nil
}

// ListGamesByVenue returns every game filed under venueID.
func (db *DB) ListGamesByVenue(ctx context.Context, venueID string) ([]*models.Game, error) {
	return db.listGames(ctx, IndexGameByVenue, venueID)
}

// ListGamesByEntity returns every game of an entity.
func (db *DB) ListGamesByEntity(ctx context.Context, entityID string) ([]*models.Game, error) {
	return db.listGames(ctx, IndexGameByEntity, entityID)
}

// ListGamesByRecurringGame returns the games linked to a template.
func (db *DB) ListGamesByRecurringGame(ctx context.Context, recurringGameID string) ([]*models.Game, error) {
	return db.listGames(ctx, IndexGameByRecurringGame, recurringGameID)
}

// ListGamesBySeries returns the games linked to a tournament series.
func (db *DB) ListGamesBySeries(ctx context.Context, seriesID string) ([]*models.Game, error) {
	return db.listGames(ctx, IndexGameBySeries, seriesID)
}

func (db *DB) listGames(ctx context.Context, index, value string) ([]*models.Game, error) {
	if value == "" {
		return nil, nil
	}
	games, err := query[models.Game](ctx, db.store, store.Query{Table: db.tables.Game, Index: index, Value: value})
	if err != nil {
		return nil, fmt.Errorf("list games %s=%s: %w", index, value, err)
	}
	return games, nil
}

// ScanGames calls fn for every stored game.
func (db *DB) ScanGames(ctx context.Context, fn func(*models.Game) error) error {
	return scan(ctx, db.store, db.tables.Game, fn)
}
