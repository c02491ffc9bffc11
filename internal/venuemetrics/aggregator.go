// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package venuemetrics

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/kingsroom/internal/database"
	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/metrics"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/venue"
)

// Recompute modes, also used as metric labels.
const (
	ModeFull        = "full"
	ModeIncremental = "incremental"
)

// Aggregator keeps VenueDetails current as games change.
type Aggregator struct {
	db           *database.DB
	venues       *venue.Resolver
	activeWindow time.Duration
	now          func() time.Time
}

// NewAggregator returns an Aggregator. venues supplies each venue's zone for
// game-night naming.
func NewAggregator(db *database.DB, venues *venue.Resolver, activeWindow time.Duration, now func() time.Time) *Aggregator {
	if activeWindow <= 0 {
		activeWindow = DefaultActiveWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{db: db, venues: venues, activeWindow: activeWindow, now: now}
}

// ShouldProcess is the change gate: an event matters only when it changed
// the enrichment stamp, the content, the venue or the status. Inserts and
// removals always pass.
func ShouldProcess(oldGame, newGame *models.Game) bool {
	if oldGame == nil || newGame == nil {
		return true
	}
	return !sameInstant(oldGame.DataChangedAt, newGame.DataChangedAt) ||
		oldGame.ContentHash != newGame.ContentHash ||
		oldGame.VenueID != newGame.VenueID ||
		oldGame.GameStatus != newGame.GameStatus
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// TouchedVenues returns the real venues referenced by either image, old first.
func TouchedVenues(oldGame, newGame *models.Game) []string {
	var out []string
	for _, g := range []*models.Game{oldGame, newGame} {
		if g == nil || models.IsSentinelVenue(g.VenueID) {
			continue
		}
		if len(out) == 1 && out[0] == g.VenueID {
			continue
		}
		out = append(out, g.VenueID)
	}
	return out
}

// HandleChange updates every venue the change touches, incrementally when
// possible.
func (a *Aggregator) HandleChange(ctx context.Context, oldGame, newGame *models.Game) error {
	for _, venueID := range TouchedVenues(oldGame, newGame) {
		was, is := Transition(venueID, oldGame, newGame)
		if !was && !is {
			continue
		}
		if err := a.applyChange(ctx, venueID, oldGame, newGame); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aggregator) applyChange(ctx context.Context, venueID string, oldGame, newGame *models.Game) error {
	v, err := a.db.FindVenue(ctx, venueID)
	if err != nil {
		return err
	}
	loc := a.venues.Location(v)
	now := a.now().UTC()

	full := false
	stored, err := a.db.UpdateVenueDetails(ctx, venueID, func(cur *models.VenueDetails) (*models.VenueDetails, error) {
		full = cur == nil || !ApplyIncremental(cur, oldGame, newGame, loc, now, a.activeWindow)
		if full {
			return nil, nil
		}
		return cur, nil
	})
	if err != nil {
		return err
	}
	if full {
		_, err := a.recompute(ctx, venueID, v)
		return err
	}

	metrics.RecordVenueMetricsRecompute(ModeIncremental)
	logging.Ctx(ctx).Debug().
		Str("venue_id", venueID).
		Int("total_games_held", stored.TotalGamesHeld).
		Msg("Venue metrics updated incrementally")
	return a.syncStatus(ctx, venueID, stored.Status)
}

// Recompute rebuilds the aggregates of venueID from all of its games.
func (a *Aggregator) Recompute(ctx context.Context, venueID string) (*models.VenueDetails, error) {
	v, err := a.db.FindVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	return a.recompute(ctx, venueID, v)
}

func (a *Aggregator) recompute(ctx context.Context, venueID string, v *models.Venue) (*models.VenueDetails, error) {
	games, err := a.db.ListGamesByVenue(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("list games of venue %s: %w", venueID, err)
	}
	now := a.now().UTC()
	d := Compute(venueID, games, a.venues.Location(v), now, a.activeWindow)
	if d.EntityID == "" && v != nil {
		d.EntityID = v.EntityID
	}
	d.LastRecomputedAt = now

	stored, err := a.db.UpdateVenueDetails(ctx, venueID, func(*models.VenueDetails) (*models.VenueDetails, error) {
		return d, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordVenueMetricsRecompute(ModeFull)
	logging.Ctx(ctx).Debug().
		Str("venue_id", venueID).
		Int("games", len(games)).
		Int("total_games_held", stored.TotalGamesHeld).
		Str("status", string(stored.Status)).
		Msg("Venue metrics recomputed")
	return stored, a.syncStatus(ctx, venueID, stored.Status)
}

// RecomputeEntity runs a full recomputation for every venue of entityID.
func (a *Aggregator) RecomputeEntity(ctx context.Context, entityID string) (int, error) {
	venues, err := a.db.ListVenuesByEntity(ctx, entityID)
	if err != nil {
		return 0, err
	}
	for i, v := range venues {
		if _, err := a.recompute(ctx, v.ID, v); err != nil {
			return i, err
		}
	}
	return len(venues), nil
}

// syncStatus mirrors the activity status onto the venue record.
func (a *Aggregator) syncStatus(ctx context.Context, venueID string, status models.VenueStatus) error {
	_, err := a.db.UpdateVenue(ctx, venueID, func(v *models.Venue) (*models.Venue, error) {
		if v == nil || v.Status == status {
			return nil, nil
		}
		v.Status = status
		return v, nil
	})
	return err
}
