// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

// Package venue resolves which venue hosts a game and which games count
// toward a venue's aggregates.
package venue

import (
	"context"
	"sort"
	"time"

	"github.com/tomtom215/kingsroom/internal/database"
	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/metrics"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/normalize"
	"github.com/tomtom215/kingsroom/internal/series"
)

// Resolution statuses.
const (
	StatusMatched  = "MATCHED"
	StatusDeferred = "DEFERRED"
	StatusFailed   = "FAILED"
)

// Match reasons.
const (
	ReasonExplicitID           = "explicit_id"
	ReasonExplicitIDUnverified = "explicit_id_unverified"
	ReasonPriorAssignment      = "prior_assignment"
	ReasonNameMatch            = "name_match"
	ReasonNormalizedNameMatch  = "normalized_name_match"
	ReasonNoEvidence           = "no_venue_evidence"
)

// Resolution is the venue chosen for a game.
type Resolution struct {
	Status      string  `json:"status"`
	VenueID     string  `json:"venueId,omitempty"`
	VenueName   string  `json:"venueName,omitempty"`
	Confidence  float64 `json:"confidence"`
	MatchReason string  `json:"matchReason"`
	Diagnostic  string  `json:"diagnostic,omitempty"`

	// Venue is the loaded record when one was found.
	Venue *models.Venue `json:"-"`
}

// Resolver maps games to venues. It only reads.
type Resolver struct {
	db          *database.DB
	defaultZone *time.Location
}

// NewResolver returns a Resolver that dates games in zone unless the venue sets its own.
func NewResolver(db *database.DB, zone *time.Location) *Resolver {
	if zone == nil {
		zone = time.UTC
	}
	return &Resolver{db: db, defaultZone: zone}
}

// Location returns the zone games at v are dated in.
func (r *Resolver) Location(v *models.Venue) *time.Location {
	if v == nil || v.Timezone == "" {
		return r.defaultZone
	}
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		logging.Warn().Str("venue_id", v.ID).Str("timezone", v.Timezone).Err(err).
			Msg("Invalid venue timezone, using default")
		return r.defaultZone
	}
	return loc
}

// DefaultLocation returns the deployment zone.
func (r *Resolver) DefaultLocation() *time.Location {
	return r.defaultZone
}

// Resolve picks the venue of g. prior is the stored version of g, if any.
// Evidence is tried in order: explicit id, prior assignment, exact name
// within the entity, then suffix-insensitive name or alias. Without evidence
// the venue is deferred and downstream resolvers run unconstrained.
func (r *Resolver) Resolve(ctx context.Context, g, prior *models.Game) Resolution {
	res := r.resolve(ctx, g, prior)
	metrics.RecordResolverOutcome("venue", res.Status)
	logging.Ctx(ctx).Debug().
		Str("game_id", g.ID).
		Str("entity_id", g.EntityID).
		Str("venue_id", res.VenueID).
		Str("status", res.Status).
		Str("reason", res.MatchReason).
		Msg("Venue resolved")
	return res
}

func (r *Resolver) resolve(ctx context.Context, g, prior *models.Game) Resolution {
	if !models.IsSentinelVenue(g.VenueID) {
		v, err := r.db.FindVenue(ctx, g.VenueID)
		if err != nil {
			return failed(err)
		}
		switch {
		case v != nil && v.EntityID == g.EntityID:
			return matched(v, 1.0, ReasonExplicitID)
		case v == nil:
			// The ingester may reference a venue before it is stored.
			return Resolution{
				Status:      StatusMatched,
				VenueID:     g.VenueID,
				VenueName:   g.VenueName,
				Confidence:  0.6,
				MatchReason: ReasonExplicitIDUnverified,
			}
		default:
			logging.Ctx(ctx).Warn().Str("game_id", g.ID).Str("venue_id", v.ID).
				Str("game_entity", g.EntityID).Str("venue_entity", v.EntityID).
				Msg("Explicit venue belongs to another entity, ignoring")
		}
	}

	if g.VenueName == "" && prior != nil && !models.IsSentinelVenue(prior.VenueID) {
		v, err := r.db.FindVenue(ctx, prior.VenueID)
		if err != nil {
			return failed(err)
		}
		if v != nil && v.EntityID == g.EntityID {
			return matched(v, 0.9, ReasonPriorAssignment)
		}
	}

	if g.VenueName != "" {
		exact, err := r.db.FindVenuesByName(ctx, g.EntityID, g.VenueName)
		if err != nil {
			return failed(err)
		}
		if v := lowestID(exact); v != nil {
			return matched(v, 0.95, ReasonNameMatch)
		}

		all, err := r.db.ListVenuesByEntity(ctx, g.EntityID)
		if err != nil {
			return failed(err)
		}
		want := normalize.VenueName(g.VenueName)
		var hits []*models.Venue
		for _, v := range all {
			if venueNameMatches(v, want) {
				hits = append(hits, v)
			}
		}
		if v := lowestID(hits); v != nil {
			return matched(v, 0.85, ReasonNormalizedNameMatch)
		}
	}

	return Resolution{
		Status:      StatusDeferred,
		VenueID:     models.UnassignedVenueID,
		VenueName:   g.VenueName,
		MatchReason: ReasonNoEvidence,
	}
}

func venueNameMatches(v *models.Venue, want string) bool {
	if want == "" {
		return false
	}
	if normalize.VenueName(v.Name) == want {
		return true
	}
	for _, alias := range v.Aliases {
		if normalize.VenueName(alias) == want {
			return true
		}
	}
	return false
}

func lowestID(venues []*models.Venue) *models.Venue {
	if len(venues) == 0 {
		return nil
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i].ID < venues[j].ID })
	return venues[0]
}

func matched(v *models.Venue, confidence float64, reason string) Resolution {
	return Resolution{
		Status:      StatusMatched,
		VenueID:     v.ID,
		VenueName:   v.Name,
		Confidence:  confidence,
		MatchReason: reason,
		Venue:       v,
	}
}

func failed(err error) Resolution {
	return Resolution{
		Status:     StatusFailed,
		VenueID:    models.UnassignedVenueID,
		Diagnostic: err.Error(),
	}
}

// ShouldCountForVenue reports whether g contributes to its venue's aggregates:
// finished, not part of a multi-day event, and filed under a real venue.
func ShouldCountForVenue(g *models.Game) bool {
	if g == nil {
		return false
	}
	return g.GameStatus == models.GameStatusFinished &&
		!series.IsMultiDay(g) &&
		!models.IsSentinelVenue(g.VenueID)
}
