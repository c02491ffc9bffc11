// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

// Package series resolves which tournament series a game belongs to.
//
// Resolve only reads. A series that must be created or whose date range must
// grow is carried on the Resolution and written by Commit, so preview and
// commit enrichment reach the same answer.
package series

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/kingsroom/internal/database"
	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/metrics"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/normalize"
)

// Status is the outcome of series resolution.
type Status string

const (
	StatusNotSeries       Status = "NOT_SERIES"
	StatusMatchedExisting Status = "MATCHED_EXISTING"
	StatusCreatedNew      Status = "CREATED_NEW"
	StatusNoMatch         Status = "NO_MATCH"
	StatusSkipped         Status = "SKIPPED"
	StatusFailed          Status = "FAILED"
)

// Match reasons.
const (
	ReasonExplicitID = "explicit_id"
	ReasonTitleYear  = "title_year"
	ReasonNameYear   = "venue_name_year"
	ReasonCreated    = "created_from_game"
)

// namespace seeds deterministic series ids.
var namespace = uuid.MustParse("6f1c2a0e-3b5d-5c8e-9a47-2d0b8e61f3a9")

// EventInfo is the per-game position inside a series.
type EventInfo struct {
	EventNumber  int    `json:"eventNumber,omitempty"`
	DayNumber    int    `json:"dayNumber,omitempty"`
	FlightLetter string `json:"flightLetter,omitempty"`
	FinalDay     bool   `json:"finalDay"`
	IsMultiDay   bool   `json:"isMultiDay"`
}

// Resolution is the series decision for one game.
type Resolution struct {
	Status        Status    `json:"status"`
	SeriesID      string    `json:"seriesId,omitempty"`
	SeriesTitleID string    `json:"seriesTitleId,omitempty"`
	SeriesName    string    `json:"seriesName,omitempty"`
	Year          int       `json:"year,omitempty"`
	Confidence    float64   `json:"confidence"`
	MatchReason   string    `json:"matchReason,omitempty"`
	Diagnostic    string    `json:"diagnostic,omitempty"`
	Event         EventInfo `json:"event"`

	// Pending is a series to create at commit.
	Pending *models.TournamentSeries `json:"-"`
	// Extend carries the game instant when a matched series must widen its dates.
	Extend *time.Time `json:"-"`
}

// Options control resolution.
type Options struct {
	AutoCreate bool
	Skip       bool
}

// Resolver matches games to series.
type Resolver struct {
	db *database.DB
}

// NewResolver returns a Resolver over db.
func NewResolver(db *database.DB) *Resolver {
	return &Resolver{db: db}
}

// SeriesID derives the id of a series from its identifying fields.
func SeriesID(entityID, titleID, venueID, normalizedName string, year int) string {
	key := strings.Join([]string{"series", entityID, titleID, venueID, normalizedName, strconv.Itoa(year)}, "|")
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// Resolve decides the series of g. loc dates the game for its series year.
func (r *Resolver) Resolve(ctx context.Context, g *models.Game, loc *time.Location, opts Options) Resolution {
	res := r.resolve(ctx, g, loc, opts)
	metrics.RecordResolverOutcome("series", string(res.Status))
	logging.Ctx(ctx).Debug().
		Str("game_id", g.ID).
		Str("entity_id", g.EntityID).
		Str("series_id", res.SeriesID).
		Str("status", string(res.Status)).
		Str("reason", res.MatchReason).
		Msg("Series resolved")
	return res
}

func (r *Resolver) resolve(ctx context.Context, g *models.Game, loc *time.Location, opts Options) Resolution {
	if opts.Skip {
		return Resolution{Status: StatusSkipped}
	}
	if !g.IsSeries && !g.HasSeriesFields() {
		return Resolution{Status: StatusNotSeries}
	}
	if loc == nil {
		loc = time.UTC
	}

	event := EventInfo{
		EventNumber:  g.EventNumber,
		DayNumber:    g.DayNumber,
		FlightLetter: g.FlightLetter,
		FinalDay:     g.FinalDay,
		IsMultiDay:   IsMultiDay(g),
	}
	year := g.GameStartDateTime.In(loc).Year()

	if g.TournamentSeriesID != "" {
		s, err := r.db.FindSeries(ctx, g.TournamentSeriesID)
		if err != nil {
			return failure(event, err)
		}
		if s != nil && s.EntityID == g.EntityID {
			return matched(s, g, event, 1.0, ReasonExplicitID)
		}
		logging.Ctx(ctx).Warn().Str("game_id", g.ID).Str("series_id", g.TournamentSeriesID).
			Bool("found", s != nil).Msg("Explicit series unusable, searching")
	}

	titleID := g.SeriesTitleID
	name := strings.TrimSpace(g.SeriesName)
	if titleID != "" && name == "" {
		title, err := r.db.GetSeriesTitle(ctx, titleID)
		if err == nil {
			name = title.Title
		}
	}
	if titleID == "" && name != "" {
		title, err := r.db.FindSeriesTitleByName(ctx, g.EntityID, name)
		if err != nil {
			return failure(event, err)
		}
		if title != nil {
			titleID = title.ID
		}
	}

	if titleID != "" {
		s, err := r.db.FindSeriesByTitleYear(ctx, g.EntityID, titleID, year)
		if err != nil {
			return failure(event, err)
		}
		if s != nil {
			return matched(s, g, event, 0.95, ReasonTitleYear)
		}
	}

	normalized := normalize.SeriesName(name)
	venueID := g.VenueID
	if models.IsSentinelVenue(venueID) {
		venueID = ""
	}
	if normalized != "" {
		s, err := r.db.FindSeriesByVenueNameYear(ctx, g.EntityID, venueID, normalized, year)
		if err != nil {
			return failure(event, err)
		}
		if s != nil {
			return matched(s, g, event, 0.85, ReasonNameYear)
		}
	}

	if titleID == "" && normalized == "" {
		return Resolution{
			Status:     StatusNoMatch,
			Year:       year,
			Event:      event,
			Diagnostic: "series game without a series title or name",
		}
	}
	if !opts.AutoCreate {
		return Resolution{Status: StatusNoMatch, SeriesTitleID: titleID, SeriesName: name, Year: year, Event: event}
	}

	if name == "" {
		name = normalized
	}
	start := g.GameStartDateTime.UTC()
	pending := &models.TournamentSeries{
		ID:             SeriesID(g.EntityID, titleID, venueID, normalized, year),
		EntityID:       g.EntityID,
		VenueID:        venueID,
		SeriesTitleID:  titleID,
		Name:           displayName(name, year),
		NormalizedName: normalized,
		Year:           year,
		StartDate:      start,
		EndDate:        start,
	}
	return Resolution{
		Status:        StatusCreatedNew,
		SeriesID:      pending.ID,
		SeriesTitleID: titleID,
		SeriesName:    pending.Name,
		Year:          year,
		Confidence:    1.0,
		MatchReason:   ReasonCreated,
		Event:         event,
		Pending:       pending,
	}
}

// displayName appends the year unless the name already carries it.
func displayName(name string, year int) string {
	y := strconv.Itoa(year)
	if strings.Contains(name, y) {
		return name
	}
	return name + " " + y
}

func matched(s *models.TournamentSeries, g *models.Game, event EventInfo, confidence float64, reason string) Resolution {
	res := Resolution{
		Status:        StatusMatchedExisting,
		SeriesID:      s.ID,
		SeriesTitleID: s.SeriesTitleID,
		SeriesName:    s.Name,
		Year:          s.Year,
		Confidence:    confidence,
		MatchReason:   reason,
		Event:         event,
	}
	start := g.GameStartDateTime.UTC()
	if !start.IsZero() && (start.Before(s.StartDate) || start.After(s.EndDate)) {
		res.Extend = &start
	}
	return res
}

func failure(event EventInfo, err error) Resolution {
	return Resolution{Status: StatusFailed, Event: event, Diagnostic: err.Error()}
}

// Apply copies the series linkage of res onto g.
func Apply(g *models.Game, res Resolution) {
	switch res.Status {
	case StatusMatchedExisting, StatusCreatedNew:
		g.TournamentSeriesID = res.SeriesID
		if res.SeriesTitleID != "" {
			g.SeriesTitleID = res.SeriesTitleID
		}
		g.IsSeries = true
	}
}

// Commit writes what Resolve deferred: a new series, or a wider date range
// on a matched one. A concurrent creator of the same series wins silently.
func (r *Resolver) Commit(ctx context.Context, res *Resolution) error {
	switch {
	case res.Pending != nil:
		stored, created, err := r.db.CreateSeriesIfAbsent(ctx, res.Pending)
		if err != nil {
			return fmt.Errorf("create series: %w", err)
		}
		if !created {
			logging.Ctx(ctx).Debug().Str("series_id", stored.ID).Msg("Series already created concurrently")
			return r.extend(ctx, stored.ID, res.Pending.StartDate)
		}
		return nil
	case res.Extend != nil:
		return r.extend(ctx, res.SeriesID, *res.Extend)
	}
	return nil
}

func (r *Resolver) extend(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.UpdateSeries(ctx, id, func(s *models.TournamentSeries) (*models.TournamentSeries, error) {
		if s == nil {
			return nil, fmt.Errorf("series %s vanished", id)
		}
		changed := false
		if at.Before(s.StartDate) {
			s.StartDate = at
			changed = true
		}
		if at.After(s.EndDate) {
			s.EndDate = at
			changed = true
		}
		if !changed {
			return nil, nil
		}
		return s, nil
	})
	if err != nil {
		return fmt.Errorf("extend series %s: %w", id, err)
	}
	return nil
}
