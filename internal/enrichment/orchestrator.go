// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package enrichment

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/kingsroom/internal/database"
	"github.com/tomtom215/kingsroom/internal/financials"
	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/metrics"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/recurring"
	"github.com/tomtom215/kingsroom/internal/series"
	"github.com/tomtom215/kingsroom/internal/venue"
)

// Step statuses used in metadata.
const (
	StepCompleted = "COMPLETED"
	StepSkipped   = "SKIPPED"
	StepFailed    = "FAILED"
	StepSaved     = "SAVED"
	StepUnchanged = "UNCHANGED"
)

const (
	modePreview = "preview"
	modeCommit  = "commit"

	outcomeSuccess   = "success"
	outcomeDegraded  = "degraded"
	outcomeInvalid   = "invalid"
	outcomeUnchanged = "unchanged"
	outcomeFailed    = "failed"
)

// Options select which steps run and whether the result is persisted.
type Options struct {
	SaveToDatabase          bool `json:"saveToDatabase"`
	AutoCreateSeries        bool `json:"autoCreateSeries"`
	AutoCreateRecurring     bool `json:"autoCreateRecurring"`
	SkipSeriesResolution    bool `json:"skipSeriesResolution"`
	SkipRecurringResolution bool `json:"skipRecurringResolution"`
	SkipFinancials          bool `json:"skipFinancials"`
	SkipQueryKeys           bool `json:"skipQueryKeys"`
}

// DefaultOptions persists and lets both resolvers create records.
func DefaultOptions() Options {
	return Options{
		SaveToDatabase:      true,
		AutoCreateSeries:    true,
		AutoCreateRecurring: true,
	}
}

// Input is one enrichment request.
type Input struct {
	Game       models.Game       `json:"game"`
	VenueCosts *financials.Costs `json:"venueCosts,omitempty"`
	Options    Options           `json:"options"`
}

// StepStatus is the metadata of a step without a resolver of its own.
type StepStatus struct {
	Status     string   `json:"status"`
	Diagnostic string   `json:"diagnostic,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Metadata describes how each step went.
type Metadata struct {
	Venue            venue.Resolution     `json:"venue"`
	Series           series.Resolution    `json:"series"`
	Recurring        recurring.Resolution `json:"recurring"`
	QueryKeys        StepStatus           `json:"queryKeys"`
	Financials       StepStatus           `json:"financials"`
	Persistence      StepStatus           `json:"persistence"`
	Warnings         []string             `json:"warnings,omitempty"`
	ProcessingTimeMs int64                `json:"processingTimeMs"`
}

// Result is the outcome of one enrichment.
type Result struct {
	Success      bool               `json:"success"`
	Validation   Validation         `json:"validation"`
	EnrichedGame *models.Game       `json:"enrichedGame,omitempty"`
	Financials   *financials.Result `json:"financials,omitempty"`
	Metadata     Metadata           `json:"enrichmentMetadata"`
}

// Config holds the deployment settings of the pipeline.
type Config struct {
	// Location dates games at venues without their own timezone.
	Location           *time.Location
	DealerRatePerEntry float64
	Recurring          recurring.Config
}

// DefaultConfig returns production settings dated in UTC.
func DefaultConfig() Config {
	return Config{
		Location:           time.UTC,
		DealerRatePerEntry: financials.DefaultDealerRatePerEntry,
		Recurring:          recurring.DefaultConfig(),
	}
}

// Orchestrator runs enrichments. It is safe for concurrent use.
type Orchestrator struct {
	db        *database.DB
	venues    *venue.Resolver
	series    *series.Resolver
	recurring *recurring.Resolver
	calc      *financials.Calculator
	now       func() time.Time
}

// New wires the resolvers over db. now stamps snapshots and dataChangedAt.
func New(db *database.DB, cfg Config, now func() time.Time) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	rc := cfg.Recurring
	if rc.Location == nil {
		rc.Location = cfg.Location
	}
	return &Orchestrator{
		db:        db,
		venues:    venue.NewResolver(db, cfg.Location),
		series:    series.NewResolver(db),
		recurring: recurring.NewResolver(db, rc, now),
		calc:      financials.NewCalculator(cfg.DealerRatePerEntry),
		now:       now,
	}
}

// Recurring exposes the template resolver for maintenance jobs.
func (o *Orchestrator) Recurring() *recurring.Resolver {
	return o.recurring
}

// Venues exposes the venue resolver for maintenance jobs.
func (o *Orchestrator) Venues() *venue.Resolver {
	return o.venues
}

// Enrich runs the pipeline on in.Game. The returned error is set only when a
// commit could not load or persist the game; the result is still returned.
func (o *Orchestrator) Enrich(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	opts := in.Options
	mode := modePreview
	if opts.SaveToDatabase {
		mode = modeCommit
	}

	g := in.Game.Clone()
	res := &Result{EnrichedGame: g}
	res.Validation = validate(&in, g)
	if !res.Validation.IsValid {
		return o.finish(res, mode, outcomeInvalid, start), nil
	}

	log := logging.Ctx(ctx).With().Str("game_id", g.ID).Str("entity_id", g.EntityID).Str("mode", mode).Logger()

	prior, err := o.db.FindGame(ctx, g.ID)
	if err != nil {
		if opts.SaveToDatabase {
			res.Metadata.Persistence = StepStatus{Status: StepFailed, Diagnostic: err.Error()}
			o.finish(res, mode, outcomeFailed, start)
			return res, fmt.Errorf("load game %s: %w", g.ID, err)
		}
		log.Warn().Err(err).Msg("Stored game unavailable, previewing without it")
		res.Metadata.Warnings = append(res.Metadata.Warnings, "stored game unavailable: "+err.Error())
	}

	vres := o.venues.Resolve(ctx, g, prior)
	res.Metadata.Venue = vres
	applyVenue(g, vres)
	loc := o.venues.Location(vres.Venue)

	sres := o.series.Resolve(ctx, g, loc, series.Options{
		AutoCreate: opts.AutoCreateSeries,
		Skip:       opts.SkipSeriesResolution,
	})
	res.Metadata.Series = sres
	series.Apply(g, sres)

	rres := o.recurring.Resolve(ctx, g, prior, loc, recurring.Options{
		AutoCreate: opts.AutoCreateRecurring,
		Skip:       opts.SkipRecurringResolution,
	})
	res.Metadata.Recurring = rres
	recurring.Apply(g, rres)

	if opts.SkipQueryKeys {
		res.Metadata.QueryKeys = StepStatus{Status: StepSkipped}
	} else {
		g.GameDayOfWeek, g.BuyInBucket, g.VenueScheduleKey = QueryKeys(g, loc)
		res.Metadata.QueryKeys = StepStatus{Status: StepCompleted}
	}

	if opts.SkipFinancials {
		res.Metadata.Financials = StepStatus{Status: StepSkipped}
	} else {
		fin := o.calc.Calculate(g, in.VenueCosts, o.now())
		res.Financials = &fin
		res.Metadata.Financials = StepStatus{Status: StepCompleted, Warnings: fin.Snapshot.Warnings}
	}

	for _, step := range []struct{ name, diagnostic string }{
		{"venue", failure(vres.Status == venue.StatusFailed, vres.Diagnostic)},
		{"series", failure(sres.Status == series.StatusFailed, sres.Diagnostic)},
		{"recurring", failure(rres.Status == recurring.StatusFailed, rres.Diagnostic)},
	} {
		if step.diagnostic != "" {
			res.Metadata.Warnings = append(res.Metadata.Warnings, step.name+": "+step.diagnostic)
		}
	}
	outcome := outcomeSuccess
	if len(res.Metadata.Warnings) > 0 {
		outcome = outcomeDegraded
	}

	hash, err := ContentHash(g, res.Financials)
	if err != nil {
		log.Warn().Err(err).Msg("Content hash failed")
	}
	g.ContentHash = hash

	if !opts.SaveToDatabase {
		res.Metadata.Persistence = StepStatus{Status: StepSkipped}
		res.Success = true
		return o.finish(res, mode, outcome, start), nil
	}

	if unchanged(prior, hash, &sres, &rres) {
		g.DataChangedAt = prior.Clone().DataChangedAt
		g.Version = prior.Version
		g.LastChangedAt = prior.LastChangedAt
		res.Metadata.Persistence = StepStatus{Status: StepUnchanged}
		res.Success = true
		metrics.RecordWriteSkipped()
		log.Debug().Str("content_hash", hash).Msg("Content unchanged, write skipped")
		return o.finish(res, mode, outcomeUnchanged, start), nil
	}

	stored, err := o.persist(ctx, g, prior, &sres, &rres, loc, res.Financials)
	if err != nil {
		res.Metadata.Persistence = StepStatus{Status: StepFailed, Diagnostic: err.Error()}
		log.Error().Err(err).Msg("Enrichment persistence failed")
		o.finish(res, mode, outcomeFailed, start)
		return res, err
	}
	res.EnrichedGame = stored
	res.Metadata.Persistence = StepStatus{Status: StepSaved}
	res.Success = true
	log.Debug().Int64("version", stored.Version).Str("content_hash", hash).Msg("Enriched game saved")
	return o.finish(res, mode, outcome, start), nil
}

// persist writes in dependency order: series, template, game, financials,
// counters. A failure leaves earlier writes in place; replaying the same
// game converges because every step is idempotent by game id.
func (o *Orchestrator) persist(ctx context.Context, g, prior *models.Game, sres *series.Resolution,
	rres *recurring.Resolution, loc *time.Location, fin *financials.Result) (*models.Game, error) {
	if err := o.series.Commit(ctx, sres); err != nil {
		return nil, fmt.Errorf("commit series: %w", err)
	}
	if err := o.recurring.Commit(ctx, g, prior, rres, loc); err != nil {
		return nil, fmt.Errorf("commit recurring game: %w", err)
	}

	now := o.now().UTC()
	g.DataChangedAt = &now
	stored, err := o.db.PutGame(ctx, g)
	if err != nil {
		return nil, err
	}

	if fin != nil {
		if err := o.db.WriteFinancials(ctx, fin.Snapshot, fin.Cost); err != nil {
			return stored, fmt.Errorf("write financials: %w", err)
		}
	}
	// A game counts once, on its first enrichment; raw ingester writes leave
	// a prior without a content hash.
	if prior == nil || prior.ContentHash == "" {
		if err := o.db.RecordGameAdded(ctx, g.EntityID, g.VenueID, now); err != nil {
			return stored, err
		}
	}
	return stored, nil
}

func (o *Orchestrator) finish(res *Result, mode, outcome string, start time.Time) *Result {
	d := time.Since(start)
	res.Metadata.ProcessingTimeMs = d.Milliseconds()
	metrics.RecordEnrichment(mode, outcome, d)
	return res
}

// unchanged reports whether a commit would rewrite identical content. Pending
// records force a write so a template or series deleted out of band is recreated.
func unchanged(prior *models.Game, hash string, sres *series.Resolution, rres *recurring.Resolution) bool {
	return prior != nil && hash != "" && prior.ContentHash == hash &&
		sres.Pending == nil && rres.Pending == nil
}

// applyVenue copies the venue decision onto g. A failed lookup keeps the
// ingested values.
func applyVenue(g *models.Game, res venue.Resolution) {
	switch res.Status {
	case venue.StatusMatched:
		g.VenueID = res.VenueID
		if res.VenueName != "" {
			g.VenueName = res.VenueName
		}
	case venue.StatusDeferred:
		g.VenueID = models.UnassignedVenueID
	}
}

func failure(failed bool, diagnostic string) string {
	if !failed {
		return ""
	}
	if diagnostic == "" {
		return "failed"
	}
	return diagnostic
}
