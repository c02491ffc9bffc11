// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package enrichment_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/tomtom215/kingsroom/internal/database"
	"github.com/tomtom215/kingsroom/internal/enrichment"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/recurring"
	"github.com/tomtom215/kingsroom/internal/series"
	"github.com/tomtom215/kingsroom/internal/testinfra"
)

type fixture struct {
	db    *database.DB
	o     *enrichment.Orchestrator
	clock *testinfra.Clock
	venue *models.Venue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testinfra.NewDB(t)
	testinfra.SeedEntity(t, db, testinfra.EntityID)
	clock := testinfra.NewClock(testinfra.Thursday(0).Add(6 * time.Hour))

	cfg := enrichment.DefaultConfig()
	cfg.Location = testinfra.Sydney
	return &fixture{
		db:    db,
		o:     enrichment.New(db, cfg, clock.Now),
		clock: clock,
		venue: testinfra.SeedVenue(t, db, testinfra.EntityID, "Star Poker Room"),
	}
}

func (f *fixture) game(name string, start time.Time) *models.Game {
	g := testinfra.NewGame(name, start)
	g.VenueID = f.venue.ID
	g.BuyIn = 150
	g.Rake = 30
	g.TotalEntries = 40
	g.TotalInitialEntries = 36
	g.TotalUniquePlayers = 33
	g.HasGuarantee = true
	g.GuaranteeAmount = 5000
	g.PrizepoolPaid = 5000
	return g
}

func (f *fixture) enrich(t *testing.T, g *models.Game, opts enrichment.Options) *enrichment.Result {
	t.Helper()
	res, err := f.o.Enrich(context.Background(), enrichment.Input{Game: *g, Options: opts})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	return res
}

func preview() enrichment.Options {
	opts := enrichment.DefaultOptions()
	opts.SaveToDatabase = false
	return opts
}

func TestEnrich_CommitWritesEverything(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	g := f.game("Thursday $5k GTD", testinfra.Thursday(0))

	res := f.enrich(t, g, enrichment.DefaultOptions())
	if !res.Success || !res.Validation.IsValid {
		t.Fatalf("result = %+v, want success", res)
	}
	md := res.Metadata
	if md.Persistence.Status != enrichment.StepSaved {
		t.Errorf("persistence = %s, want SAVED", md.Persistence.Status)
	}
	if md.Recurring.Status != recurring.StatusCreatedNew {
		t.Errorf("recurring = %s, want CREATED_NEW", md.Recurring.Status)
	}
	if md.Series.Status != series.StatusNotSeries {
		t.Errorf("series = %s, want NOT_SERIES", md.Series.Status)
	}

	got := res.EnrichedGame
	if got.GameDayOfWeek != "THURSDAY" || got.BuyInBucket != "0200" {
		t.Errorf("query keys = %s/%s", got.GameDayOfWeek, got.BuyInBucket)
	}
	if want := f.venue.ID + "#THURSDAY#1930"; got.VenueScheduleKey != want {
		t.Errorf("venueScheduleKey = %q, want %q", got.VenueScheduleKey, want)
	}
	if got.ContentHash == "" || got.DataChangedAt == nil || !got.DataChangedAt.Equal(f.clock.Now()) {
		t.Errorf("markers = %q/%v", got.ContentHash, got.DataChangedAt)
	}
	if got.Version != 1 || got.GameVariant != models.VariantNLHE {
		t.Errorf("version/variant = %d/%s", got.Version, got.GameVariant)
	}

	stored, err := f.db.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if stored.RecurringGameID != md.Recurring.RecurringGameID || stored.ContentHash != got.ContentHash {
		t.Errorf("stored linkage = %s/%s", stored.RecurringGameID, stored.ContentHash)
	}

	tmpl, err := f.db.GetRecurringGame(ctx, stored.RecurringGameID)
	if err != nil {
		t.Fatalf("GetRecurringGame: %v", err)
	}
	if tmpl.TotalInstancesRun != 1 || tmpl.BaselineBuyIn != 150 || tmpl.BaselineGuarantee != 5000 {
		t.Errorf("template = %+v", tmpl)
	}

	snap, cost, err := f.db.GetFinancials(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetFinancials: %v", err)
	}
	if snap.RakeRevenue != 1200 || cost.TotalDealerCost != 600 {
		t.Errorf("financials = %v/%v", snap.RakeRevenue, cost.TotalDealerCost)
	}

	v, err := f.db.GetVenue(ctx, f.venue.ID)
	if err != nil {
		t.Fatalf("GetVenue: %v", err)
	}
	if v.GameCount != 1 {
		t.Errorf("venue game count = %d, want 1", v.GameCount)
	}
}

func TestEnrich_ReplayIsUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	g := f.game("Thursday $5k GTD", testinfra.Thursday(0))

	first := f.enrich(t, g, enrichment.DefaultOptions())
	f.clock.Advance(time.Hour)
	second := f.enrich(t, g, enrichment.DefaultOptions())

	if second.Metadata.Persistence.Status != enrichment.StepUnchanged {
		t.Fatalf("replay persistence = %s, want UNCHANGED", second.Metadata.Persistence.Status)
	}
	if second.EnrichedGame.ContentHash != first.EnrichedGame.ContentHash {
		t.Errorf("hash changed on replay")
	}
	if !second.EnrichedGame.DataChangedAt.Equal(*first.EnrichedGame.DataChangedAt) {
		t.Errorf("dataChangedAt moved to %v", second.EnrichedGame.DataChangedAt)
	}

	stored, err := f.db.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if stored.Version != 1 {
		t.Errorf("stored version = %d, want 1", stored.Version)
	}
	tmpl, err := f.db.GetRecurringGame(ctx, stored.RecurringGameID)
	if err != nil {
		t.Fatalf("GetRecurringGame: %v", err)
	}
	if tmpl.TotalInstancesRun != 1 || len(tmpl.RecentBuyIns) != 1 {
		t.Errorf("template counted %d/%d times", tmpl.TotalInstancesRun, len(tmpl.RecentBuyIns))
	}
	v, err := f.db.GetVenue(ctx, f.venue.ID)
	if err != nil {
		t.Fatalf("GetVenue: %v", err)
	}
	if v.GameCount != 1 {
		t.Errorf("venue game count = %d, want 1", v.GameCount)
	}
}

func TestEnrich_PreviewWritesNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	g := f.game("Thursday $5k GTD", testinfra.Thursday(0))

	prev := f.enrich(t, g, preview())
	if !prev.Success || prev.Metadata.Persistence.Status != enrichment.StepSkipped {
		t.Fatalf("preview = %+v", prev.Metadata.Persistence)
	}
	if prev.EnrichedGame.DataChangedAt != nil {
		t.Errorf("preview stamped dataChangedAt")
	}

	if stored, err := f.db.FindGame(ctx, g.ID); err != nil || stored != nil {
		t.Fatalf("FindGame = %v, %v; want nothing stored", stored, err)
	}
	templates, err := f.db.ListRecurringGamesByVenueDay(ctx, testinfra.EntityID, f.venue.ID, "THURSDAY")
	if err != nil {
		t.Fatalf("ListRecurringGamesByVenueDay: %v", err)
	}
	if len(templates) != 0 {
		t.Errorf("preview created %d templates", len(templates))
	}

	commit := f.enrich(t, g, enrichment.DefaultOptions())
	ignore := cmpopts.IgnoreFields(models.Game{}, "DataChangedAt", "Version", "LastChangedAt")
	if diff := cmp.Diff(prev.EnrichedGame, commit.EnrichedGame, ignore); diff != "" {
		t.Errorf("preview and commit disagree (-preview +commit):\n%s", diff)
	}
}

func TestEnrich_Deterministic(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	seed := f.game("Thursday $5k GTD", testinfra.Thursday(0))
	f.enrich(t, seed, enrichment.DefaultOptions())

	g := f.game("Thursday 5k gtd", testinfra.Thursday(1))
	a := f.enrich(t, g, preview())
	b := f.enrich(t, g, preview())

	opts := cmp.Options{
		cmpopts.IgnoreFields(enrichment.Metadata{}, "ProcessingTimeMs"),
		cmpopts.IgnoreUnexported(recurring.Candidate{}),
	}
	if diff := cmp.Diff(a, b, opts); diff != "" {
		t.Errorf("enrichment not deterministic (-first +second):\n%s", diff)
	}
	if a.Metadata.Recurring.Status != recurring.StatusMatchedExisting || a.Metadata.Recurring.Confidence < 0.9 {
		t.Errorf("recurring = %s @ %v, want MATCHED_EXISTING >= 0.9",
			a.Metadata.Recurring.Status, a.Metadata.Recurring.Confidence)
	}
}

func TestEnrich_FatalValidationStops(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	g := f.game("Thursday $5k GTD", testinfra.Thursday(0))
	g.EntityID = ""
	g.TotalEntries = -1

	res := f.enrich(t, g, enrichment.DefaultOptions())
	if res.Success || res.Validation.IsValid {
		t.Fatalf("result = %+v, want invalid", res.Validation)
	}
	fields := map[string]bool{}
	for _, e := range res.Validation.Errors {
		if !e.Fatal {
			t.Errorf("error %+v not fatal", e)
		}
		fields[e.Field] = true
	}
	if !fields["game.entityId"] || !fields["game.totalEntries"] {
		t.Errorf("error fields = %v", fields)
	}
	if res.Metadata.Venue.Status != "" {
		t.Errorf("venue step ran after fatal validation")
	}
	if stored, _ := f.db.FindGame(ctx, g.ID); stored != nil {
		t.Errorf("invalid game was stored")
	}
}

func TestEnrich_StatusWarnings(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	tests := []struct {
		raw  string
		want models.GameStatus
	}{
		{"COMPLETED", models.GameStatusFinished},
		{"in_progress", models.GameStatusRunning},
		{"BOGUS", models.GameStatusUnknown},
	}
	for _, tt := range tests {
		g := f.game("Thursday $5k GTD", testinfra.Thursday(0))
		g.GameStatus = models.GameStatus(tt.raw)
		res := f.enrich(t, g, preview())
		if !res.Validation.IsValid {
			t.Errorf("%s: invalid: %+v", tt.raw, res.Validation.Errors)
		}
		if res.EnrichedGame.GameStatus != tt.want {
			t.Errorf("%s: status = %s, want %s", tt.raw, res.EnrichedGame.GameStatus, tt.want)
		}
		found := false
		for _, w := range res.Validation.Warnings {
			if w.Field == "gameStatus" && !w.Fatal {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: no gameStatus warning in %+v", tt.raw, res.Validation.Warnings)
		}
	}
}

func TestEnrich_RelinkMovesStatistics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	g := f.game("Thursday $5k GTD", testinfra.Thursday(0))

	first := f.enrich(t, g, enrichment.DefaultOptions())
	oldID := first.EnrichedGame.RecurringGameID

	g.Name = "Thursday PLO Bounty"
	g.BuyIn = 400
	g.HasGuarantee = false
	g.GuaranteeAmount = 0
	second := f.enrich(t, g, enrichment.DefaultOptions())
	newID := second.EnrichedGame.RecurringGameID

	if newID == "" || newID == oldID {
		t.Fatalf("relink ids = %q -> %q", oldID, newID)
	}
	old, err := f.db.GetRecurringGame(ctx, oldID)
	if err != nil {
		t.Fatalf("GetRecurringGame old: %v", err)
	}
	if old.TotalInstancesRun != 0 || len(old.RecentBuyIns) != 0 {
		t.Errorf("old template still counts the game: %d/%d", old.TotalInstancesRun, len(old.RecentBuyIns))
	}
	moved, err := f.db.GetRecurringGame(ctx, newID)
	if err != nil {
		t.Fatalf("GetRecurringGame new: %v", err)
	}
	if moved.TotalInstancesRun != 1 || moved.GameVariant != models.VariantPLO {
		t.Errorf("new template = %d runs, %s", moved.TotalInstancesRun, moved.GameVariant)
	}

	v, err := f.db.GetVenue(ctx, f.venue.ID)
	if err != nil {
		t.Fatalf("GetVenue: %v", err)
	}
	if v.GameCount != 1 {
		t.Errorf("re-enrichment counted the game twice on the venue: %d", v.GameCount)
	}
}

func TestEnrich_SeriesGameIsNotRecurring(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	g := f.game("Event 3 Day 1A", testinfra.Thursday(0))
	g.IsSeries = true
	g.SeriesName = "Sydney Millions"
	g.EventNumber, g.DayNumber, g.FlightLetter = 3, 1, "A"

	res := f.enrich(t, g, enrichment.DefaultOptions())
	if res.Metadata.Series.Status != series.StatusCreatedNew {
		t.Fatalf("series = %+v", res.Metadata.Series)
	}
	if res.Metadata.Recurring.Status != recurring.StatusNotRecurring {
		t.Errorf("recurring = %s, want NOT_RECURRING", res.Metadata.Recurring.Status)
	}
	if res.EnrichedGame.RecurringGameAssignmentStatus != models.AssignmentNotRecurring {
		t.Errorf("assignment = %s", res.EnrichedGame.RecurringGameAssignmentStatus)
	}
	s, err := f.db.FindSeries(ctx, res.Metadata.Series.SeriesID)
	if err != nil || s == nil {
		t.Fatalf("FindSeries = %v, %v; want the created series", s, err)
	}
	if res.EnrichedGame.TournamentSeriesID != s.ID {
		t.Errorf("game series = %q, want %q", res.EnrichedGame.TournamentSeriesID, s.ID)
	}
}

func TestEnrich_SkipOptions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	g := f.game("Thursday $5k GTD", testinfra.Thursday(0))

	opts := preview()
	opts.SkipSeriesResolution = true
	opts.SkipRecurringResolution = true
	opts.SkipFinancials = true
	opts.SkipQueryKeys = true
	res := f.enrich(t, g, opts)

	md := res.Metadata
	if md.Series.Status != series.StatusSkipped || md.Recurring.Status != recurring.StatusSkipped {
		t.Errorf("resolver statuses = %s/%s", md.Series.Status, md.Recurring.Status)
	}
	if md.Financials.Status != enrichment.StepSkipped || md.QueryKeys.Status != enrichment.StepSkipped {
		t.Errorf("step statuses = %s/%s", md.Financials.Status, md.QueryKeys.Status)
	}
	if res.Financials != nil || res.EnrichedGame.BuyInBucket != "" || res.EnrichedGame.RecurringGameID != "" {
		t.Errorf("skipped steps still produced output: %+v", res.EnrichedGame)
	}
}

func TestEnrich_DeferredVenueStillEnriches(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	g := f.game("Thursday $5k GTD", testinfra.Thursday(0))
	g.VenueID = ""
	g.VenueName = "Somewhere Unknown"

	res := f.enrich(t, g, preview())
	if res.Metadata.Venue.Status != "DEFERRED" {
		t.Fatalf("venue = %+v", res.Metadata.Venue)
	}
	if res.EnrichedGame.VenueID != models.UnassignedVenueID || res.EnrichedGame.VenueScheduleKey != "" {
		t.Errorf("venue fields = %q/%q", res.EnrichedGame.VenueID, res.EnrichedGame.VenueScheduleKey)
	}
	if res.Metadata.Recurring.Status != recurring.StatusCreatedNew || !res.Success {
		t.Errorf("recurring = %s, success = %v", res.Metadata.Recurring.Status, res.Success)
	}
}
