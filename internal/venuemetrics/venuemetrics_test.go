// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package venuemetrics_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tomtom215/kingsroom/internal/database"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/testinfra"
	"github.com/tomtom215/kingsroom/internal/venue"
	"github.com/tomtom215/kingsroom/internal/venuemetrics"
)

func counted(venueID string, start time.Time, entries int) *models.Game {
	g := testinfra.NewGame("Thursday $5k GTD", start)
	g.VenueID = venueID
	g.TotalEntries = entries
	g.TotalInitialEntries = entries
	g.TotalUniquePlayers = entries - 2
	return g
}

func TestCompute(t *testing.T) {
	t.Parallel()
	now := testinfra.Thursday(4)
	monday := time.Date(2024, 5, 6, 19, 0, 0, 0, testinfra.Sydney)

	excludedStatus := counted("v1", testinfra.Thursday(1), 99)
	excludedStatus.GameStatus = models.GameStatusRunning
	excludedDay2 := counted("v1", testinfra.Thursday(2), 99)
	excludedDay2.DayNumber = 2
	otherVenue := counted("v2", testinfra.Thursday(2), 99)

	games := []*models.Game{
		counted("v1", testinfra.Thursday(0), 40),
		counted("v1", monday, 20),
		counted("v1", testinfra.Thursday(3), 30),
		excludedStatus, excludedDay2, otherVenue,
	}

	got := venuemetrics.Compute("v1", games, testinfra.Sydney, now, 0)
	if got.TotalGamesHeld != 3 || got.TotalEntries != 90 || got.TotalUniquePlayers != 84 {
		t.Errorf("totals = %d/%d/%d", got.TotalGamesHeld, got.TotalEntries, got.TotalUniquePlayers)
	}
	if got.AverageEntriesPerGame != 30 || got.AverageUniquePlayersPerGame != 28 {
		t.Errorf("averages = %v/%v", got.AverageEntriesPerGame, got.AverageUniquePlayersPerGame)
	}
	if diff := cmp.Diff([]string{"MONDAY", "THURSDAY"}, got.GameNights); diff != "" {
		t.Errorf("game nights (-want +got):\n%s", diff)
	}
	if !got.EarliestGameDate.Equal(testinfra.Thursday(0)) || !got.LatestGameDate.Equal(testinfra.Thursday(3)) {
		t.Errorf("range = %v..%v", got.EarliestGameDate, got.LatestGameDate)
	}
	if got.Status != models.VenueStatusActive {
		t.Errorf("status = %s, want ACTIVE", got.Status)
	}
}

func TestCompute_Status(t *testing.T) {
	t.Parallel()
	last := testinfra.Thursday(0)

	empty := venuemetrics.Compute("v1", nil, testinfra.Sydney, last, 0)
	if empty.Status != models.VenueStatusPending || empty.GameNights == nil {
		t.Errorf("empty venue = %+v, want PENDING with empty nights", empty)
	}

	stale := venuemetrics.Compute("v1", []*models.Game{counted("v1", last, 10)}, testinfra.Sydney, last.AddDate(0, 0, 91), 0)
	if stale.Status != models.VenueStatusInactive {
		t.Errorf("status after 91 days = %s, want INACTIVE", stale.Status)
	}
}

func TestApplyIncremental_AddGame(t *testing.T) {
	t.Parallel()
	earliest := testinfra.Thursday(-10)
	latest := testinfra.Thursday(-1)
	d := &models.VenueDetails{
		VenueID:               "v1",
		TotalGamesHeld:        10,
		TotalEntries:          300,
		AverageEntriesPerGame: 30,
		GameNights:            []string{"THURSDAY"},
		EarliestGameDate:      &earliest,
		LatestGameDate:        &latest,
	}
	g := counted("v1", time.Date(2024, 5, 6, 19, 0, 0, 0, testinfra.Sydney), 60)

	if ok := venuemetrics.ApplyIncremental(d, nil, g, testinfra.Sydney, testinfra.Thursday(1), 0); !ok {
		t.Fatal("insert needed a full recompute")
	}
	if d.TotalGamesHeld != 11 {
		t.Errorf("totalGamesHeld = %d, want 11", d.TotalGamesHeld)
	}
	if math.Abs(d.AverageEntriesPerGame-32.73) > 0.005 {
		t.Errorf("averageEntriesPerGame = %v, want ~32.73", d.AverageEntriesPerGame)
	}
	if diff := cmp.Diff([]string{"MONDAY", "THURSDAY"}, d.GameNights); diff != "" {
		t.Errorf("game nights (-want +got):\n%s", diff)
	}
	if !d.LatestGameDate.Equal(g.GameStartDateTime) {
		t.Errorf("latest = %v", d.LatestGameDate)
	}
}

func TestApplyIncremental_Transitions(t *testing.T) {
	t.Parallel()
	base := counted("v1", testinfra.Thursday(0), 40)

	moved := base.Clone()
	moved.VenueID = "v2"
	cancelled := base.Clone()
	cancelled.GameStatus = models.GameStatusCancelled
	rescheduled := base.Clone()
	rescheduled.GameStartDateTime = testinfra.Thursday(1)
	corrected := base.Clone()
	corrected.TotalEntries = 44

	tests := []struct {
		name     string
		old, new *models.Game
		wantOK   bool
		entries  int
	}{
		{"leaves venue", base, moved, false, 40},
		{"cancelled", base, cancelled, false, 40},
		{"removed", base, nil, false, 40},
		{"rescheduled", base, rescheduled, false, 40},
		{"count corrected", base, corrected, true, 44},
		{"never counted", cancelled, cancelled, true, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := venuemetrics.Compute("v1", []*models.Game{base}, testinfra.Sydney, testinfra.Thursday(1), 0)
			ok := venuemetrics.ApplyIncremental(d, tt.old, tt.new, testinfra.Sydney, testinfra.Thursday(1), 0)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && d.TotalEntries != tt.entries {
				t.Errorf("totalEntries = %d, want %d", d.TotalEntries, tt.entries)
			}
		})
	}
}

func TestShouldProcess(t *testing.T) {
	t.Parallel()
	stamp := testinfra.Thursday(0)
	later := stamp.Add(time.Minute)
	base := counted("v1", stamp, 40)
	base.ContentHash = "abc"
	base.DataChangedAt = &stamp

	restamped := base.Clone()
	restamped.DataChangedAt = &later
	rehashed := base.Clone()
	rehashed.ContentHash = "def"
	moved := base.Clone()
	moved.VenueID = "v2"
	finished := base.Clone()
	finished.GameStatus = models.GameStatusCancelled
	noise := base.Clone()
	noise.Version = 9
	noise.TotalRebuys = 3

	tests := []struct {
		name     string
		old, new *models.Game
		want     bool
	}{
		{"insert", nil, base, true},
		{"remove", base, nil, true},
		{"restamped", base, restamped, true},
		{"rehashed", base, rehashed, true},
		{"venue changed", base, moved, true},
		{"status changed", base, finished, true},
		{"untracked fields only", base, noise, false},
	}
	for _, tt := range tests {
		if got := venuemetrics.ShouldProcess(tt.old, tt.new); got != tt.want {
			t.Errorf("%s: ShouldProcess = %v, want %v", tt.name, got, tt.want)
		}
	}
}

type fixture struct {
	db  *database.DB
	agg *venuemetrics.Aggregator
	v1  *models.Venue
	v2  *models.Venue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testinfra.NewDB(t)
	clock := testinfra.NewClock(testinfra.Thursday(5))
	return &fixture{
		db:  db,
		agg: venuemetrics.NewAggregator(db, venue.NewResolver(db, testinfra.Sydney), 0, clock.Now),
		v1:  testinfra.SeedVenue(t, db, testinfra.EntityID, "Star Poker Room"),
		v2:  testinfra.SeedVenue(t, db, testinfra.EntityID, "Crown Poker Room"),
	}
}

func (f *fixture) put(t *testing.T, g *models.Game) *models.Game {
	t.Helper()
	stored, err := f.db.PutGame(context.Background(), g)
	if err != nil {
		t.Fatalf("PutGame: %v", err)
	}
	return stored
}

func TestAggregator_HandleChange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	a := f.put(t, counted(f.v1.ID, testinfra.Thursday(0), 40))
	if err := f.agg.HandleChange(ctx, nil, a); err != nil {
		t.Fatalf("HandleChange insert: %v", err)
	}
	d, err := f.db.GetVenueDetails(ctx, f.v1.ID)
	if err != nil {
		t.Fatalf("GetVenueDetails: %v", err)
	}
	if d.TotalGamesHeld != 1 || d.Status != models.VenueStatusActive {
		t.Fatalf("after insert = %+v", d)
	}

	b := f.put(t, counted(f.v1.ID, testinfra.Thursday(1), 60))
	if err := f.agg.HandleChange(ctx, nil, b); err != nil {
		t.Fatalf("HandleChange second insert: %v", err)
	}
	if d, _ = f.db.GetVenueDetails(ctx, f.v1.ID); d.TotalGamesHeld != 2 || d.AverageEntriesPerGame != 50 {
		t.Errorf("after second insert = %d games @ %v", d.TotalGamesHeld, d.AverageEntriesPerGame)
	}

	moved := b.Clone()
	moved.VenueID = f.v2.ID
	moved = f.put(t, moved)
	if err := f.agg.HandleChange(ctx, b, moved); err != nil {
		t.Fatalf("HandleChange move: %v", err)
	}

	d1, err := f.db.GetVenueDetails(ctx, f.v1.ID)
	if err != nil {
		t.Fatalf("GetVenueDetails v1: %v", err)
	}
	if d1.TotalGamesHeld != 1 || d1.TotalEntries != 40 {
		t.Errorf("v1 after move = %d games, %d entries", d1.TotalGamesHeld, d1.TotalEntries)
	}
	d2, err := f.db.GetVenueDetails(ctx, f.v2.ID)
	if err != nil {
		t.Fatalf("GetVenueDetails v2: %v", err)
	}
	if d2.TotalGamesHeld != 1 || d2.TotalEntries != 60 {
		t.Errorf("v2 after move = %d games, %d entries", d2.TotalGamesHeld, d2.TotalEntries)
	}

	v2, err := f.db.GetVenue(ctx, f.v2.ID)
	if err != nil {
		t.Fatalf("GetVenue: %v", err)
	}
	if v2.Status != models.VenueStatusActive {
		t.Errorf("venue status = %s, want ACTIVE", v2.Status)
	}
}

func TestAggregator_RecomputeEntity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	f.put(t, counted(f.v1.ID, testinfra.Thursday(0), 40))
	f.put(t, counted(f.v2.ID, testinfra.Thursday(0), 20))

	n, err := f.agg.RecomputeEntity(ctx, testinfra.EntityID)
	if err != nil {
		t.Fatalf("RecomputeEntity: %v", err)
	}
	if n != 2 {
		t.Errorf("recomputed %d venues, want 2", n)
	}
	for _, id := range []string{f.v1.ID, f.v2.ID} {
		d, err := f.db.GetVenueDetails(ctx, id)
		if err != nil {
			t.Fatalf("GetVenueDetails %s: %v", id, err)
		}
		if d.TotalGamesHeld != 1 || d.EntityID != testinfra.EntityID {
			t.Errorf("%s = %+v", id, d)
		}
	}
}
