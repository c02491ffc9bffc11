// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package database_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/store"
	"github.com/tomtom215/kingsroom/internal/testinfra"
)

func TestGames_IndexesFollowLinks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testinfra.NewDB(t)

	g := testinfra.NewGame("Thursday $5k GTD", testinfra.Thursday(0))
	g.VenueID = "venue-a"
	g.RecurringGameID = "tmpl-1"
	stored, err := db.PutGame(ctx, g)
	if err != nil {
		t.Fatalf("PutGame: %v", err)
	}
	if stored.Version != 1 {
		t.Errorf("version = %d, want 1", stored.Version)
	}

	byVenue, err := db.ListGamesByVenue(ctx, "venue-a")
	if err != nil || len(byVenue) != 1 {
		t.Fatalf("ListGamesByVenue = %d, %v", len(byVenue), err)
	}

	// Re-link to another template and move venue; old index entries must go.
	_, err = db.UpdateGame(ctx, g.ID, func(cur *models.Game) (*models.Game, error) {
		cur.RecurringGameID = "tmpl-2"
		cur.VenueID = "venue-b"
		return cur, nil
	})
	if err != nil {
		t.Fatalf("UpdateGame: %v", err)
	}
	for _, tc := range []struct {
		list func(context.Context, string) ([]*models.Game, error)
		arg  string
		want int
	}{
		{db.ListGamesByVenue, "venue-a", 0},
		{db.ListGamesByVenue, "venue-b", 1},
		{db.ListGamesByRecurringGame, "tmpl-1", 0},
		{db.ListGamesByRecurringGame, "tmpl-2", 1},
		{db.ListGamesByEntity, testinfra.EntityID, 1},
	} {
		got, err := tc.list(ctx, tc.arg)
		if err != nil {
			t.Fatalf("list %s: %v", tc.arg, err)
		}
		if len(got) != tc.want {
			t.Errorf("list %s = %d games, want %d", tc.arg, len(got), tc.want)
		}
	}
}

func TestGames_SentinelVenueNotIndexed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testinfra.NewDB(t)

	g := testinfra.NewGame("Mystery game", testinfra.Thursday(0))
	g.VenueID = models.UnassignedVenueID
	if _, err := db.PutGame(ctx, g); err != nil {
		t.Fatalf("PutGame: %v", err)
	}
	got, err := db.ListGamesByVenue(ctx, models.UnassignedVenueID)
	if err != nil {
		t.Fatalf("ListGamesByVenue: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("sentinel venue indexed %d games", len(got))
	}
}

func TestFindGame_Missing(t *testing.T) {
	t.Parallel()
	db := testinfra.NewDB(t)

	g, err := db.FindGame(context.Background(), "nope")
	if err != nil || g != nil {
		t.Errorf("FindGame = %v, %v; want nil, nil", g, err)
	}
	if _, err := db.GetGame(context.Background(), "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetGame err = %v, want ErrNotFound", err)
	}
}

func TestVenues_FindByNameIgnoresCase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testinfra.NewDB(t)

	v := testinfra.SeedVenue(t, db, "e1", "Penrith Panthers")
	testinfra.SeedVenue(t, db, "e2", "Penrith Panthers")

	got, err := db.FindVenuesByName(ctx, "e1", "  PENRITH panthers ")
	if err != nil {
		t.Fatalf("FindVenuesByName: %v", err)
	}
	if len(got) != 1 || got[0].ID != v.ID {
		t.Errorf("FindVenuesByName = %+v, want only %s", got, v.ID)
	}
}

func TestRecordGameAdded(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testinfra.NewDB(t)

	testinfra.SeedEntity(t, db, "e1")
	v := testinfra.SeedVenue(t, db, "e1", "Star")
	at := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

	if err := db.RecordGameAdded(ctx, "e1", v.ID, at); err != nil {
		t.Fatalf("RecordGameAdded: %v", err)
	}
	if err := db.RecordGameAdded(ctx, "e1", v.ID, at.Add(-time.Hour)); err != nil {
		t.Fatalf("RecordGameAdded: %v", err)
	}
	if err := db.RecordGameAdded(ctx, "missing-entity", models.UnassignedVenueID, at); err != nil {
		t.Fatalf("RecordGameAdded on missing records: %v", err)
	}

	e, err := db.GetEntity(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if e.GameCount != 2 || !e.LastGameAddedAt.Equal(at) {
		t.Errorf("entity = %d games, last %v", e.GameCount, e.LastGameAddedAt)
	}
	venue, err := db.GetVenue(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if venue.GameCount != 2 {
		t.Errorf("venue game count = %d", venue.GameCount)
	}
}

func TestRecurringGames_CreateIfAbsentConverges(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testinfra.NewDB(t)

	const workers = 6
	var wg sync.WaitGroup
	created := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r := &models.RecurringGame{
				ID:           "tmpl-1",
				EntityID:     "e1",
				VenueID:      "v1",
				DayOfWeek:    "THURSDAY",
				Name:         "Thursday $5k GTD",
				IsActive:     true,
				TypicalBuyIn: float64(100 + i),
			}
			_, ok, err := db.CreateRecurringGameIfAbsent(ctx, r)
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			created <- ok
		}(i)
	}
	wg.Wait()
	close(created)

	wins := 0
	for ok := range created {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Errorf("%d creators won, want exactly 1", wins)
	}

	byVenue, err := db.ListRecurringGamesByVenueDay(ctx, "e1", "v1", "THURSDAY")
	if err != nil || len(byVenue) != 1 {
		t.Fatalf("by venue/day = %d, %v", len(byVenue), err)
	}
	byDay, err := db.ListRecurringGamesByEntityDay(ctx, "e1", "THURSDAY")
	if err != nil || len(byDay) != 1 {
		t.Fatalf("by entity/day = %d, %v", len(byDay), err)
	}
	all, err := db.ListRecurringGamesByEntity(ctx, "e1")
	if err != nil || len(all) != 1 {
		t.Fatalf("by entity = %d, %v", len(all), err)
	}
}

func TestUpdateRecurringGame_SkipWrite(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testinfra.NewDB(t)

	r, err := db.PutRecurringGame(ctx, &models.RecurringGame{ID: "t1", EntityID: "e1", DayOfWeek: "MONDAY"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := db.UpdateRecurringGame(ctx, "t1", func(*models.RecurringGame) (*models.RecurringGame, error) {
		return nil, store.ErrSkipWrite
	})
	if err != nil {
		t.Fatalf("UpdateRecurringGame: %v", err)
	}
	if got.Version != r.Version {
		t.Errorf("version moved from %d to %d on skipped write", r.Version, got.Version)
	}
}

func TestInstances_StatusIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testinfra.NewDB(t)

	for _, inst := range []*models.RecurringGameInstance{
		{ID: "i2", RecurringGameID: "t1", EntityID: "e1", ExpectedDate: "2024-05-09", Status: models.InstanceExpected},
		{ID: "i1", RecurringGameID: "t1", EntityID: "e1", ExpectedDate: "2024-05-02", Status: models.InstanceExpected},
		{ID: "i3", RecurringGameID: "t1", EntityID: "e1", ExpectedDate: "2024-05-16", Status: models.InstanceConfirmed},
	} {
		if _, _, err := db.CreateInstanceIfAbsent(ctx, inst); err != nil {
			t.Fatal(err)
		}
	}

	expected, err := db.ListInstancesByStatus(ctx, models.InstanceExpected)
	if err != nil {
		t.Fatal(err)
	}
	if len(expected) != 2 || expected[0].ID != "i1" || expected[1].ID != "i2" {
		t.Errorf("expected instances = %+v, want i1, i2 in date order", expected)
	}

	_, err = db.UpdateInstance(ctx, "i1", func(cur *models.RecurringGameInstance) (*models.RecurringGameInstance, error) {
		cur.Status = models.InstanceMissed
		return cur, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	expected, _ = db.ListInstancesByStatus(ctx, models.InstanceExpected)
	if len(expected) != 1 {
		t.Errorf("after update %d EXPECTED, want 1", len(expected))
	}

	found, err := db.FindInstanceByDate(ctx, "t1", "2024-05-16")
	if err != nil || found == nil || found.ID != "i3" {
		t.Errorf("FindInstanceByDate = %v, %v", found, err)
	}
	all, _ := db.ListInstancesByTemplate(ctx, "t1")
	if len(all) != 3 {
		t.Errorf("ListInstancesByTemplate = %d", len(all))
	}
}

func TestSeries_Lookups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testinfra.NewDB(t)

	s := &models.TournamentSeries{
		ID:             "s1",
		EntityID:       "e1",
		VenueID:        "v1",
		SeriesTitleID:  "title-1",
		Name:           "Sydney Millions 2024",
		NormalizedName: "sydney millions",
		Year:           2024,
	}
	if _, created, err := db.CreateSeriesIfAbsent(ctx, s); err != nil || !created {
		t.Fatalf("CreateSeriesIfAbsent = %v, %v", created, err)
	}
	if _, created, _ := db.CreateSeriesIfAbsent(ctx, s); created {
		t.Error("second create reported created")
	}

	byTitle, err := db.FindSeriesByTitleYear(ctx, "e1", "title-1", 2024)
	if err != nil || byTitle == nil {
		t.Fatalf("FindSeriesByTitleYear = %v, %v", byTitle, err)
	}
	byName, err := db.FindSeriesByVenueNameYear(ctx, "e1", "v1", "sydney millions", 2024)
	if err != nil || byName == nil {
		t.Fatalf("FindSeriesByVenueNameYear = %v, %v", byName, err)
	}
	other, err := db.FindSeriesByTitleYear(ctx, "e1", "title-1", 2023)
	if err != nil || other != nil {
		t.Errorf("other year = %v, %v", other, err)
	}

	if _, err := db.PutSeriesTitle(ctx, &models.TournamentSeriesTitle{ID: "title-1", EntityID: "e1", Title: "Sydney Millions"}); err != nil {
		t.Fatal(err)
	}
	title, err := db.FindSeriesTitleByName(ctx, "e1", "sydney MILLIONS")
	if err != nil || title == nil || title.ID != "title-1" {
		t.Errorf("FindSeriesTitleByName = %v, %v", title, err)
	}
}

func TestFinancials_RoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testinfra.NewDB(t)

	margin := -1.625
	snap := &models.GameFinancialSnapshot{GameID: "g1", EntityID: "e1", VenueID: "v1", TotalCost: 4200, ProfitMargin: &margin}
	cost := &models.GameCost{GameID: "g1", EntityID: "e1", VenueID: "v1", TotalCost: 4200}
	if err := db.WriteFinancials(ctx, snap, cost); err != nil {
		t.Fatalf("WriteFinancials: %v", err)
	}

	gotSnap, gotCost, err := db.GetFinancials(ctx, "g1")
	if err != nil {
		t.Fatal(err)
	}
	if gotSnap.TotalCost != 4200 || *gotSnap.ProfitMargin != margin || gotCost.TotalCost != 4200 {
		t.Errorf("round trip = %+v / %+v", gotSnap, gotCost)
	}
	byVenue, err := db.ListSnapshotsByVenue(ctx, "v1")
	if err != nil || len(byVenue) != 1 {
		t.Errorf("ListSnapshotsByVenue = %d, %v", len(byVenue), err)
	}

	none, noCost, err := db.GetFinancials(ctx, "missing")
	if err != nil || none != nil || noCost != nil {
		t.Errorf("missing financials = %v, %v, %v", none, noCost, err)
	}
}
