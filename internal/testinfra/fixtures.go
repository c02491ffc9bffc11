// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package testinfra

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/kingsroom/internal/database"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/store"
)

// EntityID is the entity used by fixtures unless a test overrides it.
const EntityID = "entity-kings"

// Sydney is the deployment venue zone.
var Sydney = mustLoad("Australia/Sydney")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// NewStore opens an in-memory store closed at test cleanup.
func NewStore(tb testing.TB) *store.BadgerStore {
	tb.Helper()
	s, err := store.OpenInMemory()
	if err != nil {
		tb.Fatalf("open in-memory store: %v", err)
	}
	tb.Cleanup(func() { _ = s.Close() })
	return s
}

// Tables returns the table names used by fixtures.
func Tables(tb testing.TB) store.Tables {
	tb.Helper()
	tables, err := store.NewTables("test")
	if err != nil {
		tb.Fatalf("tables: %v", err)
	}
	return tables
}

// NewDB returns a database over a fresh in-memory store.
func NewDB(tb testing.TB) *database.DB {
	tb.Helper()
	return database.New(NewStore(tb), Tables(tb))
}

var seq atomic.Int64

// SeedVenue stores a venue of entityID and returns it.
func SeedVenue(tb testing.TB, db *database.DB, entityID, name string) *models.Venue {
	tb.Helper()
	v := &models.Venue{
		ID:       fmt.Sprintf("venue-%d", seq.Add(1)),
		EntityID: entityID,
		Name:     name,
		Status:   models.VenueStatusPending,
	}
	stored, err := db.PutVenue(context.Background(), v)
	if err != nil {
		tb.Fatalf("seed venue: %v", err)
	}
	return stored
}

// SeedEntity stores an entity and returns it.
func SeedEntity(tb testing.TB, db *database.DB, id string) *models.Entity {
	tb.Helper()
	stored, err := db.PutEntity(context.Background(), &models.Entity{ID: id, Name: id})
	if err != nil {
		tb.Fatalf("seed entity: %v", err)
	}
	return stored
}

// Thursday returns 7:30pm Sydney time on the Thursday weeks after 2 May 2024.
func Thursday(weeks int) time.Time {
	return time.Date(2024, 5, 2, 19, 30, 0, 0, Sydney).AddDate(0, 0, 7*weeks)
}

// NewGame returns a finished game of EntityID starting at start.
func NewGame(name string, start time.Time) *models.Game {
	return &models.Game{
		ID:                fmt.Sprintf("game-%d", seq.Add(1)),
		EntityID:          EntityID,
		Name:              name,
		GameStartDateTime: start.UTC(),
		GameStatus:        models.GameStatusFinished,
	}
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock set to now.
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
