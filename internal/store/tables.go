// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingTableSuffix is returned when table names cannot be derived.
var ErrMissingTableSuffix = errors.New("store: table name suffix is required")

// Tables holds the per-environment names of every table the pipeline touches.
type Tables struct {
	Game                  string
	Venue                 string
	Entity                string
	RecurringGame         string
	RecurringGameInstance string
	TournamentSeries      string
	TournamentSeriesTitle string
	GameFinancialSnapshot string
	GameCost              string
	VenueDetails          string
}

// NewTables derives table names as "<Base>-<suffix>".
func NewTables(suffix string) (Tables, error) {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		return Tables{}, ErrMissingTableSuffix
	}
	name := func(base string) string {
		return fmt.Sprintf("%s-%s", base, suffix)
	}
	return Tables{
		Game:                  name("Game"),
		Venue:                 name("Venue"),
		Entity:                name("Entity"),
		RecurringGame:         name("RecurringGame"),
		RecurringGameInstance: name("RecurringGameInstance"),
		TournamentSeries:      name("TournamentSeries"),
		TournamentSeriesTitle: name("TournamentSeriesTitle"),
		GameFinancialSnapshot: name("GameFinancialSnapshot"),
		GameCost:              name("GameCost"),
		VenueDetails:          name("VenueDetails"),
	}, nil
}

// IsGameTable reports whether table is t's Game table.
func (t Tables) IsGameTable(table string) bool {
	return table == t.Game
}
