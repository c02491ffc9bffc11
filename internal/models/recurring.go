// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// DefaultEvolutionWindow is the history length used when a template has none set.
const DefaultEvolutionWindow = 12

// HistoryEntry is one game's contribution to a rolling history.
type HistoryEntry struct {
	Value  float64 `json:"value"`
	GameID string  `json:"gameId"`
	Date   string  `json:"date"`
}

// History is a bounded, date-ascending sequence of entries. It is persisted
// as a JSON-encoded string so that the stored attribute stays a scalar.
type History []HistoryEntry

// MarshalJSON encodes the history as a JSON string holding the array.
func (h History) MarshalJSON() ([]byte, error) {
	entries := []HistoryEntry(h)
	if entries == nil {
		entries = []HistoryEntry{}
	}
	inner, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(inner))
}

// UnmarshalJSON accepts either the string encoding or a bare array.
func (h *History) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*h = nil
		return nil
	}
	if data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if inner == "" {
			*h = nil
			return nil
		}
		data = []byte(inner)
	}
	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	*h = entries
	return nil
}

// Contains reports whether gameID has an entry.
func (h History) Contains(gameID string) bool {
	for _, e := range h {
		if e.GameID == gameID {
			return true
		}
	}
	return false
}

// RecurringGame is a template for a game that repeats on a schedule.
type RecurringGame struct {
	ID             string      `json:"id"`
	EntityID       string      `json:"entityId"`
	VenueID        string      `json:"venueId,omitempty"`
	Name           string      `json:"name"`
	NormalizedName string      `json:"normalizedName"`
	GameVariant    GameVariant `json:"gameVariant"`
	Frequency      Frequency   `json:"frequency"`
	DayOfWeek      string      `json:"dayOfWeek"`
	IsActive       bool        `json:"isActive"`

	TypicalBuyIn     float64 `json:"typicalBuyIn"`
	TypicalGuarantee float64 `json:"typicalGuarantee"`

	BaselineBuyIn     float64    `json:"baselineBuyIn"`
	BaselineGuarantee float64    `json:"baselineGuarantee"`
	BaselineDate      *time.Time `json:"baselineDate,omitempty"`

	AverageBuyIn     float64 `json:"averageBuyIn"`
	AverageGuarantee float64 `json:"averageGuarantee"`
	AverageEntries   float64 `json:"averageEntries"`
	BuyInTrend       Trend   `json:"buyInTrend"`
	GuaranteeTrend   Trend   `json:"guaranteeTrend"`
	EntriesTrend     Trend   `json:"entriesTrend"`

	RecentBuyIns     History `json:"recentBuyIns"`
	RecentGuarantees History `json:"recentGuarantees"`
	RecentEntries    History `json:"recentEntries"`
	RecentGameCount  int     `json:"recentGameCount"`
	EvolutionWindow  int     `json:"evolutionWindow"`

	FirstGameDate     *time.Time `json:"firstGameDate,omitempty"`
	LastGameDate      *time.Time `json:"lastGameDate,omitempty"`
	TotalInstancesRun int        `json:"totalInstancesRun"`

	CreatedAt time.Time `json:"createdAt"`

	Version       int64     `json:"_version"`
	LastChangedAt time.Time `json:"_lastChangedAt"`
}

// Window returns the configured evolution window or the default.
func (r *RecurringGame) Window() int {
	if r.EvolutionWindow <= 0 {
		return DefaultEvolutionWindow
	}
	return r.EvolutionWindow
}

// RecurringGameInstance is one scheduled occurrence of a template.
type RecurringGameInstance struct {
	ID              string         `json:"id"`
	RecurringGameID string         `json:"recurringGameId"`
	VenueID         string         `json:"venueId,omitempty"`
	EntityID        string         `json:"entityId"`
	ExpectedDate    string         `json:"expectedDate"`
	DayOfWeek       string         `json:"dayOfWeek"`
	WeekKey         string         `json:"weekKey"`
	Status          InstanceStatus `json:"status"`
	GameID          string         `json:"gameId,omitempty"`

	Version       int64     `json:"_version"`
	LastChangedAt time.Time `json:"_lastChangedAt"`
}
