// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package models

import "time"

// Entity is a scraping source (one poker site).
type Entity struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	GameCount       int        `json:"gameCount"`
	VenueCount      int        `json:"venueCount"`
	LastGameAddedAt *time.Time `json:"lastGameAddedAt,omitempty"`

	Version       int64     `json:"_version"`
	LastChangedAt time.Time `json:"_lastChangedAt"`
}

// Venue is a physical location under an entity.
type Venue struct {
	ID              string      `json:"id"`
	EntityID        string      `json:"entityId"`
	Name            string      `json:"name"`
	Aliases         []string    `json:"aliases,omitempty"`
	Logo            string      `json:"logo,omitempty"`
	Timezone        string      `json:"timezone,omitempty"`
	GameCount       int         `json:"gameCount"`
	LastGameAddedAt *time.Time  `json:"lastGameAddedAt,omitempty"`
	Status          VenueStatus `json:"status"`

	Version       int64     `json:"_version"`
	LastChangedAt time.Time `json:"_lastChangedAt"`
}

// VenueDetails holds the aggregates computed for one venue.
type VenueDetails struct {
	VenueID                     string      `json:"venueId"`
	EntityID                    string      `json:"entityId,omitempty"`
	TotalGamesHeld              int         `json:"totalGamesHeld"`
	TotalUniquePlayers          int         `json:"totalUniquePlayers"`
	TotalEntries                int         `json:"totalEntries"`
	TotalInitialEntries         int         `json:"totalInitialEntries"`
	AverageUniquePlayersPerGame float64     `json:"averageUniquePlayersPerGame"`
	AverageEntriesPerGame       float64     `json:"averageEntriesPerGame"`
	GameNights                  []string    `json:"gameNights"`
	EarliestGameDate            *time.Time  `json:"earliestGameDate,omitempty"`
	LatestGameDate              *time.Time  `json:"latestGameDate,omitempty"`
	Status                      VenueStatus `json:"status"`
	LastRecomputedAt            time.Time   `json:"lastRecomputedAt"`

	Version       int64     `json:"_version"`
	LastChangedAt time.Time `json:"_lastChangedAt"`
}
