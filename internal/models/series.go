// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package models

import "time"

// TournamentSeriesTitle is a named festival independent of year.
type TournamentSeriesTitle struct {
	ID       string   `json:"id"`
	EntityID string   `json:"entityId"`
	Title    string   `json:"title"`
	Aliases  []string `json:"aliases,omitempty"`

	Version       int64     `json:"_version"`
	LastChangedAt time.Time `json:"_lastChangedAt"`
}

// TournamentSeries is one yearly instance of a festival.
type TournamentSeries struct {
	ID             string    `json:"id"`
	EntityID       string    `json:"entityId"`
	VenueID        string    `json:"venueId,omitempty"`
	SeriesTitleID  string    `json:"seriesTitleId,omitempty"`
	Name           string    `json:"name"`
	NormalizedName string    `json:"normalizedName,omitempty"`
	Year           int       `json:"year"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`

	Version       int64     `json:"_version"`
	LastChangedAt time.Time `json:"_lastChangedAt"`
}
