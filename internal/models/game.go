// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package models

import "time"

// UnassignedVenueID is the placeholder venue id written by the ingester
// when the source page did not identify a venue.
const UnassignedVenueID = "00000000-0000-0000-0000-000000000000"

// IsSentinelVenue reports whether id does not name a real venue.
func IsSentinelVenue(id string) bool {
	return id == "" || id == UnassignedVenueID
}

// Game is a single tournament instance as stored in the Game table.
//
// Money fields are in whole currency units. VenueFee is a pointer because a
// fee of zero and an unknown fee produce different prizepool contributions.
type Game struct {
	ID           string `json:"id" validate:"required"`
	TournamentID int    `json:"tournamentId,omitempty" validate:"gte=0"`
	EntityID     string `json:"entityId" validate:"required"`
	VenueID      string `json:"venueId,omitempty"`
	VenueName    string `json:"venueName,omitempty"`
	Name         string `json:"name" validate:"required"`

	GameStartDateTime time.Time   `json:"gameStartDateTime" validate:"required"`
	GameEndDateTime   *time.Time  `json:"gameEndDateTime,omitempty"`
	GameStatus        GameStatus  `json:"gameStatus,omitempty"`
	GameVariant       GameVariant `json:"gameVariant,omitempty" validate:"enum"`

	BuyIn           float64  `json:"buyIn" validate:"gte=0"`
	Rake            float64  `json:"rake" validate:"gte=0"`
	VenueFee        *float64 `json:"venueFee,omitempty" validate:"omitempty,gte=0"`
	HasGuarantee    bool     `json:"hasGuarantee"`
	GuaranteeAmount float64  `json:"guaranteeAmount" validate:"gte=0"`

	TotalUniquePlayers  int `json:"totalUniquePlayers" validate:"gte=0"`
	TotalInitialEntries int `json:"totalInitialEntries" validate:"gte=0"`
	TotalEntries        int `json:"totalEntries" validate:"gte=0"`
	TotalRebuys         int `json:"totalRebuys" validate:"gte=0"`
	TotalAddons         int `json:"totalAddons" validate:"gte=0"`

	PrizepoolPaid       float64 `json:"prizepoolPaid" validate:"gte=0"`
	PrizepoolCalculated float64 `json:"prizepoolCalculated" validate:"gte=0"`

	// Series linkage.
	IsSeries           bool              `json:"isSeries"`
	TournamentSeriesID string            `json:"tournamentSeriesId,omitempty"`
	SeriesTitleID      string            `json:"seriesTitleId,omitempty"`
	SeriesName         string            `json:"seriesName,omitempty"`
	EventNumber        int               `json:"eventNumber,omitempty" validate:"gte=0"`
	DayNumber          int               `json:"dayNumber,omitempty" validate:"gte=0"`
	FlightLetter       string            `json:"flightLetter,omitempty"`
	FinalDay           bool              `json:"finalDay"`
	ConsolidationType  ConsolidationType `json:"consolidationType,omitempty" validate:"enum"`
	ConsolidationKey   string            `json:"consolidationKey,omitempty"`
	ParentGameID       string            `json:"parentGameId,omitempty"`

	// Recurring linkage.
	RecurringGameID                   string           `json:"recurringGameId,omitempty"`
	RecurringGameInstanceID           string           `json:"recurringGameInstanceId,omitempty"`
	RecurringGameAssignmentStatus     AssignmentStatus `json:"recurringGameAssignmentStatus,omitempty" validate:"enum"`
	RecurringGameAssignmentConfidence float64          `json:"recurringGameAssignmentConfidence"`
	WasScheduledInstance              bool             `json:"wasScheduledInstance"`
	DeviationNotes                    string           `json:"deviationNotes,omitempty"`
	InstanceNumber                    int              `json:"instanceNumber,omitempty"`
	IsReplacementInstance             bool             `json:"isReplacementInstance"`
	ReplacementReason                 string           `json:"replacementReason,omitempty"`

	// Query keys.
	GameDayOfWeek    string `json:"gameDayOfWeek,omitempty"`
	BuyInBucket      string `json:"buyInBucket,omitempty"`
	VenueScheduleKey string `json:"venueScheduleKey,omitempty"`

	// Enrichment markers.
	ContentHash   string     `json:"contentHash,omitempty"`
	DataChangedAt *time.Time `json:"dataChangedAt,omitempty"`

	Version       int64     `json:"_version"`
	LastChangedAt time.Time `json:"_lastChangedAt"`
}

// Clone returns a copy that shares no pointers with g.
func (g *Game) Clone() *Game {
	if g == nil {
		return nil
	}
	c := *g
	if g.GameEndDateTime != nil {
		t := *g.GameEndDateTime
		c.GameEndDateTime = &t
	}
	if g.VenueFee != nil {
		f := *g.VenueFee
		c.VenueFee = &f
	}
	if g.DataChangedAt != nil {
		t := *g.DataChangedAt
		c.DataChangedAt = &t
	}
	return &c
}

// GuaranteeValue returns the guarantee when one is advertised, else zero.
func (g *Game) GuaranteeValue() float64 {
	if !g.HasGuarantee {
		return 0
	}
	return g.GuaranteeAmount
}

// HasSeriesFields reports whether any series-identifying field is populated.
func (g *Game) HasSeriesFields() bool {
	return g.TournamentSeriesID != "" || g.SeriesTitleID != "" || g.SeriesName != ""
}
