// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

// Package venuemetrics maintains the per-venue aggregates in VenueDetails.
//
// Compute is the authoritative full recomputation over every game of a
// venue. ApplyIncremental adjusts stored counters for a single game
// transition and reports when it cannot, in which case the caller falls back
// to Compute.
package venuemetrics

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/venue"
)

// DefaultActiveWindow is how recent a counted game must be for ACTIVE.
const DefaultActiveWindow = 90 * 24 * time.Hour

// Compute aggregates the counted games of venueID. Games that do not count
// toward the venue are ignored, so callers may pass an unfiltered list.
func Compute(venueID string, games []*models.Game, loc *time.Location, now time.Time, activeWindow time.Duration) *models.VenueDetails {
	d := &models.VenueDetails{VenueID: venueID, GameNights: []string{}}
	nights := map[string]struct{}{}
	for _, g := range games {
		if g.VenueID != venueID || !venue.ShouldCountForVenue(g) {
			continue
		}
		add(d, g, loc)
		nights[models.DayName(g.GameStartDateTime, loc)] = struct{}{}
		if d.EntityID == "" {
			d.EntityID = g.EntityID
		}
	}
	d.GameNights = sortedNights(nights)
	finalize(d, now, activeWindow)
	return d
}

// Transition classifies a change by whether the game counted toward venueID
// before and after it.
func Transition(venueID string, oldGame, newGame *models.Game) (wasIncluded, isIncluded bool) {
	wasIncluded = oldGame != nil && oldGame.VenueID == venueID && venue.ShouldCountForVenue(oldGame)
	isIncluded = newGame != nil && newGame.VenueID == venueID && venue.ShouldCountForVenue(newGame)
	return wasIncluded, isIncluded
}

// ApplyIncremental updates d in place for one game change and returns false
// when the change can only be handled by a full recomputation: a game
// leaving the venue, or a counted game moving to another date, since neither
// the remaining game nights nor the date range can be derived from counters.
func ApplyIncremental(d *models.VenueDetails, oldGame, newGame *models.Game, loc *time.Location, now time.Time, activeWindow time.Duration) bool {
	was, is := Transition(d.VenueID, oldGame, newGame)
	switch {
	case !was && !is:
		return true
	case was && !is:
		return false
	case was && is:
		if !oldGame.GameStartDateTime.Equal(newGame.GameStartDateTime) {
			return false
		}
		d.TotalUniquePlayers += newGame.TotalUniquePlayers - oldGame.TotalUniquePlayers
		d.TotalEntries += newGame.TotalEntries - oldGame.TotalEntries
		d.TotalInitialEntries += newGame.TotalInitialEntries - oldGame.TotalInitialEntries
	default:
		add(d, newGame, loc)
		d.GameNights = mergeNight(d.GameNights, models.DayName(newGame.GameStartDateTime, loc))
		if d.EntityID == "" {
			d.EntityID = newGame.EntityID
		}
	}
	finalize(d, now, activeWindow)
	return true
}

func add(d *models.VenueDetails, g *models.Game, loc *time.Location) {
	d.TotalGamesHeld++
	d.TotalUniquePlayers += g.TotalUniquePlayers
	d.TotalEntries += g.TotalEntries
	d.TotalInitialEntries += g.TotalInitialEntries

	start := g.GameStartDateTime.UTC()
	if d.EarliestGameDate == nil || start.Before(*d.EarliestGameDate) {
		t := start
		d.EarliestGameDate = &t
	}
	if d.LatestGameDate == nil || start.After(*d.LatestGameDate) {
		t := start
		d.LatestGameDate = &t
	}
}

func finalize(d *models.VenueDetails, now time.Time, activeWindow time.Duration) {
	if activeWindow <= 0 {
		activeWindow = DefaultActiveWindow
	}
	if d.TotalGamesHeld == 0 {
		d.AverageUniquePlayersPerGame = 0
		d.AverageEntriesPerGame = 0
		d.Status = models.VenueStatusPending
		return
	}
	n := float64(d.TotalGamesHeld)
	d.AverageUniquePlayersPerGame = round2(float64(d.TotalUniquePlayers) / n)
	d.AverageEntriesPerGame = round2(float64(d.TotalEntries) / n)

	d.Status = models.VenueStatusInactive
	if d.LatestGameDate != nil && now.Sub(*d.LatestGameDate) <= activeWindow {
		d.Status = models.VenueStatusActive
	}
}

func mergeNight(nights []string, day string) []string {
	set := make(map[string]struct{}, len(nights)+1)
	for _, n := range nights {
		set[n] = struct{}{}
	}
	set[day] = struct{}{}
	return sortedNights(set)
}

// sortedNights orders day names Monday first.
func sortedNights(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return models.DayOrder(out[i]) < models.DayOrder(out[j]) })
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
