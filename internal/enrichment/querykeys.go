// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package enrichment

import (
	"strings"
	"time"

	"github.com/tomtom215/kingsroom/internal/models"
)

// QueryKeys derives the denormalized lookup keys of g from its resolved
// venue and start instant in loc.
func QueryKeys(g *models.Game, loc *time.Location) (day, bucket, scheduleKey string) {
	if loc == nil {
		loc = time.UTC
	}
	bucket = models.BuyInBucket(g.BuyIn)
	if g.GameStartDateTime.IsZero() {
		return "", bucket, ""
	}
	day = models.DayName(g.GameStartDateTime, loc)
	if !models.IsSentinelVenue(g.VenueID) {
		local := g.GameStartDateTime.In(loc)
		scheduleKey = strings.Join([]string{g.VenueID, day, local.Format("1504")}, "#")
	}
	return day, bucket, scheduleKey
}
