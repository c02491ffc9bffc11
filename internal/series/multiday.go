// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package series

import "github.com/tomtom215/kingsroom/internal/models"

// IsMultiDay reports whether g is one part of a consolidated multi-day event
// and so must not be counted on its own. A PARENT record stands for the whole
// event and is counted once.
func IsMultiDay(g *models.Game) bool {
	switch {
	case g.ConsolidationType == models.ConsolidationChild, g.ConsolidationType == models.ConsolidationFlight:
		return true
	case g.ParentGameID != "":
		return true
	case g.DayNumber > 1:
		return true
	case g.DayNumber == 1 && g.ConsolidationKey != "" && !g.FinalDay:
		return true
	case g.FlightLetter != "" && g.ConsolidationType != models.ConsolidationParent:
		return true
	}
	return false
}
