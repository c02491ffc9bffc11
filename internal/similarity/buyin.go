// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package similarity

import (
	"math"

	"github.com/tomtom215/kingsroom/internal/models"
)

// DefaultToleranceRatio is the widest ratio accepted without trend support.
const DefaultToleranceRatio = 2.0

// GrowthRatioLimit bounds how far an upward-trending template may stretch.
const GrowthRatioLimit = 3.0

// Compatibility reasons.
const (
	ReasonExact           = "exact"
	ReasonClose           = "close"
	ReasonGrowthTrend     = "follows_growth_trend"
	ReasonTolerated       = "tolerated"
	ReasonNoData          = "no_data"
	ReasonBeyondTolerance = "beyond_tolerance"
)

// Compatibility is the verdict of comparing a game amount with a template amount.
type Compatibility struct {
	Compatible bool    `json:"compatible"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Ratio      float64 `json:"ratio,omitempty"`
}

// BuyInCompatibility compares a game's amount with a template's effective amount.
//
// Ratio bands: up to 1.25 exact, up to 1.5 close, up to tolerance tolerated.
// An INCREASING template also accepts a larger game amount up to
// GrowthRatioLimit; that rule is checked before the tolerance band so a
// trending template reports follows_growth_trend rather than tolerated.
// A zero on either side is no evidence and stays compatible.
func BuyInCompatibility(game, template float64, trend models.Trend, tolerance float64) Compatibility {
	if tolerance <= 1 {
		tolerance = DefaultToleranceRatio
	}
	if game <= 0 || template <= 0 {
		return Compatibility{Compatible: true, Confidence: 0.5, Reason: ReasonNoData}
	}

	ratio := math.Max(game, template) / math.Min(game, template)
	c := Compatibility{Ratio: ratio}

	switch {
	case ratio <= 1.25:
		c.Compatible, c.Confidence, c.Reason = true, 1.0, ReasonExact
	case ratio <= 1.5:
		c.Compatible, c.Confidence, c.Reason = true, 0.85, ReasonClose
	case trend == models.TrendIncreasing && game >= template && ratio <= GrowthRatioLimit:
		c.Compatible, c.Confidence, c.Reason = true, 0.7, ReasonGrowthTrend
	case ratio <= tolerance:
		c.Compatible, c.Confidence, c.Reason = true, 0.6, ReasonTolerated
	default:
		c.Compatible, c.Confidence, c.Reason = false, 0, ReasonBeyondTolerance
	}
	return c
}
