// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package models

// buyInBands are the upper bounds of each buy-in bucket, inclusive.
var buyInBands = []struct {
	max   float64
	label string
}{
	{0, "FREEROLL"},
	{50, "0050"},
	{100, "0100"},
	{200, "0200"},
	{500, "0500"},
	{1000, "1000"},
	{2500, "2500"},
}

// BuyInBucket returns the sortable band label for a buy-in.
func BuyInBucket(buyIn float64) string {
	for _, b := range buyInBands {
		if buyIn <= b.max {
			return b.label
		}
	}
	return "2500PLUS"
}
