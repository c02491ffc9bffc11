// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package enrichment_test

import (
	"testing"
	"time"

	"github.com/tomtom215/kingsroom/internal/enrichment"
	"github.com/tomtom215/kingsroom/internal/financials"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/testinfra"
)

func TestContentHash_IgnoresMarkers(t *testing.T) {
	t.Parallel()
	g := testinfra.NewGame("Thursday $5k GTD", testinfra.Thursday(0))
	g.BuyIn = 150
	fin := financials.NewCalculator(0).Calculate(g, nil, testinfra.Thursday(0))

	base, err := enrichment.ContentHash(g, &fin)
	if err != nil {
		t.Fatalf("ContentHash: %v", err)
	}

	marked := g.Clone()
	now := time.Now()
	marked.ContentHash = base
	marked.DataChangedAt = &now
	marked.Version = 7
	marked.LastChangedAt = now
	later := financials.NewCalculator(0).Calculate(g, nil, now)

	got, err := enrichment.ContentHash(marked, &later)
	if err != nil {
		t.Fatalf("ContentHash: %v", err)
	}
	if got != base {
		t.Errorf("hash changed with store markers: %s != %s", got, base)
	}

	marked.BuyIn = 200
	changed, err := enrichment.ContentHash(marked, &later)
	if err != nil {
		t.Fatalf("ContentHash: %v", err)
	}
	if changed == base {
		t.Errorf("hash ignored a buy-in change")
	}
}

func TestQueryKeys(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                    string
		venueID                 string
		buyIn                   float64
		start                   time.Time
		day, bucket, scheduleKey string
	}{
		{"venue game", "venue-1", 150, testinfra.Thursday(0), "THURSDAY", "0200", "venue-1#THURSDAY#1930"},
		{"sentinel venue", models.UnassignedVenueID, 0, testinfra.Thursday(0), "THURSDAY", "FREEROLL", ""},
		{"late night local date", "venue-1", 3000, time.Date(2024, 5, 3, 0, 30, 0, 0, testinfra.Sydney), "FRIDAY", "2500PLUS", "venue-1#FRIDAY#0030"},
		{"no start", "venue-1", 55, time.Time{}, "", "0100", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := &models.Game{VenueID: tt.venueID, BuyIn: tt.buyIn, GameStartDateTime: tt.start.UTC()}
			if tt.start.IsZero() {
				g.GameStartDateTime = time.Time{}
			}
			day, bucket, key := enrichment.QueryKeys(g, testinfra.Sydney)
			if day != tt.day || bucket != tt.bucket || key != tt.scheduleKey {
				t.Errorf("QueryKeys = %q/%q/%q, want %q/%q/%q", day, bucket, key, tt.day, tt.bucket, tt.scheduleKey)
			}
		})
	}
}
