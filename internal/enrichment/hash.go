// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package enrichment

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kingsroom/internal/financials"
	"github.com/tomtom215/kingsroom/internal/models"
)

type hashPayload struct {
	Game     *models.Game                  `json:"game"`
	Snapshot *models.GameFinancialSnapshot `json:"snapshot,omitempty"`
	Cost     *models.GameCost              `json:"cost,omitempty"`
}

// ContentHash fingerprints the enriched payload. Store metadata, timestamps
// and the hash itself are excluded so replaying an unchanged game yields the
// same value.
func ContentHash(g *models.Game, fin *financials.Result) (string, error) {
	p := hashPayload{Game: g.Clone()}
	p.Game.ContentHash = ""
	p.Game.DataChangedAt = nil
	p.Game.Version = 0
	p.Game.LastChangedAt = time.Time{}

	if fin != nil {
		if fin.Snapshot != nil {
			s := *fin.Snapshot
			s.ComputedAt = time.Time{}
			s.Version = 0
			s.LastChangedAt = time.Time{}
			p.Snapshot = &s
		}
		if fin.Cost != nil {
			c := *fin.Cost
			c.Version = 0
			c.LastChangedAt = time.Time{}
			p.Cost = &c
		}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
