// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// ChangeEvent is one committed write as seen on the change stream.
// OldImage is absent on INSERT and NewImage is absent on REMOVE.
type ChangeEvent struct {
	EventName  EventName       `json:"eventName"`
	Table      string          `json:"table"`
	Key        string          `json:"key"`
	Version    int64           `json:"version"`
	OldImage   json.RawMessage `json:"oldImage,omitempty"`
	NewImage   json.RawMessage `json:"newImage,omitempty"`
	ObservedAt time.Time       `json:"observedAt"`
}

// DecodeGameImages decodes both images of a Game change. Missing images are nil.
func (e *ChangeEvent) DecodeGameImages() (oldGame, newGame *Game, err error) {
	if len(e.OldImage) > 0 {
		oldGame = &Game{}
		if err := json.Unmarshal(e.OldImage, oldGame); err != nil {
			return nil, nil, err
		}
	}
	if len(e.NewImage) > 0 {
		newGame = &Game{}
		if err := json.Unmarshal(e.NewImage, newGame); err != nil {
			return nil, nil, err
		}
	}
	return oldGame, newGame, nil
}
