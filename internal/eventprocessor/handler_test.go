// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package eventprocessor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kingsroom/internal/enrichment"
	"github.com/tomtom215/kingsroom/internal/models"
)

type fakeEnricher struct {
	mu      sync.Mutex
	inputs  []enrichment.Input
	success bool
	err     error
}

func (f *fakeEnricher) Enrich(_ context.Context, in enrichment.Input) (*enrichment.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &enrichment.Result{Success: f.success}, nil
}

type fakeAggregator struct {
	mu    sync.Mutex
	calls [][2]*models.Game
	err   error
}

func (f *fakeAggregator) HandleChange(_ context.Context, oldGame, newGame *models.Game) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2]*models.Game{oldGame, newGame})
	return f.err
}

func isGame(table string) bool { return table == "Game-test" }

func gameEvent(t *testing.T, name models.EventName, oldGame, newGame *models.Game) models.ChangeEvent {
	t.Helper()
	ev := models.ChangeEvent{EventName: name, Table: "Game-test", Key: "g1", Version: 2}
	for _, img := range []struct {
		g   *models.Game
		dst *json.RawMessage
	}{{oldGame, &ev.OldImage}, {newGame, &ev.NewImage}} {
		if img.g == nil {
			continue
		}
		raw, err := json.Marshal(img.g)
		if err != nil {
			t.Fatalf("marshal image: %v", err)
		}
		*img.dst = raw
	}
	return ev
}

func enrichedGame(hash string) *models.Game {
	stamp := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	return &models.Game{
		ID:                "g1",
		EntityID:          "entity-kings",
		VenueID:           "venue-1",
		Name:              "Thursday $5k GTD",
		GameStatus:        models.GameStatusFinished,
		GameStartDateTime: stamp,
		ContentHash:       hash,
		DataChangedAt:     &stamp,
	}
}

func TestChangeHandler_Dispatch(t *testing.T) {
	t.Parallel()
	raw := enrichedGame("")
	raw.DataChangedAt = nil
	enriched := enrichedGame("h1")
	rehashed := enrichedGame("h2")
	noise := enrichedGame("h1")
	noise.TotalRebuys = 4

	tests := []struct {
		name         string
		ev           models.ChangeEvent
		table        string
		success      bool
		want         string
		wantEnrich   int
		wantAggCalls int
	}{
		{"raw insert is counted then enriched", gameEvent(t, models.EventInsert, nil, raw), "", true, DecisionEnriched, 1, 1},
		{"raw overwrite is counted then enriched", gameEvent(t, models.EventModify, enriched, raw), "", true, DecisionEnriched, 1, 1},
		{"invalid raw write still counts", gameEvent(t, models.EventInsert, nil, raw), "", false, DecisionRejected, 1, 1},
		{"enriched write aggregates", gameEvent(t, models.EventModify, raw, enriched), "", true, DecisionAggregated, 0, 1},
		{"content change aggregates", gameEvent(t, models.EventModify, enriched, rehashed), "", true, DecisionAggregated, 0, 1},
		{"untracked change is gated", gameEvent(t, models.EventModify, enriched, noise), "", true, DecisionGated, 0, 0},
		{"remove aggregates", gameEvent(t, models.EventRemove, enriched, nil), "", true, DecisionAggregated, 0, 1},
		{"other table ignored", gameEvent(t, models.EventInsert, nil, raw), "Venue-test", true, DecisionIgnored, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			enr := &fakeEnricher{success: tt.success}
			agg := &fakeAggregator{}
			h := NewChangeHandler(isGame, enr, agg)

			ev := tt.ev
			if tt.table != "" {
				ev.Table = tt.table
			}
			got, err := h.Handle(context.Background(), ev)
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if got != tt.want {
				t.Errorf("decision = %s, want %s", got, tt.want)
			}
			if len(enr.inputs) != tt.wantEnrich {
				t.Errorf("enrich calls = %d, want %d", len(enr.inputs), tt.wantEnrich)
			}
			if len(agg.calls) != tt.wantAggCalls {
				t.Errorf("aggregator calls = %d, want %d", len(agg.calls), tt.wantAggCalls)
			}
			if tt.wantEnrich == 1 && !enr.inputs[0].Options.SaveToDatabase {
				t.Error("raw writes must be enriched in commit mode")
			}
		})
	}
}

func TestChangeHandler_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := NewChangeHandler(isGame, &fakeEnricher{err: errors.New("store down")}, &fakeAggregator{})
	if _, err := h.Handle(ctx, gameEvent(t, models.EventInsert, nil, enrichedGame(""))); err == nil {
		t.Error("enrichment error not returned for retry")
	}

	h = NewChangeHandler(isGame, nil, &fakeAggregator{err: errors.New("conflict")})
	if _, err := h.Handle(ctx, gameEvent(t, models.EventInsert, nil, enrichedGame("h"))); err == nil {
		t.Error("aggregator error not returned for retry")
	}

	bad := models.ChangeEvent{EventName: models.EventInsert, Table: "Game-test", Key: "g1", NewImage: []byte(`{"id":`)}
	if _, err := h.Handle(ctx, bad); !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("undecodable image err = %v, want ErrMalformedEvent", err)
	}
}

func TestChangeHandler_HandleMessage(t *testing.T) {
	t.Parallel()
	agg := &fakeAggregator{}
	h := NewChangeHandler(isGame, nil, agg)

	msg, err := NewChangeMessage(context.Background(), gameEvent(t, models.EventInsert, nil, enrichedGame("h")))
	if err != nil {
		t.Fatalf("NewChangeMessage: %v", err)
	}
	if err := h.HandleMessage(msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(agg.calls) != 1 || agg.calls[0][1].ID != "g1" {
		t.Errorf("aggregator calls = %+v", agg.calls)
	}

	msg.Payload = []byte("not json")
	if err := h.HandleMessage(msg); !errors.Is(err, ErrMalformedEvent) {
		t.Errorf("HandleMessage(garbage) = %v, want ErrMalformedEvent", err)
	}
}
