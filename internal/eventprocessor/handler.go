// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package eventprocessor

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/kingsroom/internal/enrichment"
	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/metrics"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/venuemetrics"
)

// Dispatch decisions, also used as metric labels.
const (
	DecisionIgnored    = "ignored"
	DecisionGated      = "gated"
	DecisionEnriched   = "enriched"
	DecisionRejected   = "rejected"
	DecisionAggregated = "aggregated"
)

// Enricher runs the enrichment pipeline.
type Enricher interface {
	Enrich(ctx context.Context, in enrichment.Input) (*enrichment.Result, error)
}

// MetricsUpdater keeps venue aggregates current.
type MetricsUpdater interface {
	HandleChange(ctx context.Context, oldGame, newGame *models.Game) error
}

// ChangeHandler dispatches Game change events.
type ChangeHandler struct {
	isGameTable func(table string) bool
	enricher    Enricher
	aggregator  MetricsUpdater
	options     enrichment.Options
}

// NewChangeHandler returns a handler for the Game table identified by
// isGameTable. A nil enricher leaves raw writes to the aggregator.
func NewChangeHandler(isGameTable func(string) bool, enricher Enricher, aggregator MetricsUpdater) *ChangeHandler {
	return &ChangeHandler{
		isGameTable: isGameTable,
		enricher:    enricher,
		aggregator:  aggregator,
		options:     enrichment.DefaultOptions(),
	}
}

// Handle dispatches one change event and returns the decision taken.
//
// Every write reaches the aggregator as written, raw ingester writes (no
// contentHash) included, so the later enriched write is a modification of a
// game the venue already counts. Raw writes are then enriched; enriched
// images never loop back into enrichment.
func (h *ChangeHandler) Handle(ctx context.Context, ev models.ChangeEvent) (decision string, err error) {
	defer func() {
		if err == nil {
			metrics.RecordChangeEvent(ev.Table, string(ev.EventName), decision)
		}
	}()

	if !h.isGameTable(ev.Table) {
		return DecisionIgnored, nil
	}
	oldGame, newGame, err := ev.DecodeGameImages()
	if err != nil {
		return "", fmt.Errorf("%w: %s/%s: %v", ErrMalformedEvent, ev.Table, ev.Key, err)
	}
	if !venuemetrics.ShouldProcess(oldGame, newGame) {
		return DecisionGated, nil
	}

	logger := logging.Ctx(ctx).With().
		Str("game_id", ev.Key).
		Str("event", string(ev.EventName)).
		Int64("version", ev.Version).
		Logger()

	if h.aggregator != nil {
		if err := h.aggregator.HandleChange(ctx, oldGame, newGame); err != nil {
			return "", fmt.Errorf("update venue metrics for game %s: %w", ev.Key, err)
		}
	}
	decision = DecisionAggregated

	if newGame != nil && newGame.ContentHash == "" && h.enricher != nil {
		res, err := h.enricher.Enrich(ctx, enrichment.Input{Game: *newGame, Options: h.options})
		if err != nil {
			return "", fmt.Errorf("enrich game %s: %w", ev.Key, err)
		}
		if res.Success {
			decision = DecisionEnriched
			logger.Debug().Str("persistence", res.Metadata.Persistence.Status).Msg("Raw game write enriched")
		} else {
			// Left raw; the venue still counts it as written.
			decision = DecisionRejected
			logger.Warn().Int("errors", len(res.Validation.Errors)).Msg("Raw game write failed validation")
		}
	}

	logger.Debug().Str("decision", decision).Msg("Change event handled")
	return decision, nil
}

// HandleMessage adapts Handle to a Watermill consumer handler.
func (h *ChangeHandler) HandleMessage(msg *message.Message) error {
	ev, err := DecodeChangeMessage(msg)
	if err != nil {
		return err
	}
	ctx := msg.Context()
	if id := middleware.MessageCorrelationID(msg); id != "" {
		ctx = logging.ContextWithCorrelationID(ctx, id)
	} else {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	_, err = h.Handle(ctx, ev)
	return err
}
