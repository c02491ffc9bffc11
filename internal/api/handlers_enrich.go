// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/kingsroom/internal/enrichment"
	"github.com/tomtom215/kingsroom/internal/logging"
)

// EnrichGame runs the pipeline on the posted game. Options missing from the
// body keep their defaults, so an empty options object commits with
// auto-creation enabled.
//
// Responses:
//   - 200 with the result when enrichment succeeded
//   - 422 with the result when the input failed validation
//   - 503 with the result when the commit could not be persisted
func (h *Handler) EnrichGame(w http.ResponseWriter, r *http.Request) {
	h.enrich(w, r, false)
}

// PreviewGame runs the pipeline without writing. saveToDatabase is forced off.
func (h *Handler) PreviewGame(w http.ResponseWriter, r *http.Request) {
	h.enrich(w, r, true)
}

func (h *Handler) enrich(w http.ResponseWriter, r *http.Request, preview bool) {
	start := time.Now()
	in := enrichment.Input{Options: enrichment.DefaultOptions()}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body must be an enrichment input: "+err.Error(), nil)
		return
	}
	if preview {
		in.Options.SaveToDatabase = false
	}

	res, err := h.enricher.Enrich(r.Context(), in)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("game_id", sanitizeLogValue(in.Game.ID)).Msg("Enrichment commit failed")
		respondErrorData(w, r, http.StatusServiceUnavailable, res, start,
			&APIError{Code: "PERSISTENCE_FAILED", Message: "The enriched game could not be saved; retry the request"})
		return
	}
	if !res.Success {
		respondErrorData(w, r, http.StatusUnprocessableEntity, res, start, &APIError{
			Code:    "VALIDATION_ERROR",
			Message: "Game failed validation",
			Details: map[string]any{"errors": res.Validation.Errors},
		})
		return
	}
	respondSuccess(w, r, http.StatusOK, res, start)
}
