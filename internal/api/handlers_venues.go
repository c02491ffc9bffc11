// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/kingsroom/internal/store"
)

// VenueMetrics returns the stored aggregates of a venue.
func (h *Handler) VenueMetrics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	venueID := chi.URLParam(r, "venueID")

	d, err := h.db.GetVenueDetails(r.Context(), venueID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "No metrics recorded for this venue", nil)
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORE_ERROR", "Failed to load venue metrics", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, d, start)
}

// RecomputeVenueMetrics rebuilds a venue's aggregates from all of its games.
func (h *Handler) RecomputeVenueMetrics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	venueID := chi.URLParam(r, "venueID")

	v, err := h.db.FindVenue(r.Context(), venueID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORE_ERROR", "Failed to load venue", err)
		return
	}
	if v == nil {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Venue not found", nil)
		return
	}
	d, err := h.metrics.Recompute(r.Context(), venueID)
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, "RECOMPUTE_FAILED", "Venue metrics could not be recomputed", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, d, start)
}
