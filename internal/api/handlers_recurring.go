// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/kingsroom/internal/models"
)

// RecurringGameResponse is a template with its instances, newest first.
type RecurringGameResponse struct {
	RecurringGame *models.RecurringGame            `json:"recurringGame"`
	Instances     []*models.RecurringGameInstance `json:"instances"`
}

// RecurringGame returns a template and its instances.
func (h *Handler) RecurringGame(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")

	t, err := h.db.FindRecurringGame(r.Context(), id)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORE_ERROR", "Failed to load recurring game", err)
		return
	}
	if t == nil {
		respondError(w, r, http.StatusNotFound, "NOT_FOUND", "Recurring game not found", nil)
		return
	}
	insts, err := h.db.ListInstancesByTemplate(r.Context(), id)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "STORE_ERROR", "Failed to load instances", err)
		return
	}
	sort.Slice(insts, func(i, j int) bool { return insts[i].ExpectedDate > insts[j].ExpectedDate })
	if insts == nil {
		insts = []*models.RecurringGameInstance{}
	}
	respondSuccess(w, r, http.StatusOK, RecurringGameResponse{RecurringGame: t, Instances: insts}, start)
}
