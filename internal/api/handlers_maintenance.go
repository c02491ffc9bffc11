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

	"github.com/tomtom215/kingsroom/internal/bulk"
)

// MaintenanceJobs lists the job names accepted by RunMaintenance.
func (h *Handler) MaintenanceJobs(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]any{"jobs": bulk.Jobs()}, time.Now())
}

// RunMaintenance runs a bulk job synchronously and returns its report. An
// empty body runs the job unscoped where the job allows it.
//
// Errors map as: unknown job 404, bad scope 400, job already running 409.
// A run stopped part way returns 503 with the partial report.
func (h *Handler) RunMaintenance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if h.maintenance == nil {
		respondError(w, r, http.StatusServiceUnavailable, "MAINTENANCE_DISABLED", "Maintenance jobs are not configured", nil)
		return
	}
	job := bulk.Job(chi.URLParam(r, "job"))

	var req bulk.Request
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, r, http.StatusBadRequest, "INVALID_BODY", "Request body must be a maintenance request: "+err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondErrorDetails(w, r, http.StatusBadRequest, apiErr, nil)
		return
	}

	rep, err := h.maintenance.Run(r.Context(), job, req)
	switch {
	case errors.Is(err, bulk.ErrUnknownJob):
		respondErrorDetails(w, r, http.StatusNotFound, &APIError{
			Code:    "UNKNOWN_JOB",
			Message: err.Error(),
			Details: map[string]any{"jobs": bulk.Jobs()},
		}, nil)
	case errors.Is(err, bulk.ErrInvalidRequest):
		respondError(w, r, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	case errors.Is(err, bulk.ErrJobRunning):
		respondError(w, r, http.StatusConflict, "JOB_RUNNING", err.Error(), nil)
	case err != nil:
		respondErrorData(w, r, http.StatusServiceUnavailable, rep, start, &APIError{Code: "JOB_INTERRUPTED", Message: err.Error()})
	default:
		respondSuccess(w, r, http.StatusOK, rep, start)
	}
}
