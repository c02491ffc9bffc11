// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tomtom215/kingsroom/internal/logging"
)

func TestRequestID_GeneratesNewID(t *testing.T) {
	t.Parallel()
	var capturedID, correlationID, loggingID string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
		loggingID = logging.RequestIDFromContext(r.Context())
		correlationID = logging.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/api/v1/games/enrich", nil))

	responseID := rec.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(responseID); err != nil {
		t.Errorf("X-Request-ID %q is not a UUID: %v", responseID, err)
	}
	if capturedID != responseID || loggingID != responseID {
		t.Errorf("context ids %q/%q do not match header %q", capturedID, loggingID, responseID)
	}
	if correlationID == "" {
		t.Error("no correlation id on the request context")
	}
}

func TestRequestID_PreservesUpstreamID(t *testing.T) {
	t.Parallel()
	var capturedID string
	handler := RequestID(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetRequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set(RequestIDHeader, "ingest-7f3a")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Header().Get(RequestIDHeader) != "ingest-7f3a" || capturedID != "ingest-7f3a" {
		t.Errorf("upstream id not preserved: header=%q ctx=%q", rec.Header().Get(RequestIDHeader), capturedID)
	}
}

func TestRequestID_ReplacesOversizedID(t *testing.T) {
	t.Parallel()
	handler := RequestID(func(http.ResponseWriter, *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxRequestIDLength+1))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if _, err := uuid.Parse(rec.Header().Get(RequestIDHeader)); err != nil {
		t.Errorf("oversized id was echoed instead of replaced: %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestRequestID_UniquePerRequest(t *testing.T) {
	t.Parallel()
	handler := RequestID(func(http.ResponseWriter, *http.Request) {})
	ids := make(map[string]bool)
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		ids[rec.Header().Get(RequestIDHeader)] = true
	}
	if len(ids) != 10 {
		t.Errorf("got %d unique ids for 10 requests", len(ids))
	}
}

func TestGetRequestID_WithoutID(t *testing.T) {
	t.Parallel()
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Errorf("GetRequestID on bare context = %q", id)
	}
}
