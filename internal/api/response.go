// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/middleware"
	"github.com/tomtom215/kingsroom/internal/validation"
)

// maxBodyBytes bounds request bodies. A game with its cost record is a few KB.
const maxBodyBytes = 1 << 20

// APIResponse is the envelope of every response.
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata describes the response.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the error body.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// sanitizeLogValue removes control characters to prevent log injection.
func sanitizeLogValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			fmt.Fprintf(&b, "\\x%02x", r)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// respondJSON writes response with an ETag computed over the body.
func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("ETag", generateETag(data))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess wraps data in a success envelope.
func respondSuccess(w http.ResponseWriter, r *http.Request, status int, data any, start time.Time) {
	respondJSON(w, status, &APIResponse{
		Status: "success",
		Data:   data,
		Metadata: Metadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   middleware.GetRequestID(r.Context()),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// generateETag creates an ETag from data using FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return `"` + strconv.FormatUint(uint64(hash), 16) + `"`
}

// respondError sends an error envelope. Server errors are logged with the request context.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	respondErrorDetails(w, r, status, &APIError{Code: code, Message: message}, err)
}

func respondErrorDetails(w http.ResponseWriter, r *http.Request, status int, apiErr *APIError, err error) {
	if err != nil {
		evt := logging.Ctx(r.Context()).Warn()
		if status >= http.StatusInternalServerError {
			evt = logging.Ctx(r.Context()).Error()
		}
		evt.Str("code", sanitizeLogValue(apiErr.Code)).
			Str("error", sanitizeLogValue(err.Error())).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Msg("API error")
	}
	respondJSON(w, status, &APIResponse{
		Status: "error",
		Metadata: Metadata{
			Timestamp: time.Now().UTC(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
		Error: apiErr,
	})
}

// validateRequest validates v with go-playground/validator and returns a
// VALIDATION_ERROR body, or nil when v is valid.
func validateRequest(v any) *APIError {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return nil
	}
	apiErr := verr.ToAPIError()
	return &APIError{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details}
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads a single JSON document from the body into v.
func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return err
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(body, v)
}

// respondErrorData sends an error envelope that still carries data, such as
// a failed enrichment result or a partial job report.
func respondErrorData(w http.ResponseWriter, r *http.Request, status int, data any, start time.Time, apiErr *APIError) {
	respondJSON(w, status, &APIResponse{
		Status: "error",
		Data:   data,
		Metadata: Metadata{
			Timestamp:   time.Now().UTC(),
			RequestID:   middleware.GetRequestID(r.Context()),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
		Error: apiErr,
	})
}
