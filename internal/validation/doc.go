// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

// Package validation provides struct validation using go-playground/validator v10.
//
// The package exposes a thread-safe singleton validator configured with:
//   - WithRequiredStructEnabled, so `required` on a time.Time rejects the zero instant
//   - JSON field names in errors, so messages name "buyIn" rather than "BuyIn"
//   - an `enum` tag for string enums that implement IsValid() bool
//
// # Quick Start
//
//	type EnrichRequest struct {
//	    Game models.Game `validate:"required"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    for _, fe := range verr.Errors() {
//	        // fe.Field(), fe.Tag(), fe.Error()
//	    }
//	}
//
// # Error Message Translation
//
//	required   -> "name is required"
//	gte=0      -> "buyIn must be greater than or equal to 0"
//	enum       -> "gameVariant has unsupported value \"HOLDEM\""
//
// The enrichment orchestrator converts each field error into a fatal
// validation record; the HTTP layer converts a whole RequestValidationError
// into a VALIDATION_ERROR envelope with ToAPIError.
package validation
