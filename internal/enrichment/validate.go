// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package enrichment

import (
	"fmt"

	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/validation"
)

// ValidationError is one problem found in the input. Fatal errors stop
// enrichment; the rest are reported as warnings.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// Validation is the structured validation outcome.
type Validation struct {
	IsValid  bool              `json:"isValid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []ValidationError `json:"warnings"`
}

func (v *Validation) fail(field, msg string) {
	v.Errors = append(v.Errors, ValidationError{Field: field, Message: msg, Fatal: true})
}

func (v *Validation) warn(field, msg string) {
	v.Warnings = append(v.Warnings, ValidationError{Field: field, Message: msg})
}

// validate normalizes the status of g in place and checks the input.
func validate(in *Input, g *models.Game) Validation {
	v := Validation{Errors: []ValidationError{}, Warnings: []ValidationError{}}

	raw := string(g.GameStatus)
	status, err := models.ParseGameStatus(raw)
	switch {
	case err != nil:
		v.warn("gameStatus", fmt.Sprintf("unrecognised status %q stored as %s", raw, status))
	case raw != "" && status != g.GameStatus:
		v.warn("gameStatus", fmt.Sprintf("legacy status %q mapped to %s", raw, status))
	}
	g.GameStatus = status

	checked := *in
	checked.Game = *g
	if verr := validation.ValidateStruct(&checked); verr != nil {
		for _, fe := range verr.Errors() {
			v.fail(fe.Path(), fe.Error())
		}
	}

	sanity(g, &v)
	v.IsValid = len(v.Errors) == 0
	return v
}

// sanity adds non-fatal warnings for values that are legal but suspicious.
func sanity(g *models.Game, v *Validation) {
	if g.TotalInitialEntries > 0 && g.TotalEntries < g.TotalInitialEntries {
		v.warn("totalEntries", "total entries below initial entries")
	}
	if g.TotalEntries > 0 && g.TotalUniquePlayers > g.TotalEntries {
		v.warn("totalUniquePlayers", "more unique players than entries")
	}
	if g.BuyIn > 0 && g.Rake > g.BuyIn {
		v.warn("rake", "rake exceeds the buy-in")
	}
	if g.HasGuarantee && g.GuaranteeAmount == 0 {
		v.warn("guaranteeAmount", "hasGuarantee is set without an amount")
	}
	if g.GameEndDateTime != nil && !g.GameStartDateTime.IsZero() && g.GameEndDateTime.Before(g.GameStartDateTime) {
		v.warn("gameEndDateTime", "game ends before it starts")
	}
	if g.GameStatus == models.GameStatusFinished && g.TotalEntries == 0 {
		v.warn("totalEntries", "finished game has no entries")
	}
}
