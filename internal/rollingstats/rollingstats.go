// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

// Package rollingstats maintains the bounded per-template histories and the
// averages, trends and date bounds derived from them.
//
// All functions mutate the template in memory. Callers persist the result
// inside a single conditional update so that concurrent links to the same
// template serialize on the record version.
package rollingstats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/models"
)

// TrendThreshold is the relative change between half-window means that counts as a trend.
const TrendThreshold = 0.20

// minTrendSamples is the smallest history that reports a trend.
const minTrendSamples = 3

// Sample is one game's contribution to a template.
type Sample struct {
	GameID    string
	StartedAt time.Time
	Date      string
	BuyIn     float64
	Guarantee float64
	Entries   int
}

// SampleFromGame extracts a Sample, dating it in loc.
func SampleFromGame(g *models.Game, loc *time.Location) Sample {
	return Sample{
		GameID:    g.ID,
		StartedAt: g.GameStartDateTime.UTC(),
		Date:      models.LocalDate(g.GameStartDateTime, loc),
		BuyIn:     g.BuyIn,
		Guarantee: g.GuaranteeValue(),
		Entries:   g.TotalEntries,
	}
}

// IntegrityError reports a template invariant found broken and repaired.
type IntegrityError struct {
	TemplateID string
	Detail     string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("template %s integrity: %s", e.TemplateID, e.Detail)
}

// Result describes what Apply changed.
type Result struct {
	// NewGame is true when the game had no history entry before.
	NewGame bool
	// Counted is true when totalInstancesRun was incremented.
	Counted bool
	// Repairs lists invariants repaired while applying.
	Repairs []*IntegrityError
}

// Apply links s to t. Re-applying the same game id replaces its entries and
// never double counts. alreadyLinked tells Apply the game was linked to t by
// an earlier enrichment whose entry may since have aged out of the window.
func Apply(t *models.RecurringGame, s Sample, alreadyLinked bool) Result {
	res := Result{NewGame: !t.RecentBuyIns.Contains(s.GameID)}
	window := t.Window()

	t.RecentBuyIns = upsert(t.RecentBuyIns, s.GameID, s.Date, s.BuyIn, window)
	t.RecentGuarantees = upsert(t.RecentGuarantees, s.GameID, s.Date, s.Guarantee, window)
	t.RecentEntries = upsert(t.RecentEntries, s.GameID, s.Date, float64(s.Entries), window)

	if res.NewGame && !alreadyLinked {
		t.TotalInstancesRun++
		res.Counted = true
	}

	if !s.StartedAt.IsZero() {
		start := s.StartedAt.UTC()
		if t.FirstGameDate == nil || start.Before(*t.FirstGameDate) {
			t.FirstGameDate = &start
		}
		if t.LastGameDate == nil || start.After(*t.LastGameDate) {
			last := start
			t.LastGameDate = &last
		}
	}

	setBaselines(t, s)
	res.Repairs = Recompute(t)
	return res
}

// Remove drops s.GameID from t's histories and reverses its count. linked
// reports that the game is stored as linked to t; a linked game older than
// every retained entry of a full window has aged out of the histories but is
// still counted, so its count is reversed too. It reports whether t changed.
func Remove(t *models.RecurringGame, s Sample, linked bool) bool {
	inHistory := t.RecentBuyIns.Contains(s.GameID) || t.RecentGuarantees.Contains(s.GameID) || t.RecentEntries.Contains(s.GameID)
	if !inHistory && !(linked && agedOut(t, s)) {
		return false
	}
	t.RecentBuyIns = without(t.RecentBuyIns, s.GameID)
	t.RecentGuarantees = without(t.RecentGuarantees, s.GameID)
	t.RecentEntries = without(t.RecentEntries, s.GameID)
	if t.TotalInstancesRun > 0 {
		t.TotalInstancesRun--
	}
	if t.TotalInstancesRun == 0 {
		t.FirstGameDate = nil
		t.LastGameDate = nil
	}
	Recompute(t)
	return true
}

// agedOut reports whether s sorts before the oldest entry of a full window.
// A game inside the window span but absent was already removed.
func agedOut(t *models.RecurringGame, s Sample) bool {
	h := t.RecentBuyIns
	if len(h) == 0 || len(h) < t.Window() {
		return false
	}
	oldest := h[0]
	if s.Date != oldest.Date {
		return s.Date < oldest.Date
	}
	return s.GameID < oldest.GameID
}

// Recompute refreshes every derivation from the stored histories and repairs
// inverted date bounds. Repairs are logged and returned.
func Recompute(t *models.RecurringGame) []*IntegrityError {
	window := t.Window()
	t.RecentBuyIns = normalizeHistory(t.RecentBuyIns, window)
	t.RecentGuarantees = normalizeHistory(t.RecentGuarantees, window)
	t.RecentEntries = normalizeHistory(t.RecentEntries, window)

	t.RecentGameCount = len(t.RecentBuyIns)
	t.AverageBuyIn = Average(t.RecentBuyIns)
	t.AverageGuarantee = Average(t.RecentGuarantees)
	t.AverageEntries = Average(t.RecentEntries)
	t.BuyInTrend = TrendOf(t.RecentBuyIns)
	t.GuaranteeTrend = TrendOf(t.RecentGuarantees)
	t.EntriesTrend = TrendOf(t.RecentEntries)

	var repairs []*IntegrityError
	if t.FirstGameDate != nil && t.LastGameDate != nil && t.FirstGameDate.After(*t.LastGameDate) {
		ie := &IntegrityError{
			TemplateID: t.ID,
			Detail: fmt.Sprintf("firstGameDate %s after lastGameDate %s",
				t.FirstGameDate.Format(time.RFC3339), t.LastGameDate.Format(time.RFC3339)),
		}
		logging.Warn().Str("template_id", t.ID).Err(ie).Msg("Repairing inverted template date bounds")
		first, last := *t.LastGameDate, *t.FirstGameDate
		t.FirstGameDate, t.LastGameDate = &first, &last
		repairs = append(repairs, ie)
	}
	if t.TotalInstancesRun > 0 && (t.FirstGameDate == nil) != (t.LastGameDate == nil) {
		ie := &IntegrityError{TemplateID: t.ID, Detail: "only one of firstGameDate and lastGameDate is set"}
		logging.Warn().Str("template_id", t.ID).Err(ie).Msg("Repairing missing template date bound")
		if t.FirstGameDate == nil {
			v := *t.LastGameDate
			t.FirstGameDate = &v
		} else {
			v := *t.FirstGameDate
			t.LastGameDate = &v
		}
		repairs = append(repairs, ie)
	}
	return repairs
}

// EffectiveBuyIn is the comparison value used by matchers: the rolling
// average once three games are known, else the typical buy-in.
func EffectiveBuyIn(t *models.RecurringGame) float64 {
	if t.RecentGameCount >= minTrendSamples && t.AverageBuyIn > 0 {
		return t.AverageBuyIn
	}
	return t.TypicalBuyIn
}

// EffectiveGuarantee is EffectiveBuyIn for the guarantee.
func EffectiveGuarantee(t *models.RecurringGame) float64 {
	if t.RecentGameCount >= minTrendSamples && t.AverageGuarantee > 0 {
		return t.AverageGuarantee
	}
	return t.TypicalGuarantee
}

// Average is the mean of the positive values in h, rounded to two decimals.
func Average(h models.History) float64 {
	sum, n := 0.0, 0
	for _, e := range h {
		if e.Value > 0 {
			sum += e.Value
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Round(sum/float64(n)*100) / 100
}

// TrendOf compares the means of the older and newer halves of h's positive values.
func TrendOf(h models.History) models.Trend {
	values := make([]float64, 0, len(h))
	for _, e := range h {
		if e.Value > 0 {
			values = append(values, e.Value)
		}
	}
	if len(values) < minTrendSamples {
		return models.TrendStable
	}

	mid := len(values) / 2
	first, second := mean(values[:mid]), mean(values[mid:])
	if first == 0 {
		return models.TrendStable
	}
	change := (second - first) / first
	switch {
	case change > TrendThreshold:
		return models.TrendIncreasing
	case change < -TrendThreshold:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func setBaselines(t *models.RecurringGame, s Sample) {
	set := false
	if t.BaselineBuyIn == 0 && s.BuyIn > 0 {
		t.BaselineBuyIn = s.BuyIn
		set = true
	}
	if t.BaselineGuarantee == 0 && s.Guarantee > 0 {
		t.BaselineGuarantee = s.Guarantee
		set = true
	}
	if set && t.BaselineDate == nil && !s.StartedAt.IsZero() {
		d := s.StartedAt.UTC()
		t.BaselineDate = &d
	}
}

func upsert(h models.History, gameID, date string, value float64, window int) models.History {
	out := make(models.History, 0, len(h)+1)
	for _, e := range h {
		if e.GameID != gameID {
			out = append(out, e)
		}
	}
	out = append(out, models.HistoryEntry{Value: value, GameID: gameID, Date: date})
	return normalizeHistory(out, window)
}

func without(h models.History, gameID string) models.History {
	out := make(models.History, 0, len(h))
	for _, e := range h {
		if e.GameID != gameID {
			out = append(out, e)
		}
	}
	return out
}

// normalizeHistory sorts ascending by (date, gameId), drops duplicate game
// ids keeping the last occurrence, and keeps the newest window entries.
func normalizeHistory(h models.History, window int) models.History {
	if len(h) == 0 {
		return models.History{}
	}
	seen := make(map[string]int, len(h))
	dedup := make(models.History, 0, len(h))
	for _, e := range h {
		if i, ok := seen[e.GameID]; ok {
			dedup[i] = e
			continue
		}
		seen[e.GameID] = len(dedup)
		dedup = append(dedup, e)
	}
	sort.SliceStable(dedup, func(i, j int) bool {
		if dedup[i].Date != dedup[j].Date {
			return dedup[i].Date < dedup[j].Date
		}
		return dedup[i].GameID < dedup[j].GameID
	})
	if window > 0 && len(dedup) > window {
		dedup = dedup[len(dedup)-window:]
	}
	return dedup
}
