// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package recurring

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/models"
)

// ProjectInstances creates EXPECTED instances for the next count occurrences
// of t on or after from, dated in loc. Existing instances are left alone; the
// newly created ones are returned.
func (r *Resolver) ProjectInstances(ctx context.Context, t *models.RecurringGame, from time.Time, count int, loc *time.Location) ([]*models.RecurringGameInstance, error) {
	if loc == nil {
		loc = r.cfg.Location
	}
	var created []*models.RecurringGameInstance
	for _, day := range occurrences(t, from, count, loc) {
		date := day.Format(models.DateLayout)
		inst := &models.RecurringGameInstance{
			ID:              InstanceID(t.ID, date),
			RecurringGameID: t.ID,
			VenueID:         t.VenueID,
			EntityID:        t.EntityID,
			ExpectedDate:    date,
			DayOfWeek:       models.DayName(day, loc),
			WeekKey:         models.WeekKey(day, loc),
			Status:          models.InstanceExpected,
		}
		stored, ok, err := r.db.CreateInstanceIfAbsent(ctx, inst)
		if err != nil {
			return created, fmt.Errorf("project %s on %s: %w", t.ID, date, err)
		}
		if ok {
			created = append(created, stored)
		}
	}
	logging.Ctx(ctx).Debug().
		Str("recurring_game_id", t.ID).
		Int("requested", count).
		Int("created", len(created)).
		Msg("Instances projected")
	return created, nil
}

// occurrences lists the calendar days, at local noon, on which t is expected
// to run starting from the day of from.
func occurrences(t *models.RecurringGame, from time.Time, count int, loc *time.Location) []time.Time {
	if count <= 0 {
		return nil
	}
	f := from.In(loc)
	day := time.Date(f.Year(), f.Month(), f.Day(), 12, 0, 0, 0, loc)
	out := make([]time.Time, 0, count)

	if t.Frequency == models.FrequencyDaily {
		for len(out) < count {
			out = append(out, day)
			day = day.AddDate(0, 0, 1)
		}
		return out
	}

	order := models.DayOrder(t.DayOfWeek)
	if order < 0 {
		return nil
	}
	want := time.Weekday((order + 1) % 7)

	if t.Frequency == models.FrequencyMonthly {
		return monthly(day, want, nthWeek(t, loc), count)
	}

	for day.Weekday() != want {
		day = day.AddDate(0, 0, 1)
	}
	step := 7
	if t.Frequency == models.FrequencyBiweekly {
		step = 14
		if t.FirstGameDate != nil {
			a := t.FirstGameDate.In(loc)
			anchor := time.Date(a.Year(), a.Month(), a.Day(), 12, 0, 0, 0, loc)
			days := int(math.Round(day.Sub(anchor).Hours() / 24))
			if ((days%14)+14)%14 != 0 {
				day = day.AddDate(0, 0, 7)
			}
		}
	}
	for len(out) < count {
		out = append(out, day)
		day = day.AddDate(0, 0, step)
	}
	return out
}

// nthWeek is the week of the month the template first ran in, defaulting to the first.
func nthWeek(t *models.RecurringGame, loc *time.Location) int {
	if t.FirstGameDate == nil {
		return 1
	}
	return (t.FirstGameDate.In(loc).Day()-1)/7 + 1
}

func monthly(from time.Time, want time.Weekday, nth, count int) []time.Time {
	out := make([]time.Time, 0, count)
	first := time.Date(from.Year(), from.Month(), 1, 12, 0, 0, 0, from.Location())
	for months := 0; len(out) < count && months < count*2+12; months++ {
		m := first.AddDate(0, months, 0)
		d := m
		for d.Weekday() != want {
			d = d.AddDate(0, 0, 1)
		}
		d = d.AddDate(0, 0, 7*(nth-1))
		if d.Month() != m.Month() || d.Before(from) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// MarkMissed moves EXPECTED instances dated more than graceDays before now
// to MISSED and returns how many moved.
func (r *Resolver) MarkMissed(ctx context.Context, now time.Time, graceDays int) (int, error) {
	cutoff := models.LocalDate(now.AddDate(0, 0, -graceDays), r.cfg.Location)
	expected, err := r.db.ListInstancesByStatus(ctx, models.InstanceExpected)
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, inst := range expected {
		if inst.ExpectedDate >= cutoff {
			break
		}
		updated, err := r.db.UpdateInstance(ctx, inst.ID, func(cur *models.RecurringGameInstance) (*models.RecurringGameInstance, error) {
			if cur == nil || cur.Status != models.InstanceExpected {
				return nil, nil
			}
			cur.Status = models.InstanceMissed
			return cur, nil
		})
		if err != nil {
			return moved, fmt.Errorf("mark %s missed: %w", inst.ID, err)
		}
		if updated != nil && updated.Status == models.InstanceMissed {
			moved++
		}
	}
	logging.Ctx(ctx).Info().Str("cutoff", cutoff).Int("missed", moved).Msg("Past-due instances marked missed")
	return moved, nil
}

// RepairInstanceDates recomputes the calendar fields of inst from the start
// of its linked game g in loc. It reports whether anything changed.
func (r *Resolver) RepairInstanceDates(ctx context.Context, inst *models.RecurringGameInstance, g *models.Game, loc *time.Location) (bool, error) {
	if loc == nil {
		loc = r.cfg.Location
	}
	date := models.LocalDate(g.GameStartDateTime, loc)
	day := models.DayName(g.GameStartDateTime, loc)
	week := models.WeekKey(g.GameStartDateTime, loc)
	if inst.ExpectedDate == date && inst.DayOfWeek == day && inst.WeekKey == week {
		return false, nil
	}

	changed := false
	_, err := r.db.UpdateInstance(ctx, inst.ID, func(cur *models.RecurringGameInstance) (*models.RecurringGameInstance, error) {
		if cur == nil || cur.GameID != g.ID {
			return nil, nil
		}
		if cur.ExpectedDate == date && cur.DayOfWeek == day && cur.WeekKey == week {
			return nil, nil
		}
		cur.ExpectedDate, cur.DayOfWeek, cur.WeekKey = date, day, week
		changed = true
		return cur, nil
	})
	if err != nil {
		return false, fmt.Errorf("repair instance %s: %w", inst.ID, err)
	}
	if changed {
		logging.Ctx(ctx).Info().
			Str("instance_id", inst.ID).
			Str("game_id", g.ID).
			Str("from", inst.ExpectedDate).
			Str("to", date).
			Msg("Instance dates repaired")
	}
	return changed, nil
}
