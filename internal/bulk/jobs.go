// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package bulk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/kingsroom/internal/enrichment"
	"github.com/tomtom215/kingsroom/internal/financials"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/store"
)

var errMissingDependency = errors.New("maintenance dependency not configured")

// reEnrich runs every game of the venue (or entity) back through the
// pipeline. Games whose content did not change come back UNCHANGED.
func (r *Runner) reEnrich(ctx context.Context, req Request, rep *Report) error {
	if r.deps.Enricher == nil {
		return fmt.Errorf("%w: enricher", errMissingDependency)
	}
	var games []*models.Game
	var err error
	if req.VenueID != "" {
		games, err = r.db.ListGamesByVenue(ctx, req.VenueID)
	} else {
		games, err = r.db.ListGamesByEntity(ctx, req.EntityID)
	}
	if err != nil {
		return err
	}
	sortByStart(games)

	opts := enrichment.DefaultOptions()
	opts.SaveToDatabase = !req.DryRun
	return processBatches(ctx, r, rep, games, func(ctx context.Context, g *models.Game) (bool, error) {
		res, err := r.deps.Enricher.Enrich(ctx, enrichment.Input{Game: *g, Options: opts})
		if err != nil {
			return false, err
		}
		if !res.Success {
			return false, fmt.Errorf("game %s failed validation: %s", g.ID, validationSummary(res))
		}
		if req.DryRun {
			return res.EnrichedGame != nil && res.EnrichedGame.ContentHash != g.ContentHash, nil
		}
		return res.Metadata.Persistence.Status == enrichment.StepSaved, nil
	})
}

func validationSummary(res *enrichment.Result) string {
	msgs := make([]string, 0, len(res.Validation.Errors))
	for _, e := range res.Validation.Errors {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	if len(msgs) == 0 {
		return "no details"
	}
	return strings.Join(msgs, "; ")
}

// recomputeMetrics rebuilds the aggregates of one venue or every venue of an entity.
func (r *Runner) recomputeMetrics(ctx context.Context, req Request, rep *Report) error {
	if r.deps.Metrics == nil {
		return fmt.Errorf("%w: venue metrics", errMissingDependency)
	}
	var ids []string
	if req.VenueID != "" {
		ids = []string{req.VenueID}
	} else {
		venues, err := r.db.ListVenuesByEntity(ctx, req.EntityID)
		if err != nil {
			return err
		}
		for _, v := range venues {
			ids = append(ids, v.ID)
		}
		sort.Strings(ids)
	}
	return processBatches(ctx, r, rep, ids, func(ctx context.Context, venueID string) (bool, error) {
		if req.DryRun {
			return false, nil
		}
		_, err := r.deps.Metrics.Recompute(ctx, venueID)
		return err == nil, err
	})
}

// repairOverlay rewrites totals of snapshots that were summed without the
// guarantee overlay.
func (r *Runner) repairOverlay(ctx context.Context, req Request, rep *Report) error {
	var snaps []*models.GameFinancialSnapshot
	var err error
	if req.VenueID != "" {
		snaps, err = r.db.ListSnapshotsByVenue(ctx, req.VenueID)
	} else {
		err = r.db.ScanSnapshots(ctx, func(s *models.GameFinancialSnapshot) error {
			if req.EntityID == "" || s.EntityID == req.EntityID {
				snaps = append(snaps, s)
			}
			return nil
		})
	}
	if err != nil {
		return err
	}

	return processBatches(ctx, r, rep, snaps, func(ctx context.Context, s *models.GameFinancialSnapshot) (bool, error) {
		snap, cost, err := r.db.GetFinancials(ctx, s.GameID)
		if err != nil {
			return false, err
		}
		if !financials.RepairSnapshot(snap, cost) {
			return false, nil
		}
		if req.DryRun {
			return true, nil
		}
		if err := r.db.WriteFinancials(ctx, snap, cost); err != nil {
			return false, err
		}
		return true, nil
	})
}

// repairTimezones recomputes expectedDate, dayOfWeek and weekKey of linked
// instances from their game's start instant in the venue zone.
func (r *Runner) repairTimezones(ctx context.Context, req Request, rep *Report) error {
	if r.deps.Instances == nil || r.deps.Venues == nil {
		return fmt.Errorf("%w: recurring resolver", errMissingDependency)
	}
	var linked []*models.RecurringGameInstance
	err := r.db.ScanInstances(ctx, func(inst *models.RecurringGameInstance) error {
		if inst.GameID == "" {
			return nil
		}
		if req.VenueID != "" && inst.VenueID != req.VenueID {
			return nil
		}
		if req.EntityID != "" && inst.EntityID != req.EntityID {
			return nil
		}
		linked = append(linked, inst)
		return nil
	})
	if err != nil {
		return err
	}

	venues := newVenueCache(r.db)
	return processBatches(ctx, r, rep, linked, func(ctx context.Context, inst *models.RecurringGameInstance) (bool, error) {
		g, err := r.db.FindGame(ctx, inst.GameID)
		if err != nil || g == nil {
			return false, err
		}
		v, err := venues.get(ctx, g.VenueID)
		if err != nil {
			return false, err
		}
		loc := r.deps.Venues.Location(v)
		if req.DryRun {
			return models.LocalDate(g.GameStartDateTime, loc) != inst.ExpectedDate ||
				models.DayName(g.GameStartDateTime, loc) != inst.DayOfWeek ||
				models.WeekKey(g.GameStartDateTime, loc) != inst.WeekKey, nil
		}
		return r.deps.Instances.RepairInstanceDates(ctx, inst, g, loc)
	})
}

// repairStatuses rewrites stored legacy status aliases to the current values.
func (r *Runner) repairStatuses(ctx context.Context, req Request, rep *Report) error {
	var legacy []string
	err := r.db.ScanGames(ctx, func(g *models.Game) error {
		if !g.GameStatus.IsLegacy() {
			return nil
		}
		if req.VenueID != "" && g.VenueID != req.VenueID {
			return nil
		}
		if req.EntityID != "" && g.EntityID != req.EntityID {
			return nil
		}
		legacy = append(legacy, g.ID)
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(legacy)

	return processBatches(ctx, r, rep, legacy, func(ctx context.Context, id string) (bool, error) {
		if req.DryRun {
			return true, nil
		}
		changed := false
		_, err := r.db.UpdateGame(ctx, id, func(cur *models.Game) (*models.Game, error) {
			if cur == nil || !cur.GameStatus.IsLegacy() {
				return nil, store.ErrSkipWrite
			}
			status, _ := models.ParseGameStatus(string(cur.GameStatus))
			cur.GameStatus = status
			changed = true
			return cur, nil
		})
		return changed, err
	})
}

// projectInstances creates EXPECTED instances for the coming weeks of every
// active template of the entity.
func (r *Runner) projectInstances(ctx context.Context, req Request, rep *Report) error {
	if r.deps.Instances == nil || r.deps.Venues == nil {
		return fmt.Errorf("%w: recurring resolver", errMissingDependency)
	}
	templates, err := r.db.ListRecurringGamesByEntity(ctx, req.EntityID)
	if err != nil {
		return err
	}
	active := templates[:0]
	for _, t := range templates {
		if t.IsActive && (req.VenueID == "" || t.VenueID == req.VenueID) {
			active = append(active, t)
		}
	}
	weeks := req.Weeks
	if weeks == 0 {
		weeks = defaultProjectWeeks
	}

	from := r.now()
	venues := newVenueCache(r.db)
	return processBatches(ctx, r, rep, active, func(ctx context.Context, t *models.RecurringGame) (bool, error) {
		if req.DryRun {
			return false, nil
		}
		v, err := venues.get(ctx, t.VenueID)
		if err != nil {
			return false, err
		}
		created, err := r.deps.Instances.ProjectInstances(ctx, t, from, weeks, r.deps.Venues.Location(v))
		return len(created) > 0, err
	})
}

// markMissed moves past-due EXPECTED instances to MISSED.
func (r *Runner) markMissed(ctx context.Context, req Request, rep *Report) error {
	if r.deps.Instances == nil {
		return fmt.Errorf("%w: recurring resolver", errMissingDependency)
	}
	grace := req.GraceDays
	if grace == 0 {
		grace = defaultGraceDays
	}
	if req.DryRun {
		return nil
	}
	_, err := store.Retry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, store.IsRetryable, func() error {
		n, err := r.deps.Instances.MarkMissed(ctx, r.now(), grace)
		rep.Updated += n
		return err
	})
	rep.Batches = 1
	return err
}

func sortByStart(games []*models.Game) {
	sort.SliceStable(games, func(i, j int) bool {
		if !games[i].GameStartDateTime.Equal(games[j].GameStartDateTime) {
			return games[i].GameStartDateTime.Before(games[j].GameStartDateTime)
		}
		return games[i].ID < games[j].ID
	})
}
