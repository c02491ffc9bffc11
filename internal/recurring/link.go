// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/rollingstats"
)

// ErrTemplateMissing is returned when a matched template disappears before commit.
var ErrTemplateMissing = errors.New("recurring game template missing")

// Commit writes what Resolve decided for g. prior is the stored game before
// enrichment, or nil. Template statistics are written before the game itself
// so a replay after a partial failure finds the game already counted.
func (r *Resolver) Commit(ctx context.Context, g, prior *models.Game, res *Resolution, loc *time.Location) error {
	switch res.Status {
	case StatusSkipped, StatusFailed:
		return nil
	}
	if loc == nil {
		loc = r.cfg.Location
	}

	prevID := ""
	if prior != nil {
		prevID = prior.RecurringGameID
	}
	if prevID != "" && prevID != res.RecurringGameID {
		if err := r.unlink(ctx, prior, loc); err != nil {
			return err
		}
	}
	if !res.Linked() {
		return nil
	}

	if res.Pending != nil {
		if err := r.create(ctx, res.Pending); err != nil {
			return err
		}
	}

	sample := rollingstats.SampleFromGame(g, loc)
	alreadyLinked := prevID == res.RecurringGameID
	var applied rollingstats.Result
	_, err := r.db.UpdateRecurringGame(ctx, res.RecurringGameID, func(t *models.RecurringGame) (*models.RecurringGame, error) {
		if t == nil {
			return nil, fmt.Errorf("%w: %s", ErrTemplateMissing, res.RecurringGameID)
		}
		applied = rollingstats.Apply(t, sample, alreadyLinked)
		return t, nil
	})
	if err != nil {
		return fmt.Errorf("link game %s: %w", g.ID, err)
	}
	logging.Ctx(ctx).Debug().
		Str("game_id", g.ID).
		Str("recurring_game_id", res.RecurringGameID).
		Bool("new_game", applied.NewGame).
		Bool("counted", applied.Counted).
		Int("repairs", len(applied.Repairs)).
		Msg("Template statistics updated")

	if res.InstanceID == "" {
		return nil
	}
	return r.confirmInstance(ctx, g, res, loc)
}

// create stores a pending template. The lock keeps two local enrichments of
// one schedule from racing; the conditional put covers other processes.
func (r *Resolver) create(ctx context.Context, t *models.RecurringGame) error {
	unlock := r.locks.Lock(lockKey(t.EntityID, t.VenueID, t.DayOfWeek, t.NormalizedName))
	defer unlock()

	stored, created, err := r.db.CreateRecurringGameIfAbsent(ctx, t)
	if err != nil {
		return err
	}
	if created {
		logging.Ctx(ctx).Info().
			Str("recurring_game_id", stored.ID).
			Str("entity_id", stored.EntityID).
			Str("venue_id", stored.VenueID).
			Str("day", stored.DayOfWeek).
			Str("name", stored.Name).
			Msg("Recurring game template created")
	}
	return nil
}

func (r *Resolver) confirmInstance(ctx context.Context, g *models.Game, res *Resolution, loc *time.Location) error {
	t := res.Template
	_, err := r.db.UpdateInstance(ctx, res.InstanceID, func(cur *models.RecurringGameInstance) (*models.RecurringGameInstance, error) {
		if cur == nil {
			cur = &models.RecurringGameInstance{
				ID:              res.InstanceID,
				RecurringGameID: res.RecurringGameID,
				EntityID:        g.EntityID,
				ExpectedDate:    res.ExpectedDate,
				DayOfWeek:       models.DayName(g.GameStartDateTime, loc),
				WeekKey:         models.WeekKey(g.GameStartDateTime, loc),
			}
			if t != nil {
				cur.VenueID = t.VenueID
			}
		}
		if cur.Status == models.InstanceConfirmed && cur.GameID != "" {
			return nil, nil
		}
		cur.Status = models.InstanceConfirmed
		cur.GameID = g.ID
		return cur, nil
	})
	if err != nil {
		return fmt.Errorf("confirm instance %s: %w", res.InstanceID, err)
	}
	return nil
}

// unlink reverses prior's contribution to its previous template and frees
// the instance it confirmed.
func (r *Resolver) unlink(ctx context.Context, prior *models.Game, loc *time.Location) error {
	sample := rollingstats.SampleFromGame(prior, loc)
	_, err := r.db.UpdateRecurringGame(ctx, prior.RecurringGameID, func(t *models.RecurringGame) (*models.RecurringGame, error) {
		if t == nil || !rollingstats.Remove(t, sample, true) {
			return nil, nil
		}
		return t, nil
	})
	if err != nil {
		return fmt.Errorf("unlink game %s from %s: %w", prior.ID, prior.RecurringGameID, err)
	}
	logging.Ctx(ctx).Info().
		Str("game_id", prior.ID).
		Str("recurring_game_id", prior.RecurringGameID).
		Msg("Game unlinked from previous template")

	if prior.RecurringGameInstanceID == "" {
		return nil
	}
	_, err = r.db.UpdateInstance(ctx, prior.RecurringGameInstanceID, func(cur *models.RecurringGameInstance) (*models.RecurringGameInstance, error) {
		if cur == nil || cur.GameID != prior.ID {
			return nil, nil
		}
		cur.Status = models.InstanceExpected
		cur.GameID = ""
		return cur, nil
	})
	if err != nil {
		return fmt.Errorf("release instance %s: %w", prior.RecurringGameInstanceID, err)
	}
	return nil
}
