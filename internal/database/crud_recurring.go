// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/store"
)

func recurringIndexes(r *models.RecurringGame) store.Indexes {
	idx := store.Indexes{
		IndexRecurringByEntityDay: compositeKey(r.EntityID, r.DayOfWeek),
	}
	if !models.IsSentinelVenue(r.VenueID) {
		idx[IndexRecurringByEntityVenueDay] = compositeKey(r.EntityID, r.VenueID, r.DayOfWeek)
	}
	return idx
}

func instanceIndexes(i *models.RecurringGameInstance) store.Indexes {
	return store.Indexes{
		IndexInstanceByTemplate:     i.RecurringGameID,
		IndexInstanceByTemplateDate: compositeKey(i.RecurringGameID, i.ExpectedDate),
		IndexInstanceByStatusDate:   compositeKey(string(i.Status), i.ExpectedDate),
	}
}

// GetRecurringGame retrieves a template.
func (db *DB) GetRecurringGame(ctx context.Context, id string) (*models.RecurringGame, error) {
	r, err := get[models.RecurringGame](ctx, db.store, db.tables.RecurringGame, id)
	if err != nil {
		return nil, fmt.Errorf("get recurring game %s: %w", id, err)
	}
	return r, nil
}

// FindRecurringGame returns the template or nil when it does not exist.
func (db *DB) FindRecurringGame(ctx context.Context, id string) (*models.RecurringGame, error) {
	r, err := db.GetRecurringGame(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

// CreateRecurringGameIfAbsent stores r unless its id already exists and
// returns the stored template and whether it was created by this call.
func (db *DB) CreateRecurringGameIfAbsent(ctx context.Context, r *models.RecurringGame) (*models.RecurringGame, bool, error) {
	stored, created, err := createIfAbsent(ctx, db.store, db.tables.RecurringGame, r.ID, r, recurringIndexes(r))
	if err != nil {
		return nil, false, fmt.Errorf("create recurring game %s: %w", r.ID, err)
	}
	return stored, created, nil
}

// PutRecurringGame writes a template unconditionally.
func (db *DB) PutRecurringGame(ctx context.Context, r *models.RecurringGame) (*models.RecurringGame, error) {
	stored, err := put(ctx, db.store, db.tables.RecurringGame, r.ID, r, recurringIndexes(r), store.Condition{})
	if err != nil {
		return nil, fmt.Errorf("put recurring game %s: %w", r.ID, err)
	}
	return stored, nil
}

// UpdateRecurringGame applies fn to a template inside a versioned
// read-modify-write. fn may run more than once and must be pure.
func (db *DB) UpdateRecurringGame(ctx context.Context, id string, fn func(*models.RecurringGame) (*models.RecurringGame, error)) (*models.RecurringGame, error) {
	r, err := update(ctx, db.store, db.tables.RecurringGame, id, recurringIndexes, fn)
	if err != nil {
		return nil, fmt.Errorf("update recurring game %s: %w", id, err)
	}
	return r, nil
}

// ListRecurringGamesByVenueDay returns the templates of a venue on a day.
func (db *DB) ListRecurringGamesByVenueDay(ctx context.Context, entityID, venueID, day string) ([]*models.RecurringGame, error) {
	out, err := query[models.RecurringGame](ctx, db.store, store.Query{
		Table: db.tables.RecurringGame,
		Index: IndexRecurringByEntityVenueDay,
		Value: compositeKey(entityID, venueID, day),
	})
	if err != nil {
		return nil, fmt.Errorf("list templates %s/%s/%s: %w", entityID, venueID, day, err)
	}
	return out, nil
}

// ListRecurringGamesByEntityDay returns an entity's templates on a day across venues.
func (db *DB) ListRecurringGamesByEntityDay(ctx context.Context, entityID, day string) ([]*models.RecurringGame, error) {
	out, err := query[models.RecurringGame](ctx, db.store, store.Query{
		Table: db.tables.RecurringGame,
		Index: IndexRecurringByEntityDay,
		Value: compositeKey(entityID, day),
	})
	if err != nil {
		return nil, fmt.Errorf("list templates %s/%s: %w", entityID, day, err)
	}
	return out, nil
}

// ListRecurringGamesByEntity returns every template of an entity.
func (db *DB) ListRecurringGamesByEntity(ctx context.Context, entityID string) ([]*models.RecurringGame, error) {
	out, err := query[models.RecurringGame](ctx, db.store, store.Query{
		Table:  db.tables.RecurringGame,
		Index:  IndexRecurringByEntityDay,
		Value:  entityID + "#",
		Prefix: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list templates of %s: %w", entityID, err)
	}
	return out, nil
}

// GetInstance retrieves a template instance.
func (db *DB) GetInstance(ctx context.Context, id string) (*models.RecurringGameInstance, error) {
	i, err := get[models.RecurringGameInstance](ctx, db.store, db.tables.RecurringGameInstance, id)
	if err != nil {
		return nil, fmt.Errorf("get instance %s: %w", id, err)
	}
	return i, nil
}

// UpdateInstance applies fn to an instance atomically. fn receives nil when
// the instance does not exist yet.
func (db *DB) UpdateInstance(ctx context.Context, id string, fn func(*models.RecurringGameInstance) (*models.RecurringGameInstance, error)) (*models.RecurringGameInstance, error) {
	i, err := update(ctx, db.store, db.tables.RecurringGameInstance, id, instanceIndexes, fn)
	if err != nil {
		return nil, fmt.Errorf("update instance %s: %w", id, err)
	}
	return i, nil
}

// CreateInstanceIfAbsent stores i unless its id already exists.
func (db *DB) CreateInstanceIfAbsent(ctx context.Context, i *models.RecurringGameInstance) (*models.RecurringGameInstance, bool, error) {
	stored, created, err := createIfAbsent(ctx, db.store, db.tables.RecurringGameInstance, i.ID, i, instanceIndexes(i))
	if err != nil {
		return nil, false, fmt.Errorf("create instance %s: %w", i.ID, err)
	}
	return stored, created, nil
}

// ListInstancesByTemplate returns a template's instances.
func (db *DB) ListInstancesByTemplate(ctx context.Context, recurringGameID string) ([]*models.RecurringGameInstance, error) {
	out, err := query[models.RecurringGameInstance](ctx, db.store, store.Query{
		Table: db.tables.RecurringGameInstance,
		Index: IndexInstanceByTemplate,
		Value: recurringGameID,
	})
	if err != nil {
		return nil, fmt.Errorf("list instances of %s: %w", recurringGameID, err)
	}
	return out, nil
}

// FindInstanceByDate returns the template's instance on date, or nil.
func (db *DB) FindInstanceByDate(ctx context.Context, recurringGameID, date string) (*models.RecurringGameInstance, error) {
	out, err := query[models.RecurringGameInstance](ctx, db.store, store.Query{
		Table: db.tables.RecurringGameInstance,
		Index: IndexInstanceByTemplateDate,
		Value: compositeKey(recurringGameID, date),
		Limit: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("find instance %s on %s: %w", recurringGameID, date, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

// ListInstancesByStatus returns instances in status, ordered by expected date.
func (db *DB) ListInstancesByStatus(ctx context.Context, status models.InstanceStatus) ([]*models.RecurringGameInstance, error) {
	out, err := query[models.RecurringGameInstance](ctx, db.store, store.Query{
		Table:  db.tables.RecurringGameInstance,
		Index:  IndexInstanceByStatusDate,
		Value:  string(status) + "#",
		Prefix: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list %s instances: %w", status, err)
	}
	return out, nil
}

// ScanInstances calls fn for every stored instance.
func (db *DB) ScanInstances(ctx context.Context, fn func(*models.RecurringGameInstance) error) error {
	return scan(ctx, db.store, db.tables.RecurringGameInstance, fn)
}
