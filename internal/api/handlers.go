// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package api

import (
	"context"
	"time"

	"github.com/tomtom215/kingsroom/internal/bulk"
	"github.com/tomtom215/kingsroom/internal/database"
	"github.com/tomtom215/kingsroom/internal/enrichment"
	"github.com/tomtom215/kingsroom/internal/eventprocessor"
	"github.com/tomtom215/kingsroom/internal/models"
)

// Enricher runs the enrichment pipeline.
type Enricher interface {
	Enrich(ctx context.Context, in enrichment.Input) (*enrichment.Result, error)
}

// VenueMetrics rebuilds a venue's aggregates.
type VenueMetrics interface {
	Recompute(ctx context.Context, venueID string) (*models.VenueDetails, error)
}

// Maintenance runs bulk jobs.
type Maintenance interface {
	Run(ctx context.Context, job bulk.Job, req bulk.Request) (*bulk.Report, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_enrich.go: enrichment mutation and preview
//   - handlers_venues.go: venue metrics
//   - handlers_recurring.go: recurring game templates
//   - handlers_maintenance.go: bulk maintenance jobs
//   - handlers_health.go: health
type Handler struct {
	db          *database.DB
	enricher    Enricher
	metrics     VenueMetrics
	maintenance Maintenance
	components  []eventprocessor.HealthCheckable
	startTime   time.Time
}

// NewHandler creates a handler. maintenance and components may be nil.
func NewHandler(db *database.DB, enricher Enricher, metrics VenueMetrics, maintenance Maintenance, components ...eventprocessor.HealthCheckable) *Handler {
	return &Handler{
		db:          db,
		enricher:    enricher,
		metrics:     metrics,
		maintenance: maintenance,
		components:  components,
		startTime:   time.Now(),
	}
}
