// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package bulk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/kingsroom/internal/cache"
	"github.com/tomtom215/kingsroom/internal/database"
	"github.com/tomtom215/kingsroom/internal/enrichment"
	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/models"
	"github.com/tomtom215/kingsroom/internal/store"
)

// Job names a maintenance job.
type Job string

const (
	JobReEnrich         Job = "re-enrich"
	JobRecomputeMetrics Job = "recompute-metrics"
	JobOverlayRepair    Job = "overlay-repair"
	JobTimezoneRepair   Job = "timezone-repair"
	JobStatusRepair     Job = "status-repair"
	JobProjectInstances Job = "project-instances"
	JobMarkMissed       Job = "mark-missed"
)

// Jobs lists every job in a stable order.
func Jobs() []Job {
	return []Job{
		JobReEnrich, JobRecomputeMetrics, JobOverlayRepair, JobTimezoneRepair,
		JobStatusRepair, JobProjectInstances, JobMarkMissed,
	}
}

var (
	// ErrUnknownJob is returned for a job name Jobs does not list.
	ErrUnknownJob = errors.New("unknown maintenance job")

	// ErrInvalidRequest is returned when a job lacks the scope it needs.
	ErrInvalidRequest = errors.New("invalid maintenance request")

	// ErrJobRunning is returned when the same job is already running.
	ErrJobRunning = errors.New("maintenance job already running")
)

const (
	defaultProjectWeeks = 4
	defaultGraceDays    = 2
	maxReportErrors     = 20
)

// Config paces the jobs.
type Config struct {
	// BatchSize is capped at store.MaxBatchSize.
	BatchSize int

	// RatePerSecond bounds batches per second; 0 disables pacing.
	RatePerSecond float64

	// Interval is the minimum pause between batches.
	Interval time.Duration

	MaxRetries   int
	RetryBackoff time.Duration

	// Concurrency bounds items processed in parallel within a batch.
	Concurrency int
}

// DefaultConfig returns conservative pacing for a shared store.
func DefaultConfig() Config {
	return Config{
		BatchSize:     store.MaxBatchSize,
		RatePerSecond: 10,
		Interval:      100 * time.Millisecond,
		MaxRetries:    5,
		RetryBackoff:  100 * time.Millisecond,
		Concurrency:   4,
	}
}

// Request scopes a job. Re-enrich and recompute-metrics need a venue or an
// entity; project-instances needs an entity.
type Request struct {
	VenueID   string `json:"venueId,omitempty" validate:"omitempty,max=128"`
	EntityID  string `json:"entityId,omitempty" validate:"omitempty,max=128"`
	Weeks     int    `json:"weeks,omitempty" validate:"gte=0,lte=52"`
	GraceDays int    `json:"graceDays,omitempty" validate:"gte=0,lte=60"`
	DryRun    bool   `json:"dryRun"`
}

// Report summarizes one run.
type Report struct {
	Job        Job       `json:"job"`
	DryRun     bool      `json:"dryRun"`
	Scanned    int       `json:"scanned"`
	Updated    int       `json:"updated"`
	Unchanged  int       `json:"unchanged"`
	Failed     int       `json:"failed"`
	Batches    int       `json:"batches"`
	Retries    int       `json:"retries"`
	Errors     []string  `json:"errors,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`

	mu sync.Mutex
}

func (r *Report) add(updated bool, retries int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Retries += retries
	switch {
	case err != nil:
		r.Failed++
		if len(r.Errors) < maxReportErrors {
			r.Errors = append(r.Errors, err.Error())
		}
	case updated:
		r.Updated++
	default:
		r.Unchanged++
	}
}

// Enricher runs one enrichment.
type Enricher interface {
	Enrich(ctx context.Context, in enrichment.Input) (*enrichment.Result, error)
}

// MetricsRecomputer rebuilds one venue's aggregates.
type MetricsRecomputer interface {
	Recompute(ctx context.Context, venueID string) (*models.VenueDetails, error)
}

// InstanceMaintainer owns recurring instance lifecycle.
type InstanceMaintainer interface {
	ProjectInstances(ctx context.Context, t *models.RecurringGame, from time.Time, count int, loc *time.Location) ([]*models.RecurringGameInstance, error)
	MarkMissed(ctx context.Context, now time.Time, graceDays int) (int, error)
	RepairInstanceDates(ctx context.Context, inst *models.RecurringGameInstance, g *models.Game, loc *time.Location) (bool, error)
}

// Locator dates games at a venue.
type Locator interface {
	Location(v *models.Venue) *time.Location
}

// Deps are the collaborators the jobs drive.
type Deps struct {
	Enricher  Enricher
	Metrics   MetricsRecomputer
	Instances InstanceMaintainer
	Venues    Locator
}

// Runner executes maintenance jobs against the store. One run per job may
// be in flight; different jobs may run concurrently.
type Runner struct {
	db   *database.DB
	deps Deps
	cfg  Config
	now  func() time.Time

	mu      sync.Mutex
	running map[Job]bool
}

// NewRunner returns a Runner. now defaults to time.Now.
func NewRunner(db *database.DB, deps Deps, cfg Config, now func() time.Time) *Runner {
	if cfg.BatchSize <= 0 || cfg.BatchSize > store.MaxBatchSize {
		cfg.BatchSize = store.MaxBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if now == nil {
		now = time.Now
	}
	return &Runner{db: db, deps: deps, cfg: cfg, now: now, running: make(map[Job]bool)}
}

// Run executes job scoped by req and returns its report. A report is
// returned with the error when the run stopped part way.
func (r *Runner) Run(ctx context.Context, job Job, req Request) (*Report, error) {
	run, ok := r.jobFunc(job)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, job)
	}
	if err := validateScope(job, req); err != nil {
		return nil, err
	}
	if !r.acquire(job) {
		return nil, fmt.Errorf("%w: %s", ErrJobRunning, job)
	}
	defer r.release(job)

	rep := &Report{Job: job, DryRun: req.DryRun, StartedAt: r.now()}
	log := logging.Ctx(ctx).With().Str("job", string(job)).Logger()
	log.Info().
		Str("venue_id", req.VenueID).
		Str("entity_id", req.EntityID).
		Bool("dry_run", req.DryRun).
		Msg("Maintenance job started")

	start := time.Now()
	err := run(ctx, req, rep)
	rep.DurationMs = time.Since(start).Milliseconds()

	evt := log.Info()
	if err != nil {
		evt = log.Error().Err(err)
	}
	evt.Int("scanned", rep.Scanned).
		Int("updated", rep.Updated).
		Int("unchanged", rep.Unchanged).
		Int("failed", rep.Failed).
		Int("batches", rep.Batches).
		Int("retries", rep.Retries).
		Int64("duration_ms", rep.DurationMs).
		Msg("Maintenance job finished")
	return rep, err
}

func (r *Runner) jobFunc(job Job) (func(context.Context, Request, *Report) error, bool) {
	switch job {
	case JobReEnrich:
		return r.reEnrich, true
	case JobRecomputeMetrics:
		return r.recomputeMetrics, true
	case JobOverlayRepair:
		return r.repairOverlay, true
	case JobTimezoneRepair:
		return r.repairTimezones, true
	case JobStatusRepair:
		return r.repairStatuses, true
	case JobProjectInstances:
		return r.projectInstances, true
	case JobMarkMissed:
		return r.markMissed, true
	}
	return nil, false
}

func validateScope(job Job, req Request) error {
	switch job {
	case JobReEnrich, JobRecomputeMetrics:
		if req.VenueID == "" && req.EntityID == "" {
			return fmt.Errorf("%w: %s needs venueId or entityId", ErrInvalidRequest, job)
		}
	case JobProjectInstances:
		if req.EntityID == "" {
			return fmt.Errorf("%w: %s needs entityId", ErrInvalidRequest, job)
		}
	}
	if req.Weeks < 0 || req.GraceDays < 0 {
		return fmt.Errorf("%w: weeks and graceDays must not be negative", ErrInvalidRequest)
	}
	return nil
}

func (r *Runner) acquire(job Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running[job] {
		return false
	}
	r.running[job] = true
	return true
}

func (r *Runner) release(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, job)
}

// limiter paces one run. Burst 1 spaces batches evenly.
func (r *Runner) limiter() *rate.Limiter {
	if r.cfg.RatePerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(r.cfg.RatePerSecond), 1)
}

// venueCache memoizes venue lookups for the span of one run.
type venueCache struct {
	db  *database.DB
	lru *cache.LRU[*models.Venue]
}

func newVenueCache(db *database.DB) *venueCache {
	return &venueCache{db: db, lru: cache.NewLRU[*models.Venue](1024, time.Hour)}
}

// get returns the venue or nil when id is empty or unknown.
func (c *venueCache) get(ctx context.Context, id string) (*models.Venue, error) {
	if id == "" {
		return nil, nil
	}
	if v, ok := c.lru.Get(id); ok {
		return v, nil
	}
	v, err := c.db.FindVenue(ctx, id)
	if err != nil {
		return nil, err
	}
	c.lru.Add(id, v)
	return v, nil
}
