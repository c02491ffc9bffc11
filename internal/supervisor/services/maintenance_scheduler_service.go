// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/kingsroom/internal/bulk"
	"github.com/tomtom215/kingsroom/internal/logging"
)

// JobRunner runs one bulk job. Satisfied by *bulk.Runner.
type JobRunner interface {
	Run(ctx context.Context, job bulk.Job, req bulk.Request) (*bulk.Report, error)
}

// MaintenanceSchedulerService runs a bulk job on a fixed interval.
//
// The job runs once on start and then every interval. A failed run is
// logged and retried on the next tick rather than restarting the service;
// a run already in progress from the API is skipped.
type MaintenanceSchedulerService struct {
	runner   JobRunner
	job      bulk.Job
	req      bulk.Request
	interval time.Duration
	name     string
}

// NewMaintenanceSchedulerService schedules job with req every interval.
func NewMaintenanceSchedulerService(runner JobRunner, job bulk.Job, req bulk.Request, interval time.Duration) *MaintenanceSchedulerService {
	return &MaintenanceSchedulerService{
		runner:   runner,
		job:      job,
		req:      req,
		interval: interval,
		name:     "scheduler-" + string(job),
	}
}

// Serve implements suture.Service.
func (s *MaintenanceSchedulerService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("%s: interval must be positive, got %s", s.name, s.interval)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *MaintenanceSchedulerService) runOnce(ctx context.Context) {
	rep, err := s.runner.Run(ctx, s.job, s.req)
	switch {
	case errors.Is(err, bulk.ErrJobRunning):
		logging.Debug().Str("job", string(s.job)).Msg("Scheduled job skipped, already running")
	case err != nil && ctx.Err() != nil:
		// Shutdown interrupted the run.
	case err != nil:
		logging.Warn().Err(err).Str("job", string(s.job)).Msg("Scheduled job failed")
	default:
		logging.Info().
			Str("job", string(s.job)).
			Int("updated", rep.Updated).
			Int64("duration_ms", rep.DurationMs).
			Msg("Scheduled job completed")
	}
}

// String implements fmt.Stringer for suture's event log.
func (s *MaintenanceSchedulerService) String() string {
	return s.name
}
