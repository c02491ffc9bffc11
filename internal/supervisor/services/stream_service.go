// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package services

import (
	"context"
	"fmt"
	"time"
)

// StreamRunner is the lifecycle of the game change stream.
//
// Satisfied by *eventprocessor.Processor:
//   - Start(ctx) starts the router and its venue-metrics handler
//   - Shutdown(ctx) closes the router, waiting for in-flight messages
//   - IsRunning() reports the router state
type StreamRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context)
	IsRunning() bool
}

// ChangeStreamService runs the change stream under supervision.
//
// It adapts Start/Shutdown to suture's Serve: Start, wait for ctx, then
// Shutdown with a fresh context bounded by shutdownTimeout. A failed Start
// is returned so the supervisor retries with backoff.
type ChangeStreamService struct {
	stream          StreamRunner
	shutdownTimeout time.Duration
	name            string
}

// NewChangeStreamService wraps stream. A non-positive timeout uses 10s.
func NewChangeStreamService(stream StreamRunner, shutdownTimeout time.Duration) *ChangeStreamService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &ChangeStreamService{
		stream:          stream,
		shutdownTimeout: shutdownTimeout,
		name:            "change-stream",
	}
}

// Serve implements suture.Service.
func (s *ChangeStreamService) Serve(ctx context.Context) error {
	if err := s.stream.Start(ctx); err != nil {
		return fmt.Errorf("change stream start failed: %w", err)
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.stream.Shutdown(shutdownCtx)

	return ctx.Err()
}

// String implements fmt.Stringer for suture's event log.
func (s *ChangeStreamService) String() string {
	return s.name
}
