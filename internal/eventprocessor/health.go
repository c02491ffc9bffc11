// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package eventprocessor

import (
	"context"
	"time"
)

// ComponentHealth represents the health status of a single component.
type ComponentHealth struct {
	Healthy   bool           `json:"healthy"`
	Name      string         `json:"name"`
	Message   string         `json:"message,omitempty"`
	Error     string         `json:"error,omitempty"`
	LastCheck time.Time      `json:"last_check"`
	Details   map[string]any `json:"details,omitempty"`
}

// HealthCheckable is implemented by components that support health checking.
type HealthCheckable interface {
	HealthCheck(ctx context.Context) ComponentHealth
}

var _ HealthCheckable = (*Processor)(nil)
