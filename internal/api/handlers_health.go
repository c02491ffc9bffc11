// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/kingsroom/internal/eventprocessor"
)

// healthCheckTimeout bounds the store ping and component checks.
const healthCheckTimeout = 5 * time.Second

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status         string                           `json:"status"`
	StoreConnected bool                             `json:"store_connected"`
	Components     []eventprocessor.ComponentHealth `json:"components"`
	Uptime         float64                          `json:"uptime"`
}

// Health reports store connectivity and the health of background components.
// The store being unreachable is 503; an unhealthy component only degrades.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	health := HealthStatus{
		Status:     "healthy",
		Components: make([]eventprocessor.ComponentHealth, 0, len(h.components)),
		Uptime:     time.Since(h.startTime).Seconds(),
	}
	health.StoreConnected = h.db != nil && h.db.Ping(ctx) == nil
	for _, c := range h.components {
		ch := c.HealthCheck(ctx)
		if !ch.Healthy {
			health.Status = "degraded"
		}
		health.Components = append(health.Components, ch)
	}

	status := http.StatusOK
	if !health.StoreConnected {
		health.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	respondSuccess(w, r, status, health, start)
}

// HealthLive returns 200 while the process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, http.StatusOK, map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, time.Now())
}
