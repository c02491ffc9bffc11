// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package api provides the HTTP layer for Kingsroom.

Routes are served by a chi router. Every response uses the APIResponse
envelope: status, data, metadata (timestamp, request id, query time) and an
APIError on failure.

Endpoints:

  - POST /api/v1/games/enrich: run the enrichment pipeline on one game
  - POST /api/v1/games/enrich/preview: the same with saveToDatabase forced off
  - GET  /api/v1/venues/{venueID}/metrics: stored venue aggregates
  - POST /api/v1/venues/{venueID}/metrics/recompute: rebuild them from all games
  - GET  /api/v1/recurring-games/{id}: a template and its instances
  - GET  /api/v1/maintenance: job names
  - POST /api/v1/maintenance/{job}: run a bulk job
  - GET  /api/v1/health, /api/v1/health/live
  - GET  /metrics: Prometheus

Middleware: request id with logging context, real IP, panic recovery and
CORS apply globally. The /api/v1 group adds an httprate limit, Prometheus
request metrics and gzip; maintenance carries a stricter limit of its own.

Usage:

	handler := api.NewHandler(db, orchestrator, aggregator, runner, processor)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromServer(origins, 100, time.Minute, false))
	srv := &http.Server{Addr: ":8080", Handler: router.SetupChi()}
*/
package api
