// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package middleware provides HTTP middleware for the Kingsroom API.

Key Components:

  - RequestID: reuses or generates X-Request-ID and seeds the logging context
    with request and correlation ids
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled by
    chi route pattern
  - Compression: gzip for clients that accept it

All three have the http.HandlerFunc middleware shape; the api package adapts
them to chi's r.Use.

Usage:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Group(func(r chi.Router) {
	    r.Use(chiMiddleware(middleware.PrometheusMetrics))
	    r.Use(chiMiddleware(middleware.Compression))
	    r.Post("/api/v1/games/enrich", h.EnrichGame)
	})
*/
package middleware
