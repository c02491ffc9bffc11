// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package logging provides zerolog-based structured logging for Kingsroom.

A single process-wide logger is configured once with Init and read through
the package-level level functions:

	logging.Init(logging.Config{Level: "debug", Format: "console"})
	logging.Info().Str("game_id", id).Msg("Game enriched")

Request-scoped fields (request id, correlation id) travel on the context:

	ctx = logging.ContextWithNewCorrelationID(ctx)
	logging.Ctx(ctx).Warn().Msg("Series resolution failed")

Adapters bridge the logger into libraries that bring their own logging
interface: SlogHandler for log/slog consumers (the suture supervisor) and
WatermillAdapter for the change-stream router.
*/
package logging
