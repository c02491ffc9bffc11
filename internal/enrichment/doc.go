// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package enrichment runs the full enrichment of one game.

The steps always run in the same order:

 1. validate the input (legacy statuses mapped, struct tags checked)
 2. resolve the venue
 3. resolve the series
 4. resolve the recurring template
 5. derive the query keys
 6. compute financials
 7. assemble the enriched game and its metadata
 8. persist, when requested and the content hash changed

Resolver failures are recorded as FAILED step metadata and the remaining
steps still run. Only fatal validation errors stop the pipeline before the
venue step.

Preview and commit share every step except the last, so a preview shows
exactly what a commit would write.

Usage:

	o := enrichment.New(db, enrichment.DefaultConfig(), time.Now)
	res, err := o.Enrich(ctx, enrichment.Input{Game: g, Options: enrichment.DefaultOptions()})
*/
package enrichment
