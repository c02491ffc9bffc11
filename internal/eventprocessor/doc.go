// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package eventprocessor carries the store's change stream to its consumers.

Every committed write of the document store is published as a
models.ChangeEvent on the topic "<prefix>.changes.<table>". A Watermill
router consumes the Game topic and hands each event to a ChangeHandler,
which applies the change gate and dispatches:

  - every passing event updates the metrics of every venue touched by the
    old or new image
  - a new image without a contentHash is a raw ingester write and is
    then enriched in commit mode; the enriched write comes back round as
    a modification of a game the venue already counts

# Transports

The default transport is an in-process Watermill gochannel. Building with
-tags nats adds a JetStream transport, optionally backed by an embedded
NATS server, for deployments that split writers and consumers:

	go build -tags nats ./cmd/server

# Middleware

Router middleware runs outer to inner:

 1. PoisonQueue moves exhausted messages to "<prefix>.dlq"
 2. Recoverer turns handler panics into errors
 3. Deduplicator drops events already seen by (table, key, version)
 4. Retry re-runs failed handlers with exponential backoff
 5. Throttle limits messages per second when configured

Example:

	proc, err := eventprocessor.NewProcessor(cfg, tables.Game, handler, watermillLogger)
	if err != nil {
		return err
	}
	badgerStore.SetChangeSink(proc.Sink())
	if err := proc.Start(ctx); err != nil {
		return err
	}
	defer proc.Shutdown(context.Background())
*/
package eventprocessor
