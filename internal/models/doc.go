// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

/*
Package models defines the records stored and exchanged by Kingsroom.

Entities own venues and games. A game may belong to one venue, one tournament
series and one recurring template. Templates own their instances by id,
instances reference games by id and games reference templates by id; no
record embeds another.

Record Categories:

  - Entity, Venue, VenueDetails: scraping sources, locations and venue aggregates
  - Game: a single tournament with its enrichment markers
  - TournamentSeries, TournamentSeriesTitle: festivals and their yearly instances
  - RecurringGame, RecurringGameInstance: templates, rolling histories and occurrences
  - GameFinancialSnapshot, GameCost: per-game financial outputs
  - ChangeEvent: a committed write observed on the store's change stream

Enumerations are string types with an IsValid method. Legacy status strings
found in older datasets are mapped at the persistence boundary by
ParseGameStatus.
*/
package models
