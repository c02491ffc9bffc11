// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package models

import (
	"fmt"
	"strings"
)

// GameStatus is the lifecycle state of a single tournament.
type GameStatus string

const (
	GameStatusInitiating   GameStatus = "INITIATING"
	GameStatusScheduled    GameStatus = "SCHEDULED"
	GameStatusRegistering  GameStatus = "REGISTERING"
	GameStatusRunning      GameStatus = "RUNNING"
	GameStatusClockStopped GameStatus = "CLOCK_STOPPED"
	GameStatusFinished     GameStatus = "FINISHED"
	GameStatusCancelled    GameStatus = "CANCELLED"
	GameStatusNotFound     GameStatus = "NOT_FOUND"
	GameStatusNotPublished GameStatus = "NOT_PUBLISHED"
	GameStatusUnknown      GameStatus = "UNKNOWN"
)

var gameStatuses = map[GameStatus]struct{}{
	GameStatusInitiating: {}, GameStatusScheduled: {}, GameStatusRegistering: {},
	GameStatusRunning: {}, GameStatusClockStopped: {}, GameStatusFinished: {},
	GameStatusCancelled: {}, GameStatusNotFound: {}, GameStatusNotPublished: {},
	GameStatusUnknown: {},
}

// legacyGameStatuses maps values written by older scrapers onto the current set.
var legacyGameStatuses = map[string]GameStatus{
	"COMPLETED":         GameStatusFinished,
	"COMPLETE":          GameStatusFinished,
	"FINISHED":          GameStatusFinished,
	"IN_PROGRESS":       GameStatusRunning,
	"LIVE":              GameStatusRunning,
	"CANCELED":          GameStatusCancelled,
	"REGISTRATION_OPEN": GameStatusRegistering,
	"LATE_REGISTRATION": GameStatusRegistering,
	"PAUSED":            GameStatusClockStopped,
}

// IsValid reports whether s is one of the current statuses.
func (s GameStatus) IsValid() bool {
	_, ok := gameStatuses[s]
	return ok
}

// IsLegacy reports whether s is a legacy alias that ParseGameStatus rewrites.
func (s GameStatus) IsLegacy() bool {
	if s.IsValid() {
		return false
	}
	_, ok := legacyGameStatuses[strings.ToUpper(string(s))]
	return ok
}

// ParseGameStatus maps raw and legacy status strings onto GameStatus.
// An empty string yields UNKNOWN without error; an unrecognised string
// yields UNKNOWN and an error describing the input.
func ParseGameStatus(raw string) (GameStatus, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" {
		return GameStatusUnknown, nil
	}
	if s := GameStatus(v); s.IsValid() {
		return s, nil
	}
	if s, ok := legacyGameStatuses[v]; ok {
		return s, nil
	}
	return GameStatusUnknown, fmt.Errorf("unrecognised game status %q", raw)
}

// VenueStatus is the activity classification of a venue.
type VenueStatus string

const (
	VenueStatusPending  VenueStatus = "PENDING"
	VenueStatusActive   VenueStatus = "ACTIVE"
	VenueStatusInactive VenueStatus = "INACTIVE"
)

func (s VenueStatus) IsValid() bool {
	switch s {
	case VenueStatusPending, VenueStatusActive, VenueStatusInactive:
		return true
	}
	return false
}

// ConsolidationType marks how a multi-day or multi-flight event record relates to its siblings.
type ConsolidationType string

const (
	ConsolidationNone   ConsolidationType = ""
	ConsolidationParent ConsolidationType = "PARENT"
	ConsolidationChild  ConsolidationType = "CHILD"
	ConsolidationFlight ConsolidationType = "FLIGHT"
)

func (c ConsolidationType) IsValid() bool {
	switch c {
	case ConsolidationNone, ConsolidationParent, ConsolidationChild, ConsolidationFlight:
		return true
	}
	return false
}

// AssignmentStatus is the recurring-template linkage state of a game.
type AssignmentStatus string

const (
	AssignmentPending      AssignmentStatus = "PENDING_ASSIGNMENT"
	AssignmentNotRecurring AssignmentStatus = "NOT_RECURRING"
	AssignmentAssigned     AssignmentStatus = "ASSIGNED"
)

func (a AssignmentStatus) IsValid() bool {
	switch a {
	case "", AssignmentPending, AssignmentNotRecurring, AssignmentAssigned:
		return true
	}
	return false
}

// GameVariant is the poker variant a template runs.
type GameVariant string

const (
	VariantNLHE  GameVariant = "NLHE"
	VariantPLO   GameVariant = "PLO"
	VariantPLO5  GameVariant = "PLO5"
	VariantMixed GameVariant = "MIXED"
	VariantStud  GameVariant = "STUD"
	VariantRazz  GameVariant = "RAZZ"
	VariantDraw  GameVariant = "DRAW"
	VariantLHE   GameVariant = "LHE"
)

func (v GameVariant) IsValid() bool {
	switch v {
	case "", VariantNLHE, VariantPLO, VariantPLO5, VariantMixed, VariantStud, VariantRazz, VariantDraw, VariantLHE:
		return true
	}
	return false
}

// Frequency is how often a template recurs.
type Frequency string

const (
	FrequencyDaily    Frequency = "DAILY"
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyBiweekly Frequency = "BIWEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
)

// Interval returns the nominal number of days between occurrences.
func (f Frequency) Interval() int {
	switch f {
	case FrequencyDaily:
		return 1
	case FrequencyBiweekly:
		return 14
	case FrequencyMonthly:
		return 28
	default:
		return 7
	}
}

// Trend is the direction of a rolling statistic.
type Trend string

const (
	TrendStable     Trend = "STABLE"
	TrendIncreasing Trend = "INCREASING"
	TrendDecreasing Trend = "DECREASING"
)

// InstanceStatus is the state of one scheduled occurrence of a template.
type InstanceStatus string

const (
	InstanceExpected  InstanceStatus = "EXPECTED"
	InstanceConfirmed InstanceStatus = "CONFIRMED"
	InstanceMissed    InstanceStatus = "MISSED"
	InstanceCancelled InstanceStatus = "CANCELLED"
)

// EventName is the kind of write observed on the change stream.
type EventName string

const (
	EventInsert EventName = "INSERT"
	EventModify EventName = "MODIFY"
	EventRemove EventName = "REMOVE"
)

func (e EventName) IsValid() bool {
	switch e {
	case EventInsert, EventModify, EventRemove:
		return true
	}
	return false
}
