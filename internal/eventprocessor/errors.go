// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package eventprocessor

import "errors"

// ErrNATSNotEnabled is returned when the NATS transport is selected without the nats build tag.
var ErrNATSNotEnabled = errors.New("NATS transport not enabled (build with -tags nats)")

// ErrInvalidConfig is returned when configuration is invalid.
var ErrInvalidConfig = errors.New("invalid stream configuration")

// ErrPublisherClosed is returned when publishing after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// ErrMalformedEvent marks a message whose payload is not a change event.
var ErrMalformedEvent = errors.New("malformed change event")
