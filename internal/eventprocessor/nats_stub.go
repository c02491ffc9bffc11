// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

//go:build !nats

package eventprocessor

import "github.com/ThreeDotsLabs/watermill"

func newNATSTransport(*Config, watermill.LoggerAdapter) (*Transport, error) {
	return nil, ErrNATSNotEnabled
}
