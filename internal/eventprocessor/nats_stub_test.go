// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

//go:build !nats

package eventprocessor_test

import (
	"errors"
	"testing"

	"github.com/tomtom215/kingsroom/internal/eventprocessor"
)

func TestNewProcessor_NATSNeedsBuildTag(t *testing.T) {
	t.Parallel()
	cfg := eventprocessor.DefaultConfig()
	cfg.Transport = eventprocessor.TransportNATS
	cfg.NATS.Embedded = false
	cfg.NATS.URL = "nats://127.0.0.1:1"
	_, err := eventprocessor.NewProcessor(cfg, "Game-test", nil, nil)
	if !errors.Is(err, eventprocessor.ErrNATSNotEnabled) {
		t.Errorf("err = %v, want ErrNATSNotEnabled", err)
	}
}
