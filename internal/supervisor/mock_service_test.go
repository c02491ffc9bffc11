// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*mockService)(nil)

// mockService runs until canceled, failing the first failFirst runs.
type mockService struct {
	name      string
	failFirst int32
	starts    atomic.Int32
}

func newMockService(name string, failFirst int32) *mockService {
	return &mockService{name: name, failFirst: failFirst}
}

func (m *mockService) Serve(ctx context.Context) error {
	if m.starts.Add(1) <= m.failFirst {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) String() string { return m.name }
