// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "json" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamps on by default")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// The following tests replace the global logger and therefore do not run in parallel.

func TestInit_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Str("game_id", "g1").Msg("enriched")

	out := buf.String()
	if !strings.Contains(out, `"message":"enriched"`) || !strings.Contains(out, `"game_id":"g1"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestCtx_AddsIDs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCorrelationID(ctx, "corr-1")
	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-1"`) || !strings.Contains(out, `"correlation_id":"corr-1"`) {
		t.Errorf("ids missing from %s", out)
	}
	if len(GenerateCorrelationID()) != 8 {
		t.Error("correlation ids should be 8 characters")
	}
}

func TestCtx_PrefersContextLogger(t *testing.T) {
	var global, scoped bytes.Buffer
	SetLogger(NewTestLogger(&global))
	defer Init(DefaultConfig())

	ctx := ContextWithLogger(context.Background(), NewTestLogger(&scoped))
	Ctx(ctx).Info().Msg("scoped")

	if global.Len() != 0 {
		t.Errorf("global logger should be unused, got %s", global.String())
	}
	if !strings.Contains(scoped.String(), "scoped") {
		t.Errorf("scoped logger missing entry: %s", scoped.String())
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer Init(DefaultConfig())

	logger := slog.New(NewSlogHandlerWithLogger(NewTestLogger(&buf)))
	logger.WithGroup("svc").With("name", "router").Warn("restarting", "attempt", 2, "err", errors.New("boom"))

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"svc.name":"router"`, `"svc.attempt":2`, `"message":"restarting"`, "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}

func TestWatermillAdapter(t *testing.T) {
	var buf bytes.Buffer
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	defer Init(DefaultConfig())

	var a watermill.LoggerAdapter = NewWatermillAdapterWithLogger(NewTestLogger(&buf))
	a = a.With(watermill.LogFields{"topic": "changes"})
	a.Error("handler failed", errors.New("bad payload"), watermill.LogFields{"message_uuid": "m1"})

	out := buf.String()
	for _, want := range []string{`"topic":"changes"`, `"message_uuid":"m1"`, `"error":"bad payload"`, `"level":"error"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in %s", want, out)
		}
	}
}
