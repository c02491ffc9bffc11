// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package eventprocessor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/kingsroom/internal/models"
)

func testRouterConfig() RouterConfig {
	cfg := DefaultRouterConfig()
	cfg.CloseTimeout = time.Second
	cfg.RetryMaxRetries = 1
	cfg.RetryInitialInterval = time.Millisecond
	cfg.RetryMaxInterval = 5 * time.Millisecond
	return cfg
}

func startRouter(t *testing.T, cfg RouterConfig, tr *Transport, handler message.NoPublishHandlerFunc) *Router {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	r, err := NewRouter(&cfg, tr.Publisher, "test.dlq", nil)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	r.AddConsumerHandler("test", "test.changes", tr.Subscriber, handler)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		_ = r.Close()
		<-done
	})
	select {
	case <-r.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("router did not start")
	}
	return r
}

func changeMessage(t *testing.T, key string, version int64) *message.Message {
	t.Helper()
	msg, err := NewChangeMessage(context.Background(), models.ChangeEvent{
		EventName: models.EventModify,
		Table:     "Game-test",
		Key:       key,
		Version:   version,
		NewImage:  []byte(`{"id":"` + key + `"}`),
	})
	if err != nil {
		t.Fatalf("NewChangeMessage: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRouter_DeduplicatesByVersion(t *testing.T) {
	t.Parallel()
	tr := NewChannelTransport(16, nil)
	t.Cleanup(func() { _ = tr.Close() })

	var handled atomic.Int64
	r := startRouter(t, testRouterConfig(), tr, func(*message.Message) error {
		handled.Add(1)
		return nil
	})

	// Same (table, key, version) under different message ids.
	for _, msg := range []*message.Message{
		changeMessage(t, "g1", 1),
		changeMessage(t, "g1", 1),
		changeMessage(t, "g1", 2),
	} {
		if err := tr.Publisher.Publish("test.changes", msg); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	waitFor(t, "two handled messages", func() bool {
		return handled.Load() == 2 && r.Metrics().MessagesDeduplicated.Load() == 1
	})
	if got := r.Metrics().MessagesProcessed.Load(); got != 2 {
		t.Errorf("processed = %d, want 2", got)
	}
}

func TestRouter_RetriesThenDeadLetters(t *testing.T) {
	t.Parallel()
	tr := NewChannelTransport(16, nil)
	t.Cleanup(func() { _ = tr.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	dlq, err := tr.Subscriber.Subscribe(ctx, "test.dlq")
	if err != nil {
		t.Fatalf("Subscribe dlq: %v", err)
	}

	var attempts atomic.Int64
	startRouter(t, testRouterConfig(), tr, func(*message.Message) error {
		attempts.Add(1)
		return errors.New("store unavailable")
	})

	if err := tr.Publisher.Publish("test.changes", changeMessage(t, "g9", 4)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-dlq:
		msg.Ack()
		if msg.Metadata.Get(MetaKey) != "g9" {
			t.Errorf("dead letter key = %q", msg.Metadata.Get(MetaKey))
		}
		if msg.Metadata.Get(middleware.ReasonForPoisonedKey) == "" {
			t.Error("dead letter carries no reason")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("message never reached the dead-letter topic")
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2 (first try plus one retry)", got)
	}
}

func TestRouter_RecoversPanics(t *testing.T) {
	t.Parallel()
	tr := NewChannelTransport(16, nil)
	t.Cleanup(func() { _ = tr.Close() })

	var calls atomic.Int64
	r := startRouter(t, testRouterConfig(), tr, func(msg *message.Message) error {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		return nil
	})

	_ = tr.Publisher.Publish("test.changes", changeMessage(t, "p1", 1))
	_ = tr.Publisher.Publish("test.changes", changeMessage(t, "p2", 1))

	waitFor(t, "router to survive the panic", func() bool {
		return r.Metrics().MessagesProcessed.Load() >= 1
	})
	if !r.IsRunning() {
		t.Error("router stopped after a handler panic")
	}
}

func TestDedupKey(t *testing.T) {
	t.Parallel()
	msg := changeMessage(t, "g1", 7)
	key, err := DedupKey(msg)
	if err != nil || key != "Game-test|g1|7" {
		t.Errorf("DedupKey = %q, %v", key, err)
	}

	bare := message.NewMessage("uuid-1", nil)
	if key, _ := DedupKey(bare); key != "uuid-1" {
		t.Errorf("DedupKey without metadata = %q, want the message id", key)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown transport", func(c *Config) { c.Transport = "kafka" }, false},
		{"empty prefix", func(c *Config) { c.TopicPrefix = " " }, false},
		{"negative retries", func(c *Config) { c.Router.RetryMaxRetries = -1 }, false},
		{"dedup without ttl", func(c *Config) { c.Router.DeduplicationTTL = 0 }, false},
		{"external nats without url", func(c *Config) {
			c.Transport = TransportNATS
			c.NATS.Embedded = false
			c.NATS.URL = ""
		}, false},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("%s: Validate = %v, want ok=%v", tt.name, err, tt.ok)
		}
		if err != nil && !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: error %v does not wrap ErrInvalidConfig", tt.name, err)
		}
	}

	cfg := DefaultConfig()
	if got := cfg.ChangeTopic("Game-prod"); got != "kingsroom.changes.Game-prod" {
		t.Errorf("ChangeTopic = %q", got)
	}
	if got := cfg.DeadLetterTopic(); got != "kingsroom.dlq" {
		t.Errorf("DeadLetterTopic = %q", got)
	}
}
