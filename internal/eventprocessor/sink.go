// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package eventprocessor

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"

	"github.com/tomtom215/kingsroom/internal/logging"
	"github.com/tomtom215/kingsroom/internal/models"
)

// ChangePublisher publishes committed store writes to the change stream.
// It implements store.ChangeSink.
type ChangePublisher struct {
	publisher message.Publisher
	topic     func(table string) string

	published atomic.Int64
	failed    atomic.Int64
}

// NewChangePublisher returns a sink publishing through pub, one topic per table.
func NewChangePublisher(pub message.Publisher, topic func(table string) string) *ChangePublisher {
	return &ChangePublisher{publisher: pub, topic: topic}
}

// Emit publishes ev. The write is already committed, so a publish failure is
// logged and counted rather than returned; the bulk re-enrichment and
// recompute jobs repair anything the stream missed.
func (p *ChangePublisher) Emit(ctx context.Context, ev models.ChangeEvent) {
	msg, err := NewChangeMessage(ctx, ev)
	if err == nil {
		err = p.publisher.Publish(p.topic(ev.Table), msg)
	}
	if err != nil {
		p.failed.Add(1)
		logging.Ctx(ctx).Error().Err(err).
			Str("table", ev.Table).
			Str("key", ev.Key).
			Int64("version", ev.Version).
			Msg("Failed to publish change event")
		return
	}
	p.published.Add(1)
}

// Stats returns the number of published and failed events.
func (p *ChangePublisher) Stats() (published, failed int64) {
	return p.published.Load(), p.failed.Load()
}

// NewChangeMessage encodes ev as a Watermill message carrying the dedup
// metadata and the caller's correlation id.
func NewChangeMessage(ctx context.Context, ev models.ChangeEvent) (*message.Message, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetaTable, ev.Table)
	msg.Metadata.Set(MetaKey, ev.Key)
	msg.Metadata.Set(MetaVersion, strconv.FormatInt(ev.Version, 10))
	msg.Metadata.Set(MetaEventName, string(ev.EventName))
	if id := logging.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	return msg, nil
}

// DecodeChangeMessage decodes a message produced by NewChangeMessage.
func DecodeChangeMessage(msg *message.Message) (models.ChangeEvent, error) {
	var ev models.ChangeEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if !ev.EventName.IsValid() || ev.Table == "" || ev.Key == "" {
		return ev, ErrMalformedEvent
	}
	return ev, nil
}
