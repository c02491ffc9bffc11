// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package eventprocessor

import (
	"errors"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Transport is a publisher and subscriber pair over one backend.
type Transport struct {
	Name       string
	Publisher  message.Publisher
	Subscriber message.Subscriber

	closeOnce sync.Once
	closers   []func() error
	closeErr  error
}

// NewTransport builds the backend selected by cfg.Transport.
func NewTransport(cfg *Config, logger watermill.LoggerAdapter) (*Transport, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	if cfg.Transport == TransportNATS {
		return newNATSTransport(cfg, logger)
	}
	return NewChannelTransport(cfg.BufferSize, logger), nil
}

// NewChannelTransport returns an in-process transport. Messages published
// before a subscriber exists are dropped, so the router must be running
// before writes are expected on the stream.
func NewChannelTransport(buffer int64, logger watermill.LoggerAdapter) *Transport {
	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: buffer}, logger)
	return &Transport{
		Name:       TransportChannel,
		Publisher:  ch,
		Subscriber: ch,
		closers:    []func() error{ch.Close},
	}
}

// Close releases the backend in reverse order of acquisition.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		var errs []error
		for i := len(t.closers) - 1; i >= 0; i-- {
			if err := t.closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		t.closeErr = errors.Join(errs...)
	})
	return t.closeErr
}
