// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package eventprocessor

import (
	"fmt"
	"strings"
	"time"
)

// Transport names.
const (
	TransportChannel = "channel"
	TransportNATS    = "nats"
)

// Config holds change-stream configuration.
type Config struct {
	// Transport selects the pub/sub backend: "channel" (in-process) or "nats".
	Transport string

	// TopicPrefix prefixes every topic, e.g. "kingsroom.changes.Game-prod".
	TopicPrefix string

	// BufferSize is the gochannel output buffer per subscriber.
	BufferSize int64

	Router RouterConfig
	NATS   NATSConfig
}

// NATSConfig holds JetStream settings used when Transport is "nats".
type NATSConfig struct {
	URL string

	// Embedded starts an in-process NATS server and connects to it.
	Embedded bool
	StoreDir string
	Host     string
	Port     int

	MaxReconnects    int
	ReconnectWait    time.Duration
	DurableName      string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
}

// DefaultConfig returns in-process defaults.
func DefaultConfig() Config {
	return Config{
		Transport:   TransportChannel,
		TopicPrefix: "kingsroom",
		BufferSize:  1024,
		Router:      DefaultRouterConfig(),
		NATS:        DefaultNATSConfig(),
	}
}

// DefaultNATSConfig returns production defaults for the JetStream transport.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:              "nats://127.0.0.1:4222",
		Embedded:         true,
		StoreDir:         "data/nats",
		Host:             "127.0.0.1",
		Port:             4222,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		DurableName:      "kingsroom-changes",
		QueueGroup:       "enrichers",
		SubscribersCount: 1,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,
		MaxAckPending:    1000,
		CloseTimeout:     30 * time.Second,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Transport {
	case TransportChannel, TransportNATS:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalidConfig, c.Transport)
	}
	if strings.TrimSpace(c.TopicPrefix) == "" {
		return fmt.Errorf("%w: topic prefix is required", ErrInvalidConfig)
	}
	if c.Router.RetryMaxRetries < 0 {
		return fmt.Errorf("%w: retry max retries must be >= 0", ErrInvalidConfig)
	}
	if c.Router.DeduplicationEnabled && c.Router.DeduplicationTTL <= 0 {
		return fmt.Errorf("%w: deduplication ttl must be positive", ErrInvalidConfig)
	}
	if c.Transport == TransportNATS && !c.NATS.Embedded && c.NATS.URL == "" {
		return fmt.Errorf("%w: nats url is required for an external server", ErrInvalidConfig)
	}
	return nil
}

// ChangeTopic is the topic carrying the change events of table.
func (c *Config) ChangeTopic(table string) string {
	return c.TopicPrefix + ".changes." + table
}

// DeadLetterTopic receives messages that exhausted their retries.
func (c *Config) DeadLetterTopic() string {
	return c.TopicPrefix + ".dlq"
}
