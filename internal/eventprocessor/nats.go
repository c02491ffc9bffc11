// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

//go:build nats

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	gobreaker "github.com/sony/gobreaker/v2"
)

// StreamName is the JetStream stream holding change events and dead letters.
const StreamName = "KINGSROOM_CHANGES"

func newNATSTransport(cfg *Config, logger watermill.LoggerAdapter) (*Transport, error) {
	t := &Transport{Name: TransportNATS}
	url := cfg.NATS.URL

	if cfg.NATS.Embedded {
		srv, err := NewEmbeddedServer(&cfg.NATS)
		if err != nil {
			return nil, err
		}
		t.closers = append(t.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.NATS.CloseTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		})
		url = srv.ClientURL()
	}

	fail := func(err error) (*Transport, error) {
		return nil, errors.Join(err, t.Close())
	}

	if err := ensureStream(url, cfg); err != nil {
		return fail(err)
	}

	pub, err := newPublisher(url, &cfg.NATS, logger)
	if err != nil {
		return fail(err)
	}
	t.Publisher = pub
	t.closers = append(t.closers, pub.Close)

	sub, err := newSubscriber(url, &cfg.NATS, logger)
	if err != nil {
		return fail(err)
	}
	t.Subscriber = sub
	t.closers = append(t.closers, sub.Close)
	return t, nil
}

// EmbeddedServer wraps an in-process NATS server with JetStream enabled.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// NewEmbeddedServer starts a NATS server and waits until it accepts clients.
func NewEmbeddedServer(cfg *NATSConfig) (*EmbeddedServer, error) {
	opts := &server.Options{
		ServerName: "kingsroom-changes",
		Host:       cfg.Host,
		Port:       cfg.Port,
		JetStream:  true,
		StoreDir:   cfg.StoreDir,
		MaxPayload: 8 * 1024 * 1024,
	}
	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}
	ns.ConfigureLogger()
	go ns.Start()

	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("NATS server not ready within timeout")
	}
	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.server.WaitForShutdown()
		return nil
	}
}

// ensureStream creates or updates the change stream so subscribers can bind to it.
func ensureStream(url string, cfg *Config) error {
	nc, err := natsgo.Connect(url, natsgo.RetryOnFailedConnect(true), natsgo.MaxReconnects(cfg.NATS.MaxReconnects))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("open JetStream: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       StreamName,
		Subjects:   []string{cfg.TopicPrefix + ".changes.>", cfg.DeadLetterTopic()},
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     7 * 24 * time.Hour,
		Duplicates: 2 * time.Minute,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", StreamName, err)
	}
	return nil
}

// breakerPublisher guards a publisher with a circuit breaker and sets the
// JetStream message id so server-side dedup collapses republished changes.
type breakerPublisher struct {
	next    message.Publisher
	breaker *gobreaker.CircuitBreaker[any]
}

func (p *breakerPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
			if key, err := DedupKey(msg); err == nil {
				msg.Metadata.Set(natsgo.MsgIdHdr, key)
			}
		}
	}
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.next.Publish(topic, msgs...)
	})
	return err
}

func (p *breakerPublisher) Close() error {
	return p.next.Close()
}

func connectOptions(cfg *NATSConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

func newPublisher(url string, cfg *NATSConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: connectOptions(cfg, logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "change-publisher",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("Circuit breaker state changed", watermill.LogFields{
				"name": name, "from": from.String(), "to": to.String(),
			})
		},
	})
	return &breakerPublisher{next: pub, breaker: breaker}, nil
}

func newSubscriber(url string, cfg *NATSConfig, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              url,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: cfg.SubscribersCount,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      connectOptions(cfg, logger),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			AutoProvision: false,
			AckAsync:      false,
			DurablePrefix: cfg.DurableName,
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(StreamName),
				natsgo.MaxDeliver(cfg.MaxDeliver),
				natsgo.MaxAckPending(cfg.MaxAckPending),
				natsgo.AckWait(cfg.AckWaitTimeout),
				natsgo.DeliverNew(),
			},
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill subscriber: %w", err)
	}
	return sub, nil
}
