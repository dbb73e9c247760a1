// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/smartfood/internal/breaker"
	"github.com/tomtom215/smartfood/internal/metrics"
)

// Publisher wraps a Watermill publisher with circuit breaker protection and
// publish metrics. It implements message.Publisher so it can be handed to
// the router and to the webhook stage alike.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *breaker.Breaker[struct{}]
	trackMsgID     bool
	mu             sync.RWMutex
	closed         bool
}

// NewPublisher wraps pub. trackMsgID sets the Nats-Msg-Id header from the
// message UUID so JetStream drops duplicate publishes inside its window.
func NewPublisher(pub message.Publisher, trackMsgID bool) (*Publisher, error) {
	if pub == nil {
		return nil, ErrNilPublisher
	}
	return &Publisher{publisher: pub, trackMsgID: trackMsgID}, nil
}

// NewNATSPublisher creates a resilient Watermill NATS JetStream publisher.
func NewNATSPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	// NATS connection options with reconnection handling
	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{
				"url": nc.ConnectedUrl(),
			})
		}),
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // Stream is pre-created by StreamInitializer
			TrackMsgId:    cfg.EnableTrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return NewPublisher(pub, cfg.EnableTrackMsgID)
}

// SetCircuitBreaker configures the circuit breaker for publish operations.
func (p *Publisher) SetCircuitBreaker(cb *breaker.Breaker[struct{}]) {
	p.circuitBreaker = cb
}

// Publish sends messages to topic. It implements message.Publisher.
func (p *Publisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	if p.trackMsgID {
		for _, msg := range msgs {
			if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
				msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
			}
		}
	}

	var err error
	if p.circuitBreaker != nil {
		_, err = p.circuitBreaker.Execute(func() (struct{}, error) {
			return struct{}{}, p.publisher.Publish(topic, msgs...)
		})
	} else {
		err = p.publisher.Publish(topic, msgs...)
	}
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	for range msgs {
		metrics.RecordBusPublish(topic)
	}
	return nil
}

// Close gracefully shuts down the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.publisher.Close()
}

// HealthCheck implements HealthCheckable.
func (p *Publisher) HealthCheck(_ context.Context) ComponentHealth {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	health := ComponentHealth{
		Name:      "publisher",
		LastCheck: time.Now(),
		Details:   make(map[string]interface{}),
	}

	if closed {
		health.Error = "publisher is closed"
		return health
	}

	health.Healthy = true
	health.Message = "Publisher is operational"
	if p.circuitBreaker != nil {
		state := p.circuitBreaker.State()
		health.Details["circuit_breaker_state"] = state
		switch state {
		case "open":
			health.Healthy = false
			health.Error = "circuit breaker is open"
		case "half-open":
			health.Degraded = true
			health.Message = "Circuit breaker is half-open"
		}
	}
	return health
}
