// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/tomtom215/smartfood/internal/breaker"
	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/logging"
)

// Bus owns the transport shared by every stage: one publisher, one
// subscriber and, for NATS, the connection used for stream management and
// an optional embedded server.
type Bus struct {
	transport  string
	publisher  *Publisher
	subscriber message.Subscriber

	server *EmbeddedServer
	conn   *natsgo.Conn
	stream *StreamInitializer
}

// NewBus creates the configured transport. For NATS it starts the embedded
// server when enabled and makes sure the pipeline stream exists.
func NewBus(ctx context.Context, cfg config.BusConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	switch cfg.Transport {
	case config.TransportGoChannel:
		ch := NewGoChannel(logger)
		pub, err := NewPublisher(ch, false)
		if err != nil {
			return nil, err
		}
		pub.SetCircuitBreaker(breaker.New[struct{}](breaker.DefaultConfig("bus-publisher")))
		logging.Info().Msg("Message bus using in-process GoChannel transport")
		return &Bus{transport: cfg.Transport, publisher: pub, subscriber: ch}, nil

	case config.TransportNATS:
		return newNATSBus(ctx, cfg, logger)

	default:
		return nil, fmt.Errorf("%w: unknown bus transport %q", ErrInvalidConfig, cfg.Transport)
	}
}

func newNATSBus(ctx context.Context, cfg config.BusConfig, logger watermill.LoggerAdapter) (_ *Bus, err error) {
	b := &Bus{transport: cfg.Transport}
	defer func() {
		if err != nil {
			b.Close()
		}
	}()

	natsURL := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		serverCfg := ServerConfigFrom(cfg.NATS)
		host, port, perr := hostPort(natsURL)
		if perr != nil {
			return nil, fmt.Errorf("%w: NATS_URL: %v", ErrInvalidConfig, perr)
		}
		serverCfg.Host, serverCfg.Port = host, port

		b.server, err = NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS: %w", err)
		}
		natsURL = b.server.ClientURL()
		logging.Info().Str("url", natsURL).Str("store_dir", serverCfg.StoreDir).Msg("Embedded NATS server started")
	}

	b.conn, err = natsgo.Connect(natsURL, natsgo.Name("smartfood-admin"), natsgo.Timeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", natsURL, err)
	}
	js, err := jetstream.New(b.conn)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	streamCfg := StreamConfigFrom(cfg)
	b.stream, err = NewStreamInitializer(js, &streamCfg)
	if err != nil {
		return nil, err
	}
	if _, err = b.stream.EnsureStream(ctx); err != nil {
		return nil, err
	}

	b.publisher, err = NewNATSPublisher(DefaultPublisherConfig(natsURL), logger)
	if err != nil {
		return nil, err
	}
	b.publisher.SetCircuitBreaker(breaker.New[struct{}](breaker.DefaultConfig("bus-publisher")))

	subCfg := SubscriberConfigFrom(cfg.NATS, natsURL)
	b.subscriber, err = NewNATSSubscriber(&subCfg, logger)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("url", natsURL).
		Str("stream", streamCfg.Name).
		Strs("subjects", streamCfg.Subjects).
		Msg("Message bus using NATS JetStream transport")
	return b, nil
}

// hostPort extracts the listen address of the embedded server from a client URL.
func hostPort(rawURL string) (string, int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, err
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return u.Hostname(), 4222, nil //nolint:nilerr // no explicit port
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q", portStr)
	}
	return host, port, nil
}

// Transport returns "gochannel" or "nats".
func (b *Bus) Transport() string {
	return b.transport
}

// Publisher returns the shared publisher.
func (b *Bus) Publisher() *Publisher {
	return b.publisher
}

// Subscriber returns the shared subscriber.
func (b *Bus) Subscriber() message.Subscriber {
	return b.subscriber
}

// RegisterHealth adds the bus components to h.
func (b *Bus) RegisterHealth(h *HealthChecker) {
	if b.publisher != nil {
		h.RegisterComponent("bus_publisher", b.publisher)
	}
	if b.stream != nil {
		h.RegisterComponent("bus_stream", b.stream)
	}
	if b.server != nil {
		h.RegisterComponent("nats_server", b.server)
	}
}

// Close releases every component, innermost first.
func (b *Bus) Close() error {
	var errs []error
	if b.subscriber != nil {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	// The GoChannel publisher and subscriber are the same object.
	if b.publisher != nil && b.transport == config.TransportNATS {
		if err := b.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if b.conn != nil {
		b.conn.Close()
	}
	if b.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := b.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown NATS server: %w", err))
		}
	}
	return errors.Join(errs...)
}
