// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/tomtom215/smartfood/internal/config"
)

// ServerConfig holds embedded NATS server configuration.
type ServerConfig struct {
	Host              string
	Port              int
	StoreDir          string
	JetStreamMaxMem   int64
	JetStreamMaxStore int64
}

// DefaultServerConfig returns production defaults for the embedded NATS server.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "127.0.0.1",
		Port:              4222,
		StoreDir:          "/data/nats/jetstream",
		JetStreamMaxMem:   256 << 20, // 256MB
		JetStreamMaxStore: 1 << 30,   // 1GB
	}
}

// PublisherConfig holds NATS publisher configuration.
type PublisherConfig struct {
	URL              string
	MaxReconnects    int
	ReconnectWait    time.Duration
	ReconnectBuffer  int
	EnableTrackMsgID bool // nolint:revive // ID is correct per Go conventions
}

// DefaultPublisherConfig returns production defaults for the publisher.
func DefaultPublisherConfig(url string) PublisherConfig {
	return PublisherConfig{
		URL:              url,
		MaxReconnects:    -1, // Unlimited
		ReconnectWait:    2 * time.Second,
		ReconnectBuffer:  8 * 1024 * 1024, // 8MB
		EnableTrackMsgID: true,
	}
}

// SubscriberConfig holds NATS subscriber configuration.
type SubscriberConfig struct {
	URL              string
	DurablePrefix    string
	QueueGroup       string
	SubscribersCount int
	AckWaitTimeout   time.Duration
	MaxDeliver       int
	MaxAckPending    int
	CloseTimeout     time.Duration
	MaxReconnects    int
	ReconnectWait    time.Duration

	// StreamName binds consumers to the pre-created pipeline stream instead
	// of letting Watermill provision one stream per topic.
	StreamName string
}

// DefaultSubscriberConfig returns production defaults for the subscriber.
func DefaultSubscriberConfig(url string) SubscriberConfig {
	return SubscriberConfig{
		URL:              url,
		DurablePrefix:    "smartfood",
		QueueGroup:       "smartfood",
		SubscribersCount: 4,
		AckWaitTimeout:   30 * time.Second,
		MaxDeliver:       5,   // Max redelivery attempts
		MaxAckPending:    256, // Flow control
		CloseTimeout:     30 * time.Second,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
	}
}

// StreamConfig defines the pipeline stream.
type StreamConfig struct {
	Name            string
	Subjects        []string
	MaxAge          time.Duration
	MaxBytes        int64
	MaxMsgs         int64
	DuplicateWindow time.Duration
	Replicas        int
}

// DefaultStreamConfig returns a stream holding the default pipeline topics.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name: "SMARTFOOD",
		Subjects: []string{
			"ingredientes_imagen",
			"ingredientes_detectados",
			"mensaje_respuesta",
			"smartfood.poison",
		},
		MaxAge:          24 * time.Hour,
		MaxBytes:        1 << 30, // 1GB
		MaxMsgs:         -1,      // Unlimited
		DuplicateWindow: 2 * time.Minute,
		Replicas:        1,
	}
}

// RouterConfig holds configuration for the Watermill Router.
type RouterConfig struct {
	// CloseTimeout is how long to wait for handlers to finish when closing.
	CloseTimeout time.Duration

	// Retry configuration
	RetryMaxRetries      int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// Throttle configuration (messages per second, 0 = disabled)
	ThrottlePerSecond int64

	// PoisonQueueTopic receives messages that failed after all retries (empty = disabled).
	PoisonQueueTopic string

	// Deduplication configuration
	DeduplicationEnabled bool
	DeduplicationTTL     time.Duration
}

// DefaultRouterConfig returns production defaults for the Router.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		CloseTimeout:         30 * time.Second,
		RetryMaxRetries:      3,
		RetryInitialInterval: 100 * time.Millisecond,
		RetryMaxInterval:     10 * time.Second,
		RetryMultiplier:      2.0,
		ThrottlePerSecond:    0, // Disabled by default
		PoisonQueueTopic:     "smartfood.poison",
		DeduplicationEnabled: true,
		DeduplicationTTL:     10 * time.Minute,
	}
}

// RouterConfigFrom maps the application router settings.
func RouterConfigFrom(r config.RouterConfig) RouterConfig {
	cfg := DefaultRouterConfig()
	cfg.CloseTimeout = r.CloseTimeout
	cfg.RetryMaxRetries = r.RetryCount
	cfg.RetryInitialInterval = r.RetryInitialInterval
	cfg.ThrottlePerSecond = int64(r.ThrottlePerSecond)
	cfg.DeduplicationEnabled = r.DeduplicationEnabled
	cfg.DeduplicationTTL = r.DeduplicationTTL
	cfg.PoisonQueueTopic = ""
	if r.PoisonQueueEnabled {
		cfg.PoisonQueueTopic = r.PoisonQueueTopic
	}
	return cfg
}

// ServerConfigFrom maps the application NATS settings to the embedded server.
func ServerConfigFrom(n config.NATSConfig) ServerConfig {
	cfg := DefaultServerConfig()
	cfg.StoreDir = n.StoreDir
	cfg.JetStreamMaxMem = n.MaxMemory
	cfg.JetStreamMaxStore = n.MaxStore
	return cfg
}

// StreamConfigFrom builds the stream covering every topic of b, including
// the poison topic when enabled.
func StreamConfigFrom(b config.BusConfig) StreamConfig {
	cfg := DefaultStreamConfig()
	cfg.Name = b.NATS.StreamName
	cfg.Subjects = b.Topics()
	if b.Router.PoisonQueueEnabled && b.Router.PoisonQueueTopic != "" {
		cfg.Subjects = append(cfg.Subjects, b.Router.PoisonQueueTopic)
	}
	if b.NATS.StreamRetention > 0 {
		cfg.MaxAge = b.NATS.StreamRetention
	}
	if b.NATS.MaxStore > 0 {
		cfg.MaxBytes = b.NATS.MaxStore
	}
	return cfg
}

// SubscriberConfigFrom maps the application NATS settings for a client
// connected to url.
func SubscriberConfigFrom(n config.NATSConfig, url string) SubscriberConfig {
	cfg := DefaultSubscriberConfig(url)
	cfg.DurablePrefix = n.DurablePrefix
	cfg.QueueGroup = n.QueueGroup
	cfg.SubscribersCount = n.SubscribersCount
	cfg.StreamName = n.StreamName
	return cfg
}

// Validate checks a stream configuration before it is sent to the server.
func (c StreamConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: stream name required", ErrInvalidConfig)
	}
	if len(c.Subjects) == 0 {
		return fmt.Errorf("%w: stream %s has no subjects", ErrInvalidConfig, c.Name)
	}
	return nil
}
