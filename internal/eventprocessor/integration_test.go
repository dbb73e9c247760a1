// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

//go:build integration

package eventprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/testinfra"
)

// startNATSBus runs a NATS container and connects a bus to it.
func startNATSBus(t *testing.T) *Bus {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := testinfra.NewNATSContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to create NATS container: %v", err)
	}
	t.Cleanup(func() { testinfra.CleanupContainer(t, context.Background(), container.Container) })
	t.Logf("NATS container started at: %s", container.URL)

	cfg := testBusConfig()
	cfg.NATS.URL = container.URL
	cfg.NATS.EmbeddedServer = false
	cfg.NATS.StoreDir = t.TempDir()

	bus, err := NewBus(ctx, cfg, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewBus() error = %v", err)
	}
	t.Cleanup(func() {
		if err := bus.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return bus
}

func TestNATSBus_Integration_RouterForwardsAcrossTopics(t *testing.T) {
	bus := startNATSBus(t)
	topics := testBusConfig()

	cfg := testRouterConfig()
	r, err := NewRouter(&cfg, nil, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	r.AddHandler("recommend", topics.IngredientsTopic, bus.Subscriber(), topics.ResponseTopic, bus.Publisher(),
		func(msg *message.Message) ([]*message.Message, error) {
			out := message.NewMessage(watermill.NewUUID(), append([]byte("ranked:"), msg.Payload...))
			return []*message.Message{out}, nil
		})

	responses, err := bus.Subscriber().Subscribe(context.Background(), topics.ResponseTopic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	startRouter(t, r)

	if err := bus.Publisher().Publish(topics.IngredientsTopic, message.NewMessage(watermill.NewUUID(), []byte("tomate"))); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-responses:
		msg.Ack()
		if got := string(msg.Payload); got != "ranked:tomate" {
			t.Errorf("payload = %q, want ranked:tomate", got)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("timed out waiting for the forwarded message")
	}
}

func TestNATSBus_Integration_Health(t *testing.T) {
	bus := startNATSBus(t)

	if bus.Transport() != config.TransportNATS {
		t.Errorf("Transport() = %q, want nats", bus.Transport())
	}

	h := NewHealthChecker(5 * time.Second)
	bus.RegisterHealth(h)

	overall := h.CheckAll(context.Background())
	if !overall.Healthy {
		t.Errorf("CheckAll() = %+v, want healthy", overall)
	}
	for _, name := range []string{"bus_publisher", "bus_stream"} {
		if _, ok := overall.Components[name]; !ok {
			t.Errorf("component %q not registered", name)
		}
	}
}
