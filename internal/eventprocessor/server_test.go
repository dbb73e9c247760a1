// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package eventprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// startEmbedded runs a JetStream server on a random port for the test.
func startEmbedded(t *testing.T) *EmbeddedServer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping embedded NATS server in short mode")
	}

	cfg := DefaultServerConfig()
	cfg.Port = server.RANDOM_PORT
	cfg.StoreDir = t.TempDir()
	cfg.JetStreamMaxMem = 16 << 20
	cfg.JetStreamMaxStore = 64 << 20

	s, err := NewEmbeddedServer(&cfg)
	if err != nil {
		t.Fatalf("NewEmbeddedServer() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s
}

func TestEmbeddedServer_Lifecycle(t *testing.T) {
	s := startEmbedded(t)

	if !s.IsRunning() || !s.JetStreamEnabled() {
		t.Fatal("server should be running with JetStream")
	}
	if h := s.HealthCheck(context.Background()); !h.Healthy {
		t.Errorf("HealthCheck() = %+v", h)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("server still running after Shutdown")
	}
}

func TestEmbeddedServer_PipelineRoundTrip(t *testing.T) {
	s := startEmbedded(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	nc, err := natsgo.Connect(s.ClientURL())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		t.Fatalf("jetstream.New() error = %v", err)
	}
	streamCfg := DefaultStreamConfig()
	si, err := NewStreamInitializer(js, &streamCfg)
	if err != nil {
		t.Fatalf("NewStreamInitializer() error = %v", err)
	}
	if _, err := si.EnsureStream(ctx); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}

	logger := watermill.NopLogger{}
	pub, err := NewNATSPublisher(DefaultPublisherConfig(s.ClientURL()), logger)
	if err != nil {
		t.Fatalf("NewNATSPublisher() error = %v", err)
	}
	defer pub.Close()

	subCfg := DefaultSubscriberConfig(s.ClientURL())
	subCfg.SubscribersCount = 1
	subCfg.StreamName = streamCfg.Name
	subCfg.CloseTimeout = 5 * time.Second
	sub, err := NewNATSSubscriber(&subCfg, logger)
	if err != nil {
		t.Fatalf("NewNATSSubscriber() error = %v", err)
	}
	defer sub.Close()

	msgs, err := sub.Subscribe(ctx, "mensaje_respuesta")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	sent := message.NewMessage(watermill.NewUUID(), []byte(`{"chat_id":1}`))
	if err := pub.Publish("mensaje_respuesta", sent); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-msgs:
		got.Ack()
		if got.UUID != sent.UUID || string(got.Payload) != `{"chat_id":1}` {
			t.Errorf("received %s %q", got.UUID, got.Payload)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for message")
	}

	info, err := si.GetStreamInfo(ctx)
	if err != nil {
		t.Fatalf("GetStreamInfo() error = %v", err)
	}
	if info.State.Msgs != 1 {
		t.Errorf("stream messages = %d, want 1", info.State.Msgs)
	}
}
