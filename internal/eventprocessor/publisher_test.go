// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package eventprocessor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/smartfood/internal/breaker"
)

// stubPublisher records published messages and fails while err is set.
type stubPublisher struct {
	mu     sync.Mutex
	err    error
	topics []string
	msgs   []*message.Message
	closed bool
}

func (s *stubPublisher) Publish(topic string, msgs ...*message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, m := range msgs {
		s.topics = append(s.topics, topic)
		s.msgs = append(s.msgs, m)
	}
	return nil
}

func (s *stubPublisher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestNewPublisher_Nil(t *testing.T) {
	t.Parallel()

	if _, err := NewPublisher(nil, false); !errors.Is(err, ErrNilPublisher) {
		t.Errorf("NewPublisher(nil) error = %v, want ErrNilPublisher", err)
	}
}

func TestPublisher_SetsMsgIDHeader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		trackMsgID bool
		preset     string
		want       string
	}{
		{"tracking sets uuid", true, "", "msg-1"},
		{"tracking keeps explicit id", true, "explicit", "explicit"},
		{"no tracking", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stub := &stubPublisher{}
			pub, err := NewPublisher(stub, tt.trackMsgID)
			if err != nil {
				t.Fatalf("NewPublisher() error = %v", err)
			}

			msg := message.NewMessage("msg-1", []byte("{}"))
			if tt.preset != "" {
				msg.Metadata.Set(natsgo.MsgIdHdr, tt.preset)
			}
			if err := pub.Publish("mensaje_respuesta", msg); err != nil {
				t.Fatalf("Publish() error = %v", err)
			}
			if got := stub.msgs[0].Metadata.Get(natsgo.MsgIdHdr); got != tt.want {
				t.Errorf("%s = %q, want %q", natsgo.MsgIdHdr, got, tt.want)
			}
		})
	}
}

func TestPublisher_WrapsErrorsAndOpensBreaker(t *testing.T) {
	t.Parallel()

	boom := errors.New("nats unavailable")
	stub := &stubPublisher{err: boom}
	pub, err := NewPublisher(stub, false)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}

	cfg := breaker.DefaultConfig("test-publisher")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	pub.SetCircuitBreaker(breaker.New[struct{}](cfg))

	for i := 0; i < 2; i++ {
		err := pub.Publish("ingredientes_imagen", message.NewMessage("m", nil))
		if !errors.Is(err, boom) {
			t.Fatalf("Publish() #%d error = %v, want wrapped boom", i, err)
		}
	}

	err = pub.Publish("ingredientes_imagen", message.NewMessage("m", nil))
	if !breaker.IsRejected(err) {
		t.Fatalf("Publish() with open breaker error = %v, want rejection", err)
	}

	h := pub.HealthCheck(context.Background())
	if h.Healthy || h.Details["circuit_breaker_state"] != "open" {
		t.Errorf("HealthCheck() = %+v, want unhealthy with open breaker", h)
	}
}

func TestPublisher_Close(t *testing.T) {
	t.Parallel()

	stub := &stubPublisher{}
	pub, err := NewPublisher(stub, false)
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}

	if h := pub.HealthCheck(context.Background()); !h.Healthy {
		t.Errorf("HealthCheck() before close = %+v", h)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if !stub.closed {
		t.Error("underlying publisher not closed")
	}
	if err := pub.Publish("t", message.NewMessage("m", nil)); !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("Publish() after close error = %v, want ErrPublisherClosed", err)
	}
	if h := pub.HealthCheck(context.Background()); h.Healthy {
		t.Error("HealthCheck() healthy after close")
	}
}
