// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package eventprocessor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// fakeStream implements jetstream.Stream over an in-memory config.
type fakeStream struct {
	config jetstream.StreamConfig
	state  jetstream.StreamState
}

func (s *fakeStream) Info(context.Context, ...jetstream.StreamInfoOpt) (*jetstream.StreamInfo, error) {
	return s.CachedInfo(), nil
}

func (s *fakeStream) CachedInfo() *jetstream.StreamInfo {
	return &jetstream.StreamInfo{Config: s.config, State: s.state}
}

func (s *fakeStream) Purge(context.Context, ...jetstream.StreamPurgeOpt) error { return nil }

func (s *fakeStream) CreateOrUpdateConsumer(context.Context, jetstream.ConsumerConfig) (jetstream.Consumer, error) {
	return nil, nil
}

func (s *fakeStream) OrderedConsumer(context.Context, jetstream.OrderedConsumerConfig) (jetstream.Consumer, error) {
	return nil, nil
}

func (s *fakeStream) Consumer(context.Context, string) (jetstream.Consumer, error) { return nil, nil }

func (s *fakeStream) DeleteConsumer(context.Context, string) error { return nil }

func (s *fakeStream) CreateConsumer(context.Context, jetstream.ConsumerConfig) (jetstream.Consumer, error) {
	return nil, nil
}

func (s *fakeStream) UpdateConsumer(context.Context, jetstream.ConsumerConfig) (jetstream.Consumer, error) {
	return nil, nil
}

func (s *fakeStream) ListConsumers(context.Context) jetstream.ConsumerInfoLister { return nil }

func (s *fakeStream) ConsumerNames(context.Context) jetstream.ConsumerNameLister { return nil }

func (s *fakeStream) CreateOrUpdatePushConsumer(context.Context, jetstream.ConsumerConfig) (jetstream.PushConsumer, error) {
	return nil, nil
}

func (s *fakeStream) CreatePushConsumer(context.Context, jetstream.ConsumerConfig) (jetstream.PushConsumer, error) {
	return nil, nil
}

func (s *fakeStream) UpdatePushConsumer(context.Context, jetstream.ConsumerConfig) (jetstream.PushConsumer, error) {
	return nil, nil
}

func (s *fakeStream) PushConsumer(context.Context, string) (jetstream.PushConsumer, error) {
	return nil, nil
}

func (s *fakeStream) PauseConsumer(context.Context, string, time.Time) (*jetstream.ConsumerPauseResponse, error) {
	return nil, nil
}

func (s *fakeStream) ResumeConsumer(context.Context, string) (*jetstream.ConsumerPauseResponse, error) {
	return nil, nil
}

func (s *fakeStream) UnpinConsumer(context.Context, string, string) error { return nil }

func (s *fakeStream) GetMsg(context.Context, uint64, ...jetstream.GetMsgOpt) (*jetstream.RawStreamMsg, error) {
	return nil, nil
}

func (s *fakeStream) GetLastMsgForSubject(context.Context, string) (*jetstream.RawStreamMsg, error) {
	return nil, nil
}

func (s *fakeStream) DeleteMsg(context.Context, uint64) error { return nil }

func (s *fakeStream) SecureDeleteMsg(context.Context, uint64) error { return nil }

// fakeJetStream implements JetStreamContext with injectable failures.
type fakeJetStream struct {
	mu          sync.Mutex
	streams     map[string]*fakeStream
	lookupErr   error
	createErr   error
	updateErr   error
	createCalls int
	updateCalls int
}

func newFakeJetStream() *fakeJetStream {
	return &fakeJetStream{streams: make(map[string]*fakeStream)}
}

func (f *fakeJetStream) Stream(_ context.Context, name string) (jetstream.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	if s, ok := f.streams[name]; ok {
		return s, nil
	}
	return nil, jetstream.ErrStreamNotFound
}

func (f *fakeJetStream) CreateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	s := &fakeStream{config: cfg}
	f.streams[cfg.Name] = s
	return s, nil
}

func (f *fakeJetStream) UpdateStream(_ context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	s, ok := f.streams[cfg.Name]
	if !ok {
		return nil, jetstream.ErrStreamNotFound
	}
	s.config = cfg
	return s, nil
}

func (f *fakeJetStream) calls() (create, update int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls, f.updateCalls
}

func TestNewStreamInitializer_Errors(t *testing.T) {
	t.Parallel()

	cfg := DefaultStreamConfig()
	if _, err := NewStreamInitializer(nil, &cfg); err == nil {
		t.Error("expected error for nil JetStream context")
	}
	if _, err := NewStreamInitializer(newFakeJetStream(), nil); err == nil {
		t.Error("expected error for nil config")
	}

	noSubjects := DefaultStreamConfig()
	noSubjects.Subjects = nil
	if _, err := NewStreamInitializer(newFakeJetStream(), &noSubjects); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestStreamInitializer_EnsureStreamCreatesThenUpdates(t *testing.T) {
	t.Parallel()

	js := newFakeJetStream()
	cfg := DefaultStreamConfig()
	si, err := NewStreamInitializer(js, &cfg)
	if err != nil {
		t.Fatalf("NewStreamInitializer() error = %v", err)
	}

	ctx := context.Background()
	stream, err := si.EnsureStream(ctx)
	if err != nil {
		t.Fatalf("first EnsureStream() error = %v", err)
	}
	got := stream.CachedInfo().Config
	if got.Name != "SMARTFOOD" || len(got.Subjects) != 4 {
		t.Errorf("stream config = %+v", got)
	}
	if got.Storage != jetstream.FileStorage || got.Duplicates != 2*time.Minute {
		t.Errorf("storage = %v, duplicates = %v", got.Storage, got.Duplicates)
	}

	if _, err := si.EnsureStream(ctx); err != nil {
		t.Fatalf("second EnsureStream() error = %v", err)
	}
	if create, update := js.calls(); create != 1 || update != 1 {
		t.Errorf("calls = (create %d, update %d), want (1, 1)", create, update)
	}
}

func TestStreamInitializer_EnsureStreamErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	tests := []struct {
		name    string
		setup   func(*fakeJetStream)
		wantMsg string
	}{
		{"create fails", func(f *fakeJetStream) { f.createErr = boom }, "create stream"},
		{"update fails", func(f *fakeJetStream) {
			f.streams["SMARTFOOD"] = &fakeStream{}
			f.updateErr = boom
		}, "update stream"},
		{"lookup fails", func(f *fakeJetStream) { f.lookupErr = boom }, "check stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			js := newFakeJetStream()
			tt.setup(js)
			cfg := DefaultStreamConfig()
			si, err := NewStreamInitializer(js, &cfg)
			if err != nil {
				t.Fatalf("NewStreamInitializer() error = %v", err)
			}

			_, err = si.EnsureStream(context.Background())
			if !errors.Is(err, boom) || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("EnsureStream() error = %v, want %q wrapping boom", err, tt.wantMsg)
			}
		})
	}
}

func TestStreamInitializer_HealthCheck(t *testing.T) {
	t.Parallel()

	js := newFakeJetStream()
	cfg := DefaultStreamConfig()
	si, err := NewStreamInitializer(js, &cfg)
	if err != nil {
		t.Fatalf("NewStreamInitializer() error = %v", err)
	}

	ctx := context.Background()
	if h := si.HealthCheck(ctx); h.Healthy {
		t.Error("missing stream reported healthy")
	}

	if _, err := si.EnsureStream(ctx); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	js.streams["SMARTFOOD"].state.Msgs = 3

	h := si.HealthCheck(ctx)
	if !h.Healthy {
		t.Fatalf("HealthCheck() = %+v, want healthy", h)
	}
	if h.Details["messages"] != uint64(3) {
		t.Errorf("messages = %v, want 3", h.Details["messages"])
	}
}
