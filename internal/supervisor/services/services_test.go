// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*RouterService)(nil)
	_ suture.Service = (*WarmUpService)(nil)
	_ suture.Service = (*StoreMaintenanceService)(nil)
	_ suture.Service = (*CacheSweepService)(nil)
)

// mockHTTPServer is a test double for HTTPServer.
type mockHTTPServer struct {
	listenErr     error
	shutdownErr   error
	shutdownCount atomic.Int32
	started       chan struct{}
	stopCh        chan struct{}
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{
		started: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
}

func (m *mockHTTPServer) ListenAndServe() error {
	select {
	case m.started <- struct{}{}:
	default:
	}
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.shutdownCount.Add(1)
	close(m.stopCh)
	return m.shutdownErr
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Parallel()

	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		t.Parallel()

		server := newMockHTTPServer()
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		<-server.started
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() error = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve() did not return after cancel")
		}
		if server.shutdownCount.Load() != 1 {
			t.Errorf("Shutdown calls = %d, want 1", server.shutdownCount.Load())
		}
	})

	t.Run("listener failure is returned", func(t *testing.T) {
		t.Parallel()

		server := newMockHTTPServer()
		server.listenErr = errors.New("address already in use")
		svc := NewHTTPServerService(server, time.Second)

		err := svc.Serve(context.Background())
		if err == nil || !errors.Is(err, server.listenErr) {
			t.Errorf("Serve() error = %v, want wrapped listen error", err)
		}
	})

	t.Run("shutdown failure is returned", func(t *testing.T) {
		t.Parallel()

		server := newMockHTTPServer()
		server.shutdownErr = errors.New("connections still open")
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()
		<-server.started
		cancel()

		if err := <-done; !errors.Is(err, server.shutdownErr) {
			t.Errorf("Serve() error = %v, want wrapped shutdown error", err)
		}
	})

	if got := NewHTTPServerService(newMockHTTPServer(), 0).shutdownTimeout; got != 10*time.Second {
		t.Errorf("default shutdownTimeout = %v, want 10s", got)
	}
}

// routerFunc adapts a function to MessageRouter.
type routerFunc func(ctx context.Context) error

func (f routerFunc) Run(ctx context.Context) error { return f(ctx) }

func TestRouterService_Serve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		run           routerFunc
		cancel        bool
		wantCanceled  bool
		wantTerminate bool
	}{
		{
			name:         "stops with context",
			run:          func(ctx context.Context) error { <-ctx.Done(); return nil },
			cancel:       true,
			wantCanceled: true,
		},
		{
			name:          "run error terminates tree",
			run:           func(context.Context) error { return errors.New("subscribe failed") },
			wantTerminate: true,
		},
		{
			name:          "unexpected clean stop terminates tree",
			run:           func(context.Context) error { return nil },
			wantTerminate: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				cancel()
			}

			err := NewRouterService(tt.run).Serve(ctx)
			if got := errors.Is(err, context.Canceled); got != tt.wantCanceled {
				t.Errorf("errors.Is(err, Canceled) = %v, want %v (err %v)", got, tt.wantCanceled, err)
			}
			if got := errors.Is(err, suture.ErrTerminateSupervisorTree); got != tt.wantTerminate {
				t.Errorf("errors.Is(err, ErrTerminateSupervisorTree) = %v, want %v (err %v)", got, tt.wantTerminate, err)
			}
		})
	}
}

// loaderFunc adapts a function to EngineLoader.
type loaderFunc func(ctx context.Context) error

func (f loaderFunc) Load(ctx context.Context) error { return f(ctx) }

func TestWarmUpService_Serve(t *testing.T) {
	t.Parallel()

	logger := zerolog.New(io.Discard)

	t.Run("success does not restart", func(t *testing.T) {
		t.Parallel()
		svc := NewWarmUpService(loaderFunc(func(context.Context) error { return nil }), time.Second, logger)
		if err := svc.Serve(context.Background()); !errors.Is(err, suture.ErrDoNotRestart) {
			t.Errorf("Serve() error = %v, want ErrDoNotRestart", err)
		}
	})

	t.Run("failure is retried", func(t *testing.T) {
		t.Parallel()
		loadErr := errors.New("artifact missing")
		svc := NewWarmUpService(loaderFunc(func(context.Context) error { return loadErr }), time.Second, logger)
		err := svc.Serve(context.Background())
		if !errors.Is(err, loadErr) || errors.Is(err, suture.ErrDoNotRestart) {
			t.Errorf("Serve() error = %v, want wrapped load error", err)
		}
	})

	t.Run("load is bounded by timeout", func(t *testing.T) {
		t.Parallel()
		svc := NewWarmUpService(loaderFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}), 20*time.Millisecond, logger)
		if err := svc.Serve(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() error = %v, want DeadlineExceeded", err)
		}
	})
}

// gcCounter counts RunGC calls and fails the first one.
type gcCounter struct {
	calls atomic.Int32
}

func (g *gcCounter) RunGC(context.Context) error {
	if g.calls.Add(1) == 1 {
		return errors.New("value log busy")
	}
	return nil
}

func TestStoreMaintenanceService_Serve(t *testing.T) {
	t.Parallel()

	store := &gcCounter{}
	svc := NewStoreMaintenanceService(store, 5*time.Millisecond, zerolog.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for store.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if store.calls.Load() < 3 {
		t.Errorf("RunGC calls = %d, want >= 3 (a failure must not stop the loop)", store.calls.Load())
	}
}

type sweepCounter struct {
	calls atomic.Int32
}

func (s *sweepCounter) CleanupExpired() int {
	return int(s.calls.Add(1))
}

func TestCacheSweepService_Serve(t *testing.T) {
	t.Parallel()

	webhook, dedup := &sweepCounter{}, &sweepCounter{}
	svc := NewCacheSweepService(map[string]ExpirySweeper{
		"webhook_updates": webhook,
		"bus_dedup":       dedup,
	}, 5*time.Millisecond, zerolog.New(io.Discard))

	if svc.String() != "cache-sweep" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for (webhook.calls.Load() < 2 || dedup.calls.Load() < 2) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
	if webhook.calls.Load() < 2 || dedup.calls.Load() < 2 {
		t.Errorf("sweeps = (%d, %d), want at least 2 each", webhook.calls.Load(), dedup.calls.Load())
	}
}

func TestNewCacheSweepService_DefaultInterval(t *testing.T) {
	t.Parallel()

	svc := NewCacheSweepService(nil, 0, zerolog.New(io.Discard))
	if svc.interval != time.Minute {
		t.Errorf("interval = %v, want 1m", svc.interval)
	}
}
