// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package preferences

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/models"
)

// openStores returns one fresh store per backend.
func openStores(t *testing.T) map[string]Store {
	t.Helper()

	badgerStore, err := OpenBadgerStore(filepath.Join(t.TempDir(), "badger"), 10)
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	sqliteStore, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "prefs.db"), 10)
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}

	stores := map[string]Store{
		config.StoreMemory: NewMemoryStore(10),
		config.StoreBadger: badgerStore,
		config.StoreSQLite: sqliteStore,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func readyState() models.UserState {
	return models.UserState{
		State:         models.StateReady,
		QuestionIndex: 7,
		Preferences:   map[string]string{"has_sodium": "low_sodium", "has_sugar": "high_sugar"},
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get(context.Background(), 1); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}

			state, err := GetOrDefault(context.Background(), s, 1)
			if err != nil {
				t.Fatalf("GetOrDefault() error = %v", err)
			}
			if state.State != models.StateAwaitingPrefs || state.QuestionIndex != 0 || len(state.Preferences) != 0 {
				t.Errorf("GetOrDefault() = %+v, want default", state)
			}
		})
	}
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	t.Parallel()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := s.Set(ctx, 42, readyState()); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			got, err := s.Get(ctx, 42)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.State != models.StateReady || got.QuestionIndex != 7 {
				t.Errorf("Get() = %+v", got)
			}
			if got.Preferences["has_sodium"] != "low_sodium" || len(got.Preferences) != 2 {
				t.Errorf("Preferences = %v", got.Preferences)
			}
			if got.Version != 1 {
				t.Errorf("Version = %d, want 1", got.Version)
			}
			if got.UpdatedAt.IsZero() {
				t.Error("UpdatedAt not set")
			}

			// Overwrite with the default, as /start does.
			if err := s.Set(ctx, 42, models.DefaultUserState()); err != nil {
				t.Fatalf("second Set() error = %v", err)
			}
			got, err = s.Get(ctx, 42)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.State != models.StateAwaitingPrefs || len(got.Preferences) != 0 || got.Version != 2 {
				t.Errorf("after reset Get() = %+v", got)
			}
		})
	}
}

func TestStore_UpdateCreatesAndIncrements(t *testing.T) {
	t.Parallel()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			written, err := s.Update(ctx, 7, func(cur models.UserState) (models.UserState, error) {
				if cur.State != models.StateAwaitingPrefs || cur.Version != 0 {
					t.Errorf("first Update saw %+v, want default", cur)
				}
				cur.Preferences["has_calories"] = "normal_calories"
				cur.QuestionIndex = 1
				return cur, nil
			})
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if written.Version != 1 || written.QuestionIndex != 1 {
				t.Errorf("written = %+v", written)
			}

			written, err = s.Update(ctx, 7, func(cur models.UserState) (models.UserState, error) {
				cur.QuestionIndex++
				return cur, nil
			})
			if err != nil {
				t.Fatalf("second Update() error = %v", err)
			}
			if written.Version != 2 || written.QuestionIndex != 2 {
				t.Errorf("written = %+v", written)
			}

			got, err := s.Get(ctx, 7)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.Preferences["has_calories"] != "normal_calories" || got.Version != 2 {
				t.Errorf("Get() = %+v", got)
			}
		})
	}
}

func TestStore_UpdateAbortDoesNotWrite(t *testing.T) {
	t.Parallel()

	errAbort := errors.New("abort")
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Update(context.Background(), 9, func(cur models.UserState) (models.UserState, error) {
				return cur, errAbort
			})
			if !errors.Is(err, errAbort) {
				t.Fatalf("Update() error = %v, want %v", err, errAbort)
			}
			if _, err := s.Get(context.Background(), 9); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStore_ConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	t.Parallel()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			const workers = 8
			ctx := context.Background()

			var wg sync.WaitGroup
			errs := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					// Each worker gets enough attempts to outlast every other writer.
					_, err := retryUntilApplied(ctx, s, func(cur models.UserState) (models.UserState, error) {
						cur.QuestionIndex++
						return cur, nil
					})
					if err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Errorf("Update() error = %v", err)
			}

			got, err := s.Get(ctx, 100)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got.QuestionIndex != workers {
				t.Errorf("QuestionIndex = %d, want %d", got.QuestionIndex, workers)
			}
		})
	}
}

// retryUntilApplied repeats Update on ErrConflict.
func retryUntilApplied(ctx context.Context, s Store, fn UpdateFunc) (models.UserState, error) {
	for {
		state, err := s.Update(ctx, 100, fn)
		if !errors.Is(err, ErrConflict) {
			return state, err
		}
	}
}

func TestMemoryStore_ConflictExhaustsRetries(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(2)
	ctx := context.Background()

	calls := 0
	_, err := s.Update(ctx, 5, func(cur models.UserState) (models.UserState, error) {
		calls++
		// A competing writer lands between read and commit.
		if err := s.Set(ctx, 5, readyState()); err != nil {
			t.Fatal(err)
		}
		return cur, nil
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Update() error = %v, want ErrConflict", err)
	}
	if calls != 2 {
		t.Errorf("fn called %d times, want 2", calls)
	}
}

func TestStore_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore(3).Update(ctx, 1, func(cur models.UserState) (models.UserState, error) {
		return cur, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Update() error = %v, want context.Canceled", err)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr bool
	}{
		{"memory", config.StoreConfig{Type: config.StoreMemory, UpdateRetries: 5}, false},
		{"badger", config.StoreConfig{Type: config.StoreBadger, Path: filepath.Join(t.TempDir(), "b"), UpdateRetries: 5}, false},
		{"sqlite", config.StoreConfig{Type: config.StoreSQLite, Path: filepath.Join(t.TempDir(), "s", "p.db"), UpdateRetries: 5}, false},
		{"unknown", config.StoreConfig{Type: "redis"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer s.Close()
			if err := s.Ping(context.Background()); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestBadgerStore_RunGC(t *testing.T) {
	t.Parallel()

	s, err := OpenBadgerStore(filepath.Join(t.TempDir(), "badger"), 5)
	if err != nil {
		t.Fatalf("OpenBadgerStore() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.RunGC(context.Background()); err != nil {
		t.Errorf("RunGC() on fresh db error = %v, want nil", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.RunGC(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("RunGC() with canceled ctx error = %v, want context.Canceled", err)
	}
}
