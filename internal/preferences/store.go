// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package preferences

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/logging"
	"github.com/tomtom215/smartfood/internal/metrics"
	"github.com/tomtom215/smartfood/internal/models"
)

var (
	// ErrNotFound is returned by Get for a chat with no stored record.
	ErrNotFound = errors.New("user state not found")

	// ErrConflict is returned by Update when every attempt lost a concurrent write.
	ErrConflict = errors.New("user state update conflict")
)

// UpdateFunc computes the new record from the current one. current is a
// private copy and may be modified and returned. Returning an error aborts
// the update without writing.
type UpdateFunc func(current models.UserState) (models.UserState, error)

// Store persists user state keyed by chat ID. Implementations are safe for
// concurrent use.
type Store interface {
	// Get returns the stored record or ErrNotFound.
	Get(ctx context.Context, chatID int64) (models.UserState, error)

	// Set overwrites the record unconditionally.
	Set(ctx context.Context, chatID int64, state models.UserState) error

	// Update runs an optimistic read-modify-write. A missing record is
	// presented to fn as models.DefaultUserState(). It returns the record
	// as written.
	Update(ctx context.Context, chatID int64, fn UpdateFunc) (models.UserState, error)

	// Ping reports whether the backend is usable.
	Ping(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// New opens the configured backend.
func New(cfg config.StoreConfig) (Store, error) {
	switch cfg.Type {
	case config.StoreMemory:
		return NewMemoryStore(cfg.UpdateRetries), nil
	case config.StoreBadger:
		return OpenBadgerStore(cfg.Path, cfg.UpdateRetries)
	case config.StoreSQLite:
		return OpenSQLiteStore(cfg.Path, cfg.UpdateRetries)
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Type)
	}
}

// GetOrDefault returns the stored record, or the default record for a chat
// that was never seen.
func GetOrDefault(ctx context.Context, s Store, chatID int64) (models.UserState, error) {
	state, err := s.Get(ctx, chatID)
	if errors.Is(err, ErrNotFound) {
		return models.DefaultUserState(), nil
	}
	return state, err
}

// errRetry signals a lost optimistic write inside retryUpdate.
var errRetry = errors.New("retry")

// retryUpdate runs attempt until it stops returning errRetry or retries are
// exhausted.
func retryUpdate(ctx context.Context, backend string, chatID int64, retries int, attempt func() (models.UserState, error)) (models.UserState, error) {
	if retries < 1 {
		retries = 1
	}
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(backend, "update", time.Since(start)) }()

	for i := 0; i < retries; i++ {
		if err := ctx.Err(); err != nil {
			return models.UserState{}, err
		}
		state, err := attempt()
		if !errors.Is(err, errRetry) {
			return state, err
		}
		metrics.RecordStoreConflict(backend)
		logging.Debug().Str("backend", backend).Int64("chat_id", chatID).Int("attempt", i+1).
			Msg("User state write conflict, retrying")
	}
	return models.UserState{}, fmt.Errorf("%w: chat %d after %d attempts", ErrConflict, chatID, retries)
}

// prepare normalizes a record about to be written with the given version.
func prepare(state models.UserState, version int64, now time.Time) models.UserState {
	state = state.Clone()
	state.Version = version
	state.UpdatedAt = now.UTC()
	return state
}
