// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package preferences

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/metrics"
	"github.com/tomtom215/smartfood/internal/models"
)

// MemoryStore keeps records in process memory. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[int64]models.UserState
	retries int
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(retries int) *MemoryStore {
	return &MemoryStore{
		records: make(map[int64]models.UserState),
		retries: retries,
		now:     time.Now,
	}
}

// Get returns the stored record or ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, chatID int64) (models.UserState, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(config.StoreMemory, "get", time.Since(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.records[chatID]
	if !ok {
		return models.UserState{}, ErrNotFound
	}
	return state.Clone(), nil
}

// Set overwrites the record.
func (s *MemoryStore) Set(_ context.Context, chatID int64, state models.UserState) error {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(config.StoreMemory, "set", time.Since(start)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[chatID] = prepare(state, s.records[chatID].Version+1, s.now())
	return nil
}

// Update runs fn outside the lock and commits only if the version is unchanged.
func (s *MemoryStore) Update(ctx context.Context, chatID int64, fn UpdateFunc) (models.UserState, error) {
	return retryUpdate(ctx, config.StoreMemory, chatID, s.retries, func() (models.UserState, error) {
		s.mu.RLock()
		current, ok := s.records[chatID]
		s.mu.RUnlock()
		if !ok {
			current = models.DefaultUserState()
		}
		baseVersion := current.Version

		next, err := fn(current.Clone())
		if err != nil {
			return models.UserState{}, err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.records[chatID].Version != baseVersion {
			return models.UserState{}, errRetry
		}
		written := prepare(next, baseVersion+1, s.now())
		s.records[chatID] = written
		return written.Clone(), nil
	})
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
