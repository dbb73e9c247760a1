// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// GarbageCollector is implemented by stores that need periodic compaction
// (preferences.BadgerStore).
type GarbageCollector interface {
	RunGC(ctx context.Context) error
}

// StoreMaintenanceService runs RunGC on a fixed interval.
type StoreMaintenanceService struct {
	store    GarbageCollector
	interval time.Duration
	logger   zerolog.Logger
}

// NewStoreMaintenanceService creates the service. A non-positive interval means 10m.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewStoreMaintenanceService(store GarbageCollector, interval time.Duration, logger zerolog.Logger) *StoreMaintenanceService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StoreMaintenanceService{
		store:    store,
		interval: interval,
		logger:   logger.With().Str("service", "store-maintenance").Logger(),
	}
}

// Serve runs until ctx is canceled. GC failures are logged, not returned.
func (s *StoreMaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.store.RunGC(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn().Err(err).Msg("Preference store GC failed")
				continue
			}
			s.logger.Debug().Dur("duration", time.Since(start)).Msg("Preference store GC complete")
		}
	}
}

// String names the service in supervisor logs.
func (s *StoreMaintenanceService) String() string {
	return "store-maintenance"
}
