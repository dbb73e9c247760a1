// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package services

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
)

// ExpirySweeper is a TTL cache that only evicts expired keys on access
// (the webhook update_id cache, the router deduplicator).
type ExpirySweeper interface {
	CleanupExpired() int
}

// CacheSweepService periodically drops expired keys from TTL caches so
// that idle entries do not hold memory until the LRU bound evicts them.
type CacheSweepService struct {
	sweepers map[string]ExpirySweeper
	names    []string
	interval time.Duration
	logger   zerolog.Logger
}

// NewCacheSweepService creates the service. A non-positive interval means 1m.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewCacheSweepService(sweepers map[string]ExpirySweeper, interval time.Duration, logger zerolog.Logger) *CacheSweepService {
	if interval <= 0 {
		interval = time.Minute
	}
	names := make([]string, 0, len(sweepers))
	for name := range sweepers {
		names = append(names, name)
	}
	sort.Strings(names)

	return &CacheSweepService{
		sweepers: sweepers,
		names:    names,
		interval: interval,
		logger:   logger.With().Str("service", "cache-sweep").Logger(),
	}
}

// Serve runs until ctx is canceled.
func (s *CacheSweepService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *CacheSweepService) sweep() {
	for _, name := range s.names {
		if removed := s.sweepers[name].CleanupExpired(); removed > 0 {
			s.logger.Debug().Str("cache", name).Int("removed", removed).Msg("Expired cache entries swept")
		}
	}
}

// String names the service in supervisor logs.
func (s *CacheSweepService) String() string {
	return "cache-sweep"
}
