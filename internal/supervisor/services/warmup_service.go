// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// EngineLoader is the subset of *recommend.Engine used for warm-up.
type EngineLoader interface {
	Load(ctx context.Context) error
}

// WarmUpService loads the recommendation artifacts at startup so the first
// request does not pay for the download. A failed load is returned and
// retried under the supervisor's backoff; a successful one ends the service.
type WarmUpService struct {
	engine  EngineLoader
	timeout time.Duration
	logger  zerolog.Logger
}

// NewWarmUpService creates the warm-up service. A non-positive timeout means 5m.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewWarmUpService(engine EngineLoader, timeout time.Duration, logger zerolog.Logger) *WarmUpService {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &WarmUpService{
		engine:  engine,
		timeout: timeout,
		logger:  logger.With().Str("service", "recommend-warmup").Logger(),
	}
}

// Serve loads the engine once.
func (s *WarmUpService) Serve(ctx context.Context) error {
	loadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.engine.Load(loadCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn().Err(err).Msg("Recommendation engine warm-up failed")
		return fmt.Errorf("warm up recommendation engine: %w", err)
	}

	s.logger.Info().Dur("duration", time.Since(start)).Msg("Recommendation engine loaded")
	return suture.ErrDoNotRestart
}

// String names the service in supervisor logs.
func (s *WarmUpService) String() string {
	return "recommend-warmup"
}
