// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package services

import (
	"context"
	"fmt"

	"github.com/thejerf/suture/v4"
)

// MessageRouter is the lifecycle subset of *eventprocessor.Router.
type MessageRouter interface {
	Run(ctx context.Context) error
}

// RouterService runs the pipeline stages. A Watermill router cannot be
// started twice, so an unexpected stop terminates the whole tree instead
// of being restarted.
type RouterService struct {
	router MessageRouter
}

// NewRouterService wraps router.
func NewRouterService(router MessageRouter) *RouterService {
	return &RouterService{router: router}
}

// Serve blocks in Run until ctx is canceled.
func (s *RouterService) Serve(ctx context.Context) error {
	err := s.router.Run(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("message router stopped: %w: %w", suture.ErrTerminateSupervisorTree, err)
	}
	return fmt.Errorf("message router stopped: %w", suture.ErrTerminateSupervisorTree)
}

// String names the service in supervisor logs.
func (s *RouterService) String() string {
	return "message-router"
}
