// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/smartfood/internal/api"
	"github.com/tomtom215/smartfood/internal/artifacts"
	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/conversation"
	"github.com/tomtom215/smartfood/internal/delivery"
	"github.com/tomtom215/smartfood/internal/detection"
	"github.com/tomtom215/smartfood/internal/eventprocessor"
	"github.com/tomtom215/smartfood/internal/logging"
	"github.com/tomtom215/smartfood/internal/preferences"
	"github.com/tomtom215/smartfood/internal/recommend"
	"github.com/tomtom215/smartfood/internal/telegram"
)

// Handler names on the Watermill router.
const (
	handlerDetection      = "detection"
	handlerRecommendation = "recommendation"
	handlerDelivery       = "delivery"
)

// app holds every component of the running bot.
type app struct {
	cfg      *config.Config
	store    preferences.Store
	bus      *eventprocessor.Bus
	router   *eventprocessor.Router
	engine   *recommend.Engine
	telegram *telegram.Client
	health   *eventprocessor.HealthChecker
	api      *api.Router
	handler  http.Handler
}

// newApp wires the four pipeline stages. Components opened before a failure
// are closed again.
func newApp(ctx context.Context, cfg *config.Config) (_ *app, err error) {
	a := &app{
		cfg:    cfg,
		health: eventprocessor.NewHealthChecker(5 * time.Second),
	}
	defer func() {
		if err != nil {
			if closeErr := a.Close(); closeErr != nil {
				logging.Warn().Err(closeErr).Msg("Cleanup after failed startup")
			}
		}
	}()

	a.store, err = preferences.New(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open preference store: %w", err)
	}
	logging.Info().Str("type", cfg.Store.Type).Str("path", cfg.Store.Path).Msg("Preference store opened")

	a.bus, err = eventprocessor.NewBus(ctx, cfg.Bus, logging.NewWatermillLogger())
	if err != nil {
		return nil, fmt.Errorf("start message bus: %w", err)
	}
	logging.Info().Str("transport", a.bus.Transport()).Strs("topics", cfg.Bus.Topics()).Msg("Message bus ready")

	artifactStore, err := artifacts.New(cfg.Artifacts)
	if err != nil {
		return nil, fmt.Errorf("create artifact store: %w", err)
	}
	a.engine = recommend.NewEngine(recommend.ArtifactLoader(
		artifactStore, cfg.Artifacts.Bucket, cfg.Recommend.TriplesBlob, cfg.Recommend.ModelBlob,
	))

	a.telegram = telegram.NewClient(telegram.ConfigFrom(cfg.Telegram))

	if err := a.buildRouter(); err != nil {
		return nil, err
	}

	conv := conversation.NewService(a.store, a.bus.Publisher(), a.telegram, conversation.Topics{
		Image:       cfg.Bus.ImageTopic,
		Ingredients: cfg.Bus.IngredientsTopic,
	}, cfg.Recommend.DefaultK)

	a.registerHealth()

	a.api = api.NewRouterFromConfig(cfg.Server, cfg.Telegram.WebhookSecret, conv, api.NewHealthHandler(a.health, version))
	a.handler = a.api.SetupChi()
	return a, nil
}

// buildRouter registers the detection, recommendation and delivery stages.
func (a *app) buildRouter() error {
	// An empty poison topic disables the poison queue.
	routerCfg := eventprocessor.RouterConfigFrom(a.cfg.Bus.Router)

	var err error
	a.router, err = eventprocessor.NewRouter(&routerCfg, a.bus.Publisher(), logging.NewWatermillLogger())
	if err != nil {
		return fmt.Errorf("create message router: %w", err)
	}

	bus := a.cfg.Bus
	sub, pub := a.bus.Subscriber(), a.bus.Publisher()

	detector := detection.NewHTTPDetector(a.cfg.Detector)
	a.router.AddHandler(handlerDetection, bus.ImageTopic, sub, bus.IngredientsTopic, pub,
		detection.NewHandler(a.telegram, detector, bus.IngredientsTopic).Handle)

	a.router.AddHandler(handlerRecommendation, bus.IngredientsTopic, sub, bus.ResponseTopic, pub,
		recommend.NewHandler(a.engine, bus.ResponseTopic).Handle)

	a.router.AddConsumerHandler(handlerDelivery, bus.ResponseTopic, sub,
		delivery.NewHandler(a.telegram, bus.ResponseTopic).Handle)

	return nil
}

func (a *app) registerHealth() {
	a.bus.RegisterHealth(a.health)
	a.health.RegisterComponent("router", a.router)
	a.health.RegisterComponent("preferences", eventprocessor.HealthCheckFunc(func(ctx context.Context) eventprocessor.ComponentHealth {
		if err := a.store.Ping(ctx); err != nil {
			return eventprocessor.ComponentHealth{Error: err.Error()}
		}
		return eventprocessor.ComponentHealth{Healthy: true, Message: a.cfg.Store.Type}
	}))
	a.health.RegisterComponent("telegram", eventprocessor.HealthCheckFunc(func(context.Context) eventprocessor.ComponentHealth {
		state := a.telegram.BreakerState()
		// An open breaker degrades replies but the webhook keeps accepting updates.
		return eventprocessor.ComponentHealth{Healthy: true, Degraded: state != "closed", Message: "circuit " + state}
	}))
	a.health.RegisterComponent("recommend_engine", eventprocessor.HealthCheckFunc(func(context.Context) eventprocessor.ComponentHealth {
		if !a.engine.Loaded() {
			return eventprocessor.ComponentHealth{Healthy: true, Degraded: true, Message: "artifacts not loaded yet"}
		}
		return eventprocessor.ComponentHealth{Healthy: true, Message: "loaded"}
	}))
}

// Close releases the bus and the store.
func (a *app) Close() error {
	var errs []error
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close preference store: %w", err))
		}
	}
	return errors.Join(errs...)
}
