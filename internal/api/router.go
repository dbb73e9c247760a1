// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/smartfood/internal/config"
)

// Router assembles the HTTP handlers behind a Chi mux.
type Router struct {
	webhookPath string
	webhook     http.Handler
	health      *HealthHandler
	middleware  *ChiMiddleware
}

// NewRouter creates the router. webhookPath must start with '/'.
func NewRouter(webhookPath string, webhook http.Handler, health *HealthHandler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(DefaultMiddlewareConfig())
	}
	return &Router{
		webhookPath: webhookPath,
		webhook:     webhook,
		health:      health,
		middleware:  mw,
	}
}

// NewRouterFromConfig wires the webhook and health handlers using the server section.
func NewRouterFromConfig(cfg config.ServerConfig, webhookSecret string, updates UpdateHandler, health *HealthHandler) *Router {
	webhook := NewWebhookHandler(updates, WebhookConfig{
		Secret:    webhookSecret,
		DedupSize: cfg.UpdateDedupSize,
		DedupTTL:  cfg.UpdateDedupTTL,
	})
	return NewRouter(cfg.WebhookPath, webhook, health, NewChiMiddleware(MiddlewareConfigFrom(cfg)))
}

// CleanupExpired sweeps the webhook's update_id cache when the webhook keeps one.
func (router *Router) CleanupExpired() int {
	if sweeper, ok := router.webhook.(interface{ CleanupExpired() int }); ok {
		return sweeper.CleanupExpired()
	}
	return 0
}

// SetupChi configures all routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Get("/live", router.health.Live)
		r.Get("/ready", router.health.Ready)
		r.Get("/components/{name}", router.health.Component)
	})

	r.Group(func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(PrometheusMetrics())
		r.Method(http.MethodPost, router.webhookPath, router.webhook)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
