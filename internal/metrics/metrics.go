// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Webhook and Conversation Metrics
	WebhookUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_updates_total",
			Help: "Telegram updates received by kind and outcome",
		},
		[]string{"kind", "outcome"}, // outcome: processed, duplicate, ignored, rejected, error
	)

	ConversationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversation_transitions_total",
			Help: "Conversation state machine transitions",
		},
		[]string{"from", "to", "event"},
	)

	// Message Bus Metrics
	BusMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_published_total",
			Help: "Total number of messages published to the bus",
		},
		[]string{"topic"},
	)

	BusMessagesConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_consumed_total",
			Help: "Total number of messages delivered to a stage handler",
		},
		[]string{"topic"},
	)

	BusMessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_processed_total",
			Help: "Total number of messages acknowledged by a stage handler",
		},
		[]string{"topic"},
	)

	BusMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_failed_total",
			Help: "Total number of handler failures returned to the router",
		},
		[]string{"topic"},
	)

	BusMessagesMalformed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bus_messages_malformed_total",
			Help: "Total number of messages dropped because the payload was malformed",
		},
		[]string{"topic"},
	)

	BusMessagesDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bus_messages_deduplicated_total",
			Help: "Total number of redelivered messages skipped by the router",
		},
	)

	BusProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bus_processing_duration_seconds",
			Help:    "Duration of stage handler execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)

	// Recommendation Metrics
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Duration of a recommendation scoring call in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	RecommendUnknownLabels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_unknown_labels_total",
			Help: "Ingredient or preference labels that contributed no score",
		},
		[]string{"kind"}, // ingredient, filter
	)

	RecommendEngineLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_engine_loads_total",
			Help: "Knowledge graph and model load attempts",
		},
		[]string{"result"}, // success, failure
	)

	RecommendEmptyResults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_empty_results_total",
			Help: "Responses published without any recommendation",
		},
	)

	// Detection and Delivery Metrics
	DetectionOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "detection_outcomes_total",
			Help: "Ingredient detection outcomes",
		},
		[]string{"outcome"}, // detected, empty, failed
	)

	DeliveryOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_outcomes_total",
			Help: "Telegram message delivery outcomes",
		},
		[]string{"outcome"}, // sent, failed
	)

	// Preference Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "preference_store_operation_duration_seconds",
			Help:    "Preference store operation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"backend", "operation"},
	)

	StoreConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preference_store_conflicts_total",
			Help: "Optimistic update conflicts that triggered a retry",
		},
		[]string{"backend"},
	)

	// Artifact Metrics
	ArtifactDownloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_downloads_total",
			Help: "Artifact fetches by result",
		},
		[]string{"result"}, // cached, downloaded, failed
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordWebhookUpdate records how a Telegram update was handled
func RecordWebhookUpdate(kind, outcome string) {
	WebhookUpdates.WithLabelValues(kind, outcome).Inc()
}

// RecordConversationTransition records a state machine step
func RecordConversationTransition(from, to, event string) {
	ConversationTransitions.WithLabelValues(from, to, event).Inc()
}

// RecordBusPublish records a message being published
func RecordBusPublish(topic string) {
	BusMessagesPublished.WithLabelValues(topic).Inc()
}

// RecordBusConsume records a message being handed to a handler
func RecordBusConsume(topic string) {
	BusMessagesConsumed.WithLabelValues(topic).Inc()
}

// RecordBusResult records the end of a handler invocation
func RecordBusResult(topic string, duration time.Duration, err error) {
	BusProcessingDuration.WithLabelValues(topic).Observe(duration.Seconds())
	if err != nil {
		BusMessagesFailed.WithLabelValues(topic).Inc()
		return
	}
	BusMessagesProcessed.WithLabelValues(topic).Inc()
}

// RecordBusMalformed records a payload dropped as malformed
func RecordBusMalformed(topic string) {
	BusMessagesMalformed.WithLabelValues(topic).Inc()
}

// RecordBusDeduplicated records a redelivered message being skipped
func RecordBusDeduplicated() {
	BusMessagesDeduplicated.Inc()
}

// RecordRecommendation records a scoring call
func RecordRecommendation(duration time.Duration, unknownIngredients, unknownFilters, results int) {
	RecommendDuration.Observe(duration.Seconds())
	if unknownIngredients > 0 {
		RecommendUnknownLabels.WithLabelValues("ingredient").Add(float64(unknownIngredients))
	}
	if unknownFilters > 0 {
		RecommendUnknownLabels.WithLabelValues("filter").Add(float64(unknownFilters))
	}
	if results == 0 {
		RecommendEmptyResults.Inc()
	}
}

// RecordEngineLoad records a knowledge graph and model load attempt
func RecordEngineLoad(err error) {
	if err != nil {
		RecommendEngineLoads.WithLabelValues("failure").Inc()
		return
	}
	RecommendEngineLoads.WithLabelValues("success").Inc()
}

// RecordDetection records a detection stage outcome
func RecordDetection(outcome string) {
	DetectionOutcomes.WithLabelValues(outcome).Inc()
}

// RecordDelivery records a delivery stage outcome
func RecordDelivery(err error) {
	if err != nil {
		DeliveryOutcomes.WithLabelValues("failed").Inc()
		return
	}
	DeliveryOutcomes.WithLabelValues("sent").Inc()
}

// RecordStoreOperation records a preference store call
func RecordStoreOperation(backend, operation string, duration time.Duration) {
	StoreOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordStoreConflict records an optimistic update conflict
func RecordStoreConflict(backend string) {
	StoreConflicts.WithLabelValues(backend).Inc()
}

// RecordArtifactDownload records an artifact fetch result
func RecordArtifactDownload(result string) {
	ArtifactDownloads.WithLabelValues(result).Inc()
}
