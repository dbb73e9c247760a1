// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

/*
Package metrics provides Prometheus metrics for the SmartFood pipeline.

All collectors are registered on the default registry through promauto and
exposed at /metrics by the API router.

# Available Metrics

API:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests
  - api_rate_limit_hits_total{endpoint}

Webhook and conversation:
  - webhook_updates_total{kind,outcome}
  - conversation_transitions_total{from,to,event}

Message bus:
  - bus_messages_published_total{topic}
  - bus_messages_consumed_total{topic}
  - bus_messages_processed_total{topic}
  - bus_messages_failed_total{topic}
  - bus_messages_malformed_total{topic}
  - bus_messages_deduplicated_total
  - bus_processing_duration_seconds{topic}

Stages:
  - recommend_duration_seconds
  - recommend_unknown_labels_total{kind}
  - recommend_engine_loads_total{result}
  - recommend_empty_results_total
  - detection_outcomes_total{outcome}
  - delivery_outcomes_total{outcome}

Storage:
  - preference_store_operation_duration_seconds{backend,operation}
  - preference_store_conflicts_total{backend}
  - artifact_downloads_total{result}

Circuit breakers:
  - circuit_breaker_state{name}
  - circuit_breaker_requests_total{name,result}
  - circuit_breaker_consecutive_failures{name}
  - circuit_breaker_state_transitions_total{name,from,to}

# Usage

	start := time.Now()
	results := engine.Recommend(ingredients, filters, k)
	metrics.RecordRecommendation(time.Since(start), unknownIngredients, unknownFilters, len(results))
*/
package metrics
