// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

// Package eventprocessor is the message bus connecting the pipeline stages,
// built on Watermill with either an in-process GoChannel or NATS JetStream
// transport.
//
// # Topology
//
//	webhook ──photo──▶ ingredientes_imagen ──▶ detection ─┐
//	   │                                                  ▼
//	   └───text──────────────────────────────▶ ingredientes_detectados ──▶ recommendation
//	                                                                            │
//	                                        mensaje_respuesta ◀─────────────────┘
//	                                               │
//	                                               ▼
//	                                           delivery
//
// Every topic has exactly one consuming stage. Payloads are the JSON shapes in
// internal/models; field names are a wire contract shared with stages that
// may be deployed separately.
//
// # Delivery Semantics
//
// Both transports deliver at least once and do not order messages. The
// Router adds, from outermost to innermost:
//
//  1. Poison queue: a message still failing after retries is forwarded to
//     the poison topic and acked
//  2. Deduplicator: redelivered message UUIDs are dropped for a TTL; a key is
//     forgotten again when its handler fails so the retry is not lost
//  3. Retry: exponential backoff for handler errors
//  4. Recoverer: handler panics become errors
//  5. Throttle (optional) and per-topic Prometheus metrics
//
// Stages decide per error class whether to return an error (retry) or to ack
// and publish a degraded message; see the stage packages.
//
// # Transports
//
//   - gochannel: single process, nothing persisted; the default for
//     development and tests
//   - nats: JetStream stream holding every pipeline subject, durable queue
//     consumers, optional embedded server (EmbeddedServer)
//
// # Usage Example
//
//	bus, err := eventprocessor.NewBus(cfg.Bus, logging.NewWatermillLogger())
//	if err != nil {
//	    return err
//	}
//	defer bus.Close()
//
//	router, err := eventprocessor.NewRouter(RouterConfigFrom(cfg.Bus.Router), bus.Publisher(), logger)
//	router.AddHandler("recommend", cfg.Bus.IngredientsTopic, bus.Subscriber(),
//	    cfg.Bus.ResponseTopic, bus.Publisher(), handler.Handle)
//	go router.Run(ctx)
package eventprocessor
