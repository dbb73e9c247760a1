// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package eventprocessor

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"github.com/tomtom215/smartfood/internal/cache"
	"github.com/tomtom215/smartfood/internal/metrics"
)

// Deduplicator drops redelivered messages by UUID. It implements
// middleware.ExpiringKeyRepository over a bounded LRU.
type Deduplicator struct {
	cache *cache.LRUCache
	inner middleware.Deduplicator
}

// NewDeduplicator remembers up to 10000 message UUIDs for ttl each.
func NewDeduplicator(ttl time.Duration) *Deduplicator {
	d := &Deduplicator{cache: cache.NewLRUCache(10000, ttl)}
	d.inner = middleware.Deduplicator{
		KeyFactory: messageKey,
		Repository: d,
		Timeout:    time.Second,
	}
	return d
}

func messageKey(msg *message.Message) (string, error) {
	return msg.UUID, nil
}

// IsDuplicate records key and reports whether it was already present.
func (d *Deduplicator) IsDuplicate(_ context.Context, key string) (bool, error) {
	dup := d.cache.IsDuplicate(key)
	if dup {
		metrics.RecordBusDeduplicated()
	}
	return dup, nil
}

// CleanupExpired drops remembered UUIDs whose TTL has passed.
func (d *Deduplicator) CleanupExpired() int {
	return d.cache.CleanupExpired()
}

// Middleware drops duplicates. A key whose handler fails is forgotten so
// that the redelivery is processed.
func (d *Deduplicator) Middleware(h message.HandlerFunc) message.HandlerFunc {
	dedup := d.inner.Middleware(h)
	return func(msg *message.Message) ([]*message.Message, error) {
		msgs, err := dedup(msg)
		if err != nil {
			d.cache.Remove(msg.UUID)
		}
		return msgs, err
	}
}

// MetricsMiddleware records consumption, outcome and latency per topic.
func MetricsMiddleware(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		topic := message.SubscribeTopicFromCtx(msg.Context())
		metrics.RecordBusConsume(topic)

		start := time.Now()
		msgs, err := h(msg)
		metrics.RecordBusResult(topic, time.Since(start), err)
		return msgs, err
	}
}
