// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

// Package cache provides a bounded, expiring "seen keys" memory used to
// suppress redelivered work: Telegram webhook retries (keyed by update_id)
// and bus redeliveries (keyed by message UUID).
package cache

import (
	"sync"
	"time"
)

// lruNode is one remembered key in the recency list.
type lruNode struct {
	key       string
	expiresAt time.Time
	prev      *lruNode
	next      *lruNode
}

// LRUCache remembers keys for a fixed TTL, evicting the least recently
// seen key once capacity is reached. All operations are O(1) and safe for
// concurrent use.
type LRUCache struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	now      func() time.Time

	items map[string]*lruNode

	// root is a sentinel: root.next is the most recent key, root.prev the oldest.
	root lruNode

	hits   int64
	misses int64
}

// NewLRUCache creates a cache holding at most capacity keys for ttl each.
// Non-positive arguments fall back to 10000 keys and 5 minutes.
func NewLRUCache(capacity int, ttl time.Duration) *LRUCache {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	c := &LRUCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*lruNode, capacity),
	}
	c.root.next = &c.root
	c.root.prev = &c.root
	return c
}

// IsDuplicate reports whether key was recorded within the TTL.
// A key seen for the first time (or after expiry) is recorded and reported
// as new, so exactly one of several concurrent callers observes false.
func (c *LRUCache) IsDuplicate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if n, ok := c.items[key]; ok {
		if now.Before(n.expiresAt) {
			c.unlink(n)
			c.pushFront(n)
			c.hits++
			return true
		}
		c.remove(n)
	}

	c.insert(key, now)
	c.misses++
	return false
}

// Add records key, refreshing its TTL if already present.
func (c *LRUCache) Add(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.items[key]; ok {
		c.remove(n)
	}
	c.insert(key, c.now())
}

// Contains reports whether key is remembered and unexpired, without
// changing its recency.
func (c *LRUCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	return ok && c.now().Before(n.expiresAt)
}

// Remove forgets key. Returns true if it was present.
func (c *LRUCache) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if ok {
		c.remove(n)
	}
	return ok
}

// Len returns the number of remembered keys, including expired ones not yet swept.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// CleanupExpired drops every expired key and returns how many were removed.
func (c *LRUCache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for n := c.root.prev; n != &c.root; {
		prev := n.prev
		if !now.Before(n.expiresAt) {
			c.remove(n)
			removed++
		}
		n = prev
	}
	return removed
}

// Stats returns duplicate hits, first sightings and current size.
func (c *LRUCache) Stats() (hits, misses int64, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, len(c.items)
}

// Internal methods (must be called with mu held)

func (c *LRUCache) insert(key string, now time.Time) {
	n := &lruNode{key: key, expiresAt: now.Add(c.ttl)}
	c.pushFront(n)
	c.items[key] = n

	for len(c.items) > c.capacity {
		c.remove(c.root.prev)
	}
}

func (c *LRUCache) pushFront(n *lruNode) {
	n.prev = &c.root
	n.next = c.root.next
	c.root.next.prev = n
	c.root.next = n
}

func (c *LRUCache) unlink(n *lruNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *LRUCache) remove(n *lruNode) {
	c.unlink(n)
	delete(c.items, n.key)
}
