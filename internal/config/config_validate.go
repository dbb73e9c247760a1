// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration can run the full server.
func (c *Config) Validate() error {
	if err := c.validateTelegram(); err != nil {
		return err
	}
	return c.ValidateOffline()
}

// ValidateOffline checks every section except Telegram credentials.
func (c *Config) ValidateOffline() error {
	if err := c.validateBus(); err != nil {
		return err
	}

	if err := c.validateStore(); err != nil {
		return err
	}

	if err := c.validateArtifacts(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateDetector(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateTelegram validates Telegram bot settings
func (c *Config) validateTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	// Bot tokens look like 123456789:AA...; the numeric part is the bot ID.
	id, secret, found := strings.Cut(c.Telegram.Token, ":")
	if !found || id == "" || len(secret) < 20 {
		return fmt.Errorf("BOT_TOKEN appears invalid (expected <bot id>:<secret>)")
	}
	if err := validateHTTPURL(c.Telegram.APIURL, "TELEGRAM_API_URL"); err != nil {
		return err
	}
	if c.Telegram.SendTimeout <= 0 || c.Telegram.FileTimeout <= 0 || c.Telegram.DownloadTimeout <= 0 {
		return fmt.Errorf("telegram timeouts must be positive")
	}
	if c.Telegram.RateLimitPerSecond <= 0 {
		return fmt.Errorf("TELEGRAM_RATE_LIMIT_PER_SECOND must be positive")
	}
	return nil
}

// validateBus validates transport, topic names and router settings
func (c *Config) validateBus() error {
	switch c.Bus.Transport {
	case TransportGoChannel:
	case TransportNATS:
		if err := c.validateNATS(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("BUS_TRANSPORT must be %q or %q, got: %q", TransportGoChannel, TransportNATS, c.Bus.Transport)
	}

	seen := make(map[string]bool, 3)
	for _, topic := range c.Bus.Topics() {
		if topic == "" {
			return fmt.Errorf("bus topics must not be empty")
		}
		if seen[topic] {
			return fmt.Errorf("bus topic %q is used by more than one stage", topic)
		}
		seen[topic] = true
	}

	r := c.Bus.Router
	if r.RetryCount < 0 {
		return fmt.Errorf("ROUTER_RETRY_COUNT must be non-negative")
	}
	if r.ThrottlePerSecond < 0 {
		return fmt.Errorf("ROUTER_THROTTLE must be non-negative")
	}
	if r.DeduplicationEnabled && r.DeduplicationTTL <= 0 {
		return fmt.Errorf("ROUTER_DEDUP_TTL must be positive when deduplication is enabled")
	}
	if r.PoisonQueueEnabled {
		if r.PoisonQueueTopic == "" {
			return fmt.Errorf("TOPIC_POISON is required when the poison queue is enabled")
		}
		if seen[r.PoisonQueueTopic] {
			return fmt.Errorf("TOPIC_POISON must differ from the pipeline topics")
		}
	}
	return nil
}

// validateNATS validates NATS settings (only when the NATS transport is selected)
func (c *Config) validateNATS() error {
	n := c.Bus.NATS
	if err := validateNATSURL(n.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if n.EmbeddedServer && n.StoreDir == "" {
		return fmt.Errorf("NATS_STORE_DIR is required when NATS_EMBEDDED=true")
	}
	if n.StreamName == "" {
		return fmt.Errorf("NATS_STREAM_NAME is required")
	}
	if strings.ContainsAny(n.StreamName, ". *>") {
		return fmt.Errorf("NATS_STREAM_NAME must not contain '.', '*', '>' or spaces")
	}
	if n.SubscribersCount < 1 {
		return fmt.Errorf("NATS_SUBSCRIBERS must be at least 1")
	}
	return nil
}

// validateStore validates the preference store backend
func (c *Config) validateStore() error {
	switch c.Store.Type {
	case StoreMemory:
	case StoreBadger, StoreSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for the %s store", c.Store.Type)
		}
	default:
		return fmt.Errorf("STORE_TYPE must be one of memory, badger, sqlite, got: %q", c.Store.Type)
	}
	if c.Store.UpdateRetries < 1 {
		return fmt.Errorf("STORE_UPDATE_RETRIES must be at least 1")
	}
	return nil
}

// validateArtifacts validates the artifact storage backend
func (c *Config) validateArtifacts() error {
	a := c.Artifacts
	if a.Bucket == "" {
		return fmt.Errorf("MODEL_BUCKET is required")
	}
	if a.CacheDir == "" {
		return fmt.Errorf("ARTIFACT_CACHE_DIR is required")
	}
	switch a.Backend {
	case ArtifactsHTTP:
		if err := validateHTTPURL(a.BaseURL, "ARTIFACT_BASE_URL"); err != nil {
			return err
		}
	case ArtifactsFile:
		if a.SourceDir == "" {
			return fmt.Errorf("ARTIFACT_SOURCE_DIR is required for the file backend")
		}
	default:
		return fmt.Errorf("ARTIFACT_BACKEND must be %q or %q, got: %q", ArtifactsHTTP, ArtifactsFile, a.Backend)
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("ARTIFACT_TIMEOUT must be positive")
	}
	return nil
}

// validateRecommend validates recommendation engine settings
func (c *Config) validateRecommend() error {
	if c.Recommend.ModelBlob == "" {
		return fmt.Errorf("MODEL_BLOB is required")
	}
	if c.Recommend.TriplesBlob == "" {
		return fmt.Errorf("CSV_BLOB is required")
	}
	if c.Recommend.DefaultK < 1 || c.Recommend.DefaultK > 100 {
		return fmt.Errorf("RECOMMEND_K must be between 1 and 100")
	}
	return nil
}

// validateDetector validates the detector endpoint
func (c *Config) validateDetector() error {
	if c.Detector.URL == "" {
		return fmt.Errorf("DETECTOR_URL is required")
	}
	if err := validateEndpointURL(c.Detector.URL, "DETECTOR_URL"); err != nil {
		return err
	}
	if c.Detector.Timeout <= 0 {
		return fmt.Errorf("DETECTOR_TIMEOUT must be positive")
	}
	return nil
}

// validateServer validates HTTP server settings
func (c *Config) validateServer() error {
	s := c.Server
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if !strings.HasPrefix(s.WebhookPath, "/") {
		return fmt.Errorf("WEBHOOK_PATH must start with '/'")
	}
	if s.UpdateDedupSize < 1 || s.UpdateDedupTTL <= 0 {
		return fmt.Errorf("update deduplication size and TTL must be positive")
	}
	if !s.RateLimitDisabled && (s.RateLimitReqs < 1 || s.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// validateLogging validates logging settings
func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be 'json' or 'console'")
	}
	return nil
}
