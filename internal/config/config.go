// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file and environment variables.
//
// Configuration Categories:
//
//  1. Pipeline:
//     - Telegram: bot API access for the webhook, detection and delivery stages
//     - Bus: message transport, topic names and router middleware
//     - Detector: ingredient detection inference endpoint
//     - Recommend: knowledge graph and embedding artifacts
//
//  2. Infrastructure:
//     - Store: per-chat preference storage
//     - Artifacts: blob storage and local artifact cache
//     - Server: HTTP server hosting the webhook, health and metrics
//
//  3. Observability:
//     - Logging: log level and output format
//
// Config is immutable after loading and safe for concurrent read access.
type Config struct {
	Telegram  TelegramConfig  `koanf:"telegram"`
	Bus       BusConfig       `koanf:"bus"`
	Store     StoreConfig     `koanf:"store"`
	Artifacts ArtifactsConfig `koanf:"artifacts"`
	Recommend RecommendConfig `koanf:"recommend"`
	Detector  DetectorConfig  `koanf:"detector"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// TelegramConfig holds Telegram Bot API settings.
//
// Environment Variables:
//   - BOT_TOKEN: bot token issued by BotFather (required by the server)
//   - TELEGRAM_API_URL: API base URL (default: https://api.telegram.org)
//   - TELEGRAM_WEBHOOK_SECRET: expected X-Telegram-Bot-Api-Secret-Token value
type TelegramConfig struct {
	Token         string `koanf:"token"`
	APIURL        string `koanf:"api_url"`
	WebhookSecret string `koanf:"webhook_secret"`

	// SendTimeout bounds sendMessage calls.
	SendTimeout time.Duration `koanf:"send_timeout"`

	// FileTimeout bounds getFile lookups.
	FileTimeout time.Duration `koanf:"file_timeout"`

	// DownloadTimeout bounds photo downloads.
	DownloadTimeout time.Duration `koanf:"download_timeout"`

	// RateLimitPerSecond paces outbound sendMessage calls (Telegram allows ~30/s per bot).
	RateLimitPerSecond float64 `koanf:"rate_limit_per_second"`
}

// BusConfig holds message bus settings.
type BusConfig struct {
	// Transport selects the Watermill pub/sub: "gochannel" (in-process) or "nats" (JetStream).
	Transport string `koanf:"transport"`

	// Topic names shared by every stage. Changing them breaks compatibility
	// with already-deployed stages.
	ImageTopic       string `koanf:"image_topic"`
	IngredientsTopic string `koanf:"ingredients_topic"`
	ResponseTopic    string `koanf:"response_topic"`

	NATS   NATSConfig   `koanf:"nats"`
	Router RouterConfig `koanf:"router"`
}

// NATSConfig holds NATS JetStream settings, used when Bus.Transport is "nats".
type NATSConfig struct {
	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer starts an in-process NATS server with JetStream.
	// If false, expects an external NATS server at URL.
	EmbeddedServer bool `koanf:"embedded_server"`

	// StoreDir is the JetStream storage directory for the embedded server.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory is the maximum memory for JetStream in bytes.
	MaxMemory int64 `koanf:"max_memory"`

	// MaxStore is the maximum disk storage for JetStream in bytes.
	MaxStore int64 `koanf:"max_store"`

	// StreamName is the JetStream stream holding every pipeline subject.
	StreamName string `koanf:"stream_name"`

	// StreamRetention is how long pipeline messages are kept.
	StreamRetention time.Duration `koanf:"stream_retention"`

	// SubscribersCount is the number of concurrent consumers per topic.
	SubscribersCount int `koanf:"subscribers_count"`

	// DurablePrefix prefixes the per-topic durable consumer names.
	DurablePrefix string `koanf:"durable_prefix"`

	// QueueGroup load-balances a topic across replicas of the same stage.
	QueueGroup string `koanf:"queue_group"`
}

// RouterConfig controls the Watermill router middleware stack.
type RouterConfig struct {
	// RetryCount is the maximum number of retries for a failed handler.
	RetryCount int `koanf:"retry_count"`

	// RetryInitialInterval is the initial backoff between retries.
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`

	// ThrottlePerSecond limits messages processed per second (0 = unlimited).
	ThrottlePerSecond int `koanf:"throttle_per_second"`

	// DeduplicationEnabled drops redelivered messages by message UUID.
	DeduplicationEnabled bool `koanf:"deduplication_enabled"`

	// DeduplicationTTL is how long message UUIDs are remembered.
	DeduplicationTTL time.Duration `koanf:"deduplication_ttl"`

	// PoisonQueueEnabled routes messages that exhausted retries to PoisonQueueTopic.
	PoisonQueueEnabled bool   `koanf:"poison_queue_enabled"`
	PoisonQueueTopic   string `koanf:"poison_queue_topic"`

	// CloseTimeout is the maximum time to wait for in-flight handlers on shutdown.
	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// StoreConfig selects the preference store backend.
//
//   - memory: process-local map, lost on restart
//   - badger: embedded BadgerDB key-value store at Path
//   - sqlite: SQLite database file at Path (schema managed by goose migrations)
type StoreConfig struct {
	Type string `koanf:"type"`
	Path string `koanf:"path"`

	// UpdateRetries is how many times an optimistic update is retried on conflict.
	UpdateRetries int `koanf:"update_retries"`
}

// ArtifactsConfig describes where model artifacts are fetched from and cached.
type ArtifactsConfig struct {
	// Backend is "http" (object storage over HTTPS) or "file" (local mirror directory).
	Backend string `koanf:"backend"`

	// Bucket holds the embedding model and the triples file.
	Bucket string `koanf:"bucket"`

	// BaseURL is the object storage endpoint for the http backend.
	// Objects are fetched from <BaseURL>/<bucket>/<path>.
	BaseURL string `koanf:"base_url"`

	// SourceDir is the mirror root for the file backend (<SourceDir>/<bucket>/<path>).
	SourceDir string `koanf:"source_dir"`

	// CacheDir is where downloaded artifacts are kept.
	CacheDir string `koanf:"cache_dir"`

	// Timeout bounds a single artifact download.
	Timeout time.Duration `koanf:"timeout"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	// ModelBlob is the embedding model export inside the artifact bucket.
	ModelBlob string `koanf:"model_blob"`

	// TriplesBlob is the head,relation,tail CSV the model was trained on.
	TriplesBlob string `koanf:"triples_blob"`

	// DefaultK is the number of recipes requested by the conversation stage.
	DefaultK int `koanf:"default_k"`

	// WarmUp loads the artifacts at startup instead of on the first request.
	WarmUp bool `koanf:"warm_up"`
}

// DetectorConfig holds ingredient detector settings.
type DetectorConfig struct {
	// URL is the inference endpoint receiving raw image bytes.
	URL string `koanf:"url"`

	// Timeout bounds a single inference call.
	Timeout time.Duration `koanf:"timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	// WebhookPath is where Telegram posts updates.
	WebhookPath string `koanf:"webhook_path"`

	// UpdateDedupSize and UpdateDedupTTL bound the memory of seen Telegram update IDs.
	UpdateDedupSize int           `koanf:"update_dedup_size"`
	UpdateDedupTTL  time.Duration `koanf:"update_dedup_ttl"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Address returns the host:port the HTTP server listens on.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UsesNATS reports whether the bus runs over NATS JetStream.
func (b BusConfig) UsesNATS() bool {
	return b.Transport == TransportNATS
}

// Topics returns every pipeline topic in flow order.
func (b BusConfig) Topics() []string {
	return []string{b.ImageTopic, b.IngredientsTopic, b.ResponseTopic}
}

// Bus transports.
const (
	TransportGoChannel = "gochannel"
	TransportNATS      = "nats"
)

// Preference store backends.
const (
	StoreMemory = "memory"
	StoreBadger = "badger"
	StoreSQLite = "sqlite"
)

// Artifact storage backends.
const (
	ArtifactsHTTP = "http"
	ArtifactsFile = "file"
)
