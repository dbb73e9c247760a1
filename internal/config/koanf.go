// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/smartfood/config.yaml",
	"/etc/smartfood/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			Token:              "",
			APIURL:             "https://api.telegram.org",
			WebhookSecret:      "",
			SendTimeout:        10 * time.Second,
			FileTimeout:        15 * time.Second,
			DownloadTimeout:    30 * time.Second,
			RateLimitPerSecond: 30,
		},
		Bus: BusConfig{
			Transport:        TransportGoChannel,
			ImageTopic:       "ingredientes_imagen",
			IngredientsTopic: "ingredientes_detectados",
			ResponseTopic:    "mensaje_respuesta",
			NATS: NATSConfig{
				URL:              "nats://127.0.0.1:4222",
				EmbeddedServer:   true,
				StoreDir:         "/data/nats/jetstream",
				MaxMemory:        256 << 20, // 256MB
				MaxStore:         1 << 30,   // 1GB
				StreamName:       "SMARTFOOD",
				StreamRetention:  24 * time.Hour,
				SubscribersCount: 4,
				DurablePrefix:    "smartfood",
				QueueGroup:       "smartfood",
			},
			Router: RouterConfig{
				RetryCount:           3,
				RetryInitialInterval: 100 * time.Millisecond,
				ThrottlePerSecond:    0, // Unlimited
				DeduplicationEnabled: true,
				DeduplicationTTL:     10 * time.Minute,
				PoisonQueueEnabled:   true,
				PoisonQueueTopic:     "smartfood.poison",
				CloseTimeout:         30 * time.Second,
			},
		},
		Store: StoreConfig{
			Type:          StoreBadger,
			Path:          "/data/preferences",
			UpdateRetries: 5,
		},
		Artifacts: ArtifactsConfig{
			Backend:   ArtifactsHTTP,
			Bucket:    "smartfood-models",
			BaseURL:   "https://storage.googleapis.com",
			SourceDir: "",
			CacheDir:  "/tmp/smartfood",
			Timeout:   5 * time.Minute,
		},
		Recommend: RecommendConfig{
			ModelBlob:   "kge/model.json",
			TriplesBlob: "kge/new_triplets20_optimized.csv",
			DefaultK:    5,
			WarmUp:      false,
		},
		Detector: DetectorConfig{
			URL:     "http://127.0.0.1:8501/detect",
			Timeout: 30 * time.Second,
		},
		Server: ServerConfig{
			Port:              8080,
			Host:              "0.0.0.0",
			Timeout:           30 * time.Second,
			WebhookPath:       "/telegram/webhook",
			UpdateDedupSize:   10000,
			UpdateDedupTTL:    10 * time.Minute,
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     300,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// The returned configuration is validated for running the full server,
// including the Telegram bot token.
func LoadWithKoanf() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadForTools loads configuration like LoadWithKoanf but skips the
// Telegram requirements, for offline tooling such as smartfoodctl.
func LoadForTools() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateOffline(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// The short names of the original deployment (BOT_TOKEN, MODEL_BLOB, ...) are kept.
var envMappings = map[string]string{
	// Telegram
	"bot_token":                      "telegram.token",
	"telegram_api_url":               "telegram.api_url",
	"telegram_webhook_secret":        "telegram.webhook_secret",
	"telegram_send_timeout":          "telegram.send_timeout",
	"telegram_file_timeout":          "telegram.file_timeout",
	"telegram_download_timeout":      "telegram.download_timeout",
	"telegram_rate_limit_per_second": "telegram.rate_limit_per_second",

	// Bus topics and transport
	"bus_transport":     "bus.transport",
	"topic_image":       "bus.image_topic",
	"topic_ingredients": "bus.ingredients_topic",
	"topic_response":    "bus.response_topic",
	"topic_poison":      "bus.router.poison_queue_topic",

	// NATS
	"nats_url":              "bus.nats.url",
	"nats_embedded":         "bus.nats.embedded_server",
	"nats_store_dir":        "bus.nats.store_dir",
	"nats_max_memory":       "bus.nats.max_memory",
	"nats_max_store":        "bus.nats.max_store",
	"nats_stream_name":      "bus.nats.stream_name",
	"nats_stream_retention": "bus.nats.stream_retention",
	"nats_subscribers":      "bus.nats.subscribers_count",
	"nats_durable_prefix":   "bus.nats.durable_prefix",
	"nats_queue_group":      "bus.nats.queue_group",

	// Router
	"router_retry_count":    "bus.router.retry_count",
	"router_retry_interval": "bus.router.retry_initial_interval",
	"router_throttle":       "bus.router.throttle_per_second",
	"router_dedup_enabled":  "bus.router.deduplication_enabled",
	"router_dedup_ttl":      "bus.router.deduplication_ttl",
	"router_poison_enabled": "bus.router.poison_queue_enabled",
	"router_close_timeout":  "bus.router.close_timeout",

	// Preference store
	"store_type":           "store.type",
	"store_path":           "store.path",
	"store_update_retries": "store.update_retries",

	// Artifacts
	"artifact_backend":    "artifacts.backend",
	"model_bucket":        "artifacts.bucket",
	"artifact_base_url":   "artifacts.base_url",
	"artifact_source_dir": "artifacts.source_dir",
	"artifact_cache_dir":  "artifacts.cache_dir",
	"artifact_timeout":    "artifacts.timeout",

	// Recommendation engine
	"model_blob":        "recommend.model_blob",
	"csv_blob":          "recommend.triples_blob",
	"recommend_k":       "recommend.default_k",
	"recommend_warm_up": "recommend.warm_up",

	// Detector
	"detector_url":     "detector.url",
	"detector_timeout": "detector.timeout",

	// Server
	"http_port":           "server.port",
	"http_host":           "server.host",
	"http_timeout":        "server.timeout",
	"webhook_path":        "server.webhook_path",
	"update_dedup_size":   "server.update_dedup_size",
	"update_dedup_ttl":    "server.update_dedup_ttl",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_reqs",
	"rate_limit_window":   "server.rate_limit_window",
	"disable_rate_limit":  "server.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - BOT_TOKEN -> telegram.token
//   - MODEL_BLOB -> recommend.model_blob
//   - TOPIC_RESPONSE -> bus.response_topic
//   - NATS_URL -> bus.nats.url
//
// Unmapped keys return the empty string and are skipped, so random
// environment variables never pollute the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
