// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testBotToken = "123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw"

// isolateConfigFile points CONFIG_PATH at a missing file so a stray
// config.yaml in the working directory cannot leak into tests.
func isolateConfigFile(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
}

// TestDefaultConfig verifies that defaultConfig() matches the deployed defaults
func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Telegram.Token != "" {
		t.Errorf("Telegram.Token should be empty by default, got %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.SendTimeout != 10*time.Second {
		t.Errorf("Telegram.SendTimeout = %v, want 10s", cfg.Telegram.SendTimeout)
	}
	if cfg.Telegram.FileTimeout != 15*time.Second {
		t.Errorf("Telegram.FileTimeout = %v, want 15s", cfg.Telegram.FileTimeout)
	}
	if cfg.Telegram.DownloadTimeout != 30*time.Second {
		t.Errorf("Telegram.DownloadTimeout = %v, want 30s", cfg.Telegram.DownloadTimeout)
	}

	topics := cfg.Bus.Topics()
	want := []string{"ingredientes_imagen", "ingredientes_detectados", "mensaje_respuesta"}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("Bus.Topics()[%d] = %q, want %q", i, topics[i], want[i])
		}
	}
	if cfg.Bus.Transport != TransportGoChannel {
		t.Errorf("Bus.Transport = %q, want gochannel", cfg.Bus.Transport)
	}
	if cfg.Bus.Router.PoisonQueueTopic != "smartfood.poison" {
		t.Errorf("Router.PoisonQueueTopic = %q, want smartfood.poison", cfg.Bus.Router.PoisonQueueTopic)
	}

	if cfg.Artifacts.Bucket != "smartfood-models" {
		t.Errorf("Artifacts.Bucket = %q, want smartfood-models", cfg.Artifacts.Bucket)
	}
	if cfg.Recommend.TriplesBlob != "kge/new_triplets20_optimized.csv" {
		t.Errorf("Recommend.TriplesBlob = %q", cfg.Recommend.TriplesBlob)
	}
	if cfg.Recommend.DefaultK != 5 {
		t.Errorf("Recommend.DefaultK = %d, want 5", cfg.Recommend.DefaultK)
	}
	if cfg.Store.UpdateRetries != 5 {
		t.Errorf("Store.UpdateRetries = %d, want 5", cfg.Store.UpdateRetries)
	}
}

// TestEnvTransformFunc tests the environment variable to config path mapping
func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env  string
		want string
	}{
		{"BOT_TOKEN", "telegram.token"},
		{"MODEL_BUCKET", "artifacts.bucket"},
		{"MODEL_BLOB", "recommend.model_blob"},
		{"CSV_BLOB", "recommend.triples_blob"},
		{"TOPIC_IMAGE", "bus.image_topic"},
		{"TOPIC_INGREDIENTS", "bus.ingredients_topic"},
		{"TOPIC_RESPONSE", "bus.response_topic"},
		{"NATS_URL", "bus.nats.url"},
		{"STORE_TYPE", "store.type"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"log_format", "logging.format"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	isolateConfigFile(t)
	t.Setenv("BOT_TOKEN", testBotToken)
	t.Setenv("STORE_TYPE", "memory")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TELEGRAM_SEND_TIMEOUT", "3s")
	t.Setenv("RECOMMEND_K", "7")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Telegram.Token != testBotToken {
		t.Errorf("Telegram.Token = %q", cfg.Telegram.Token)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Telegram.SendTimeout != 3*time.Second {
		t.Errorf("Telegram.SendTimeout = %v, want 3s", cfg.Telegram.SendTimeout)
	}
	if cfg.Recommend.DefaultK != 7 {
		t.Errorf("Recommend.DefaultK = %d, want 7", cfg.Recommend.DefaultK)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Server.CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	// Untouched defaults survive
	if cfg.Bus.ImageTopic != "ingredientes_imagen" {
		t.Errorf("Bus.ImageTopic = %q, want ingredientes_imagen", cfg.Bus.ImageTopic)
	}
}

func TestLoadWithKoanfEnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := `
telegram:
  token: "` + testBotToken + `"
bus:
  response_topic: respuestas
store:
  type: sqlite
  path: /tmp/prefs.db
logging:
  level: warn
`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("LOG_LEVEL", "error")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Bus.ResponseTopic != "respuestas" {
		t.Errorf("Bus.ResponseTopic = %q, want respuestas (from file)", cfg.Bus.ResponseTopic)
	}
	if cfg.Store.Type != StoreSQLite {
		t.Errorf("Store.Type = %q, want sqlite (from file)", cfg.Store.Type)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want error (env overrides file)", cfg.Logging.Level)
	}
}

func TestLoadWithKoanfRequiresToken(t *testing.T) {
	isolateConfigFile(t)
	t.Setenv("BOT_TOKEN", "")

	if _, err := LoadWithKoanf(); err == nil || !strings.Contains(err.Error(), "BOT_TOKEN") {
		t.Fatalf("LoadWithKoanf() error = %v, want BOT_TOKEN error", err)
	}

	cfg, err := LoadForTools()
	if err != nil {
		t.Fatalf("LoadForTools() error = %v", err)
	}
	if cfg.Telegram.Token != "" {
		t.Errorf("Telegram.Token = %q, want empty", cfg.Telegram.Token)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults with token", func(*Config) {}, ""},
		{"malformed token", func(c *Config) { c.Telegram.Token = "not-a-token" }, "BOT_TOKEN"},
		{"unknown transport", func(c *Config) { c.Bus.Transport = "kafka" }, "BUS_TRANSPORT"},
		{"duplicate topics", func(c *Config) { c.Bus.ResponseTopic = c.Bus.ImageTopic }, "more than one stage"},
		{"poison collides", func(c *Config) { c.Bus.Router.PoisonQueueTopic = c.Bus.ResponseTopic }, "TOPIC_POISON"},
		{"nats bad url", func(c *Config) {
			c.Bus.Transport = TransportNATS
			c.Bus.NATS.URL = "http://localhost:4222"
		}, "NATS_URL"},
		{"nats stream name", func(c *Config) {
			c.Bus.Transport = TransportNATS
			c.Bus.NATS.StreamName = "smart.food"
		}, "NATS_STREAM_NAME"},
		{"unknown store", func(c *Config) { c.Store.Type = "redis" }, "STORE_TYPE"},
		{"badger without path", func(c *Config) { c.Store.Path = "" }, "STORE_PATH"},
		{"memory without path", func(c *Config) {
			c.Store.Type = StoreMemory
			c.Store.Path = ""
		}, ""},
		{"file backend without dir", func(c *Config) { c.Artifacts.Backend = ArtifactsFile }, "ARTIFACT_SOURCE_DIR"},
		{"base url with path", func(c *Config) { c.Artifacts.BaseURL = "https://storage.googleapis.com/bucket" }, "ARTIFACT_BASE_URL"},
		{"k out of range", func(c *Config) { c.Recommend.DefaultK = 0 }, "RECOMMEND_K"},
		{"detector scheme", func(c *Config) { c.Detector.URL = "grpc://detector:50051" }, "DETECTOR_URL"},
		{"port", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"webhook path", func(c *Config) { c.Server.WebhookPath = "telegram" }, "WEBHOOK_PATH"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := defaultConfig()
			cfg.Telegram.Token = testBotToken
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestServerAddress(t *testing.T) {
	t.Parallel()

	s := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := s.Address(); got != "127.0.0.1:8080" {
		t.Errorf("Address() = %q, want 127.0.0.1:8080", got)
	}
}
