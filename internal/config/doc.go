// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

/*
Package config provides centralized configuration management for SmartFood.

Configuration is loaded with Koanf v2 in three layers, each overriding the
previous one:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file (CONFIG_PATH, ./config.yaml or /etc/smartfood/config.yaml)
 3. Environment variables, through an explicit mapping table

Only mapped environment variables are read, so unrelated variables in the
process environment never leak into the configuration.

# Configuration Structure

  - TelegramConfig: bot token, API base URL, webhook secret and timeouts
  - BusConfig: transport selection, topic names, NATS and router settings
  - StoreConfig: preference store backend (memory, badger, sqlite)
  - ArtifactsConfig: model bucket, storage backend and local cache directory
  - RecommendConfig: model and triples blobs, default k, warm-up
  - DetectorConfig: ingredient detector inference endpoint
  - ServerConfig: webhook HTTP server, CORS and rate limiting
  - LoggingConfig: zerolog level and format

# Environment Variables

The names used by the original deployment are kept:

	BOT_TOKEN            Telegram bot token (required by the server)
	MODEL_BUCKET         Artifact bucket (default: smartfood-models)
	MODEL_BLOB           Embedding model path in the bucket (default: kge/model.json)
	CSV_BLOB             Triples CSV path in the bucket (default: kge/new_triplets20_optimized.csv)
	TOPIC_IMAGE          Image-ingredients topic (default: ingredientes_imagen)
	TOPIC_INGREDIENTS    Ingredients topic (default: ingredientes_detectados)
	TOPIC_RESPONSE       Response topic (default: mensaje_respuesta)

See envTransformFunc for the full table.

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal(err)
	}

Offline tools that never talk to Telegram use LoadForTools, which skips the
bot token requirement.
*/
package config
