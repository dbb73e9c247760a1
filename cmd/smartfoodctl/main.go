// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

// Command smartfoodctl is the operator CLI. It runs the recommendation engine
// offline, inspects the knowledge graph and administers stored preferences
// without starting the bot.
//
// Configuration is loaded like the server (defaults, config.yaml,
// environment) without the Telegram requirements; flags override it.
//
//	smartfoodctl recommend --ingredients potato,egg --filter has_calories=normal_calories -k 3
//	smartfoodctl graph info --triples ./triples.csv --model ./model.json
//	smartfoodctl prefs get 12345 --store-type sqlite --store-path ./prefs.db
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/smartfood/internal/logging"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("smartfoodctl failed")
		cancel()
		os.Exit(1)
	}
}
