// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

// Package logging provides centralized zerolog-based structured logging for SmartFood.
//
// Every stage of the pipeline (webhook, detection, recommendation, delivery) logs
// through the same global zerolog logger so that a single chat can be followed
// across bus hops by its chat_id and correlation_id fields.
//
// # Quick Start
//
//	import "github.com/tomtom215/smartfood/internal/logging"
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Msg("Server starting")
//	logging.Ctx(ctx).Warn().Str("label", label).Msg("unknown label")
//
// # Adapters
//
// Two adapters bridge zerolog into libraries with their own logger interfaces:
//
//   - NewSlogLogger returns a *slog.Logger for sutureslog (supervisor events)
//   - NewWatermillLogger returns a watermill.LoggerAdapter for the message router
//
// # Environment Variables
//
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
package logging
