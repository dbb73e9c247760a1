// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

// Package detection implements the ingredient detection stage.
//
// The stage consumes ImageIngredientsMessage from the image topic, downloads
// the referenced Telegram photo, asks a Detector for ingredient labels and
// publishes an IngredientsMessage carrying the same chat, filters and k:
//
//	ingredientes_imagen ──► Handler ──► ingredientes_detectados
//	                          │
//	                          ├─ FileFetcher (Telegram getFile + download)
//	                          └─ Detector    (HTTP inference service)
//
// Detection never blocks the conversation: when the photo cannot be fetched
// or the detector fails, the stage still publishes an empty ingredient list
// and the user receives a "no matches" reply.
package detection
