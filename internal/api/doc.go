// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

/*
Package api exposes the HTTP surface of the bot: the Telegram webhook that
drives the conversation stage, Kubernetes-style health probes and the
Prometheus scrape endpoint.

Routes:

	POST <webhook path>        Telegram Update (default /telegram/webhook)
	GET  /api/v1/health/live   process liveness
	GET  /api/v1/health/ready  bus and store readiness
	GET  /metrics              Prometheus exposition

Webhook contract:

  - 401 when a secret is configured and X-Telegram-Bot-Api-Secret-Token differs
  - 400 when the body is not a decodable Update
  - 200 for processed, ignored and redelivered updates
  - 500 when the conversation stage failed; Telegram retries the update

Telegram redelivers an update until it receives a 2xx answer, so update IDs
are remembered in a bounded TTL cache. A failed update is forgotten again so
the retry is processed.

Middleware stack (outermost first): request ID with logging context, real IP,
panic recovery, CORS, per-IP rate limiting (go-chi/httprate), security
headers and request metrics.
*/
package api
