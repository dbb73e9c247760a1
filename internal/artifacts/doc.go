// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

/*
Package artifacts downloads model and knowledge graph files from object
storage into a local cache directory.

Download is idempotent: a target already present in the cache is returned
without contacting the source. Concurrent downloads of the same object are
serialized and the file appears atomically (temp file then rename), so a
reader never observes a partial artifact.

Two sources are provided:
  - HTTPSource: GET <base_url>/<bucket>/<path>, e.g. a public GCS bucket.
    Calls run through a circuit breaker.
  - FileSource: a local directory laid out as <dir>/<bucket>/<path>, for
    offline use and tests.
*/
package artifacts
