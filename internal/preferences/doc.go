// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

/*
Package preferences persists the per-chat conversational record
(models.UserState).

# Backends

  - memory: process-local map, for development and tests
  - badger: embedded BadgerDB key-value store
  - sqlite: embedded SQLite database with goose-managed schema

# Concurrency

Set is last-write-wins. Update performs an optimistic read-modify-write:
the record's Version is read, the caller's function computes the new
record, and the write succeeds only if nobody else wrote in between
(Badger transaction conflict detection, or a version predicate in SQLite).
On conflict the whole read-modify-write is retried; after the configured
number of attempts ErrConflict is returned.

Records are never deleted. A /start overwrites the record with the default.
*/
package preferences
