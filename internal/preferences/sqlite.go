// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package preferences

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/metrics"
	"github.com/tomtom215/smartfood/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store on an embedded SQLite database.
type SQLiteStore struct {
	db      *sql.DB
	retries int
	now     func() time.Time
}

// OpenSQLiteStore opens the database at path, applies pragmas and runs
// pending migrations.
func OpenSQLiteStore(path string, retries int) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Pragmas are per connection; one connection keeps them uniform and
	// serializes writers instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := runMigrations(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, retries: retries, now: time.Now}, nil
}

// enablePragmas sets SQLite pragmas for concurrent access from one process.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

// runMigrations applies the embedded goose migrations.
func runMigrations(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Get returns the stored record or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, chatID int64) (models.UserState, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(config.StoreSQLite, "get", time.Since(start)) }()

	return s.get(ctx, chatID)
}

func (s *SQLiteStore) get(ctx context.Context, chatID int64) (models.UserState, error) {
	var (
		state     models.UserState
		prefs     string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT state, question_index, preferences, version, updated_at
		FROM user_states WHERE chat_id = ?
	`, chatID).Scan(&state.State, &state.QuestionIndex, &prefs, &state.Version, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserState{}, ErrNotFound
	}
	if err != nil {
		return models.UserState{}, fmt.Errorf("query user state: %w", err)
	}

	if err := json.Unmarshal([]byte(prefs), &state.Preferences); err != nil {
		return models.UserState{}, fmt.Errorf("decode preferences: %w", err)
	}
	if state.Preferences == nil {
		state.Preferences = map[string]string{}
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		state.UpdatedAt = t
	}
	return state, nil
}

// Set overwrites the record, bumping its version.
func (s *SQLiteStore) Set(ctx context.Context, chatID int64, state models.UserState) error {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(config.StoreSQLite, "set", time.Since(start)) }()

	state = prepare(state, 1, s.now())
	prefs, err := json.Marshal(state.Preferences)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_states (chat_id, state, question_index, preferences, version, updated_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			state = excluded.state,
			question_index = excluded.question_index,
			preferences = excluded.preferences,
			version = user_states.version + 1,
			updated_at = excluded.updated_at
	`, chatID, string(state.State), state.QuestionIndex, string(prefs), state.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert user state: %w", err)
	}
	return nil
}

// Update reads the record, applies fn and writes it back guarded by the
// version column.
func (s *SQLiteStore) Update(ctx context.Context, chatID int64, fn UpdateFunc) (models.UserState, error) {
	return retryUpdate(ctx, config.StoreSQLite, chatID, s.retries, func() (models.UserState, error) {
		current, err := s.get(ctx, chatID)
		exists := err == nil
		if errors.Is(err, ErrNotFound) {
			current = models.DefaultUserState()
		} else if err != nil {
			return models.UserState{}, err
		}

		next, err := fn(current.Clone())
		if err != nil {
			return models.UserState{}, err
		}
		written := prepare(next, current.Version+1, s.now())

		prefs, err := json.Marshal(written.Preferences)
		if err != nil {
			return models.UserState{}, fmt.Errorf("marshal preferences: %w", err)
		}

		var res sql.Result
		if exists {
			res, err = s.db.ExecContext(ctx, `
				UPDATE user_states
				SET state = ?, question_index = ?, preferences = ?, version = ?, updated_at = ?
				WHERE chat_id = ? AND version = ?
			`, string(written.State), written.QuestionIndex, string(prefs), written.Version,
				written.UpdatedAt.Format(time.RFC3339Nano), chatID, current.Version)
		} else {
			res, err = s.db.ExecContext(ctx, `
				INSERT INTO user_states (chat_id, state, question_index, preferences, version, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(chat_id) DO NOTHING
			`, chatID, string(written.State), written.QuestionIndex, string(prefs), written.Version,
				written.UpdatedAt.Format(time.RFC3339Nano))
		}
		if err != nil {
			return models.UserState{}, fmt.Errorf("write user state: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return models.UserState{}, fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return models.UserState{}, errRetry
		}
		return written, nil
	})
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
