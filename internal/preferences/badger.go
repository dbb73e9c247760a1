// SmartFood - Conversational Recipe Recommendation Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartfood

package preferences

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/smartfood/internal/config"
	"github.com/tomtom215/smartfood/internal/metrics"
	"github.com/tomtom215/smartfood/internal/models"
)

// Key prefix for BadgerDB storage
const userStateKeyPrefix = "user_state:"

// BadgerStore implements Store using BadgerDB for durable storage.
type BadgerStore struct {
	db      *badger.DB
	ownsDB  bool
	retries int
	now     func() time.Time
}

// OpenBadgerStore opens (or creates) a BadgerDB at path.
func OpenBadgerStore(path string, retries int) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for preferences: %w", err)
	}
	s := NewBadgerStore(db, retries)
	s.ownsDB = true
	return s, nil
}

// NewBadgerStore wraps an already open DB. Close does not close it.
func NewBadgerStore(db *badger.DB, retries int) *BadgerStore {
	return &BadgerStore{db: db, retries: retries, now: time.Now}
}

func userStateKey(chatID int64) []byte {
	return []byte(userStateKeyPrefix + strconv.FormatInt(chatID, 10))
}

// Get returns the stored record or ErrNotFound.
func (s *BadgerStore) Get(_ context.Context, chatID int64) (models.UserState, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(config.StoreBadger, "get", time.Since(start)) }()

	var state models.UserState
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		state, err = readState(txn, chatID)
		return err
	})
	if err != nil {
		return models.UserState{}, err
	}
	return state, nil
}

// Set overwrites the record.
func (s *BadgerStore) Set(_ context.Context, chatID int64, state models.UserState) error {
	start := time.Now()
	defer func() { metrics.RecordStoreOperation(config.StoreBadger, "set", time.Since(start)) }()

	// Set is last-write-wins, so a transaction conflict just means try again.
	for attempt := 0; attempt < max(s.retries, 1); attempt++ {
		err := s.db.Update(func(txn *badger.Txn) error {
			var version int64
			current, err := readState(txn, chatID)
			switch {
			case err == nil:
				version = current.Version
			case !errors.Is(err, ErrNotFound):
				return err
			}
			return writeState(txn, chatID, prepare(state, version+1, s.now()))
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		metrics.RecordStoreConflict(config.StoreBadger)
	}
	return fmt.Errorf("%w: chat %d", ErrConflict, chatID)
}

// Update runs fn inside a read-write transaction. Badger aborts the commit
// with ErrConflict when the key was written after the transaction started.
func (s *BadgerStore) Update(ctx context.Context, chatID int64, fn UpdateFunc) (models.UserState, error) {
	return retryUpdate(ctx, config.StoreBadger, chatID, s.retries, func() (models.UserState, error) {
		var written models.UserState
		err := s.db.Update(func(txn *badger.Txn) error {
			current, err := readState(txn, chatID)
			if errors.Is(err, ErrNotFound) {
				current = models.DefaultUserState()
			} else if err != nil {
				return err
			}

			next, err := fn(current.Clone())
			if err != nil {
				return err
			}
			written = prepare(next, current.Version+1, s.now())
			return writeState(txn, chatID, written)
		})
		if errors.Is(err, badger.ErrConflict) {
			return models.UserState{}, errRetry
		}
		if err != nil {
			return models.UserState{}, err
		}
		return written, nil
	})
}

// Ping verifies the database is open.
func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return nil
}

// RunGC reclaims value log space until Badger reports nothing to rewrite.
func (s *BadgerStore) RunGC(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log gc: %w", err)
		}
	}
}

// Close closes the database if this store opened it.
func (s *BadgerStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}

func readState(txn *badger.Txn, chatID int64) (models.UserState, error) {
	item, err := txn.Get(userStateKey(chatID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.UserState{}, ErrNotFound
	}
	if err != nil {
		return models.UserState{}, fmt.Errorf("get user state: %w", err)
	}

	var state models.UserState
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &state)
	})
	if err != nil {
		return models.UserState{}, fmt.Errorf("decode user state: %w", err)
	}
	if state.Preferences == nil {
		state.Preferences = map[string]string{}
	}
	return state, nil
}

func writeState(txn *badger.Txn, chatID int64, state models.UserState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal user state: %w", err)
	}
	if err := txn.Set(userStateKey(chatID), data); err != nil {
		return fmt.Errorf("set user state: %w", err)
	}
	return nil
}
