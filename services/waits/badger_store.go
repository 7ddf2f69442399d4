// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package waits

// BadgerStore persists park snapshots in an embedded BadgerDB so a restart
// inside the TTL window does not trigger a fresh round of upstream fetches.
//
// Design choices:
//
//	1. BadgerDB (not an external cache service): snapshots are service
//	   infrastructure, not user data. Embedded storage means no network
//	   call and no availability dependency.
//
//	2. BadgerDB native TTL: expiry is enforced by Badger's GC, not by
//	   application code. Expired keys return ErrKeyNotFound, which the
//	   store treats as a cache miss — the same lazy, last-write-wins,
//	   no-sweep policy as MemoryStore.
//
// Storage layout:
//
//	waits/snap/v1/{parkID}  →  gob-encoded []RideSnapshot
//	                            TTL: the configured snapshot TTL

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	dgbadger "github.com/dgraph-io/badger/v4"
)

// badgerKeyPrefix is versioned (v1) to allow future format changes without
// collision.
const badgerKeyPrefix = "waits/snap/v1/"

// BadgerStore implements SnapshotStore backed by a BadgerDB instance.
//
// # Description
//
// The DB is opened by the caller (typically in main) and must not be closed
// while the store is in use — this store does not own the DB lifecycle.
// Storage failures degrade to cache misses on read and are logged as
// warnings on write; persistence failure is never fatal.
//
// # Thread Safety
//
// Safe for concurrent use. BadgerDB transactions are per-goroutine.
type BadgerStore struct {
	db     *dgbadger.DB
	ttl    time.Duration
	logger *slog.Logger
}

// OpenBadger opens a BadgerDB at the given path for snapshot persistence.
// The caller owns the returned DB and must Close it on shutdown.
func OpenBadger(path string) (*dgbadger.DB, error) {
	opts := dgbadger.DefaultOptions(path).WithLogger(nil)
	db, err := dgbadger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("waits: opening badger at %s: %w", path, err)
	}
	return db, nil
}

// NewBadgerStore creates a BadgerStore.
//
// Inputs:
//
//	db - Opened BadgerDB. Must not be nil.
//	ttl - Entry lifetime. Pass 0 for DefaultSnapshotTTL.
//	logger - May be nil.
//
// Thread Safety: The returned store is safe for concurrent use.
func NewBadgerStore(db *dgbadger.DB, ttl time.Duration, logger *slog.Logger) *BadgerStore {
	if db == nil {
		panic("NewBadgerStore: db must not be nil")
	}
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BadgerStore{db: db, ttl: ttl, logger: logger}
}

// Get implements SnapshotStore. Storage and decode failures are logged and
// reported as misses so the fetcher falls through to the upstream.
func (s *BadgerStore) Get(_ context.Context, parkID int) ([]RideSnapshot, bool) {
	var raw []byte
	err := s.db.View(func(txn *dgbadger.Txn) error {
		item, err := txn.Get(badgerKey(parkID))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, dgbadger.ErrKeyNotFound) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("badger snapshot read failed, treating as miss",
			slog.Int("park_id", parkID),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	var snapshots []RideSnapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snapshots); err != nil {
		s.logger.Warn("badger snapshot decode failed, treating as miss",
			slog.Int("park_id", parkID),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return snapshots, true
}

// Put implements SnapshotStore. The entry carries Badger's native TTL; an
// expired key is invisible to Get without any application-level check.
func (s *BadgerStore) Put(_ context.Context, parkID int, snapshots []RideSnapshot) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshots); err != nil {
		s.logger.Warn("badger snapshot encode failed, skipping persist",
			slog.Int("park_id", parkID),
			slog.String("error", err.Error()),
		)
		return
	}
	err := s.db.Update(func(txn *dgbadger.Txn) error {
		entry := dgbadger.NewEntry(badgerKey(parkID), buf.Bytes()).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		s.logger.Warn("badger snapshot write failed",
			slog.Int("park_id", parkID),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate implements SnapshotStore.
func (s *BadgerStore) Invalidate(parkID int) {
	err := s.db.Update(func(txn *dgbadger.Txn) error {
		return txn.Delete(badgerKey(parkID))
	})
	if err != nil && !errors.Is(err, dgbadger.ErrKeyNotFound) {
		s.logger.Warn("badger snapshot delete failed",
			slog.Int("park_id", parkID),
			slog.String("error", err.Error()),
		)
	}
}

// badgerKey builds the BadgerDB key for a park.
func badgerKey(parkID int) []byte {
	return []byte(badgerKeyPrefix + strconv.Itoa(parkID))
}
