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

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSnapshotTTL is the freshness window for cached park snapshots.
// Queue-Times updates roughly once a minute; serving within this window
// bounds staleness without hammering the upstream.
const DefaultSnapshotTTL = 60 * time.Second

// =============================================================================
// SnapshotStore Interface
// =============================================================================

// SnapshotStore caches per-park ride snapshots behind a small interface so
// the eviction policy (lazy, last-write-wins, no sweep) can be swapped or
// tested in isolation.
//
// # Description
//
// An entry is valid iff now - fetchedAt < TTL; invalid entries are treated
// as absent and lazily replaced on the next Put. Entries are idempotent
// re-derivations of the same upstream truth, so last-writer-wins under
// concurrent requests is acceptable.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use.
type SnapshotStore interface {
	// Get returns the cached snapshot list for a park.
	// The second return is false on miss or TTL expiry.
	Get(ctx context.Context, parkID int) ([]RideSnapshot, bool)

	// Put stores a fresh snapshot list with fetchedAt = now.
	Put(ctx context.Context, parkID int, snapshots []RideSnapshot)

	// Invalidate drops the entry for a park, if present.
	Invalidate(parkID int)
}

// =============================================================================
// MemoryStore
// =============================================================================

// memoryEntry pairs a snapshot list with its fetch time.
type memoryEntry struct {
	snapshots []RideSnapshot
	fetchedAt time.Time
}

// MemoryStore is the default in-process SnapshotStore.
//
// # Thread Safety
//
// Safe for concurrent use via sync.Mutex.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[int]memoryEntry
	now     func() time.Time // injectable for tests
}

// NewMemoryStore creates a MemoryStore. Pass ttl <= 0 for the default.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[int]memoryEntry),
		now:     time.Now,
	}
}

// Get implements SnapshotStore. Expired entries are evicted lazily here;
// there is no background sweep.
func (s *MemoryStore) Get(_ context.Context, parkID int) ([]RideSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[parkID]
	if !ok {
		return nil, false
	}
	if s.now().Sub(entry.fetchedAt) >= s.ttl {
		delete(s.entries, parkID)
		return nil, false
	}
	return entry.snapshots, true
}

// Put implements SnapshotStore.
func (s *MemoryStore) Put(_ context.Context, parkID int, snapshots []RideSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[parkID] = memoryEntry{snapshots: snapshots, fetchedAt: s.now()}
}

// Invalidate implements SnapshotStore.
func (s *MemoryStore) Invalidate(parkID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, parkID)
}

// =============================================================================
// Fetcher
// =============================================================================

// Fetcher serves park snapshots through the cache, performing exactly one
// upstream fetch per park per TTL window.
//
// # Thread Safety
//
// Safe for concurrent use. Overlapping misses for the same park may each
// fetch; the last writer wins, which is harmless for idempotent snapshots.
type Fetcher struct {
	client *Client
	store  SnapshotStore
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. store and logger may be nil; a nil store
// gets a MemoryStore with the default TTL.
func NewFetcher(client *Client, store SnapshotStore, logger *slog.Logger) *Fetcher {
	if client == nil {
		panic("NewFetcher: client must not be nil")
	}
	if store == nil {
		store = NewMemoryStore(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{client: client, store: store, logger: logger}
}

// Snapshot returns the ride snapshot list for a park.
//
// Description:
//
//	Serves from the store when the entry is within TTL (no network
//	access). Otherwise performs one upstream fetch, stores the result,
//	and returns it. A failed fetch never populates the store (no
//	negative caching) and propagates as *UpstreamError.
//
// Thread Safety: Safe for concurrent use.
func (f *Fetcher) Snapshot(ctx context.Context, parkID int) ([]RideSnapshot, error) {
	if cached, ok := f.store.Get(ctx, parkID); ok {
		snapshotCacheHits.Inc()
		f.logger.Debug("snapshot cache hit", slog.Int("park_id", parkID))
		return cached, nil
	}
	snapshotCacheMisses.Inc()

	snapshots, err := f.client.FetchQueueTimes(ctx, parkID)
	if err != nil {
		return nil, err
	}
	f.store.Put(ctx, parkID, snapshots)
	return snapshots, nil
}
