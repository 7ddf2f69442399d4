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
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/ParkPulse/services/parks"
)

var waitsTracer = otel.Tracer("parkpulse.waits")

// parkFetchConcurrency bounds simultaneous upstream fetches during a
// multi-park aggregation.
const parkFetchConcurrency = 4

// TopRideCount is how many rides ParkSnapshot returns.
const TopRideCount = 8

// RideWait is one matched ride with its park attribution, ready for
// context assembly.
type RideWait struct {
	ParkID      int        `json:"park_id"`
	ParkName    string     `json:"park_name"`
	RideName    string     `json:"ride_name"`
	WaitMinutes *int       `json:"wait_minutes,omitempty"`
	IsOpen      *bool      `json:"is_open,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// Aggregator orchestrates the park resolver, snapshot cache, and ride
// matcher to answer wait-time questions across one or many parks.
//
// # Thread Safety
//
// Safe for concurrent use (catalog is immutable, fetcher is concurrent-safe).
type Aggregator struct {
	catalog *parks.Catalog
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewAggregator creates an Aggregator. logger may be nil.
func NewAggregator(catalog *parks.Catalog, fetcher *Fetcher, logger *slog.Logger) *Aggregator {
	if catalog == nil {
		panic("NewAggregator: catalog must not be nil")
	}
	if fetcher == nil {
		panic("NewAggregator: fetcher must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{catalog: catalog, fetcher: fetcher, logger: logger}
}

// FindRideWaits answers "what's the wait for X" from free text.
//
// Description:
//
//	Resolves an optional park hint from the query. A resolved hint
//	restricts matching to that park only, even if a same-named ride
//	exists elsewhere; otherwise every catalog park is a candidate.
//	Candidate parks are fetched concurrently (bounded fan-out), and
//	per-park upstream failures are swallowed and logged so one
//	unreachable park does not blank out the whole answer. The result is
//	the union of ride matches, ordered by catalog declaration order
//	regardless of fetch completion order.
//
// Outputs:
//
//	[]RideWait - Matched rides. Empty (not an error) when nothing
//	             matched — an explicit "no match" result.
//
// Thread Safety: Safe for concurrent use.
func (a *Aggregator) FindRideWaits(ctx context.Context, query string) []RideWait {
	ctx, span := waitsTracer.Start(ctx, "waits.find_ride_waits")
	defer span.End()

	candidates := a.catalog.All()
	hintID, hinted := a.catalog.ResolveParkID(query)
	if hinted {
		if park, ok := a.catalog.ByID(hintID); ok {
			candidates = []parks.Park{park}
		}
	}
	span.SetAttributes(
		attribute.Bool("park_hint", hinted),
		attribute.Int("candidate_parks", len(candidates)),
	)

	snapshotsByPark := a.fetchAll(ctx, candidates)

	var results []RideWait
	for _, park := range candidates {
		snaps, ok := snapshotsByPark[park.ID]
		if !ok {
			continue
		}
		for _, match := range MatchRides(query, snaps) {
			results = append(results, RideWait{
				ParkID:      park.ID,
				ParkName:    park.Name,
				RideName:    match.Name,
				WaitMinutes: match.WaitMinutes,
				IsOpen:      match.IsOpen,
				LastUpdated: match.LastUpdated,
			})
		}
	}

	span.SetAttributes(attribute.Int("match_count", len(results)))
	a.logger.Debug("ride wait aggregation complete",
		slog.Int("candidate_parks", len(candidates)),
		slog.Int("matches", len(results)),
	)
	return results
}

// ParkSnapshot returns the top rides for one park by current wait.
//
// Description:
//
//	Fetches the full snapshot and sorts by (isOpen descending,
//	waitMinutes descending), treating an absent isOpen as open and an
//	absent waitMinutes as lowest priority, truncated to TopRideCount.
//	Used as the fallback when ride-name matching finds nothing but a
//	park was still identified.
//
// Outputs:
//
//	[]RideSnapshot - Sorted, truncated ride list.
//	error - *UpstreamError when the park's provider fetch fails.
//
// Thread Safety: Safe for concurrent use.
func (a *Aggregator) ParkSnapshot(ctx context.Context, parkID int) ([]RideSnapshot, error) {
	ctx, span := waitsTracer.Start(ctx, "waits.park_snapshot",
		oteltrace.WithAttributes(attribute.Int("park_id", parkID)))
	defer span.End()

	snapshots, err := a.fetcher.Snapshot(ctx, parkID)
	if err != nil {
		return nil, err
	}

	sorted := make([]RideSnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.SliceStable(sorted, func(i, j int) bool {
		oi, oj := effectiveOpen(sorted[i]), effectiveOpen(sorted[j])
		if oi != oj {
			return oi
		}
		return effectiveWait(sorted[i]) > effectiveWait(sorted[j])
	})

	if len(sorted) > TopRideCount {
		sorted = sorted[:TopRideCount]
	}
	return sorted, nil
}

// Catalog exposes the underlying park catalog for callers that need park
// metadata alongside aggregation.
func (a *Aggregator) Catalog() *parks.Catalog { return a.catalog }

// fetchAll fetches snapshots for the candidate parks concurrently.
// Per-park failures are logged and dropped from the result map.
func (a *Aggregator) fetchAll(ctx context.Context, candidates []parks.Park) map[int][]RideSnapshot {
	var mu sync.Mutex
	snapshotsByPark := make(map[int][]RideSnapshot, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, parkFetchConcurrency)

	for _, park := range candidates {
		p := park
		g.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			snaps, err := a.fetcher.Snapshot(gctx, p.ID)
			if err != nil {
				aggregationParkErrors.Inc()
				a.logger.Warn("park fetch failed during aggregation, continuing",
					slog.Int("park_id", p.ID),
					slog.String("park", p.Name),
					slog.String("error", err.Error()),
				)
				// Individual park failure is not fatal.
				return nil
			}
			mu.Lock()
			snapshotsByPark[p.ID] = snaps
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; Wait only orders the fan-in.
	_ = g.Wait()
	return snapshotsByPark
}

// effectiveOpen treats an absent isOpen as open.
func effectiveOpen(s RideSnapshot) bool {
	if s.IsOpen == nil {
		return true
	}
	return *s.IsOpen
}

// effectiveWait treats an absent wait as -1 so unknown waits sort last.
func effectiveWait(s RideSnapshot) int {
	if s.WaitMinutes == nil {
		return -1
	}
	return *s.WaitMinutes
}
