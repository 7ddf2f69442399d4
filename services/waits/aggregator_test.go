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
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/ParkPulse/services/parks"
)

// parkPayloads maps park ID to a queue_times JSON body. Parks absent from
// the map return 503.
func newMultiParkUpstream(t *testing.T, payloads map[int]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "parks" || parts[2] != "queue_times.json" {
			http.NotFound(w, r)
			return
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		body, ok := payloads[id]
		if !ok {
			http.Error(w, "park unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
}

func rideJSON(id int, name string, wait int, open bool) string {
	return fmt.Sprintf(`{"id":%d,"name":%q,"wait_time":%d,"is_open":%t,"last_updated":"2026-08-30T15:04:05Z"}`,
		id, name, wait, open)
}

func parkJSON(rides ...string) string {
	return `{"lands":[{"name":"Main","rides":[` + strings.Join(rides, ",") + `]}],"rides":[]}`
}

func newTestAggregator(t *testing.T, baseURL string) *Aggregator {
	t.Helper()
	client := NewClient(baseURL, slog.Default())
	fetcher := NewFetcher(client, NewMemoryStore(time.Minute), slog.Default())
	return NewAggregator(parks.MustLoad(), fetcher, slog.Default())
}

func TestFindRideWaits_ParkHintRestrictsSearch(t *testing.T) {
	// Space Mountain exists at both Magic Kingdom (6) and Disneyland (16).
	server := newMultiParkUpstream(t, map[int]string{
		6:  parkJSON(rideJSON(101, "Space Mountain", 35, true)),
		16: parkJSON(rideJSON(201, "Space Mountain", 40, true)),
	})
	defer server.Close()

	agg := newTestAggregator(t, server.URL)
	results := agg.FindRideWaits(context.Background(), "space mountain at magic kingdom")

	if len(results) != 1 {
		t.Fatalf("results = %d, want 1 (hint must restrict to Magic Kingdom)", len(results))
	}
	if results[0].ParkName != "Magic Kingdom" || results[0].RideName != "Space Mountain" {
		t.Errorf("result = %+v, want Space Mountain at Magic Kingdom", results[0])
	}
	if results[0].WaitMinutes == nil || *results[0].WaitMinutes != 35 {
		t.Errorf("wait = %v, want 35", results[0].WaitMinutes)
	}
}

func TestFindRideWaits_NoHintSearchesAllParksInCatalogOrder(t *testing.T) {
	server := newMultiParkUpstream(t, map[int]string{
		6:  parkJSON(rideJSON(101, "Space Mountain", 35, true)),
		16: parkJSON(rideJSON(201, "Space Mountain", 40, true)),
		// Every other catalog park answers 503; those failures must be
		// swallowed, not surfaced.
	})
	defer server.Close()

	agg := newTestAggregator(t, server.URL)
	results := agg.FindRideWaits(context.Background(), "space mountain")

	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 across parks", len(results))
	}
	// Catalog order: Magic Kingdom (6) is declared before Disneyland (16).
	if results[0].ParkName != "Magic Kingdom" || results[1].ParkName != "Disneyland" {
		t.Errorf("order = [%s, %s], want catalog order [Magic Kingdom, Disneyland]",
			results[0].ParkName, results[1].ParkName)
	}
}

func TestFindRideWaits_NoMatchIsEmptyNotError(t *testing.T) {
	server := newMultiParkUpstream(t, map[int]string{
		6: parkJSON(rideJSON(101, "Haunted Mansion", 20, true)),
	})
	defer server.Close()

	agg := newTestAggregator(t, server.URL)
	results := agg.FindRideWaits(context.Background(), "nonexistent coaster at magic kingdom")
	if len(results) != 0 {
		t.Errorf("results = %v, want empty", results)
	}
}

func TestParkSnapshot_SortsOpenDescThenWaitDesc(t *testing.T) {
	server := newMultiParkUpstream(t, map[int]string{
		6: parkJSON(
			rideJSON(1, "Closed Fifty", 50, false),
			rideJSON(2, "Open Twenty", 20, true),
			rideJSON(3, "Open Five", 5, true),
		),
	})
	defer server.Close()

	agg := newTestAggregator(t, server.URL)
	snaps, err := agg.ParkSnapshot(context.Background(), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Open Twenty", "Open Five", "Closed Fifty"}
	if len(snaps) != len(want) {
		t.Fatalf("snapshot count = %d, want %d", len(snaps), len(want))
	}
	for i, name := range want {
		if snaps[i].Name != name {
			t.Errorf("snaps[%d] = %q, want %q", i, snaps[i].Name, name)
		}
	}
}

func TestParkSnapshot_TruncatesToTopN(t *testing.T) {
	var rides []string
	for i := 0; i < TopRideCount+4; i++ {
		rides = append(rides, rideJSON(i+1, fmt.Sprintf("Ride %d", i+1), i, true))
	}
	server := newMultiParkUpstream(t, map[int]string{6: parkJSON(rides...)})
	defer server.Close()

	agg := newTestAggregator(t, server.URL)
	snaps, err := agg.ParkSnapshot(context.Background(), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snaps) != TopRideCount {
		t.Errorf("snapshot count = %d, want %d", len(snaps), TopRideCount)
	}
	// Highest wait first.
	if snaps[0].Name != fmt.Sprintf("Ride %d", TopRideCount+4) {
		t.Errorf("top ride = %q, want the longest wait", snaps[0].Name)
	}
}

func TestParkSnapshot_AbsentFieldsSortAsOpenAndLowest(t *testing.T) {
	server := newMultiParkUpstream(t, map[int]string{
		6: parkJSON(
			`{"id":1,"name":"No Data Ride"}`,
			rideJSON(2, "Open Ten", 10, true),
		),
	})
	defer server.Close()

	agg := newTestAggregator(t, server.URL)
	snaps, err := agg.ParkSnapshot(context.Background(), 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Absent is_open counts as open, absent wait sorts below any reading.
	if snaps[0].Name != "Open Ten" || snaps[1].Name != "No Data Ride" {
		t.Errorf("order = [%s, %s], want [Open Ten, No Data Ride]", snaps[0].Name, snaps[1].Name)
	}
}
