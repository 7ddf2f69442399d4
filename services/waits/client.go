// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package waits resolves live ride wait times: a rate-limited client for the
// Queue-Times upstream, a TTL cache behind a small store interface, a ride
// name matcher, and the aggregator that answers "what's the wait for X"
// across one or many parks.
package waits

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/ParkPulse/services/parks"
)

const defaultQueueTimesBaseURL = "https://queue-times.com"

// userAgent identifies this proxy to the community-run upstream.
const userAgent = "parkpulse/1.0 (+https://github.com/AleutianAI/ParkPulse)"

// =============================================================================
// Queue-Times Wire Types
// =============================================================================

type qtQueueTimesResponse struct {
	Lands []qtLand `json:"lands"`
	// Some parks report rides outside any land.
	Rides []qtRide `json:"rides"`
}

type qtLand struct {
	Name  string   `json:"name"`
	Rides []qtRide `json:"rides"`
}

type qtRide struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	WaitTime    *int       `json:"wait_time"`
	IsOpen      *bool      `json:"is_open"`
	LastUpdated *time.Time `json:"last_updated"`
}

type qtResort struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Parks []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"parks"`
}

// =============================================================================
// Domain Types
// =============================================================================

// RideSnapshot is one ride's wait-time reading from a single upstream fetch.
// Snapshots are never mutated in place; a fresh fetch replaces the whole
// per-park list in the cache.
type RideSnapshot struct {
	ParkID      int        `json:"park_id"`
	RideID      int        `json:"ride_id"`
	Name        string     `json:"name"`
	WaitMinutes *int       `json:"wait_minutes,omitempty"`
	IsOpen      *bool      `json:"is_open,omitempty"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// =============================================================================
// Client Implementation
// =============================================================================

// Client fetches wait-time data from the Queue-Times upstream.
//
// Description:
//
//	Uses the public JSON endpoints directly with a fixed per-call HTTP
//	timeout and a politeness rate limit, since the upstream is a free
//	community service. Non-2xx responses and malformed payloads are
//	reported as *UpstreamError, never as zero rides.
//
// Thread Safety: Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a Queue-Times client.
//
// Inputs:
//
//	baseURL - Upstream base URL. Pass "" for the public endpoint.
//	logger - Logger for fetch diagnostics. May be nil.
//
// Outputs:
//
//	*Client - Ready-to-use client. Never nil.
//
// Thread Safety: The returned client is safe for concurrent use.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultQueueTimesBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		// 5 req/s with a small burst keeps multi-park fan-out snappy
		// while staying polite to the community upstream.
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:  logger,
	}
}

// FetchQueueTimes fetches and flattens the ride list for one park.
//
// Description:
//
//	GET {base}/parks/{parkId}/queue_times.json. Rides nested under lands
//	and top-level rides are flattened into a single snapshot list in
//	upstream payload order. The payload order matters: ride matching
//	breaks ties by it.
//
// Outputs:
//
//	[]RideSnapshot - Flattened snapshot list. Never nil on success.
//	error - *UpstreamError on transport failure, non-2xx status, or a
//	        malformed body.
//
// Thread Safety: Safe for concurrent use.
func (c *Client) FetchQueueTimes(ctx context.Context, parkID int) ([]RideSnapshot, error) {
	url := fmt.Sprintf("%s/parks/%d/queue_times.json", c.baseURL, parkID)

	var payload qtQueueTimesResponse
	if err := c.getJSON(ctx, parkID, url, &payload); err != nil {
		return nil, err
	}

	snapshots := make([]RideSnapshot, 0, 32)
	appendRide := func(r qtRide) {
		snapshots = append(snapshots, RideSnapshot{
			ParkID:      parkID,
			RideID:      r.ID,
			Name:        r.Name,
			WaitMinutes: r.WaitTime,
			IsOpen:      r.IsOpen,
			LastUpdated: r.LastUpdated,
		})
	}
	for _, land := range payload.Lands {
		for _, r := range land.Rides {
			appendRide(r)
		}
	}
	for _, r := range payload.Rides {
		appendRide(r)
	}

	c.logger.Debug("fetched queue times",
		slog.Int("park_id", parkID),
		slog.Int("ride_count", len(snapshots)),
	)
	return snapshots, nil
}

// ListResorts fetches the live resort directory from the upstream.
//
// Description:
//
//	GET {base}/parks.json, mapped to the catalog's Resort shape. Callers
//	fall back to the static catalog directory on error so the companion
//	app's park picker never breaks.
//
// Thread Safety: Safe for concurrent use.
func (c *Client) ListResorts(ctx context.Context) ([]parks.Resort, error) {
	url := c.baseURL + "/parks.json"

	var payload []qtResort
	if err := c.getJSON(ctx, 0, url, &payload); err != nil {
		return nil, err
	}

	resorts := make([]parks.Resort, 0, len(payload))
	for _, r := range payload {
		name := r.Name
		if name == "" {
			name = "Resort"
		}
		resort := parks.Resort{ID: r.ID, Name: name}
		for _, p := range r.Parks {
			pname := p.Name
			if pname == "" {
				pname = "Park"
			}
			resort.Parks = append(resort.Parks, parks.ListedPark{ID: p.ID, Name: pname})
		}
		resorts = append(resorts, resort)
	}
	return resorts, nil
}

// getJSON issues one rate-limited GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, parkID int, url string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &UpstreamError{ParkID: parkID, Reason: "rate limiter wait canceled", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &UpstreamError{ParkID: parkID, Reason: "creating request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		upstreamFetchErrors.WithLabelValues("transport").Inc()
		return &UpstreamError{ParkID: parkID, Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()
	upstreamFetchLatency.Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		upstreamFetchErrors.WithLabelValues("status").Inc()
		return &UpstreamError{ParkID: parkID, Status: resp.StatusCode, Reason: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		upstreamFetchErrors.WithLabelValues("decode").Inc()
		return &UpstreamError{ParkID: parkID, Reason: "malformed payload", Err: err}
	}
	return nil
}
