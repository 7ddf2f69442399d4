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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	snapshotCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "parkpulse",
		Subsystem: "waits",
		Name:      "cache_hits_total",
		Help:      "Snapshot cache hits (served without an upstream call)",
	})

	snapshotCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "parkpulse",
		Subsystem: "waits",
		Name:      "cache_misses_total",
		Help:      "Snapshot cache misses (absent or past TTL)",
	})

	upstreamFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "parkpulse",
		Subsystem: "waits",
		Name:      "upstream_latency_seconds",
		Help:      "Queue-Times upstream fetch latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	upstreamFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parkpulse",
		Subsystem: "waits",
		Name:      "upstream_errors_total",
		Help:      "Queue-Times upstream failures by kind",
	}, []string{"kind"})

	aggregationParkErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "parkpulse",
		Subsystem: "waits",
		Name:      "aggregation_park_errors_total",
		Help:      "Per-park failures swallowed during multi-park aggregation",
	})
)
