// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package websearch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics
// =============================================================================

var (
	providerAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "parkpulse",
		Subsystem: "websearch",
		Name:      "provider_attempts_total",
		Help:      "Search provider attempts by provider and outcome (hit, empty, error)",
	}, []string{"provider", "outcome"})

	chainExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "parkpulse",
		Subsystem: "websearch",
		Name:      "chain_exhausted_total",
		Help:      "Resolutions where every provider came back empty",
	})
)
