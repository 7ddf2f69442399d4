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
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ParkPulse/services/textnorm"
)

// =============================================================================
// Embedded Ride Alias Configuration
// =============================================================================

//go:embed ride_aliases.yaml
var defaultRideAliasesYAML []byte

type rideAliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

var (
	cachedRideAliases map[string]string
	rideAliasesOnce   sync.Once
	rideAliasesErr    error
)

// loadRideAliases parses and caches the embedded ride alias table.
func loadRideAliases() (map[string]string, error) {
	rideAliasesOnce.Do(func() {
		var raw rideAliasFile
		if err := yaml.Unmarshal(defaultRideAliasesYAML, &raw); err != nil {
			rideAliasesErr = fmt.Errorf("waits: parsing ride_aliases.yaml: %w", err)
			return
		}
		aliases := make(map[string]string, len(raw.Aliases))
		for k, v := range raw.Aliases {
			aliases[textnorm.Normalize(k)] = textnorm.Normalize(v)
		}
		cachedRideAliases = aliases
		slog.Info("ride aliases loaded", slog.Int("alias_count", len(aliases)))
	})
	return cachedRideAliases, rideAliasesErr
}

// mustRideAliases returns the alias table, or an empty map on load failure.
// Matching still works without alias expansion, just with fewer hits.
func mustRideAliases() map[string]string {
	aliases, err := loadRideAliases()
	if err != nil {
		slog.Warn("ride alias loading failed, continuing without expansion",
			slog.String("error", err.Error()),
		)
		return map[string]string{}
	}
	return aliases
}

// =============================================================================
// Ride Matching
// =============================================================================

// MatchRides returns the rides in snapshots that match a free-text query.
//
// Description:
//
//	Per ride, matching stages are tried in priority order and the first
//	satisfied stage short-circuits:
//
//	1. Normalized containment in either direction — the ride name
//	   contains the query, or the query contains the ride name. Handles
//	   both abbreviated and padded user phrasing.
//	2. Alias expansion — the query matches a known ride alias and the
//	   alias's full form is contained in the normalized ride name.
//	3. Token subset — the query splits into at least two word tokens and
//	   every token appears as a substring of the normalized ride name.
//	   The two-token floor keeps single common words like "mountain"
//	   from matching everything.
//
//	Matches are not scored; ties keep the order rides appear in the
//	upstream payload. The goal is "did we find the ride the user meant",
//	not best semantic match.
//
// Thread Safety: Stateless beyond the read-only alias table. Safe for
// concurrent use.
func MatchRides(query string, snapshots []RideSnapshot) []RideSnapshot {
	normQuery := textnorm.Normalize(query)
	if normQuery == "" {
		return nil
	}

	aliasFull := mustRideAliases()[normQuery]
	tokens := textnorm.Tokenize(normQuery)

	var matches []RideSnapshot
	for _, snap := range snapshots {
		normName := textnorm.Normalize(snap.Name)
		if normName == "" {
			continue
		}
		if strings.Contains(normName, normQuery) || strings.Contains(normQuery, normName) {
			matches = append(matches, snap)
			continue
		}
		if aliasFull != "" && strings.Contains(normName, aliasFull) {
			matches = append(matches, snap)
			continue
		}
		if len(tokens) >= 2 && allTokensContained(tokens, normName) {
			matches = append(matches, snap)
		}
	}
	return matches
}

// allTokensContained reports whether every token is a substring of name.
func allTokensContained(tokens []string, name string) bool {
	for _, tok := range tokens {
		if !strings.Contains(name, tok) {
			return false
		}
	}
	return true
}
