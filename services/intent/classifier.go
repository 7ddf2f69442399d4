// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package intent decides, from the latest user utterance, whether external
// context (web search and/or ride wait times) is required, and extracts the
// effective query string. The keyword tables are versioned configuration
// data embedded at build time (intent_rules.yaml); extending them is a data
// change, not a code change.
package intent

import (
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ParkPulse/services/parks"
	"github.com/AleutianAI/ParkPulse/services/textnorm"
)

// =============================================================================
// Embedded Rule Configuration
// =============================================================================

//go:embed intent_rules.yaml
var defaultIntentRulesYAML []byte

// Rules holds the keyword tables the classifier evaluates.
//
// # Thread Safety
//
// Immutable after load; safe for concurrent use.
type Rules struct {
	// SearchMarkers are literal prefixes that make a message an explicit
	// search request. Matching is case-insensitive; the matched marker is
	// stripped from the effective query.
	SearchMarkers []string `yaml:"search_markers"`

	// RecencyKeywords signal the answer needs fresh external data.
	RecencyKeywords []string `yaml:"recency_keywords"`

	// QueueKeywords signal the user is asking about ride waits.
	QueueKeywords []string `yaml:"queue_keywords"`
}

var (
	cachedRules *Rules
	rulesOnce   sync.Once
	rulesErr    error
)

// LoadRules parses and caches the embedded intent rule tables.
//
// # Thread Safety
//
// Safe for concurrent use (uses sync.Once internally).
func LoadRules() (*Rules, error) {
	rulesOnce.Do(func() {
		var r Rules
		if err := yaml.Unmarshal(defaultIntentRulesYAML, &r); err != nil {
			rulesErr = fmt.Errorf("intent: parsing intent_rules.yaml: %w", err)
			return
		}
		cachedRules = &r
		slog.Info("intent rules loaded",
			slog.Int("search_markers", len(r.SearchMarkers)),
			slog.Int("recency_keywords", len(r.RecencyKeywords)),
			slog.Int("queue_keywords", len(r.QueueKeywords)),
		)
	})
	return cachedRules, rulesErr
}

// MustLoadRules loads the rules or returns empty tables on error. The
// classifier still works, it just never requests external context.
func MustLoadRules() *Rules {
	r, err := LoadRules()
	if err != nil {
		slog.Warn("intent rule loading failed, continuing with empty tables",
			slog.String("error", err.Error()),
		)
		return &Rules{}
	}
	return r
}

// =============================================================================
// Classifier
// =============================================================================

// Decision is the classifier's verdict for one utterance. Derived
// deterministically; never stored.
type Decision struct {
	// WantsWebSearch is true when the utterance needs fresh web context.
	WantsWebSearch bool

	// WantsWaitTimes is true when the utterance asks about ride queues.
	WantsWaitTimes bool

	// EffectiveQuery is the utterance with any explicit search-marker
	// prefix stripped and whitespace trimmed.
	EffectiveQuery string

	// ParkHint is the canonical park ID referenced by the utterance,
	// or zero when no park was recognized.
	ParkHint int
}

// Classifier evaluates utterances against the keyword tables.
//
// # Thread Safety
//
// Safe for concurrent use (all state read-only after construction).
type Classifier struct {
	rules   *Rules
	catalog *parks.Catalog
}

// NewClassifier creates a Classifier. rules may be nil to use the embedded
// defaults; catalog must not be nil.
func NewClassifier(rules *Rules, catalog *parks.Catalog) *Classifier {
	if rules == nil {
		rules = MustLoadRules()
	}
	if catalog == nil {
		panic("NewClassifier: catalog must not be nil")
	}
	return &Classifier{rules: rules, catalog: catalog}
}

// Classify derives an intent Decision from an utterance.
//
// Description:
//
//	The web-search and wait-times signals are evaluated independently and
//	both may be true. WantsWebSearch fires on an explicit search marker
//	prefix or any recency keyword; WantsWaitTimes fires on any queue
//	keyword or a standalone "min"/"mins" token. forceSearch overrides the
//	web-search heuristic entirely, taking precedence over keyword
//	matching.
//
// Thread Safety: Safe for concurrent use.
func (c *Classifier) Classify(utterance string, forceSearch bool) Decision {
	norm := textnorm.Normalize(utterance)
	tokens := textnorm.Tokenize(norm)

	dec := Decision{EffectiveQuery: strings.TrimSpace(utterance)}

	if marker, ok := c.matchMarker(norm); ok {
		dec.WantsWebSearch = true
		dec.EffectiveQuery = stripMarker(utterance, marker)
	} else if matchAnyKeyword(norm, tokens, c.rules.RecencyKeywords) {
		dec.WantsWebSearch = true
	}
	if forceSearch {
		dec.WantsWebSearch = true
	}

	if matchAnyKeyword(norm, tokens, c.rules.QueueKeywords) || hasMinutesToken(tokens) {
		dec.WantsWaitTimes = true
	}

	if id, ok := c.catalog.ResolveParkID(utterance); ok {
		dec.ParkHint = id
	}
	return dec
}

// matchMarker reports whether the normalized utterance starts with one of
// the search markers. A marker whose normalized form ends in a word
// character ("/search") only matches at a word boundary, so "/searchable
// pages" is not treated as an explicit search request.
func (c *Classifier) matchMarker(norm string) (string, bool) {
	for _, m := range c.rules.SearchMarkers {
		nm := textnorm.Normalize(m)
		if nm == "" || !strings.HasPrefix(norm, nm) {
			continue
		}
		if rest := norm[len(nm):]; rest != "" && isWordChar(nm[len(nm)-1]) && isWordChar(rest[0]) {
			continue
		}
		return m, true
	}
	return "", false
}

// isWordChar reports an ASCII letter or digit in normalized text.
func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// stripMarker removes the marker prefix from the raw utterance,
// case-insensitively, and trims the remainder.
func stripMarker(utterance, marker string) string {
	trimmed := strings.TrimSpace(utterance)
	marker = strings.TrimSpace(marker)
	if len(trimmed) >= len(marker) && strings.EqualFold(trimmed[:len(marker)], marker) {
		return strings.TrimSpace(trimmed[len(marker):])
	}
	return trimmed
}

// matchAnyKeyword matches phrase keywords as substrings of the normalized
// utterance and single-word keywords as whole tokens, so "line" does not
// fire on "airline".
func matchAnyKeyword(norm string, tokens []string, keywords []string) bool {
	for _, kw := range keywords {
		kw = textnorm.Normalize(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(kw, " ") {
			if strings.Contains(norm, kw) {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == kw {
				return true
			}
		}
	}
	return false
}

// hasMinutesToken reports a standalone "min"/"mins" token, a common way
// guests phrase queue questions ("how many mins for splash").
func hasMinutesToken(tokens []string) bool {
	for _, tok := range tokens {
		if tok == "min" || tok == "mins" {
			return true
		}
	}
	return false
}
