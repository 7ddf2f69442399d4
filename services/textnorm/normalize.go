// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package textnorm provides the text normalization primitives used by every
// matching stage in ParkPulse. Two strings refer to the same park or ride
// iff their normalized forms are equal.
package textnorm

import (
	"html"
	"regexp"
	"strings"
)

// replacer maps typographic punctuation to the canonical ASCII forms the
// alias tables are written in. HTML entities are already decoded by the
// time this runs.
var replacer = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
	"–", "-", // en dash
	"—", "-", // em dash
)

// wordSplitRE splits free text into word tokens. Anything that is not a
// letter or digit is a separator.
var wordSplitRE = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize canonicalizes free text for name matching.
//
// Description:
//
//	Decodes HTML entities to a fixpoint, lower-cases, maps curly quotes
//	and dashes to ASCII, collapses runs of whitespace to single spaces,
//	and trims the ends. The function is total, deterministic, and
//	idempotent: Normalize(Normalize(s)) == Normalize(s) for every input.
//
// Thread Safety: Stateless. Safe for concurrent use.
func Normalize(s string) string {
	// Ride names arrive double-encoded from some upstream feeds
	// ("Rock &amp;amp; Roller"); one decode pass would leave a form
	// that changes again on re-normalization.
	for {
		decoded := html.UnescapeString(s)
		if decoded == s {
			break
		}
		s = decoded
	}
	s = strings.ToLower(s)
	s = replacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Tokenize splits already-normalized text into word tokens.
//
// Description:
//
//	Splits on any run of non-alphanumeric characters and drops empty
//	tokens. Callers should pass Normalize(s) output; raw input still
//	works because the split set is case-insensitive for ASCII words.
//
// Thread Safety: Stateless. Safe for concurrent use.
func Tokenize(s string) []string {
	parts := wordSplitRE.Split(Normalize(s), -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}
