// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package websearch resolves fresh web context for a query through an
// ordered chain of pluggable providers. Provider failures are never fatal:
// each one falls through to the next, and an empty chain result is a valid,
// expected outcome rather than an error.
//
// Thread Safety:
//
//	All Provider implementations in this package must be safe for
//	concurrent use.
package websearch

import (
	"context"
	"fmt"
)

// defaultMaxResults bounds how many sources a provider contributes.
const defaultMaxResults = 5

// Result is a single web search result.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// LiveContext is the normalized summary+sources bundle every provider's
// heterogeneous response is mapped into, ready for prompt injection.
// Transient: constructed per request, never persisted.
type LiveContext struct {
	Summary string   `json:"summary,omitempty"`
	Sources []Result `json:"sources,omitempty"`
}

// empty reports whether the context carries no usable content.
func (lc *LiveContext) empty() bool {
	return lc == nil || (lc.Summary == "" && len(lc.Sources) == 0)
}

// Provider is one search backend in the fallback chain.
//
// Description:
//
//	Search returns (nil, nil) when the provider answered but had nothing
//	usable, and an error only on transport or parse failure. The chain
//	treats both the same way — fall through — but errors are counted
//	separately for observability.
//
// Thread Safety: Implementations must be safe for concurrent use.
type Provider interface {
	// Name returns the provider identifier (e.g. "tavily", "ddg_html").
	Name() string

	// Search executes a query and returns normalized context.
	Search(ctx context.Context, query string, maxResults int) (*LiveContext, error)
}

// SearchProviderError wraps a single provider's failure. It is logged and
// swallowed by the chain, never surfaced to the request.
type SearchProviderError struct {
	Provider string
	Err      error
}

func (e *SearchProviderError) Error() string {
	return fmt.Sprintf("websearch: provider %s: %v", e.Provider, e.Err)
}

func (e *SearchProviderError) Unwrap() error { return e.Err }
