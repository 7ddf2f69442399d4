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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTavilyBaseURL = "https://api.tavily.com"

// =============================================================================
// Tavily Wire Types
// =============================================================================

type tavilyRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Answer  string `json:"answer,omitempty"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results,omitempty"`
}

// =============================================================================
// Provider Implementation
// =============================================================================

// Tavily is the primary, key-gated search provider. Construct it only when
// a credential is configured; with no key the chain simply starts at the
// free fallbacks.
//
// # Thread Safety
//
// Safe for concurrent use.
type Tavily struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewTavily creates a Tavily provider.
//
// Inputs:
//
//	apiKey - Tavily API key. Must not be empty; the caller gates
//	         construction on credential presence.
//	baseURL - API base URL. Pass "" for the public endpoint.
func NewTavily(apiKey, baseURL string) *Tavily {
	if baseURL == "" {
		baseURL = defaultTavilyBaseURL
	}
	return &Tavily{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// Name implements Provider.
func (t *Tavily) Name() string { return "tavily" }

// Search implements Provider via POST /search.
func (t *Tavily) Search(ctx context.Context, query string, maxResults int) (*LiveContext, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	body, err := json.Marshal(tavilyRequest{
		Query:         query,
		SearchDepth:   "basic",
		MaxResults:    maxResults,
		IncludeAnswer: true,
	})
	if err != nil {
		return nil, &SearchProviderError{Provider: t.Name(), Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, &SearchProviderError{Provider: t.Name(), Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, &SearchProviderError{Provider: t.Name(), Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &SearchProviderError{
			Provider: t.Name(),
			Err:      fmt.Errorf("status %d: %s", resp.StatusCode, snippet),
		}
	}

	var payload tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &SearchProviderError{Provider: t.Name(), Err: fmt.Errorf("parsing response: %w", err)}
	}

	lc := &LiveContext{Summary: payload.Answer}
	for i, r := range payload.Results {
		if i >= maxResults {
			break
		}
		lc.Sources = append(lc.Sources, Result{Title: r.Title, URL: r.URL, Snippet: r.Content})
	}
	if lc.empty() {
		return nil, nil
	}
	return lc, nil
}
