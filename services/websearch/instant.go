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
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultDDGInstantBaseURL = "https://api.duckduckgo.com"

type ddgInstantResponse struct {
	Heading       string `json:"Heading"`
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Definition    string `json:"Definition"`
	DefinitionURL string `json:"DefinitionURL"`
}

// DDGInstant queries the DuckDuckGo Instant Answer API for an abstract or
// definition. A supplemental provider: it contributes at most one snippet
// and is combined with the encyclopedia summary rather than competing
// with it.
//
// # Thread Safety
//
// Safe for concurrent use.
type DDGInstant struct {
	httpClient *http.Client
	baseURL    string
}

// NewDDGInstant creates the provider. Pass "" for the public endpoint.
func NewDDGInstant(baseURL string) *DDGInstant {
	if baseURL == "" {
		baseURL = defaultDDGInstantBaseURL
	}
	return &DDGInstant{
		httpClient: &http.Client{Timeout: 8 * time.Second},
		baseURL:    baseURL,
	}
}

// Name implements Provider.
func (d *DDGInstant) Name() string { return "ddg_instant" }

// Search implements Provider.
func (d *DDGInstant) Search(ctx context.Context, query string, _ int) (*LiveContext, error) {
	reqURL := d.baseURL + "/?q=" + url.QueryEscape(query) + "&format=json&no_html=1&skip_disambig=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &SearchProviderError{Provider: d.Name(), Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, &SearchProviderError{Provider: d.Name(), Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SearchProviderError{Provider: d.Name(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var payload ddgInstantResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &SearchProviderError{Provider: d.Name(), Err: fmt.Errorf("parsing response: %w", err)}
	}

	text, source := payload.AbstractText, payload.AbstractURL
	if text == "" {
		text, source = payload.Definition, payload.DefinitionURL
	}
	if text == "" {
		return nil, nil
	}

	lc := &LiveContext{Summary: text}
	if source != "" {
		title := payload.Heading
		if title == "" {
			title = query
		}
		lc.Sources = append(lc.Sources, Result{Title: title, URL: source, Snippet: text})
	}
	return lc, nil
}
