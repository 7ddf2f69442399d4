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
	"strings"
	"time"
)

const (
	defaultWikipediaBaseURL = "https://en.wikipedia.org"

	userAgent = "Mozilla/5.0 (compatible; parkpulse/1.0)"
)

type wikiSummaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Type    string `json:"type"`
	Content struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Wikipedia fetches the lead-section summary of the page whose title best
// matches the query. Like the instant-answer provider it yields at most
// one snippet and is used as supplemental context, never as the sole
// search backend.
//
// # Thread Safety
//
// Safe for concurrent use.
type Wikipedia struct {
	httpClient *http.Client
	baseURL    string
}

// NewWikipedia creates the provider. Pass "" for en.wikipedia.org.
func NewWikipedia(baseURL string) *Wikipedia {
	if baseURL == "" {
		baseURL = defaultWikipediaBaseURL
	}
	return &Wikipedia{
		httpClient: &http.Client{Timeout: 8 * time.Second},
		baseURL:    baseURL,
	}
}

// Name implements Provider.
func (w *Wikipedia) Name() string { return "wikipedia" }

// Search implements Provider.
func (w *Wikipedia) Search(ctx context.Context, query string, _ int) (*LiveContext, error) {
	title := strings.ReplaceAll(strings.TrimSpace(query), " ", "_")
	reqURL := w.baseURL + "/api/rest_v1/page/summary/" + url.PathEscape(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &SearchProviderError{Provider: w.Name(), Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, &SearchProviderError{Provider: w.Name(), Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	// Missing pages are an empty result, not a provider failure.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &SearchProviderError{Provider: w.Name(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var payload wikiSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &SearchProviderError{Provider: w.Name(), Err: fmt.Errorf("parsing response: %w", err)}
	}

	if payload.Extract == "" || payload.Type == "disambiguation" {
		return nil, nil
	}

	lc := &LiveContext{Summary: payload.Extract}
	pageURL := payload.Content.Desktop.Page
	if pageURL == "" {
		pageURL = w.baseURL + "/wiki/" + url.PathEscape(title)
	}
	lc.Sources = append(lc.Sources, Result{Title: payload.Title, URL: pageURL, Snippet: payload.Extract})
	return lc, nil
}
