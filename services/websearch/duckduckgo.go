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
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const defaultDDGHTMLBaseURL = "https://html.duckduckgo.com"

// Extraction anchors for the DuckDuckGo HTML results page. The layout has
// been stable for years, but parsing stay tolerant: anything that does not
// match is skipped, and a page with no anchors is an empty result, not an
// error.
var (
	ddgResultAnchorRE = regexp.MustCompile(`<a[^>]+class="result__a"[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
	ddgSnippetRE      = regexp.MustCompile(`<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`)
	htmlTagRE         = regexp.MustCompile(`<[^>]*>`)
)

// DDGHTML scrapes the no-key DuckDuckGo HTML search surface. Used as the
// first free fallback when the primary provider is unavailable or empty.
//
// # Thread Safety
//
// Safe for concurrent use.
type DDGHTML struct {
	httpClient *http.Client
	baseURL    string
}

// NewDDGHTML creates the provider. Pass "" for the public endpoint.
func NewDDGHTML(baseURL string) *DDGHTML {
	if baseURL == "" {
		baseURL = defaultDDGHTMLBaseURL
	}
	return &DDGHTML{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

// Name implements Provider.
func (d *DDGHTML) Name() string { return "ddg_html" }

// Search implements Provider.
//
// Description:
//
//	GETs the HTML results page and pulls the first maxResults entries
//	matching the known result-anchor shape. Titles are stripped of
//	markup; tracking-wrapper hrefs (/l/?uddg=...) are decoded to their
//	true destination. Best-effort throughout: malformed entries are
//	skipped silently.
func (d *DDGHTML) Search(ctx context.Context, query string, maxResults int) (*LiveContext, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	searchURL := d.baseURL + "/html/?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, &SearchProviderError{Provider: d.Name(), Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, &SearchProviderError{Provider: d.Name(), Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SearchProviderError{Provider: d.Name(), Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &SearchProviderError{Provider: d.Name(), Err: fmt.Errorf("reading body: %w", err)}
	}

	anchors := ddgResultAnchorRE.FindAllStringSubmatch(string(body), maxResults)
	snippets := ddgSnippetRE.FindAllStringSubmatch(string(body), maxResults)

	lc := &LiveContext{}
	for i, m := range anchors {
		title := stripMarkup(m[2])
		dest := decodeDDGRedirect(m[1])
		if title == "" || dest == "" {
			continue
		}
		r := Result{Title: title, URL: dest}
		if i < len(snippets) {
			r.Snippet = stripMarkup(snippets[i][1])
		}
		lc.Sources = append(lc.Sources, r)
	}
	if lc.empty() {
		return nil, nil
	}
	return lc, nil
}

// stripMarkup removes tags and decodes entities from an HTML fragment.
func stripMarkup(s string) string {
	return strings.TrimSpace(html.UnescapeString(htmlTagRE.ReplaceAllString(s, "")))
}

// decodeDDGRedirect unwraps DuckDuckGo's tracking redirect
// (//duckduckgo.com/l/?uddg=<escaped>) to the true destination URL.
// Non-wrapped URLs pass through unchanged.
func decodeDDGRedirect(href string) string {
	href = html.UnescapeString(href)
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		return uddg
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}
