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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearchParsesAnswerAndResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "epcot food and wine 2026", req["query"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"answer": "The festival runs late summer through fall.",
			"results": [
				{"title": "Festival Guide", "url": "https://example.com/guide", "content": "Dates and booths."},
				{"title": "News", "url": "https://example.com/news", "content": "Announcement."}
			]
		}`))
	}))
	defer srv.Close()

	tv := NewTavily("tvly-test", srv.URL)
	lc, err := tv.Search(context.Background(), "epcot food and wine 2026", 5)

	require.NoError(t, err)
	require.NotNil(t, lc)
	assert.Equal(t, "The festival runs late summer through fall.", lc.Summary)
	require.Len(t, lc.Sources, 2)
	assert.Equal(t, "https://example.com/guide", lc.Sources[0].URL)
}

func TestTavilySearchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	tv := NewTavily("tvly-test", srv.URL)
	lc, err := tv.Search(context.Background(), "query", 5)

	assert.Nil(t, lc)
	require.Error(t, err)
	var provErr *SearchProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "tavily", provErr.Provider)
}

func TestDDGHTMLSearchExtractsResults(t *testing.T) {
	page := `<html><body>
	<a rel="nofollow" class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fblog.example.com%2Fhours">Park <b>Hours</b> This Week</a>
	<a class="result__snippet" href="#">Updated operating <b>hours</b> for the week.</a>
	<a rel="nofollow" class="result__a" href="https://direct.example.com/page">Direct Result</a>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/html/", r.URL.Path)
		assert.Equal(t, "park hours", r.URL.Query().Get("q"))
		w.Write([]byte(page))
	}))
	defer srv.Close()

	d := NewDDGHTML(srv.URL)
	lc, err := d.Search(context.Background(), "park hours", 5)

	require.NoError(t, err)
	require.NotNil(t, lc)
	require.Len(t, lc.Sources, 2)
	assert.Equal(t, "Park Hours This Week", lc.Sources[0].Title)
	assert.Equal(t, "https://blog.example.com/hours", lc.Sources[0].URL)
	assert.Equal(t, "Updated operating hours for the week.", lc.Sources[0].Snippet)
	assert.Equal(t, "https://direct.example.com/page", lc.Sources[1].URL)
}

func TestDDGHTMLSearchNoResultsIsEmptyNotError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body><div class="no-results">No results.</div></body></html>`))
	}))
	defer srv.Close()

	d := NewDDGHTML(srv.URL)
	lc, err := d.Search(context.Background(), "zzzz", 5)

	assert.NoError(t, err)
	assert.Nil(t, lc)
}

func TestDDGInstantSearchPrefersAbstract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(`{
			"Heading": "Space Mountain",
			"AbstractText": "Space Mountain is an indoor roller coaster.",
			"AbstractURL": "https://en.wikipedia.org/wiki/Space_Mountain"
		}`))
	}))
	defer srv.Close()

	d := NewDDGInstant(srv.URL)
	lc, err := d.Search(context.Background(), "space mountain", 5)

	require.NoError(t, err)
	require.NotNil(t, lc)
	assert.Equal(t, "Space Mountain is an indoor roller coaster.", lc.Summary)
	require.Len(t, lc.Sources, 1)
	assert.Equal(t, "Space Mountain", lc.Sources[0].Title)
}

func TestDDGInstantSearchEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"Heading": "", "AbstractText": "", "Definition": ""}`))
	}))
	defer srv.Close()

	d := NewDDGInstant(srv.URL)
	lc, err := d.Search(context.Background(), "gibberish", 5)

	assert.NoError(t, err)
	assert.Nil(t, lc)
}

func TestWikipediaSearchSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/rest_v1/page/summary/Epcot", r.URL.Path)
		w.Write([]byte(`{
			"title": "Epcot",
			"extract": "Epcot is a theme park at Walt Disney World.",
			"type": "standard",
			"content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/Epcot"}}
		}`))
	}))
	defer srv.Close()

	wp := NewWikipedia(srv.URL)
	lc, err := wp.Search(context.Background(), "Epcot", 5)

	require.NoError(t, err)
	require.NotNil(t, lc)
	assert.Equal(t, "Epcot is a theme park at Walt Disney World.", lc.Summary)
	require.Len(t, lc.Sources, 1)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Epcot", lc.Sources[0].URL)
}

func TestWikipediaSearchMissingPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	wp := NewWikipedia(srv.URL)
	lc, err := wp.Search(context.Background(), "No Such Page Anywhere", 5)

	assert.NoError(t, err)
	assert.Nil(t, lc)
}
