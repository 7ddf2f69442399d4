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
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name   string
	result *LiveContext
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Search(_ context.Context, _ string, _ int) (*LiveContext, error) {
	s.calls++
	return s.result, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestChainFirstPrimaryHitShortCircuits(t *testing.T) {
	first := &stubProvider{name: "first", result: &LiveContext{Summary: "from first"}}
	second := &stubProvider{name: "second", result: &LiveContext{Summary: "from second"}}

	chain := NewChainWithProviders([]Provider{first, second}, nil, discardLogger())
	lc := chain.Run(context.Background(), "epcot festival dates", 5)

	require.NotNil(t, lc)
	assert.Equal(t, "from first", lc.Summary)
	assert.Equal(t, 0, second.calls, "later providers must not run after a hit")
}

func TestChainFallsPastFailingPrimary(t *testing.T) {
	broken := &stubProvider{name: "broken", err: errors.New("boom")}
	backup := &stubProvider{
		name:   "backup",
		result: &LiveContext{Sources: []Result{{Title: "t", URL: "https://example.com"}}},
	}

	chain := NewChainWithProviders([]Provider{broken, backup}, nil, discardLogger())
	lc := chain.Run(context.Background(), "query", 5)

	require.NotNil(t, lc)
	require.Len(t, lc.Sources, 1)
	assert.Equal(t, 1, broken.calls)
}

func TestChainEmptyPrimaryTreatedAsMiss(t *testing.T) {
	empty := &stubProvider{name: "empty", result: &LiveContext{}}
	backup := &stubProvider{name: "backup", result: &LiveContext{Summary: "hit"}}

	chain := NewChainWithProviders([]Provider{empty, backup}, nil, discardLogger())
	lc := chain.Run(context.Background(), "query", 5)

	require.NotNil(t, lc)
	assert.Equal(t, "hit", lc.Summary)
}

func TestChainMergesSupplementalProviders(t *testing.T) {
	instant := &stubProvider{
		name: "instant",
		result: &LiveContext{
			Summary: "abstract text",
			Sources: []Result{{Title: "A", URL: "https://a.example"}},
		},
	}
	wiki := &stubProvider{
		name: "wiki",
		result: &LiveContext{
			Summary: "encyclopedia text",
			Sources: []Result{{Title: "B", URL: "https://b.example"}},
		},
	}

	chain := NewChainWithProviders(nil, []Provider{instant, wiki}, discardLogger())
	lc := chain.Run(context.Background(), "query", 5)

	require.NotNil(t, lc)
	assert.Contains(t, lc.Summary, "abstract text")
	assert.Contains(t, lc.Summary, "encyclopedia text")
	assert.Len(t, lc.Sources, 2)
}

func TestChainSupplementalOnlyAfterPrimariesExhausted(t *testing.T) {
	primary := &stubProvider{name: "primary", result: &LiveContext{Summary: "primary hit"}}
	supplemental := &stubProvider{name: "supplemental", result: &LiveContext{Summary: "extra"}}

	chain := NewChainWithProviders([]Provider{primary}, []Provider{supplemental}, discardLogger())
	lc := chain.Run(context.Background(), "query", 5)

	require.NotNil(t, lc)
	assert.Equal(t, "primary hit", lc.Summary)
	assert.Equal(t, 0, supplemental.calls)
}

func TestChainExhaustedReturnsNilNotError(t *testing.T) {
	p1 := &stubProvider{name: "p1", err: errors.New("down")}
	p2 := &stubProvider{name: "p2"}
	s1 := &stubProvider{name: "s1", result: &LiveContext{}}

	chain := NewChainWithProviders([]Provider{p1, p2}, []Provider{s1}, discardLogger())
	lc := chain.Run(context.Background(), "query", 5)

	assert.Nil(t, lc)

	// The Provider-shaped entry point must not surface an error either.
	lc, err := chain.Search(context.Background(), "query", 5)
	assert.NoError(t, err)
	assert.Nil(t, lc)
}

func TestNewChainSkipsTavilyWithoutKey(t *testing.T) {
	chain := NewChain("", discardLogger())

	require.True(t, chain.HasProviders())
	for _, p := range chain.primary {
		assert.NotEqual(t, "tavily", p.Name())
	}

	keyed := NewChain("tvly-test", discardLogger())
	require.NotEmpty(t, keyed.primary)
	assert.Equal(t, "tavily", keyed.primary[0].Name())
}
