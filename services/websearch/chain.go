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
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var searchTracer = otel.Tracer("parkpulse/websearch")

// Chain runs a list of providers in priority order until one yields a
// non-empty result. Primary providers short-circuit: the first hit wins
// and later providers are never contacted. Supplemental providers run
// only after every primary has failed or come back empty, and their
// single-snippet answers are merged into one combined context.
//
// A chain with every rung exhausted is not an error. It returns
// (nil, nil): the caller proceeds without live context, exactly as if
// searching had never been requested.
//
// # Thread Safety
//
// Safe for concurrent use; providers are never mutated after
// construction.
type Chain struct {
	primary      []Provider
	supplemental []Provider
	logger       *slog.Logger
}

// NewChain assembles the default provider ordering: Tavily (when an API
// key is configured), then the DuckDuckGo HTML scrape, then the
// instant-answer and encyclopedia providers combined.
//
// Inputs:
//   - tavilyAPIKey: key for the primary provider; "" skips it entirely.
//   - logger: destination for per-provider failure logs. Pass nil for
//     the default text logger.
func NewChain(tavilyAPIKey string, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	c := &Chain{logger: logger}
	if tavilyAPIKey != "" {
		c.primary = append(c.primary, NewTavily(tavilyAPIKey, ""))
	}
	c.primary = append(c.primary, NewDDGHTML(""))
	c.supplemental = append(c.supplemental, NewDDGInstant(""), NewWikipedia(""))
	return c
}

// NewChainWithProviders builds a chain from explicit provider lists.
// Used by tests and by callers with bespoke orderings.
func NewChainWithProviders(primary, supplemental []Provider, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &Chain{primary: primary, supplemental: supplemental, logger: logger}
}

// HasProviders reports whether any provider is configured at all.
func (c *Chain) HasProviders() bool {
	return len(c.primary) > 0 || len(c.supplemental) > 0
}

// Search implements Provider, so a chain can itself stand in wherever a
// single provider is expected.
func (c *Chain) Search(ctx context.Context, query string, maxResults int) (*LiveContext, error) {
	return c.Run(ctx, query, maxResults), nil
}

// Name implements Provider.
func (c *Chain) Name() string { return "chain" }

// Run walks the chain for the given query.
//
// Description:
//
//	Each primary provider is attempted in order; a provider error is
//	logged and counted, then the walk continues. The first non-empty
//	primary result is returned as-is. If no primary produced anything,
//	every supplemental provider is attempted and their outputs merged.
//	Nothing anywhere yields nil.
func (c *Chain) Run(ctx context.Context, query string, maxResults int) *LiveContext {
	ctx, span := searchTracer.Start(ctx, "websearch.chain",
		trace.WithAttributes(attribute.Int("providers.primary", len(c.primary))))
	defer span.End()

	for _, p := range c.primary {
		lc := c.attempt(ctx, p, query, maxResults)
		if lc != nil {
			span.SetAttributes(attribute.String("provider.winner", p.Name()))
			return lc
		}
	}

	merged := &LiveContext{}
	for _, p := range c.supplemental {
		lc := c.attempt(ctx, p, query, maxResults)
		if lc == nil {
			continue
		}
		if merged.Summary == "" {
			merged.Summary = lc.Summary
		} else if lc.Summary != "" {
			merged.Summary += "\n\n" + lc.Summary
		}
		merged.Sources = append(merged.Sources, lc.Sources...)
	}
	if !merged.empty() {
		span.SetAttributes(attribute.String("provider.winner", "supplemental"))
		return merged
	}

	chainExhausted.Inc()
	span.SetAttributes(attribute.Bool("chain.exhausted", true))
	c.logger.Warn("web search chain exhausted", "query_len", len(query))
	return nil
}

func (c *Chain) attempt(ctx context.Context, p Provider, query string, maxResults int) *LiveContext {
	lc, err := p.Search(ctx, query, maxResults)
	switch {
	case err != nil:
		providerAttempts.WithLabelValues(p.Name(), "error").Inc()
		c.logger.Warn("search provider failed", "provider", p.Name(), "error", err)
		return nil
	case lc == nil || lc.empty():
		providerAttempts.WithLabelValues(p.Name(), "empty").Inc()
		return nil
	default:
		providerAttempts.WithLabelValues(p.Name(), "hit").Inc()
		return lc
	}
}
