// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command parkpulse starts the ParkPulse API server.
//
// ParkPulse answers theme-park questions with live context:
//   - Park and ride name resolution against an embedded catalog
//   - TTL-cached ride wait times from the Queue-Times upstream
//   - Multi-provider web search fallback chain
//   - Context assembly for an OpenAI-compatible chat backend
//
// Usage:
//
//	go run ./cmd/parkpulse
//	go run ./cmd/parkpulse -port 9090
//
// With a model backend:
//
//	OPENAI_API_KEY=sk-... go run ./cmd/parkpulse
//
// With the keyed search provider and persistent wait cache:
//
//	OPENAI_API_KEY=sk-... TAVILY_API_KEY=tvly-... WAITS_CACHE_DIR=~/.parkpulse/cache go run ./cmd/parkpulse
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/v1/health
//
//	# Ride wait lookup
//	curl "http://localhost:8080/v1/waits?query=space+mountain"
//
//	# Chat
//	curl -X POST http://localhost:8080/v1/chat \
//	  -H "Content-Type: application/json" \
//	  -d '{"messages": [{"role": "user", "content": "how long is the wait for Space Mountain?"}]}'
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/ParkPulse/services/concierge"
	"github.com/AleutianAI/ParkPulse/services/datatypes"
	"github.com/AleutianAI/ParkPulse/services/intent"
	"github.com/AleutianAI/ParkPulse/services/llm"
	"github.com/AleutianAI/ParkPulse/services/parks"
	"github.com/AleutianAI/ParkPulse/services/waits"
	"github.com/AleutianAI/ParkPulse/services/websearch"
)

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	if *debug {
		gin.SetMode(gin.DebugMode)
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// W3C TraceContext propagation so spans line up across services.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	shutdownTracing := setupTracing()

	catalog := parks.MustLoad()
	slog.Info("Park catalog loaded", slog.Int("parks", len(catalog.All())))

	client := waits.NewClient(os.Getenv("QUEUE_TIMES_BASE_URL"), slog.Default())
	store, closeStore := openSnapshotStore()
	fetcher := waits.NewFetcher(client, store, slog.Default())
	aggregator := waits.NewAggregator(catalog, fetcher, slog.Default())
	classifier := intent.NewClassifier(nil, catalog)

	var chain *websearch.Chain
	tavilyKey := os.Getenv("TAVILY_API_KEY")
	chain = websearch.NewChain(tavilyKey, slog.Default())
	if tavilyKey == "" {
		slog.Info("TAVILY_API_KEY not set, search chain starts at the free fallbacks")
	}

	chat := newChatClient()

	service := concierge.NewService(classifier, aggregator, chain, chat, slog.Default())
	handlers := concierge.NewHandlers(service, aggregator, client, catalog, slog.Default())

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("parkpulse"))
	if *debug {
		router.Use(gin.Logger())
	}

	v1 := router.Group("/v1")
	concierge.RegisterRoutes(v1, handlers, os.Getenv("PARKPULSE_API_TOKEN"))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	printBanner(*port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("Shutting down ParkPulse server")
		closeStore()
		shutdownTracing()
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Starting ParkPulse server", slog.String("address", addr))
	if err := router.Run(addr); err != nil {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// openSnapshotStore selects the wait-snapshot cache backend.
//
// Description:
//
//	With WAITS_CACHE_DIR set, snapshots persist in BadgerDB across
//	restarts; if Badger cannot open, the server degrades to the
//	in-memory store rather than refusing to start. TTL defaults to 60s,
//	overridable via WAITS_CACHE_TTL (seconds).
func openSnapshotStore() (waits.SnapshotStore, func()) {
	ttl := waits.DefaultSnapshotTTL
	if raw := os.Getenv("WAITS_CACHE_TTL"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			ttl = time.Duration(secs) * time.Second
		} else {
			slog.Warn("Invalid WAITS_CACHE_TTL, using default", slog.String("value", raw))
		}
	}

	dir := os.Getenv("WAITS_CACHE_DIR")
	if dir == "" {
		return waits.NewMemoryStore(ttl), func() {}
	}

	db, err := waits.OpenBadger(dir)
	if err != nil {
		slog.Warn("Badger wait cache unavailable, falling back to in-memory store",
			slog.String("path", dir),
			slog.String("error", err.Error()),
		)
		return waits.NewMemoryStore(ttl), func() {}
	}

	slog.Info("Badger wait cache opened", slog.String("path", dir), slog.Duration("ttl", ttl))
	return waits.NewBadgerStore(db, ttl, slog.Default()), func() {
		if err := db.Close(); err != nil {
			slog.Warn("Failed to close Badger wait cache", slog.String("error", err.Error()))
		}
	}
}

// setupTracing installs a stdouttrace-backed OTel provider when
// PARKPULSE_TRACE_STDOUT is set. Without it the default no-op provider
// stays in place and span creation costs nothing.
func setupTracing() func() {
	if os.Getenv("PARKPULSE_TRACE_STDOUT") == "" {
		return func() {}
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		slog.Warn("Failed to create stdout trace exporter", slog.String("error", err.Error()))
		return func() {}
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	slog.Info("Stdout trace exporter enabled")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			slog.Warn("Trace provider shutdown failed", slog.String("error", err.Error()))
		}
	}
}

// newChatClient builds the model backend, or a stub that reports the
// backend as unconfigured so the rest of the API keeps working.
func newChatClient() llm.ChatClient {
	client, err := llm.NewOpenAIClient()
	if err != nil {
		slog.Warn("Model backend not configured; /v1/chat will return 502",
			slog.String("error", err.Error()))
		return unconfiguredChat{}
	}
	return client
}

// unconfiguredChat satisfies llm.ChatClient when no backend is available.
type unconfiguredChat struct{}

func (unconfiguredChat) Generate(context.Context, string, llm.GenerationParams) (string, error) {
	return "", fmt.Errorf("llm: no model backend configured (set OPENAI_API_KEY)")
}

func (unconfiguredChat) Chat(context.Context, []datatypes.Message, llm.GenerationParams) (string, error) {
	return "", fmt.Errorf("llm: no model backend configured (set OPENAI_API_KEY)")
}

func printBanner(port int) {
	banner := `
╔═══════════════════════════════════════════════════════════════════╗
║                        PARKPULSE SERVER                           ║
╠═══════════════════════════════════════════════════════════════════╣
║                                                                   ║
║  Live theme-park context: wait times, park lookup, web search.    ║
║                                                                   ║
║  Quick Start:                                                     ║
║  ┌─────────────────────────────────────────────────────────────┐  ║
║  │ # Health check                                              │  ║
║  │ curl http://localhost:%-5d/v1/health                       │  ║
║  │                                                             │  ║
║  │ # Ride waits                                                │  ║
║  │ curl "http://localhost:%-5d/v1/waits?query=space+mountain" │  ║
║  └─────────────────────────────────────────────────────────────┘  ║
║                                                                   ║
╚═══════════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, port, port)
}
