// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package concierge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/ParkPulse/services/datatypes"
	"github.com/AleutianAI/ParkPulse/services/intent"
	"github.com/AleutianAI/ParkPulse/services/llm"
	"github.com/AleutianAI/ParkPulse/services/parks"
	"github.com/AleutianAI/ParkPulse/services/waits"
	"github.com/AleutianAI/ParkPulse/services/websearch"
)

// fakeChat records the conversation it was handed and returns a canned
// reply, standing in for the model backend.
type fakeChat struct {
	lastMessages []datatypes.Message
	reply        string
	err          error
}

func (f *fakeChat) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	return f.Chat(ctx, []datatypes.Message{{Role: "user", Content: prompt}}, params)
}

func (f *fakeChat) Chat(_ context.Context, messages []datatypes.Message, _ llm.GenerationParams) (string, error) {
	f.lastMessages = messages
	return f.reply, f.err
}

// newWaitsUpstream serves queue_times payloads per park ID; parks absent
// from the map return 503.
func newWaitsUpstream(t *testing.T, payloads map[int]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 3 || parts[0] != "parks" || parts[2] != "queue_times.json" {
			http.NotFound(w, r)
			return
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			http.NotFound(w, r)
			return
		}
		body, ok := payloads[id]
		if !ok {
			http.Error(w, "park unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
}

func queuePayload(rides ...string) string {
	return `{"lands":[{"name":"Main","rides":[` + strings.Join(rides, ",") + `]}],"rides":[]}`
}

func queueRide(id int, name string, wait int, open bool) string {
	return fmt.Sprintf(`{"id":%d,"name":%q,"wait_time":%d,"is_open":%t,"last_updated":"2026-08-30T15:04:05Z"}`,
		id, name, wait, open)
}

func newTestService(t *testing.T, upstreamURL string, chat llm.ChatClient, search *websearch.Chain) *Service {
	t.Helper()
	catalog := parks.MustLoad()
	client := waits.NewClient(upstreamURL, slog.Default())
	fetcher := waits.NewFetcher(client, waits.NewMemoryStore(time.Minute), slog.Default())
	agg := waits.NewAggregator(catalog, fetcher, slog.Default())
	classifier := intent.NewClassifier(nil, catalog)
	return NewService(classifier, agg, search, chat, slog.Default())
}

func TestAnswer_WaitQuestionEndToEnd(t *testing.T) {
	server := newWaitsUpstream(t, map[int]string{
		6: queuePayload(queueRide(101, "Space Mountain", 35, true)),
	})
	defer server.Close()

	chat := &fakeChat{reply: "The wait is about 35 minutes."}
	svc := newTestService(t, server.URL, chat, nil)

	reply, err := svc.Answer(context.Background(), ChatRequest{
		Messages: []datatypes.Message{
			{Role: "user", Content: "what's the wait for Space Mountain"},
		},
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if reply != "The wait is about 35 minutes." {
		t.Errorf("reply = %q, model response must pass through verbatim", reply)
	}

	if len(chat.lastMessages) != 2 {
		t.Fatalf("conversation length = %d, want 2 (system + user)", len(chat.lastMessages))
	}
	system := chat.lastMessages[0]
	if system.Role != "system" {
		t.Errorf("first message role = %q, want system", system.Role)
	}
	if !strings.Contains(system.Content, "Magic Kingdom — Space Mountain: 35 min") {
		t.Errorf("system message missing wait snippet:\n%s", system.Content)
	}
	if strings.Contains(system.Content, "Web context") {
		t.Errorf("no recency keyword was present; web section must be absent:\n%s", system.Content)
	}
	if chat.lastMessages[1].Content != "what's the wait for Space Mountain" {
		t.Error("original conversation must follow the system message unchanged")
	}
}

func TestAnswer_ParkHintFallsBackToSnapshot(t *testing.T) {
	server := newWaitsUpstream(t, map[int]string{
		5: queuePayload(
			queueRide(1, "Test Track", 45, true),
			queueRide(2, "Soarin'", 30, true),
		),
	})
	defer server.Close()

	chat := &fakeChat{reply: "ok"}
	svc := newTestService(t, server.URL, chat, nil)

	_, err := svc.Answer(context.Background(), ChatRequest{
		Messages: []datatypes.Message{
			{Role: "user", Content: "how long are the lines at epcot right now"},
		},
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	system := chat.lastMessages[0].Content
	if !strings.Contains(system, "Epcot — Test Track: 45 min") {
		t.Errorf("snapshot fallback missing from context:\n%s", system)
	}
	if !strings.Contains(system, "Epcot — Soarin': 30 min") {
		t.Errorf("snapshot fallback missing second ride:\n%s", system)
	}
}

func TestAnswer_ForceSearchWithoutProviderFails(t *testing.T) {
	chat := &fakeChat{reply: "unused"}
	svc := newTestService(t, "http://127.0.0.1:0", chat, nil)

	_, err := svc.Answer(context.Background(), ChatRequest{
		Messages:    []datatypes.Message{{Role: "user", Content: "anything at all"}},
		ForceSearch: true,
	})
	if !errors.Is(err, ErrNoSearchProvider) {
		t.Fatalf("err = %v, want ErrNoSearchProvider", err)
	}
}

func TestAnswer_KeywordSearchWithoutProviderDegrades(t *testing.T) {
	chat := &fakeChat{reply: "best effort answer"}
	svc := newTestService(t, "http://127.0.0.1:0", chat, nil)

	reply, err := svc.Answer(context.Background(), ChatRequest{
		Messages: []datatypes.Message{
			{Role: "user", Content: "what are the latest park announcements"},
		},
	})
	if err != nil {
		t.Fatalf("keyword-triggered search with no provider must degrade, got: %v", err)
	}
	if reply != "best effort answer" {
		t.Errorf("reply = %q", reply)
	}
}

func TestAnswer_SearchContextInjected(t *testing.T) {
	provider := &stubServiceProvider{
		lc: &websearch.LiveContext{
			Summary: "Epic Universe opened in 2025.",
			Sources: []websearch.Result{{Title: "News", URL: "https://example.com/news"}},
		},
	}
	chain := websearch.NewChainWithProviders([]websearch.Provider{provider}, nil, slog.Default())

	chat := &fakeChat{reply: "ok"}
	svc := newTestService(t, "http://127.0.0.1:0", chat, chain)

	_, err := svc.Answer(context.Background(), ChatRequest{
		Messages: []datatypes.Message{
			{Role: "user", Content: "search: when did epic universe open"},
		},
	})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	system := chat.lastMessages[0].Content
	if !strings.Contains(system, "Epic Universe opened in 2025.") {
		t.Errorf("web summary missing from context:\n%s", system)
	}
	if !strings.Contains(system, "1. News — https://example.com/news") {
		t.Errorf("source list missing from context:\n%s", system)
	}
	if strings.Contains(system, "search:") {
		t.Errorf("marker prefix must be stripped from the effective query:\n%s", system)
	}
}

func TestAnswer_ModelErrorWrapped(t *testing.T) {
	chat := &fakeChat{err: errors.New("backend down")}
	svc := newTestService(t, "http://127.0.0.1:0", chat, nil)

	_, err := svc.Answer(context.Background(), ChatRequest{
		Messages: []datatypes.Message{{Role: "user", Content: "hello there"}},
	})
	if err == nil {
		t.Fatal("expected error when the model backend fails")
	}
	if !strings.Contains(err.Error(), "concierge: model backend") {
		t.Errorf("error should be wrapped with package context, got: %v", err)
	}
}

func TestLastUserMessage(t *testing.T) {
	msgs := []datatypes.Message{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "reply"},
		{Role: "user", Content: "second"},
	}
	if got := lastUserMessage(msgs); got != "second" {
		t.Errorf("lastUserMessage = %q, want second", got)
	}
	if got := lastUserMessage(nil); got != "" {
		t.Errorf("lastUserMessage(nil) = %q, want empty", got)
	}
}

type stubServiceProvider struct {
	lc *websearch.LiveContext
}

func (s *stubServiceProvider) Name() string { return "stub" }

func (s *stubServiceProvider) Search(context.Context, string, int) (*websearch.LiveContext, error) {
	return s.lc, nil
}
