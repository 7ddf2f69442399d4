// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package concierge orchestrates the full answer pipeline: classify the
// utterance, gather live wait-time and web context, assemble a system
// message, and forward the conversation to the model backend. It also
// carries the HTTP surface for the pipeline.
package concierge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/AleutianAI/ParkPulse/services/datatypes"
	"github.com/AleutianAI/ParkPulse/services/intent"
	"github.com/AleutianAI/ParkPulse/services/llm"
	"github.com/AleutianAI/ParkPulse/services/waits"
	"github.com/AleutianAI/ParkPulse/services/websearch"
)

// ErrNoSearchProvider is returned when the caller explicitly forced a web
// search but no provider is configured at all. This is the only gathering
// failure that surfaces to the user; everything else degrades into an
// answer with less context.
var ErrNoSearchProvider = errors.New("concierge: search forced but no search provider is configured")

// ChatRequest is the inbound conversation payload.
type ChatRequest struct {
	// Messages is the conversation so far, oldest first. The last user
	// message drives classification.
	Messages []datatypes.Message `json:"messages" binding:"required"`

	// ForceSearch overrides the classifier and demands web context.
	ForceSearch bool `json:"force_search"`
}

// Service wires the classifier, waits aggregator, search chain, and model
// client into one answer pipeline.
//
// # Thread Safety
//
// Safe for concurrent use; all collaborators are concurrent-safe and the
// Service itself holds no mutable state.
type Service struct {
	classifier *intent.Classifier
	aggregator *waits.Aggregator
	search     *websearch.Chain
	chat       llm.ChatClient
	logger     *slog.Logger
}

// NewService creates the pipeline. search may be nil when no provider is
// configured; chat must not be nil. logger may be nil.
func NewService(classifier *intent.Classifier, aggregator *waits.Aggregator,
	search *websearch.Chain, chat llm.ChatClient, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return &Service{
		classifier: classifier,
		aggregator: aggregator,
		search:     search,
		chat:       chat,
		logger:     logger,
	}
}

// Answer runs the full pipeline for one conversation turn.
//
// Description:
//
//	Classifies the last user message, gathers wait-time and web context
//	as the decision demands (each leg optional, each failure degrading
//	rather than aborting), assembles the context block as the system
//	message, and forwards the original conversation to the model. The
//	model's text comes back verbatim.
//
// Inputs:
//   - ctx: Context for cancellation and timeout.
//   - req: The conversation payload.
//
// Outputs:
//   - string: The assistant's reply.
//   - error: ErrNoSearchProvider when a forced search cannot run at all,
//     or the model backend's error. Context-gathering failures never
//     surface here.
//
// Thread Safety: Safe for concurrent use.
func (s *Service) Answer(ctx context.Context, req ChatRequest) (string, error) {
	utterance := lastUserMessage(req.Messages)
	dec := s.classifier.Classify(utterance, req.ForceSearch)

	s.logger.Debug("classified utterance",
		slog.Bool("wants_waits", dec.WantsWaitTimes),
		slog.Bool("wants_search", dec.WantsWebSearch),
		slog.Int("park_hint", dec.ParkHint),
	)

	var waitResults []waits.RideWait
	if dec.WantsWaitTimes {
		waitResults = s.gatherWaits(ctx, dec)
	}

	var live *websearch.LiveContext
	if dec.WantsWebSearch {
		if s.search == nil || !s.search.HasProviders() {
			if req.ForceSearch {
				return "", ErrNoSearchProvider
			}
			s.logger.Warn("web search wanted but no provider configured, continuing without")
		} else {
			live = s.search.Run(ctx, dec.EffectiveQuery, 0)
		}
	}

	systemMsg := datatypes.Message{Role: "system", Content: AssembleContext(dec, waitResults, live)}
	conversation := append([]datatypes.Message{systemMsg}, req.Messages...)

	reply, err := s.chat.Chat(ctx, conversation, llm.GenerationParams{})
	if err != nil {
		return "", fmt.Errorf("concierge: model backend: %w", err)
	}
	return reply, nil
}

// gatherWaits finds ride waits for the decision's query. When the query
// named a park but no specific ride matched, it falls back to that park's
// top-of-board snapshot so the answer still has something concrete.
func (s *Service) gatherWaits(ctx context.Context, dec intent.Decision) []waits.RideWait {
	results := s.aggregator.FindRideWaits(ctx, dec.EffectiveQuery)
	if len(results) > 0 || dec.ParkHint == 0 {
		return results
	}

	snaps, err := s.aggregator.ParkSnapshot(ctx, dec.ParkHint)
	if err != nil {
		s.logger.Warn("park snapshot fallback failed",
			slog.Int("park_id", dec.ParkHint), slog.Any("error", err))
		return nil
	}

	park, ok := s.aggregator.Catalog().ByID(dec.ParkHint)
	parkName := park.Name
	if !ok {
		parkName = "Unknown park"
	}

	fallback := make([]waits.RideWait, 0, len(snaps))
	for _, snap := range snaps {
		fallback = append(fallback, waits.RideWait{
			ParkID:      snap.ParkID,
			ParkName:    parkName,
			RideName:    snap.Name,
			WaitMinutes: snap.WaitMinutes,
			IsOpen:      snap.IsOpen,
			LastUpdated: snap.LastUpdated,
		})
	}
	return fallback
}

// lastUserMessage returns the content of the most recent user turn, or
// the last message of any role when no user turn exists.
func lastUserMessage(messages []datatypes.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	if len(messages) > 0 {
		return messages[len(messages)-1].Content
	}
	return ""
}
