// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides clients for chat-completion model backends over
// raw net/http, without provider SDKs.
package llm

import (
	"context"

	"github.com/AleutianAI/ParkPulse/services/datatypes"
)

// GenerationParams carries optional sampling parameters for a request.
// Nil pointer fields are omitted from the wire request so the backend's
// defaults apply.
//
// Thread Safety: GenerationParams is read-only once passed to a client.
type GenerationParams struct {
	// ModelOverride selects a model other than the client default.
	ModelOverride string

	Temperature *float32
	MaxTokens   *int
	TopP        *float32
	Stop        []string
}

// ChatClient is the model backend contract the rest of the system codes
// against.
//
// Description:
//
//	Generate is single-shot: one prompt in, one completion out, with the
//	system persona applied by the client. Chat takes an explicit
//	multi-turn conversation.
//
// Thread Safety: Implementations must be safe for concurrent use.
type ChatClient interface {
	// Generate produces a completion for a single user prompt.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// Chat produces the assistant's next turn for a conversation.
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error)
}
