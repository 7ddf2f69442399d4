// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the plain data structures shared across service
// boundaries. Keep this package dependency-free: it must be importable from
// anywhere without cycles.
package datatypes

// Message is one turn of a model conversation.
//
// Thread Safety: Message is a value type; copies are independent.
type Message struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the text of the turn.
	Content string `json:"content"`
}

// SourceInfo identifies a document cited in an answer.
type SourceInfo struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
