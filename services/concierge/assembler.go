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
	"fmt"
	"strings"

	"github.com/AleutianAI/ParkPulse/services/intent"
	"github.com/AleutianAI/ParkPulse/services/waits"
	"github.com/AleutianAI/ParkPulse/services/websearch"
)

// =============================================================================
// Context Assembly
// =============================================================================

// Field limits for the assembled context block. Free text from upstream
// (ride names, search summaries, page titles) is clamped before inclusion
// so one oversized payload cannot blow up the prompt.
const (
	maxNameChars    = 120
	maxURLChars     = 300
	maxSnippetChars = 400
	maxSummaryChars = 1500
)

// primingStatement tells the model the context below was already fetched
// on its behalf. Without it, models routinely answer "I cannot browse the
// web" even when handed live results.
const primingStatement = "You are a theme-park concierge. Any live data below " +
	"was pre-fetched for you just now; treat it as current and do not claim " +
	"you are unable to browse the web or access real-time information."

// citeInstruction closes the block whenever any context was supplied.
const citeInstruction = "When you use the live data above, mention where it " +
	"came from (ride wait board or the listed sources)."

// clamp truncates s to at most max characters. Clamping is byte-oriented;
// a rune split at the boundary is acceptable for prompt text.
func clamp(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// AssembleContext renders the intent decision plus whatever live data was
// gathered into one instructional text block for the system message.
//
// Description:
//
//	Layout, in order: priming statement; ride-waits section (one line per
//	ride, "parkName — rideName: N min (status) (updated T)"); web section
//	(summary, then an enumerated source list "i. title — url"); closing
//	citation instruction. Sections with no data are omitted entirely, and
//	with no data at all only the priming statement remains.
//
// Inputs:
//   - dec: The classifier decision for the utterance.
//   - waitResults: Matched ride waits, possibly nil.
//   - live: Web search context, possibly nil.
//
// Outputs:
//   - string: The assembled block. Never empty.
//
// Thread Safety: Pure function, safe for concurrent use.
func AssembleContext(dec intent.Decision, waitResults []waits.RideWait, live *websearch.LiveContext) string {
	var b strings.Builder
	b.WriteString(primingStatement)

	hasContext := false

	if len(waitResults) > 0 {
		hasContext = true
		b.WriteString("\n\nCurrent ride wait times:\n")
		for _, rw := range waitResults {
			b.WriteString(formatWaitLine(rw))
			b.WriteByte('\n')
		}
	}

	if live != nil {
		if live.Summary != "" {
			hasContext = true
			b.WriteString("\n\nWeb context for \"")
			b.WriteString(clamp(dec.EffectiveQuery, maxNameChars))
			b.WriteString("\":\n")
			b.WriteString(clamp(live.Summary, maxSummaryChars))
			b.WriteByte('\n')
		}
		if len(live.Sources) > 0 {
			hasContext = true
			if live.Summary == "" {
				b.WriteString("\n\nWeb context for \"")
				b.WriteString(clamp(dec.EffectiveQuery, maxNameChars))
				b.WriteString("\":\n")
			}
			b.WriteString("Sources:\n")
			for i, src := range live.Sources {
				fmt.Fprintf(&b, "%d. %s — %s\n",
					i+1, clamp(src.Title, maxNameChars), clamp(src.URL, maxURLChars))
			}
		}
	}

	if hasContext {
		b.WriteString("\n")
		b.WriteString(citeInstruction)
	}

	return b.String()
}

// formatWaitLine renders one matched ride as a context line.
// Absent wait reads as "wait unknown"; absent status is treated as open
// and omitted from the line.
func formatWaitLine(rw waits.RideWait) string {
	var b strings.Builder
	b.WriteString(clamp(rw.ParkName, maxNameChars))
	b.WriteString(" — ")
	b.WriteString(clamp(rw.RideName, maxNameChars))
	b.WriteString(": ")

	if rw.WaitMinutes != nil && *rw.WaitMinutes >= 0 {
		fmt.Fprintf(&b, "%d min", *rw.WaitMinutes)
	} else {
		b.WriteString("wait unknown")
	}

	if rw.IsOpen != nil && !*rw.IsOpen {
		b.WriteString(" (closed)")
	}

	if rw.LastUpdated != nil {
		fmt.Fprintf(&b, " (updated %s)", rw.LastUpdated.UTC().Format("15:04 MST"))
	}

	return b.String()
}
