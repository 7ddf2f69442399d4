// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package intent

import (
	"testing"

	"github.com/AleutianAI/ParkPulse/services/parks"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	return NewClassifier(nil, parks.MustLoad())
}

func TestClassify_QueueKeywords(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		utterance string
		wantWaits bool
	}{
		{"what's the wait for Space Mountain", true},
		{"how long is the line for splash", true},
		{"how busy is epcot", true},
		{"how many mins for haunted mansion", true},
		{"standby for rise of the resistance", true},
		{"tell me about the history of disneyland", false},
		// "airline" must not trip the single-word "line" keyword.
		{"which airline flies to orlando", false},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			dec := c.Classify(tt.utterance, false)
			if dec.WantsWaitTimes != tt.wantWaits {
				t.Errorf("WantsWaitTimes = %v, want %v", dec.WantsWaitTimes, tt.wantWaits)
			}
		})
	}
}

func TestClassify_WebSearchSignals(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		utterance  string
		wantSearch bool
	}{
		{"what are the park hours today", true},
		{"latest epcot festival news", true},
		{"find ticket prices this weekend", true},
		{"what's the wait for Space Mountain", false},
		{"tell me a fun fact about the castle", false},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			dec := c.Classify(tt.utterance, false)
			if dec.WantsWebSearch != tt.wantSearch {
				t.Errorf("WantsWebSearch = %v, want %v", dec.WantsWebSearch, tt.wantSearch)
			}
		})
	}
}

func TestClassify_SearchMarkerStripped(t *testing.T) {
	c := newTestClassifier(t)

	dec := c.Classify("Search: best quick service at magic kingdom", false)
	if !dec.WantsWebSearch {
		t.Error("explicit marker must set WantsWebSearch")
	}
	if dec.EffectiveQuery != "best quick service at magic kingdom" {
		t.Errorf("EffectiveQuery = %q, want marker stripped", dec.EffectiveQuery)
	}
}

func TestClassify_SlashMarkerNeedsWordBoundary(t *testing.T) {
	c := newTestClassifier(t)

	dec := c.Classify("/search best snacks", false)
	if !dec.WantsWebSearch {
		t.Error("'/search ' marker must set WantsWebSearch")
	}
	if dec.EffectiveQuery != "best snacks" {
		t.Errorf("EffectiveQuery = %q, want marker stripped", dec.EffectiveQuery)
	}

	// A longer word sharing the marker prefix is not an explicit search.
	dec = c.Classify("/searchable pages are cool", false)
	if dec.WantsWebSearch {
		t.Error("'/searchable' must not trip the '/search ' marker")
	}
	if dec.EffectiveQuery != "/searchable pages are cool" {
		t.Errorf("EffectiveQuery = %q, want the utterance untouched", dec.EffectiveQuery)
	}
}

func TestClassify_ForceSearchOverride(t *testing.T) {
	c := newTestClassifier(t)

	dec := c.Classify("what's the wait for Space Mountain", true)
	if !dec.WantsWebSearch {
		t.Error("forceSearch must override the keyword heuristic")
	}
	// The queue signal is evaluated independently and still fires.
	if !dec.WantsWaitTimes {
		t.Error("WantsWaitTimes should still fire alongside forced search")
	}
}

func TestClassify_BothSignalsIndependent(t *testing.T) {
	c := newTestClassifier(t)

	dec := c.Classify("what are the waits at magic kingdom today", false)
	if !dec.WantsWaitTimes || !dec.WantsWebSearch {
		t.Errorf("decision = %+v, want both signals true", dec)
	}
}

func TestClassify_ParkHint(t *testing.T) {
	c := newTestClassifier(t)

	dec := c.Classify("space mountain at magic kingdom", false)
	mk, _ := parks.MustLoad().ResolveParkID("Magic Kingdom")
	if dec.ParkHint != mk {
		t.Errorf("ParkHint = %d, want %d (Magic Kingdom)", dec.ParkHint, mk)
	}

	dec = c.Classify("tell me a story", false)
	if dec.ParkHint != 0 {
		t.Errorf("ParkHint = %d, want 0 for no park reference", dec.ParkHint)
	}
}

func TestClassify_EffectiveQueryDefaultsToTrimmedUtterance(t *testing.T) {
	c := newTestClassifier(t)

	dec := c.Classify("  what's the wait for splash  ", false)
	if dec.EffectiveQuery != "what's the wait for splash" {
		t.Errorf("EffectiveQuery = %q, want trimmed raw utterance", dec.EffectiveQuery)
	}
}
