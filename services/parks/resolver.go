// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package parks

import (
	"strings"

	"github.com/AleutianAI/ParkPulse/services/textnorm"
)

// ResolveParkID maps a free-text park reference to a canonical park ID.
//
// Description:
//
//	Normalizes the input, attempts a direct lookup of the whole normalized
//	string against canonical park names, then scans the ordered alias rules
//	matching each alias as a substring of the normalized text. The first
//	matching rule wins; rule order is the park_aliases.yaml order and is
//	significant, since several abbreviations can validly co-occur in one
//	utterance.
//
// Inputs:
//
//	text - Free-text park reference or a longer utterance containing one.
//
// Outputs:
//
//	int - The canonical park ID. Zero when not found.
//	bool - False when no canonical name or alias matched. Callers decide
//	       the fallback (typically: search every known park).
//
// Thread Safety: Safe for concurrent use (read-only tables).
func (c *Catalog) ResolveParkID(text string) (int, bool) {
	norm := textnorm.Normalize(text)
	if norm == "" {
		return 0, false
	}

	if id, ok := c.byName[norm]; ok {
		return id, true
	}

	for _, rule := range c.aliases {
		if strings.Contains(norm, rule.alias) {
			return rule.parkID, true
		}
	}
	return 0, false
}
