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

// ListedPark is one park entry in a resort directory listing.
type ListedPark struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Resort groups parks under one operating brand, in the shape the companion
// app consumes from GET /v1/parks.
type Resort struct {
	ID    int          `json:"id"`
	Name  string       `json:"name"`
	Parks []ListedPark `json:"parks"`
}

// ResortDirectory returns the static resort listing derived from the
// embedded catalog, in declaration order. Used as the fallback when the
// live upstream directory is unreachable, so the UI never breaks.
func (c *Catalog) ResortDirectory() []Resort {
	var out []Resort
	var current *Resort
	for _, p := range c.parks {
		if current == nil || current.ID != p.ResortID {
			out = append(out, Resort{ID: p.ResortID, Name: p.ResortName})
			current = &out[len(out)-1]
		}
		current.Parks = append(current.Parks, ListedPark{ID: p.ID, Name: p.Name})
	}
	return out
}
