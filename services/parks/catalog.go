// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package parks holds the static park catalog and the alias resolver that
// maps free-text park references to canonical park IDs.
//
// The catalog and alias rules are versioned configuration data embedded at
// build time (parks.yaml, park_aliases.yaml) and are immutable after load.
// Extending either table is a data change, not a code change.
package parks

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/ParkPulse/services/textnorm"
)

// =============================================================================
// Embedded Catalog Configuration
// =============================================================================

//go:embed parks.yaml
var defaultParksYAML []byte

//go:embed park_aliases.yaml
var defaultParkAliasesYAML []byte

// =============================================================================
// Catalog Types and Loading
// =============================================================================

// Park is a single themed attraction venue. The ID is the canonical
// Queue-Times park identifier, assumed stable across all collaborators.
type Park struct {
	ID         int    `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Country    string `yaml:"country" json:"country"`
	ResortID   int    `yaml:"resort_id" json:"resort_id"`
	ResortName string `yaml:"resort_name" json:"resort_name"`
}

// aliasRule is one ordered alias entry from park_aliases.yaml.
type aliasRule struct {
	Alias string `yaml:"alias"`
	Park  string `yaml:"park"`
}

type catalogFile struct {
	Resorts []struct {
		ID      int    `yaml:"id"`
		Name    string `yaml:"name"`
		Country string `yaml:"country"`
		Parks   []struct {
			ID   int    `yaml:"id"`
			Name string `yaml:"name"`
		} `yaml:"parks"`
	} `yaml:"resorts"`
}

type aliasFile struct {
	Aliases []aliasRule `yaml:"aliases"`
}

// Catalog is the immutable park reference data plus the resolver tables
// derived from it.
//
// # Thread Safety
//
// Safe for concurrent use after load (immutable).
type Catalog struct {
	parks   []Park
	byID    map[int]Park
	byName  map[string]int // normalized canonical name -> park ID
	aliases []resolvedAlias
}

// resolvedAlias is an alias rule with its park reference resolved to an ID.
type resolvedAlias struct {
	alias  string // normalized alias text
	parkID int
}

var (
	cachedCatalog *Catalog
	catalogOnce   sync.Once
	catalogErr    error
)

// Load parses and caches the embedded catalog and alias tables. Returns the
// cached result on subsequent calls.
//
// # Outputs
//
//   - *Catalog: The loaded catalog. Never nil on success.
//   - error: Non-nil if YAML parsing fails or an alias references an
//     unknown park name.
//
// # Thread Safety
//
// Safe for concurrent use (uses sync.Once internally).
func Load() (*Catalog, error) {
	catalogOnce.Do(func() {
		cachedCatalog, catalogErr = parseCatalog(defaultParksYAML, defaultParkAliasesYAML)
		if catalogErr == nil {
			slog.Info("park catalog loaded",
				slog.Int("park_count", len(cachedCatalog.parks)),
				slog.Int("alias_count", len(cachedCatalog.aliases)),
			)
		}
	})
	return cachedCatalog, catalogErr
}

// MustLoad loads the catalog or panics. The embedded tables are build
// artifacts; a parse failure is a build defect, not a runtime condition.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(fmt.Sprintf("parks: loading embedded catalog: %v", err))
	}
	return c
}

// parseCatalog builds a Catalog from raw YAML tables. Split out from Load
// so tests can exercise malformed inputs without touching the sync.Once.
func parseCatalog(parksYAML, aliasesYAML []byte) (*Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(parksYAML, &cf); err != nil {
		return nil, fmt.Errorf("parks: parsing parks.yaml: %w", err)
	}
	var af aliasFile
	if err := yaml.Unmarshal(aliasesYAML, &af); err != nil {
		return nil, fmt.Errorf("parks: parsing park_aliases.yaml: %w", err)
	}

	c := &Catalog{
		byID:   make(map[int]Park),
		byName: make(map[string]int),
	}
	for _, r := range cf.Resorts {
		for _, p := range r.Parks {
			park := Park{
				ID:         p.ID,
				Name:       p.Name,
				Country:    r.Country,
				ResortID:   r.ID,
				ResortName: r.Name,
			}
			c.parks = append(c.parks, park)
			c.byID[park.ID] = park
			c.byName[textnorm.Normalize(park.Name)] = park.ID
		}
	}

	// Alias order from the YAML file is preserved exactly: multiple
	// abbreviations can co-occur in one utterance, and first match wins.
	for _, rule := range af.Aliases {
		id, ok := c.byName[textnorm.Normalize(rule.Park)]
		if !ok {
			return nil, fmt.Errorf("parks: alias %q references unknown park %q", rule.Alias, rule.Park)
		}
		c.aliases = append(c.aliases, resolvedAlias{
			alias:  textnorm.Normalize(rule.Alias),
			parkID: id,
		})
	}
	return c, nil
}

// All returns every park in catalog declaration order. The returned slice
// is a copy; callers may not mutate catalog state through it.
func (c *Catalog) All() []Park {
	out := make([]Park, len(c.parks))
	copy(out, c.parks)
	return out
}

// ByID returns the park with the given canonical ID.
func (c *Catalog) ByID(id int) (Park, bool) {
	p, ok := c.byID[id]
	return p, ok
}
