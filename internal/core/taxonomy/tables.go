// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultTables []byte

// FeatureTable is the alias table of one option feature.
type FeatureTable struct {
	Aliases   map[string]string `yaml:"aliases"`
	Fallbacks []string          `yaml:"fallbacks"`
}

// Tables holds the alias tables and the per-feature defaults.
type Tables struct {
	Features map[string]FeatureTable `yaml:"features"`
	Defaults map[string]string       `yaml:"defaults"`

	// sorted alias keys per feature, longest first
	order map[string][]string
}

// LoadTables parses the built-in tables and, when path is set, merges the
// file at path over them. Aliases and defaults from the file win.
func LoadTables(path string) (*Tables, error) {
	tables, err := ParseTables(defaultTables)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: built-in aliases: %w", err)
	}
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: read alias file: %w", err)
	}
	override, err := ParseTables(data)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: alias file %s: %w", path, err)
	}

	tables.merge(override)
	return tables, nil
}

// ParseTables decodes a YAML alias document.
func ParseTables(data []byte) (*Tables, error) {
	tables := &Tables{}
	if err := yaml.Unmarshal(data, tables); err != nil {
		return nil, err
	}
	if tables.Features == nil {
		tables.Features = map[string]FeatureTable{}
	}
	if tables.Defaults == nil {
		tables.Defaults = map[string]string{}
	}
	tables.index()
	return tables, nil
}

func (t *Tables) merge(other *Tables) {
	for featureID, table := range other.Features {
		current := t.Features[featureID]
		if current.Aliases == nil {
			current.Aliases = map[string]string{}
		}
		for alias, optionID := range table.Aliases {
			current.Aliases[alias] = optionID
		}
		if len(table.Fallbacks) > 0 {
			current.Fallbacks = table.Fallbacks
		}
		t.Features[featureID] = current
	}
	for featureID, optionID := range other.Defaults {
		t.Defaults[featureID] = optionID
	}
	t.index()
}

// index lowercases every alias and orders them longest first, then lexically.
func (t *Tables) index() {
	t.order = make(map[string][]string, len(t.Features))
	for featureID, table := range t.Features {
		lowered := make(map[string]string, len(table.Aliases))
		for alias, optionID := range table.Aliases {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key != "" {
				lowered[key] = strings.TrimSpace(optionID)
			}
		}
		table.Aliases = lowered
		t.Features[featureID] = table

		keys := make([]string, 0, len(lowered))
		for key := range lowered {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			li, lj := utf8.RuneCountInString(keys[i]), utf8.RuneCountInString(keys[j])
			if li != lj {
				return li > lj
			}
			return keys[i] < keys[j]
		})
		t.order[featureID] = keys
	}
}

// Alias looks text up in the alias table of a feature: exact match first, then
// substring in either direction, longest alias first.
func (t *Tables) Alias(featureID, text string) (string, bool) {
	table, ok := t.Features[featureID]
	if !ok {
		return "", false
	}
	query := strings.ToLower(strings.TrimSpace(text))
	if query == "" {
		return "", false
	}

	if optionID, ok := table.Aliases[query]; ok {
		return optionID, true
	}
	for _, alias := range t.order[featureID] {
		if strings.Contains(query, alias) || strings.Contains(alias, query) {
			return table.Aliases[alias], true
		}
	}
	return "", false
}

// Fallbacks returns the catalog titles tried last for a feature.
func (t *Tables) Fallbacks(featureID string) []string {
	return t.Features[featureID].Fallbacks
}

// Default returns the operator default option of a feature.
func (t *Tables) Default(featureID string) string {
	return t.Defaults[featureID]
}
