// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/taibuivan/autolist/internal/core/marketplace"
)

// Catalog indexes the marketplace feature tree by feature id.
type Catalog struct {
	tree     *marketplace.FeatureTree
	features map[string]*marketplace.Feature
}

// NewCatalog indexes tree. A nil tree yields an empty catalog.
func NewCatalog(tree *marketplace.FeatureTree) *Catalog {
	if tree == nil {
		tree = &marketplace.FeatureTree{}
	}
	catalog := &Catalog{tree: tree, features: map[string]*marketplace.Feature{}}
	for gi := range tree.Groups {
		for fi := range tree.Groups[gi].Features {
			feature := &tree.Groups[gi].Features[fi]
			if _, seen := catalog.features[feature.ID.String()]; !seen {
				catalog.features[feature.ID.String()] = feature
			}
		}
	}
	return catalog
}

// Tree returns the feature tree the catalog was built from.
func (c *Catalog) Tree() *marketplace.FeatureTree { return c.tree }

// Len returns the number of features.
func (c *Catalog) Len() int { return len(c.features) }

// Feature returns a feature by id, or nil.
func (c *Catalog) Feature(featureID string) *marketplace.Feature {
	return c.features[featureID]
}

// Options returns the options of a feature.
func (c *Catalog) Options(featureID string) []marketplace.Option {
	if feature := c.features[featureID]; feature != nil {
		return feature.Options
	}
	return nil
}

// FeatureSummary is one row of the feature → options map.
type FeatureSummary struct {
	ID      string               `json:"id"`
	Title   string               `json:"title"`
	Type    string               `json:"type,omitempty"`
	Options []marketplace.Option `json:"options,omitempty"`
}

// Summaries lists every feature ordered by numeric id.
func (c *Catalog) Summaries() []FeatureSummary {
	out := make([]FeatureSummary, 0, len(c.features))
	for id, feature := range c.features {
		out = append(out, FeatureSummary{ID: id, Title: feature.Title, Type: feature.Type, Options: feature.Options})
	}
	sort.Slice(out, func(i, j int) bool {
		a, errA := strconv.Atoi(out[i].ID)
		b, errB := strconv.Atoi(out[j].ID)
		if errA == nil && errB == nil {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// # Snapshot

// LoadSnapshot reads a feature tree saved by [SaveSnapshot].
func LoadSnapshot(path string) (*marketplace.FeatureTree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tree := &marketplace.FeatureTree{}
	if err := json.Unmarshal(data, tree); err != nil {
		return nil, fmt.Errorf("taxonomy: decode snapshot %s: %w", path, err)
	}
	return tree, nil
}

// SaveSnapshot writes tree to path, replacing the previous file atomically.
func SaveSnapshot(path string, tree *marketplace.FeatureTree) error {
	data, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("taxonomy: encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("taxonomy: snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".features-*.json")
	if err != nil {
		return fmt.Errorf("taxonomy: snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("taxonomy: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("taxonomy: write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("taxonomy: replace snapshot: %w", err)
	}
	return nil
}
