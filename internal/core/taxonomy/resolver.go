// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package taxonomy maps listing attributes onto marketplace option ids.

Resolution order for an option feature:

 1. the alias table (YAML, built in, overridable by file);
 2. a fuzzy match against the catalog options ([MatchOption]);
 3. the fallback titles of the feature;
 4. the operator default.

Brand and model have no default: a listing whose brand or model cannot be
matched is rejected.
*/
package taxonomy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/taibuivan/autolist/internal/core/advert"
	"github.com/taibuivan/autolist/internal/core/marketplace"
	"github.com/taibuivan/autolist/internal/core/vehicle"
	"github.com/taibuivan/autolist/internal/platform/apperr"
	"github.com/taibuivan/autolist/internal/platform/constants"
)

// FixedFeatures are filled from the defaults table on every advert.
var FixedFeatures = []string{"775", "593", "1761", "1763", "795", "1196", "846", constants.FeatureRegion}

// FeatureSource downloads the feature tree.
type FeatureSource interface {
	Features(ctx context.Context) (*marketplace.FeatureTree, error)
}

// Resolver resolves listing attributes against the current catalog.
//
// Thread-safety: the catalog is swapped under a lock by [Resolver.Refresh];
// every other method only reads.
type Resolver struct {
	mu      sync.RWMutex
	catalog *Catalog

	tables       *Tables
	dependents   OptionSource
	features     FeatureSource
	snapshotPath string
	logger       *slog.Logger
}

// NewResolver builds a resolver over an empty catalog; call [Resolver.Load] before use.
func NewResolver(tables *Tables, dependents OptionSource, features FeatureSource, snapshotPath string, logger *slog.Logger) *Resolver {
	return &Resolver{
		catalog:      NewCatalog(nil),
		tables:       tables,
		dependents:   dependents,
		features:     features,
		snapshotPath: snapshotPath,
		logger:       logger,
	}
}

// # Catalog lifecycle

// Load reads the snapshot file, downloading the tree when the file is missing
// or refresh is requested. A failed download falls back to the snapshot.
func (r *Resolver) Load(ctx context.Context, refresh bool) error {
	tree, err := LoadSnapshot(r.snapshotPath)
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		return err
	}

	if refresh || missing {
		_, rerr := r.Refresh(ctx)
		if rerr == nil {
			return nil
		}
		if missing {
			return fmt.Errorf("taxonomy: no snapshot at %s and download failed: %w", r.snapshotPath, rerr)
		}
		r.logger.Warn("taxonomy_refresh_failed_using_snapshot", slog.Any("error", rerr))
	}

	r.setCatalog(NewCatalog(tree))
	r.logger.Info("taxonomy_loaded", slog.String("path", r.snapshotPath), slog.Int("features", r.Catalog().Len()))
	return nil
}

// Refresh downloads the feature tree, rewrites the snapshot file and swaps the catalog.
func (r *Resolver) Refresh(ctx context.Context) (*Catalog, error) {
	tree, err := r.features.Features(ctx)
	if err != nil {
		return nil, err
	}
	if err := SaveSnapshot(r.snapshotPath, tree); err != nil {
		return nil, apperr.Internal(err)
	}

	catalog := NewCatalog(tree)
	r.setCatalog(catalog)
	r.logger.Info("taxonomy_refreshed", slog.Int("features", catalog.Len()))
	return catalog, nil
}

// Catalog returns the current catalog.
func (r *Resolver) Catalog() *Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog
}

func (r *Resolver) setCatalog(catalog *Catalog) {
	r.mu.Lock()
	r.catalog = catalog
	r.mu.Unlock()
}

// # Resolution

// ResolveOption resolves free text for an option feature: alias table first,
// then a fuzzy match on the catalog options.
func (r *Resolver) ResolveOption(featureID, text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if optionID, ok := r.tables.Alias(featureID, text); ok {
		return optionID, true
	}
	return MatchOption(r.Catalog().Options(featureID), text)
}

// ResolveBrand matches the full text, then its first word.
func (r *Resolver) ResolveBrand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if optionID, ok := r.ResolveOption(constants.FeatureBrand, text); ok {
		return optionID, true
	}
	if words := strings.Fields(text); len(words) > 1 {
		return r.ResolveOption(constants.FeatureBrand, words[0])
	}
	return "", false
}

// ResolveModel matches text among the models of a brand. When the brand has
// models but none matches, the first one is used.
func (r *Resolver) ResolveModel(ctx context.Context, brandID, text string) (string, bool, error) {
	if strings.TrimSpace(text) == "" || brandID == "" {
		return "", false, nil
	}
	options, err := r.dependents.DependentOptions(ctx, constants.FeatureBrand, brandID)
	if err != nil {
		return "", false, err
	}
	if optionID, ok := MatchOption(options, text); ok {
		return optionID, true, nil
	}
	if len(options) > 0 {
		return options[0].ID.String(), true, nil
	}
	return "", false, nil
}

// ResolveGeneration returns the first generation of a model.
func (r *Resolver) ResolveGeneration(ctx context.Context, modelID string) (string, bool, error) {
	if modelID == "" {
		return "", false, nil
	}
	options, err := r.dependents.DependentOptions(ctx, constants.FeatureModel, modelID)
	if err != nil {
		return "", false, err
	}
	if len(options) == 0 {
		return "", false, nil
	}
	return options[0].ID.String(), true, nil
}

// Resolve returns the full option set of a listing.
func (r *Resolver) Resolve(ctx context.Context, l *vehicle.Listing) (*advert.Options, error) {
	brandID, ok := r.ResolveBrand(l.Brand)
	if !ok {
		return nil, apperr.ValidationError("Brand cannot be matched to a marketplace option",
			apperr.FieldError{Field: "brand", Message: fmt.Sprintf("no option for %q", l.Brand)})
	}

	modelID, ok, err := r.ResolveModel(ctx, brandID, l.Model)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.ValidationError("Model cannot be matched to a marketplace option",
			apperr.FieldError{Field: "model", Message: fmt.Sprintf("no option for %q under brand %s", l.Model, brandID)})
	}

	options := &advert.Options{
		Brand:        brandID,
		Model:        modelID,
		Body:         r.resolveOrDefault(constants.FeatureBody, l.Attributes.Body),
		Fuel:         r.resolveOrDefault(constants.FeatureFuel, l.Attributes.Fuel),
		Drive:        r.resolveOrDefault(constants.FeatureDrive, l.Attributes.Drive),
		Transmission: r.resolveOrDefault(constants.FeatureTransmission, l.Attributes.Transmission),
		Engine:       r.resolveEngine(l.Attributes.Engine),
		Fixed:        make(map[string]string, len(FixedFeatures)),
	}

	generationID, ok, err := r.ResolveGeneration(ctx, modelID)
	switch {
	case err != nil:
		r.logger.Warn("generation_lookup_failed", slog.Int64("record_id", l.SourceID), slog.Any("error", err))
	case ok:
		options.Generation = generationID
	}

	for _, featureID := range FixedFeatures {
		if optionID := r.tables.Default(featureID); optionID != "" {
			options.Fixed[featureID] = optionID
		}
	}
	return options, nil
}

// Default returns the operator default option of a feature.
func (r *Resolver) Default(featureID string) string {
	return r.tables.Default(featureID)
}

func (r *Resolver) resolveOrDefault(featureID, text string) string {
	if optionID, ok := r.ResolveOption(featureID, text); ok {
		return optionID
	}
	if strings.TrimSpace(text) != "" {
		for _, title := range r.tables.Fallbacks(featureID) {
			if optionID, ok := MatchOption(r.Catalog().Options(featureID), title); ok {
				return optionID
			}
		}
		r.logger.Debug("option_defaulted", slog.String("feature_id", featureID), slog.String("text", text))
	}
	return r.tables.Default(featureID)
}

func (r *Resolver) resolveEngine(text string) string {
	for _, variant := range EngineVariants(text) {
		if optionID, ok := r.ResolveOption(constants.FeatureEngine, variant); ok {
			return optionID
		}
	}
	return r.tables.Default(constants.FeatureEngine)
}

// EngineVariants lists the spellings tried for an engine volume:
// "2.0" → "2.0", "2,0", "2".
func EngineVariants(text string) []string {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if text == "" {
		return nil
	}

	var out []string
	seen := map[string]bool{}
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	add(text)
	add(strings.ReplaceAll(text, ".", ","))
	if strings.Contains(text, ".") {
		add(strings.TrimRight(strings.TrimRight(text, "0"), "."))
	}
	add(strings.SplitN(text, ".", 2)[0])
	return out
}
