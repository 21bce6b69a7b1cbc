// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrLabelNotFound is recorded in a [LookupFailure] when no catalog type holds the element.
var ErrLabelNotFound = errors.New("label not found")

// FallbackCatalogTypes are tried after the type named by the field metadata.
var FallbackCatalogTypes = []string{"lists", "lists_socnet", "crm"}

// # Service Layer

// Cache resolves catalog labels through three tiers: an in-process memo, the
// Postgres label table and the CRM lookup service. Labels found upstream are
// written back to Postgres.
//
// Thread-safety: Cache is safe for concurrent use.
type Cache struct {
	repo   Repository
	lookup Lookup
	logger *slog.Logger

	mu   sync.RWMutex
	memo Labels
}

// NewCache constructs a label cache. lookup may be nil to disable upstream lookups.
func NewCache(repo Repository, lookup Lookup, logger *slog.Logger) *Cache {
	return &Cache{
		repo:   repo,
		lookup: lookup,
		logger: logger,
		memo:   Labels{},
	}
}

/*
ResolveBatch returns labels for every request it can resolve.

Description: Unresolved elements are returned as [LookupFailure] values; the
batch itself never fails. Storage errors degrade to a lookup and are logged.

Parameters:
  - ctx: context.Context
  - requests: []Request (deduplicated by key)

Returns:
  - Labels: Resolved labels
  - []LookupFailure: Elements left unresolved
*/
func (c *Cache) ResolveBatch(ctx context.Context, requests []Request) (Labels, []LookupFailure) {
	out := Labels{}
	if len(requests) == 0 {
		return out, nil
	}

	// 1. In-process memo
	var pending []Request
	queued := map[Key]struct{}{}
	c.mu.RLock()
	for _, req := range requests {
		if _, dup := queued[req.Key]; dup {
			continue
		}
		queued[req.Key] = struct{}{}
		if label, ok := c.memo[req.Key]; ok {
			out[req.Key] = label
			continue
		}
		pending = append(pending, req)
	}
	c.mu.RUnlock()

	if len(pending) == 0 {
		return out, nil
	}

	// 2. Postgres label table
	keys := make([]Key, 0, len(pending))
	for _, req := range pending {
		keys = append(keys, req.Key)
	}
	stored, err := c.repo.LoadLabels(ctx, keys)
	if err != nil {
		c.logger.Warn("reference_cache_load_failed", slog.Int("keys", len(keys)), slog.Any("error", err))
		stored = Labels{}
	}

	var missing []Request
	for _, req := range pending {
		if label, ok := stored[req.Key]; ok {
			out[req.Key] = label
			continue
		}
		missing = append(missing, req)
	}
	c.remember(stored)

	// 3. CRM lookup
	var failures []LookupFailure
	fetched := Labels{}
	for _, req := range missing {
		label, failure := c.fetch(ctx, req)
		if failure != nil {
			failures = append(failures, *failure)
			continue
		}
		fetched[req.Key] = label
		out[req.Key] = label
	}

	if len(fetched) > 0 {
		if err := c.repo.SaveLabels(ctx, fetched); err != nil {
			c.logger.Warn("reference_cache_save_failed", slog.Int("labels", len(fetched)), slog.Any("error", err))
		}
		c.remember(fetched)
	}

	return out, failures
}

// fetch tries each candidate catalog type in order; the first hit wins.
func (c *Cache) fetch(ctx context.Context, req Request) (string, *LookupFailure) {
	candidates := CandidateTypes(req.CatalogType)
	if c.lookup == nil {
		return "", &LookupFailure{Key: req.Key, Err: errors.New("lookup disabled")}
	}

	var lastErr error
	for _, catalogType := range candidates {
		label, found, err := c.lookup.Element(ctx, catalogType, req.Key)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if found && label != "" {
			return label, nil
		}
	}

	if lastErr == nil {
		lastErr = ErrLabelNotFound
	}
	return "", &LookupFailure{Key: req.Key, Tried: candidates, Err: lastErr}
}

func (c *Cache) remember(labels Labels) {
	if len(labels) == 0 {
		return
	}
	c.mu.Lock()
	for key, label := range labels {
		c.memo[key] = label
	}
	c.mu.Unlock()
}

// CandidateTypes returns the catalog types to try for an element: the declared
// type first, then the fallbacks, deduplicated with order kept.
func CandidateTypes(declared string) []string {
	out := make([]string, 0, len(FallbackCatalogTypes)+1)
	seen := map[string]struct{}{}
	for _, candidate := range append([]string{declared}, FallbackCatalogTypes...) {
		if candidate == "" {
			continue
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}
