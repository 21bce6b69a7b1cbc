// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/autolist/internal/platform/clock"
)

// SchemaCache holds the current [Schema] of one entity and reloads it once it
// is older than the TTL. A failed reload keeps serving the previous snapshot.
//
// Thread-safety: SchemaCache is safe for concurrent use.
type SchemaCache struct {
	repo      MetadataRepository
	entityKey string
	ttl       time.Duration
	clock     clock.Clock
	logger    *slog.Logger

	mu       sync.Mutex
	schema   *Schema
	loadedAt time.Time
}

// NewSchemaCache creates an empty cache; the first Get loads the schema.
func NewSchemaCache(repo MetadataRepository, entityKey string, ttl time.Duration, clk clock.Clock, logger *slog.Logger) *SchemaCache {
	if clk == nil {
		clk = clock.System{}
	}
	return &SchemaCache{
		repo:      repo,
		entityKey: entityKey,
		ttl:       ttl,
		clock:     clk,
		logger:    logger,
	}
}

// Get returns the cached schema, reloading it when stale.
func (c *SchemaCache) Get(ctx context.Context) (*Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.schema != nil && (c.ttl <= 0 || c.clock.Now().Sub(c.loadedAt) < c.ttl) {
		return c.schema, nil
	}

	schema, err := c.load(ctx)
	if err != nil {
		if c.schema != nil {
			c.logger.Warn("schema_reload_failed_using_stale",
				slog.String("entity", c.entityKey),
				slog.Any("error", err),
			)
			return c.schema, nil
		}
		return nil, err
	}
	return schema, nil
}

// Refresh reloads the schema unconditionally.
func (c *SchemaCache) Refresh(ctx context.Context) (*Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// load must be called with mu held.
func (c *SchemaCache) load(ctx context.Context) (*Schema, error) {
	rows, err := c.repo.ListMetadata(ctx, c.entityKey)
	if err != nil {
		return nil, fmt.Errorf("record: load schema %s: %w", c.entityKey, err)
	}

	fields := make([]FieldMetadata, 0, len(rows))
	for _, row := range rows {
		fields = append(fields, ParseMetadata(row))
	}

	c.schema = NewSchema(fields)
	c.loadedAt = c.clock.Now()
	c.logger.Debug("schema_loaded", slog.String("entity", c.entityKey), slog.Int("fields", c.schema.Len()))
	return c.schema, nil
}
