// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/autolist/internal/core/marketplace"
	"github.com/taibuivan/autolist/internal/platform/constants"
)

// OptionSource lists the options that depend on a parent option.
type OptionSource interface {
	DependentOptions(ctx context.Context, dependencyFeatureID, parentOptionID string) ([]marketplace.Option, error)
}

// DependentCache keeps dependent option lists in Redis for a TTL.
//
// A Redis failure never fails a lookup; the source is asked instead.
// Empty lists are not cached.
type DependentCache struct {
	source OptionSource
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewDependentCache wraps source. A nil client disables caching.
func NewDependentCache(source OptionSource, client *redis.Client, ttl time.Duration, logger *slog.Logger) *DependentCache {
	return &DependentCache{source: source, client: client, ttl: ttl, logger: logger}
}

// DependentOptions implements [OptionSource].
func (c *DependentCache) DependentOptions(ctx context.Context, dependencyFeatureID, parentOptionID string) ([]marketplace.Option, error) {
	key := constants.RedisPrefixDependentOptions + dependencyFeatureID + ":" + parentOptionID

	if c.client != nil {
		data, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var options []marketplace.Option
			if json.Unmarshal(data, &options) == nil {
				return options, nil
			}
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("dependent_cache_read_failed", slog.String("key", key), slog.Any("error", err))
		}
	}

	options, err := c.source.DependentOptions(ctx, dependencyFeatureID, parentOptionID)
	if err != nil {
		return nil, err
	}

	if c.client != nil && len(options) > 0 {
		data, _ := json.Marshal(options)
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("dependent_cache_write_failed", slog.String("key", key), slog.Any("error", err))
		}
	}
	return options, nil
}
