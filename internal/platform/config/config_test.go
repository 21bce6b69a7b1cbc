// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/autolist/internal/platform/config"
)

/*
TestLoad_Defaults verifies the production defaults when only required variables are set.
*/
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/autolist")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "public", cfg.Marketplace.AccessPolicy)
	assert.Equal(t, "659", cfg.Marketplace.SubcategoryID)
	assert.Equal(t, 5, cfg.Eligibility.MinPhotos)
	assert.Equal(t, 10, cfg.Eligibility.MaxPhotos)
	assert.Equal(t, 14*24*time.Hour, cfg.Eligibility.MaxAge)
	assert.Len(t, cfg.Eligibility.Stages, 3)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.PollInterval)
	assert.Equal(t, "ufCrm34_1756897294", cfg.Fields.Photos)
	assert.Equal(t, int32(10), cfg.DatabaseMaxConns)
	assert.Empty(t, cfg.AllowedOrigins())
}

/*
TestLoad_OptionalRedis allows running without the dependent-option cache.
*/
func TestLoad_OptionalRedis(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/autolist")
	t.Setenv("REDIS_URL", "")
	t.Setenv("EXTRA_ORIGINS", " https://ops.example.com, ,https://crm.example.com")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, []string{"https://ops.example.com", "https://crm.example.com"}, cfg.AllowedOrigins())
}

/*
TestLoad_Invalid covers values that parse but cannot be used.
*/
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"photo_bounds", "ELIGIBLE_MAX_PHOTOS", "2"},
		{"window", "SCHEDULER_WINDOW_START", "22"},
		{"access_policy", "MARKETPLACE_ACCESS_POLICY", "draft"},
		{"draft_backend", "DRAFT_BACKEND", "ftp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "postgres://localhost/autolist")
			t.Setenv("REDIS_URL", "redis://localhost:6379/0")
			t.Setenv(tt.key, tt.val)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

/*
TestLoad_MissingRequired fails fast without a database URL.
*/
func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	_, err := config.Load()
	assert.Error(t, err)
}
