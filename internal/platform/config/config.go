// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Each component receives only its own section (Marketplace, Scheduler, ...).
  - Zero Hidden State: No global variables are used to store config.

Defaults mirror the production deployment: the CRM field keys, the marketplace
category tree and the publishing window.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the autolist service and CLI.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis). Empty disables the dependent-option cache.
	RedisURL string `env:"REDIS_URL"`

	// DatabaseMaxConns caps the pgx pool; workers run sequentially so a few suffice.
	DatabaseMaxConns int32 `env:"DATABASE_MAX_CONNS" envDefault:"10"`

	// Object Storage (S3-compatible), used by the draft store
	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION"   envDefault:"auto"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3AccessKey string `env:"S3_ACCESS_KEY"`
	S3SecretKey string `env:"S3_SECRET_KEY"`
	S3UseSSL    bool   `env:"S3_USE_SSL"  envDefault:"true"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	CRM         CRM         `envPrefix:"CRM_"`
	Marketplace Marketplace `envPrefix:"MARKETPLACE_"`
	Fields      Fields      `envPrefix:"FIELD_"`
	Eligibility Eligibility `envPrefix:"ELIGIBLE_"`
	Scheduler   Scheduler   `envPrefix:"SCHEDULER_"`
	Taxonomy    Taxonomy    `envPrefix:"TAXONOMY_"`
	Drafts      Drafts      `envPrefix:"DRAFT_"`
	Tracing     Tracing     `envPrefix:"OTEL_"`
}

// CRM configures the system of record: its REST webhook and the mirrored entity.
type CRM struct {
	WebhookURL     string        `env:"WEBHOOK_URL"`
	EntityKey      string        `env:"ENTITY_KEY"      envDefault:"sp:1114"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// PhotoMaxBytes caps one photo download; bigger files are refused, never cut.
	PhotoMaxBytes int64 `env:"PHOTO_MAX_BYTES" envDefault:"20971520"`

	// MetadataTTL bounds how long a loaded field schema is reused before reloading.
	MetadataTTL time.Duration `env:"METADATA_TTL" envDefault:"15m"`
}

// Marketplace configures the partner API and the category every advert is filed under.
type Marketplace struct {
	BaseURL        string        `env:"BASE_URL"        envDefault:"https://partners-api.999.md"`
	Token          string        `env:"TOKEN"`
	CategoryID     string        `env:"CATEGORY_ID"     envDefault:"658"`
	SubcategoryID  string        `env:"SUBCATEGORY_ID"  envDefault:"659"`
	OfferType      string        `env:"OFFER_TYPE"      envDefault:"776"`
	Lang           string        `env:"LANG"            envDefault:"ru"`
	AccessPolicy   string        `env:"ACCESS_POLICY"   envDefault:"public"`
	ContactPhone   string        `env:"CONTACT_PHONE"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Outbound request pacing (token bucket)
	RequestsPerSecond float64 `env:"RPS"   envDefault:"2"`
	Burst             int     `env:"BURST" envDefault:"4"`
}

// Fields maps canonical vehicle attributes onto CRM record keys.
//
// Body, fuel, engine, drive and transmission are located by metadata title
// instead (see the vehicle package), because their keys differ between pipelines.
type Fields struct {
	Title   string `env:"TITLE"   envDefault:"title"`
	Brand   string `env:"BRAND"   envDefault:"ufCrm34_1748347910"`
	Model   string `env:"MODEL"   envDefault:"ufCrm34_1748431620"`
	Year    string `env:"YEAR"    envDefault:"ufCrm34_1748347979"`
	Price   string `env:"PRICE"   envDefault:"ufCrm34_1756980662"`
	Mileage string `env:"MILEAGE" envDefault:"ufCrm34_1748431531"`
	Link    string `env:"LINK"    envDefault:"ufCrm34_1756926228375"`
	Photos  string `env:"PHOTOS"  envDefault:"ufCrm34_1756897294"`

	// PriceUnit is the currency assumed for every CRM price.
	PriceUnit string `env:"PRICE_UNIT" envDefault:"eur"`
}

// Eligibility configures which records may be published.
type Eligibility struct {
	CategoryID     string        `env:"CATEGORY_ID"     envDefault:"111"`
	Stages         []string      `env:"STAGES"          envDefault:"DT1114_111:UC_83N1DP,DT1114_111:UC_8NMLNS,DT1114_111:UC_7R6IQX"`
	TerminalStages []string      `env:"TERMINAL_STAGES" envDefault:"DT1114_111:SUCCESS,DT1114_111:FAIL"`
	Required       []string      `env:"REQUIRED"        envDefault:"ufCrm34_1748347910,ufCrm34_1748431620,ufCrm34_1748347979,ufCrm34_1756980662,ufCrm34_1748431531"`
	MinPhotos      int           `env:"MIN_PHOTOS"      envDefault:"5"`
	MaxPhotos      int           `env:"MAX_PHOTOS"      envDefault:"10"`
	MaxAge         time.Duration `env:"MAX_AGE"         envDefault:"336h"`
}

// Scheduler configures the background workers.
type Scheduler struct {
	Enabled   bool   `env:"ENABLED"    envDefault:"true"`
	DraftOnly bool   `env:"DRAFT_ONLY" envDefault:"false"`
	Timezone  string `env:"TIMEZONE"   envDefault:"Europe/Chisinau"`

	// Daily publishing window, hours in [WindowStart, WindowEnd).
	WindowStart int `env:"WINDOW_START" envDefault:"9"`
	WindowEnd   int `env:"WINDOW_END"   envDefault:"21"`

	PollInterval  time.Duration `env:"POLL_INTERVAL"   envDefault:"10m"`
	SteadyPerHour int           `env:"STEADY_PER_HOUR" envDefault:"0"`

	CatchupEnabled  bool          `env:"CATCHUP_ENABLED"  envDefault:"false"`
	CatchupInterval time.Duration `env:"CATCHUP_INTERVAL" envDefault:"5m"`
	CatchupPerHour  int           `env:"CATCHUP_PER_HOUR" envDefault:"2"`

	ResyncEnabled  bool          `env:"RESYNC_ENABLED"  envDefault:"true"`
	ResyncInterval time.Duration `env:"RESYNC_INTERVAL" envDefault:"30m"`
	ResyncBatch    int           `env:"RESYNC_BATCH"    envDefault:"20"`

	HideEnabled  bool          `env:"HIDE_ENABLED"  envDefault:"true"`
	HideInterval time.Duration `env:"HIDE_INTERVAL" envDefault:"15m"`
	HideBatch    int           `env:"HIDE_BATCH"    envDefault:"50"`

	// Cooldown parks a failed candidate before it can be selected again.
	Cooldown time.Duration `env:"COOLDOWN" envDefault:"1h"`
}

// Taxonomy configures the marketplace catalog snapshot and alias tables.
type Taxonomy struct {
	SnapshotPath   string        `env:"SNAPSHOT_PATH"    envDefault:"./data/taxonomy/features.json"`
	AliasPath      string        `env:"ALIAS_PATH"`
	DependentTTL   time.Duration `env:"DEPENDENT_TTL"    envDefault:"24h"`
	RefreshOnStart bool          `env:"REFRESH_ON_START" envDefault:"false"`

	// DescriptionTemplatePath overrides the built-in bilingual description template.
	DescriptionTemplatePath string `env:"DESCRIPTION_TEMPLATE_PATH"`
}

// Drafts configures where payloads are kept when the marketplace refuses them
// for lack of balance, or when running in draft-only mode.
type Drafts struct {
	Backend string `env:"BACKEND" envDefault:"local"`
	Dir     string `env:"DIR"     envDefault:"./data/drafts"`
}

// Tracing configures the OpenTelemetry exporter ("none", "stdout", "otlphttp").
type Tracing struct {
	Exporter string `env:"EXPORTER" envDefault:"none"`
	Endpoint string `env:"ENDPOINT" envDefault:"http://localhost:4318"`
	Insecure bool   `env:"INSECURE" envDefault:"true"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// validate rejects combinations that parse but cannot work.
func (c *Config) validate() error {
	if c.Eligibility.MinPhotos < 1 || c.Eligibility.MaxPhotos < c.Eligibility.MinPhotos {
		return fmt.Errorf("invalid photo bounds [%d, %d]", c.Eligibility.MinPhotos, c.Eligibility.MaxPhotos)
	}
	if c.Scheduler.WindowStart < 0 || c.Scheduler.WindowEnd > 24 || c.Scheduler.WindowStart >= c.Scheduler.WindowEnd {
		return fmt.Errorf("invalid scheduler window [%d, %d)", c.Scheduler.WindowStart, c.Scheduler.WindowEnd)
	}
	switch c.Marketplace.AccessPolicy {
	case "public", "private":
	default:
		return fmt.Errorf("access policy must be public or private, got %q", c.Marketplace.AccessPolicy)
	}
	switch c.Drafts.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("draft backend must be local or s3, got %q", c.Drafts.Backend)
	}
	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the comma separated EXTRA_ORIGINS list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
