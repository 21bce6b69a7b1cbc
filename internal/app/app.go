// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package app builds the object graph shared by the API server and the operator
CLI: storage, the CRM and marketplace clients, the taxonomy, the publish
service and the scheduler.

All wiring is explicit constructor injection. [New] connects to every
backing service; [App.Close] releases them in reverse order.
*/
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/autolist/internal/core/advert"
	"github.com/taibuivan/autolist/internal/core/marketplace"
	"github.com/taibuivan/autolist/internal/core/photo"
	"github.com/taibuivan/autolist/internal/core/publish"
	"github.com/taibuivan/autolist/internal/core/record"
	"github.com/taibuivan/autolist/internal/core/reference"
	"github.com/taibuivan/autolist/internal/core/scheduler"
	"github.com/taibuivan/autolist/internal/core/taxonomy"
	"github.com/taibuivan/autolist/internal/core/vehicle"
	"github.com/taibuivan/autolist/internal/platform/clock"
	"github.com/taibuivan/autolist/internal/platform/config"
	"github.com/taibuivan/autolist/internal/platform/objectstore"
	pgstore "github.com/taibuivan/autolist/internal/platform/postgres"
	redisstore "github.com/taibuivan/autolist/internal/platform/redis"
	"github.com/taibuivan/autolist/internal/platform/tracing"
)

// App is the wired service.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Pool  *pgxpool.Pool
	Redis *goredis.Client

	Market    *marketplace.Client
	Schemas   *record.SchemaCache
	Resolver  *taxonomy.Resolver
	Publisher *publish.Service
	Scheduler *scheduler.Scheduler

	closers []func(context.Context)
}

// New connects to Postgres, Redis and object storage, loads the taxonomy
// snapshot and wires the core. The caller must call [App.Close].
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	// ── Tracing ───────────────────────────────────────────────────────────
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.onClose(func(ctx context.Context) {
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("tracing_shutdown_failed", slog.Any("error", err))
		}
	})

	// ── PostgreSQL ────────────────────────────────────────────────────────
	a.Pool, err = pgstore.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.onClose(func(context.Context) {
		logger.Info("closing postgres pool")
		a.Pool.Close()
	})

	// ── Redis (optional: dependent option cache) ──────────────────────────
	if cfg.RedisURL != "" {
		a.Redis, err = redisstore.NewClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.onClose(func(context.Context) {
			logger.Info("closing redis client")
			if cerr := a.Redis.Close(); cerr != nil {
				logger.Error("redis close error", slog.Any("error", cerr))
			}
		})
	}

	// ── Draft store ───────────────────────────────────────────────────────
	drafts, err := a.draftStore(ctx)
	if err != nil {
		return nil, err
	}

	clk := clock.System{}

	// ── CRM side: records, metadata, reference labels ─────────────────────
	records := record.NewPostgresRepository(a.Pool)
	a.Schemas = record.NewSchemaCache(record.NewPostgresMetadataRepository(a.Pool), cfg.CRM.EntityKey, cfg.CRM.MetadataTTL, clk, logger)
	labels := reference.NewCache(
		reference.NewPostgresRepository(a.Pool),
		reference.NewCRMLookup(cfg.CRM.WebhookURL, cfg.CRM.RequestTimeout),
		logger,
	)

	describer, err := vehicle.NewDescriber(cfg.Taxonomy.DescriptionTemplatePath)
	if err != nil {
		return nil, fmt.Errorf("load description template: %w", err)
	}
	normalizer := vehicle.NewNormalizer(cfg.Fields, a.Schemas, labels, describer, cfg.CRM.WebhookURL, logger)

	// ── Marketplace side: client, taxonomy, photos ────────────────────────
	a.Market = marketplace.NewClient(cfg.Marketplace, logger)

	tables, err := taxonomy.LoadTables(cfg.Taxonomy.AliasPath)
	if err != nil {
		return nil, fmt.Errorf("load alias tables: %w", err)
	}
	dependents := taxonomy.NewDependentCache(a.Market, a.Redis, cfg.Taxonomy.DependentTTL, logger)
	a.Resolver = taxonomy.NewResolver(tables, dependents, a.Market, cfg.Taxonomy.SnapshotPath, logger)
	if err := a.Resolver.Load(ctx, cfg.Taxonomy.RefreshOnStart); err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}

	photos := photo.NewPipeline(photo.NewHTTPFetcher(cfg.CRM.RequestTimeout).WithMaxBytes(cfg.CRM.PhotoMaxBytes), a.Market, logger)

	// ── Publish service and scheduler ─────────────────────────────────────
	a.Publisher = publish.NewService(publish.Dependencies{
		Records:    records,
		States:     publish.NewPostgresRepository(a.Pool),
		Normalizer: normalizer,
		Resolver:   a.Resolver,
		Photos:     photos,
		Builder:    advert.NewBuilder(cfg.Marketplace),
		Market:     a.Market,
		Drafts:     drafts,
		Clock:      clk,
		Logger:     logger,
	}, cfg.Eligibility, cfg.Fields.Photos, cfg.Scheduler.DraftOnly)

	a.Scheduler, err = scheduler.New(cfg.Scheduler, a.Publisher, clk, logger)
	if err != nil {
		return nil, err
	}

	return a, nil
}

func (a *App) draftStore(ctx context.Context) (publish.DraftStore, error) {
	if a.Config.Drafts.Backend != "s3" {
		return publish.NewLocalDrafts(a.Config.Drafts.Dir), nil
	}

	bucket, err := objectstore.Open(ctx, objectstore.Options{
		Endpoint:  a.Config.S3Endpoint,
		Region:    a.Config.S3Region,
		Bucket:    a.Config.S3Bucket,
		AccessKey: a.Config.S3AccessKey,
		SecretKey: a.Config.S3SecretKey,
		UseSSL:    a.Config.S3UseSSL,
	}, a.Logger)
	if err != nil {
		return nil, fmt.Errorf("open draft bucket: %w", err)
	}
	return publish.NewBucketDrafts(bucket), nil
}

func (a *App) onClose(fn func(context.Context)) {
	a.closers = append(a.closers, fn)
}

// Close releases every connection, last opened first.
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i](ctx)
	}
	a.closers = nil
}
