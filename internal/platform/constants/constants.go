// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Marketplace: Feature identifiers and accepted value ranges of the partner API.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "autolist"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	// Publishing uploads up to ten photos synchronously, hence the generous bound.
	DefaultWriteTimeout = 5 * time.Minute

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 4 * time.Minute

	// StatementTimeout bounds every SQL statement.
	StatementTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 5.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 10

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Marketplace Features

const (
	FeaturePrice        = "2"
	FeatureRegion       = "7"
	FeatureTitle        = "12"
	FeatureDescription  = "13"
	FeatureImages       = "14"
	FeaturePhone        = "16"
	FeatureYear         = "19"
	FeatureBrand        = "20"
	FeatureModel        = "21"
	FeatureTransmission = "101"
	FeatureBody         = "102"
	FeatureMileage      = "104"
	FeatureDrive        = "108"
	FeatureFuel         = "151"
	FeatureGeneration   = "2095"
	FeatureEngine       = "2553"
)

const (
	// YearMin and YearMax bound the year feature accepted by the marketplace.
	YearMin = 1990
	YearMax = 2030

	// PhoneCountryPrefix is prepended to local contact numbers.
	PhoneCountryPrefix = "373"
)

// # Access Policy

const (
	AccessPublic  = "public"
	AccessPrivate = "private"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"

	// HeaderXSyncTrigger labels who called the admin API (e.g. "crm-webhook").
	HeaderXSyncTrigger = "X-Sync-Trigger"
)

// # Database Schemas

const (
	SchemaCRM  = "crm"
	SchemaSync = "sync"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixDependentOptions = "taxonomy:dependent:"
)
