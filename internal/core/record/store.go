// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record

import (
	"context"
	"time"
)

// Repository reads source records from the CRM mirror.
type Repository interface {
	// Get returns one record, or a not-found [apperr.AppError].
	Get(context context.Context, id int64) (*Record, error)

	// ListCandidates returns records that pass the cheap, indexable part of
	// the eligibility filter, newest first. See [Criteria] for the rest.
	ListCandidates(context context.Context, query CandidateQuery) ([]*Record, error)
}

// CandidateQuery is the SQL side of the eligibility filter.
type CandidateQuery struct {
	CategoryID string
	Stages     []string
	// CreatedAfter is the recency bound; zero means unbounded.
	CreatedAfter time.Time
	// Exclude lists record ids parked after a failed attempt.
	Exclude []int64
	Limit   int
	// Offset skips rows already returned by earlier pages of the same query.
	Offset int
}

// MetadataRepository reads field descriptors for a CRM entity.
type MetadataRepository interface {
	ListMetadata(context context.Context, entityKey string) ([]RawMetadata, error)
}
