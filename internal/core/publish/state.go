// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"context"
	"time"
)

// State is the publish record of one CRM record; the single source of
// idempotency truth. A listing id, once set, is never replaced.
type State struct {
	SourceID    int64      `json:"source_id"`
	ListingID   string     `json:"listing_id,omitempty"`
	ContentHash string     `json:"content_hash"`
	DraftRef    string     `json:"draft_ref,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	SyncedAt    time.Time  `json:"synced_at"`
	HiddenAt    *time.Time `json:"hidden_at,omitempty"`
}

// Published reports whether the marketplace holds a listing for the record.
func (s *State) Published() bool { return s != nil && s.ListingID != "" }

// Hidden reports whether the listing was switched to private.
func (s *State) Hidden() bool { return s != nil && s.HiddenAt != nil }

// Repository persists publish states.
type Repository interface {
	// Get returns the state of a record, or a NOT_FOUND error.
	Get(ctx context.Context, sourceID int64) (*State, error)

	// Upsert inserts or updates a state. An existing listing id is kept.
	Upsert(ctx context.Context, state *State) error

	// MarkSynced stores the hash of the content last sent.
	MarkSynced(ctx context.Context, sourceID int64, hash string, at time.Time) error

	// MarkHidden records that the listing was switched to private.
	MarkHidden(ctx context.Context, sourceID int64, at time.Time) error

	// ListForResync returns visible published records, least recently synced first.
	ListForResync(ctx context.Context, limit int) ([]*State, error)

	// ListHideCandidates returns visible published records whose CRM stage is one of stages.
	ListHideCandidates(ctx context.Context, stages []string, limit int) ([]*State, error)
}
