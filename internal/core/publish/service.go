// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package publish drives the per-record state machine between the CRM and the
marketplace.

# Entry points

  - [Service.PublishOne] creates the advert of an eligible record, once.
  - [Service.SyncOne] refreshes a published advert when its content changed.
  - [Service.HideOne] switches an advert to private when its record reached a
    terminal stage.
  - [Service.ListEligible] lists the records that may be published.

The publish state table is the only idempotency guard: a record with a listing
id is never created again, and a refresh whose content hash matches the stored
one sends nothing.
*/
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/taibuivan/autolist/internal/core/advert"
	"github.com/taibuivan/autolist/internal/core/marketplace"
	"github.com/taibuivan/autolist/internal/core/photo"
	"github.com/taibuivan/autolist/internal/core/record"
	"github.com/taibuivan/autolist/internal/core/vehicle"
	"github.com/taibuivan/autolist/internal/platform/apperr"
	"github.com/taibuivan/autolist/internal/platform/clock"
	"github.com/taibuivan/autolist/internal/platform/config"
	"github.com/taibuivan/autolist/internal/platform/constants"
	"github.com/taibuivan/autolist/internal/platform/ctxutil"
	"github.com/taibuivan/autolist/internal/platform/tracing"
)

// Action names what an attempt did.
type Action string

const (
	ActionCreated   Action = "created"
	ActionDrafted   Action = "drafted"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionHidden    Action = "hidden"
	ActionSkipped   Action = "skipped"
)

// Result is the outcome of one attempt.
type Result struct {
	SourceID  int64  `json:"source_id"`
	ListingID string `json:"listing_id,omitempty"`
	Action    Action `json:"action"`
	DraftRef  string `json:"draft_ref,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// # Collaborators

// Normalizer turns a CRM record into a listing.
type Normalizer interface {
	Normalize(ctx context.Context, r *record.Record) (*vehicle.Listing, error)
}

// OptionResolver maps a listing onto marketplace options.
type OptionResolver interface {
	Resolve(ctx context.Context, l *vehicle.Listing) (*advert.Options, error)
}

// PhotoTransfer moves photos to the marketplace.
type PhotoTransfer interface {
	Transfer(ctx context.Context, urls []string, mode photo.Mode) ([]string, error)
}

// Marketplace is the part of the partner API the service mutates.
type Marketplace interface {
	CreateAdvert(ctx context.Context, advert *marketplace.Advert) (string, error)
	UpdateAdvert(ctx context.Context, advertID string, patch *marketplace.AdvertPatch) error
	SetAccessPolicy(ctx context.Context, advertID, policy string) error
}

// Dependencies wires a [Service].
type Dependencies struct {
	Records    record.Repository
	States     Repository
	Normalizer Normalizer
	Resolver   OptionResolver
	Photos     PhotoTransfer
	Builder    *advert.Builder
	Market     Marketplace
	Drafts     DraftStore
	Clock      clock.Clock
	Logger     *slog.Logger
}

// Service implements the publish, sync and hide transitions.
type Service struct {
	records    record.Repository
	states     Repository
	normalizer Normalizer
	resolver   OptionResolver
	photos     PhotoTransfer
	builder    *advert.Builder
	market     Marketplace
	drafts     DraftStore
	clock      clock.Clock
	logger     *slog.Logger

	eligibility config.Eligibility
	criteria    record.Criteria
	draftOnly   bool
}

// NewService wires the service. photoField is the record key holding the
// attachments; draftOnly saves payloads instead of posting them.
func NewService(deps Dependencies, eligibility config.Eligibility, photoField string, draftOnly bool) *Service {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	return &Service{
		records:     deps.Records,
		states:      deps.States,
		normalizer:  deps.Normalizer,
		resolver:    deps.Resolver,
		photos:      deps.Photos,
		builder:     deps.Builder,
		market:      deps.Market,
		drafts:      deps.Drafts,
		clock:       deps.Clock,
		logger:      deps.Logger,
		eligibility: eligibility,
		criteria: record.Criteria{
			CategoryID: eligibility.CategoryID,
			Stages:     eligibility.Stages,
			Required:   eligibility.Required,
			PhotoField: photoField,
			MinPhotos:  eligibility.MinPhotos,
			MaxPhotos:  eligibility.MaxPhotos,
		},
		draftOnly: draftOnly,
	}
}

func (service *Service) log(ctx context.Context, recordID int64) *slog.Logger {
	return service.logger.With(
		slog.Int64("record_id", recordID),
		slog.String("trigger", ctxutil.GetTrigger(ctx)),
	)
}

// # Publish

/*
PublishOne creates the marketplace advert of one record.

A record that already holds a listing id is skipped. Photos are transferred
strictly before the payload is built, so a failed photo leaves no trace. When
the marketplace refuses the advert for lack of balance the payload is kept in
the draft store and the record is marked as drafted instead of failing.
*/
func (service *Service) PublishOne(ctx context.Context, recordID int64) (result *Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "publish.PublishOne", attribute.Int64("record.id", recordID))
	defer func() { tracing.End(span, err) }()

	logger := service.log(ctx, recordID)

	state, err := service.existingState(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if state.Published() {
		logger.Debug("publish_skipped_existing", slog.String("listing_id", state.ListingID))
		return &Result{SourceID: recordID, ListingID: state.ListingID, Action: ActionSkipped, Reason: "already published"}, nil
	}

	rec, err := service.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if reasons := service.criteria.Check(rec); len(reasons) > 0 {
		details := make([]apperr.FieldError, len(reasons))
		for i, reason := range reasons {
			details[i] = apperr.FieldError{Field: "record", Message: reason}
		}
		return nil, apperr.ValidationError("Record is not eligible for publishing", details...)
	}

	listing, err := service.normalizer.Normalize(ctx, rec)
	if err != nil {
		return nil, err
	}
	options, err := service.resolver.Resolve(ctx, listing)
	if err != nil {
		return nil, err
	}

	photoIDs, err := service.photos.Transfer(ctx, listing.Photos, photo.Strict)
	if err != nil {
		logger.Warn("publish_photos_failed", slog.Any("error", err))
		return nil, err
	}

	payload, err := service.builder.Build(listing, options, photoIDs)
	if err != nil {
		return nil, err
	}
	hash := advert.ContentHash(listing)

	if service.draftOnly {
		return service.saveDraft(ctx, logger, recordID, payload, hash, "draft-only mode")
	}

	listingID, err := service.market.CreateAdvert(ctx, payload)
	if err != nil {
		if marketplace.IsInsufficientBalance(err) {
			logger.Warn("publish_insufficient_balance")
			return service.saveDraft(ctx, logger, recordID, payload, hash, "insufficient balance")
		}
		logger.Warn("publish_create_failed", slog.Any("error", err))
		return nil, err
	}

	// The policy is part of the payload; the explicit call makes it stick on
	// accounts where the create endpoint ignores it.
	if err := service.market.SetAccessPolicy(ctx, listingID, service.builder.AccessPolicy()); err != nil {
		logger.Warn("access_policy_failed", slog.String("listing_id", listingID), slog.Any("error", err))
	}

	now := service.clock.Now()
	if err := service.states.Upsert(ctx, &State{
		SourceID:    recordID,
		ListingID:   listingID,
		ContentHash: hash,
		CreatedAt:   now,
		SyncedAt:    now,
	}); err != nil {
		logger.Error("publish_state_lost", slog.String("listing_id", listingID), slog.Any("error", err))
		return nil, err
	}

	logger.Info("publish_created", slog.String("listing_id", listingID), slog.Int("photos", len(photoIDs)))
	return &Result{SourceID: recordID, ListingID: listingID, Action: ActionCreated}, nil
}

func (service *Service) saveDraft(ctx context.Context, logger *slog.Logger, recordID int64, payload *marketplace.Advert, hash, reason string) (*Result, error) {
	ref, err := service.drafts.Save(ctx, recordID, payload)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("save draft: %w", err))
	}

	now := service.clock.Now()
	if err := service.states.Upsert(ctx, &State{
		SourceID:    recordID,
		ContentHash: hash,
		DraftRef:    ref,
		CreatedAt:   now,
		SyncedAt:    now,
	}); err != nil {
		logger.Error("draft_state_lost", slog.String("draft_ref", ref), slog.Any("error", err))
		return nil, err
	}

	logger.Info("publish_drafted", slog.String("draft_ref", ref), slog.String("reason", reason))
	return &Result{SourceID: recordID, Action: ActionDrafted, DraftRef: ref, Reason: reason}, nil
}

// existingState returns the stored state, or nil when the record has none.
func (service *Service) existingState(ctx context.Context, recordID int64) (*State, error) {
	state, err := service.states.Get(ctx, recordID)
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, nil
	}
	return state, err
}

// # Sync

/*
SyncOne refreshes the advert listingID of record recordID.

The refreshable content is hashed first; when it matches the stored hash no
request is sent. Photos are transferred best-effort and the images feature is
only replaced when at least one made it. On failure the stored state is left
untouched, so the next cycle retries.
*/
func (service *Service) SyncOne(ctx context.Context, listingID string, recordID int64) (result *Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "publish.SyncOne",
		attribute.Int64("record.id", recordID),
		attribute.String("listing.id", listingID),
	)
	defer func() { tracing.End(span, err) }()

	logger := service.log(ctx, recordID).With(slog.String("listing_id", listingID))

	if listingID == "" {
		return nil, apperr.ValidationError("Listing id is required", apperr.FieldError{Field: "listing_id", Message: "is required"})
	}

	state, err := service.states.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !state.Published() {
		return nil, apperr.ValidationError("Record has no marketplace listing")
	}
	if state.ListingID != listingID {
		return nil, apperr.Conflict(fmt.Sprintf("record %d is published as %s, not %s", recordID, state.ListingID, listingID))
	}
	if state.Hidden() {
		return &Result{SourceID: recordID, ListingID: listingID, Action: ActionSkipped, Reason: "listing is hidden"}, nil
	}

	rec, err := service.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	listing, err := service.normalizer.Normalize(ctx, rec)
	if err != nil {
		return nil, err
	}

	hash := advert.ContentHash(listing)
	if hash == state.ContentHash {
		logger.Debug("sync_unchanged")
		return &Result{SourceID: recordID, ListingID: listingID, Action: ActionUnchanged}, nil
	}

	photoIDs, err := service.photos.Transfer(ctx, listing.Photos, photo.BestEffort)
	if err != nil {
		return nil, err
	}

	patch, err := service.builder.BuildPatch(listing, photoIDs)
	if err != nil {
		return nil, err
	}
	if err := service.market.UpdateAdvert(ctx, listingID, patch); err != nil {
		logger.Warn("sync_update_failed", slog.Any("error", err))
		return nil, err
	}

	if err := service.states.MarkSynced(ctx, recordID, hash, service.clock.Now()); err != nil {
		logger.Error("sync_state_lost", slog.Any("error", err))
		return nil, err
	}

	logger.Info("sync_updated", slog.Int("photos", len(photoIDs)))
	return &Result{SourceID: recordID, ListingID: listingID, Action: ActionUpdated}, nil
}

// SyncRecord refreshes the advert of a record by its stored listing id.
func (service *Service) SyncRecord(ctx context.Context, recordID int64) (*Result, error) {
	state, err := service.states.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !state.Published() {
		return nil, apperr.ValidationError("Record has no marketplace listing")
	}
	return service.SyncOne(ctx, state.ListingID, recordID)
}

// # Hide

// HideOne switches the advert of a record to private once its CRM stage is
// terminal. Hiding an already hidden advert does nothing.
func (service *Service) HideOne(ctx context.Context, recordID int64) (result *Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "publish.HideOne", attribute.Int64("record.id", recordID))
	defer func() { tracing.End(span, err) }()

	logger := service.log(ctx, recordID)

	state, err := service.states.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !state.Published() {
		return nil, apperr.ValidationError("Record has no marketplace listing")
	}
	if state.Hidden() {
		return &Result{SourceID: recordID, ListingID: state.ListingID, Action: ActionHidden, Reason: "already hidden"}, nil
	}

	rec, err := service.records.Get(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(service.eligibility.TerminalStages, rec.StageID) {
		return &Result{SourceID: recordID, ListingID: state.ListingID, Action: ActionSkipped, Reason: fmt.Sprintf("stage %q is not terminal", rec.StageID)}, nil
	}

	if err := service.market.SetAccessPolicy(ctx, state.ListingID, constants.AccessPrivate); err != nil {
		logger.Warn("hide_failed", slog.String("listing_id", state.ListingID), slog.Any("error", err))
		return nil, err
	}
	if err := service.states.MarkHidden(ctx, recordID, service.clock.Now()); err != nil {
		logger.Error("hide_state_lost", slog.String("listing_id", state.ListingID), slog.Any("error", err))
		return nil, err
	}

	logger.Info("publish_hidden", slog.String("listing_id", state.ListingID), slog.String("stage", rec.StageID))
	return &Result{SourceID: recordID, ListingID: state.ListingID, Action: ActionHidden}, nil
}

// # Selection

// Selection narrows candidate lookup.
type Selection struct {
	Limit int
	// Recent applies the MaxAge recency bound.
	Recent bool
	// Exclude lists parked record ids.
	Exclude []int64
}

// candidateOverfetch sizes each page relative to the wanted count, since the
// in-memory checks reject some rows.
const candidateOverfetch = 4

// Candidates returns up to sel.Limit eligible, unpublished records, newest first.
// Pages are read until the limit is filled or the query runs dry, so eligible
// records are never hidden behind newer rejected ones.
func (service *Service) Candidates(ctx context.Context, sel Selection) ([]*record.Record, error) {
	if sel.Limit <= 0 {
		return nil, nil
	}

	query := record.CandidateQuery{
		CategoryID: service.eligibility.CategoryID,
		Stages:     service.eligibility.Stages,
		Exclude:    sel.Exclude,
		Limit:      sel.Limit * candidateOverfetch,
	}
	if sel.Recent && service.eligibility.MaxAge > 0 {
		query.CreatedAfter = service.clock.Now().Add(-service.eligibility.MaxAge)
	}

	out := make([]*record.Record, 0, sel.Limit)
	for {
		records, err := service.records.ListCandidates(ctx, query)
		if err != nil {
			return nil, err
		}

		for _, rec := range records {
			if reasons := service.criteria.Check(rec); len(reasons) > 0 {
				service.logger.Debug("candidate_rejected", slog.Int64("record_id", rec.ID), slog.Any("reasons", reasons))
				continue
			}
			out = append(out, rec)
			if len(out) == sel.Limit {
				return out, nil
			}
		}

		if len(records) < query.Limit {
			return out, nil
		}
		query.Offset += len(records)
	}
}

// ListEligible returns the ids of up to limit records that may be published now.
func (service *Service) ListEligible(ctx context.Context, limit int) ([]int64, error) {
	records, err := service.Candidates(ctx, Selection{Limit: limit, Recent: true})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	return ids, nil
}

// State returns the publish state of a record.
func (service *Service) State(ctx context.Context, recordID int64) (*State, error) {
	return service.states.Get(ctx, recordID)
}

// ResyncQueue returns published records, least recently synced first.
func (service *Service) ResyncQueue(ctx context.Context, limit int) ([]*State, error) {
	return service.states.ListForResync(ctx, limit)
}

// HideQueue returns published records whose stage is terminal.
func (service *Service) HideQueue(ctx context.Context, limit int) ([]*State, error) {
	return service.states.ListHideCandidates(ctx, service.eligibility.TerminalStages, limit)
}

// DraftOnly reports whether payloads are saved instead of posted.
func (service *Service) DraftOnly() bool { return service.draftOnly }
