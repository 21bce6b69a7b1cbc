// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/autolist/internal/core/advert"
	"github.com/taibuivan/autolist/internal/core/marketplace"
	"github.com/taibuivan/autolist/internal/core/photo"
	"github.com/taibuivan/autolist/internal/core/publish"
	"github.com/taibuivan/autolist/internal/core/record"
	"github.com/taibuivan/autolist/internal/core/vehicle"
	"github.com/taibuivan/autolist/internal/platform/apperr"
	"github.com/taibuivan/autolist/internal/platform/clock"
	"github.com/taibuivan/autolist/internal/platform/config"
	"github.com/taibuivan/autolist/internal/platform/dberr"
)

// # Fakes

type fakeRecords struct {
	records map[int64]*record.Record
	order   []int64
	queries int
}

func (f *fakeRecords) add(r *record.Record) {
	if f.records == nil {
		f.records = map[int64]*record.Record{}
	}
	f.records[r.ID] = r
	f.order = append(f.order, r.ID)
}

func (f *fakeRecords) Get(_ context.Context, id int64) (*record.Record, error) {
	r, ok := f.records[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return r, nil
}

// ListCandidates pages like the SQL query: skip Offset rows, return at most Limit.
func (f *fakeRecords) ListCandidates(_ context.Context, q record.CandidateQuery) ([]*record.Record, error) {
	f.queries++
	var out []*record.Record
	for i, id := range f.order {
		if i < q.Offset {
			continue
		}
		out = append(out, f.records[id])
		if len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// fakeStates mirrors the SQL upsert: an existing listing id is never replaced,
// and the hash and sync time only move with the listing they describe.
type fakeStates struct {
	mu     sync.Mutex
	states map[int64]publish.State
}

func newFakeStates() *fakeStates { return &fakeStates{states: map[int64]publish.State{}} }

func (f *fakeStates) Get(_ context.Context, id int64) (*publish.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return &s, nil
}

func (f *fakeStates) Upsert(_ context.Context, s *publish.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := *s
	if prev, ok := f.states[s.SourceID]; ok {
		if prev.ListingID != "" {
			if next.ListingID != prev.ListingID {
				next.ContentHash, next.SyncedAt = prev.ContentHash, prev.SyncedAt
			}
			next.ListingID = prev.ListingID
		}
		if next.DraftRef == "" {
			next.DraftRef = prev.DraftRef
		}
		next.CreatedAt = prev.CreatedAt
	}
	f.states[s.SourceID] = next
	return nil
}

func (f *fakeStates) MarkSynced(_ context.Context, id int64, hash string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[id]
	if !ok {
		return dberr.ErrNotFound
	}
	s.ContentHash, s.SyncedAt = hash, at
	f.states[id] = s
	return nil
}

func (f *fakeStates) MarkHidden(_ context.Context, id int64, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[id]
	if !ok {
		return dberr.ErrNotFound
	}
	if s.HiddenAt == nil {
		s.HiddenAt = &at
	}
	f.states[id] = s
	return nil
}

func (f *fakeStates) ListForResync(context.Context, int) ([]*publish.State, error) { return nil, nil }

func (f *fakeStates) ListHideCandidates(context.Context, []string, int) ([]*publish.State, error) {
	return nil, nil
}

type fakeNormalizer struct {
	listings map[int64]*vehicle.Listing
}

func (f *fakeNormalizer) Normalize(_ context.Context, r *record.Record) (*vehicle.Listing, error) {
	l, ok := f.listings[r.ID]
	if !ok {
		return nil, apperr.ValidationError("no listing")
	}
	copied := *l
	return &copied, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(context.Context, *vehicle.Listing) (*advert.Options, error) {
	return &advert.Options{Brand: "2", Model: "71", Fixed: map[string]string{"7": "12900"}}, nil
}

type fakeFetcher struct {
	failing map[string]error
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	if err, ok := f.failing[url]; ok {
		return nil, err
	}
	return []byte("jpeg:" + url), nil
}

type fakeMarket struct {
	mu        sync.Mutex
	createErr error
	uploads   int
	creates   int
	patches   []*marketplace.AdvertPatch
	policies  []string
}

func (f *fakeMarket) UploadImage(context.Context, string, []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	return fmt.Sprintf("img-%d", f.uploads), nil
}

func (f *fakeMarket) CreateAdvert(context.Context, *marketplace.Advert) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.creates++
	return fmt.Sprintf("adv-%d", f.creates), nil
}

func (f *fakeMarket) UpdateAdvert(_ context.Context, _ string, patch *marketplace.AdvertPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	return nil
}

func (f *fakeMarket) SetAccessPolicy(_ context.Context, id, policy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.policies = append(f.policies, id+"="+policy)
	return nil
}

// # Fixture

var photos = []string{"https://crm/1.jpg", "https://crm/2.jpg", "https://crm/3.jpg"}

type fixture struct {
	service    *publish.Service
	records    *fakeRecords
	states     *fakeStates
	normalizer *fakeNormalizer
	fetcher    *fakeFetcher
	market     *fakeMarket
	clock      *clock.Manual
	draftDir   string
}

func eligibility() config.Eligibility {
	return config.Eligibility{
		CategoryID:     "111",
		Stages:         []string{"NEW"},
		TerminalStages: []string{"SOLD"},
		Required:       []string{"brand"},
		MinPhotos:      1,
		MaxPhotos:      10,
		MaxAge:         14 * 24 * time.Hour,
	}
}

func eligibleRecord(id int64) *record.Record {
	items := make([]record.Value, len(photos))
	for i, u := range photos {
		items[i] = record.Text(u)
	}
	return record.New(id, "NEW", "111", time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), map[string]record.Value{
		"brand":  record.Text("BMW"),
		"photos": record.List(items...),
	})
}

func listing(id int64) *vehicle.Listing {
	return &vehicle.Listing{
		SourceID:  id,
		Brand:     "BMW",
		Model:     "X5",
		Title:     "BMW X5",
		Year:      2019,
		Price:     25500,
		PriceUnit: "eur",
		Mileage:   intPtr(120000),
		Photos:    photos,
	}
}

func newFixture(t *testing.T, draftOnly bool) *fixture {
	t.Helper()

	f := &fixture{
		records:    &fakeRecords{},
		states:     newFakeStates(),
		normalizer: &fakeNormalizer{listings: map[int64]*vehicle.Listing{}},
		fetcher:    &fakeFetcher{failing: map[string]error{}},
		market:     &fakeMarket{},
		clock:      clock.NewManual(time.Date(2026, 5, 2, 12, 0, 0, 0, time.UTC)),
		draftDir:   t.TempDir(),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = publish.NewService(publish.Dependencies{
		Records:    f.records,
		States:     f.states,
		Normalizer: f.normalizer,
		Resolver:   fakeResolver{},
		Photos:     photo.NewPipeline(f.fetcher, f.market, logger),
		Builder:    advert.NewBuilder(config.Marketplace{CategoryID: "658", SubcategoryID: "659", OfferType: "776"}),
		Market:     f.market,
		Drafts:     publish.NewLocalDrafts(f.draftDir),
		Clock:      f.clock,
		Logger:     logger,
	}, eligibility(), "photos", draftOnly)

	return f
}

func (f *fixture) seed(id int64) {
	f.records.add(eligibleRecord(id))
	f.normalizer.listings[id] = listing(id)
}

// # Tests

/*
TestService_PublishOne_Idempotent publishes the same record twice; only one
advert is ever created.
*/
func TestService_PublishOne_Idempotent(t *testing.T) {
	f := newFixture(t, false)
	f.seed(42)
	ctx := context.Background()

	first, err := f.service.PublishOne(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, publish.ActionCreated, first.Action)
	assert.Equal(t, "adv-1", first.ListingID)

	second, err := f.service.PublishOne(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, publish.ActionSkipped, second.Action)
	assert.Equal(t, "adv-1", second.ListingID)

	assert.Equal(t, 1, f.market.creates)
	assert.Equal(t, []string{"adv-1=public"}, f.market.policies)

	state, err := f.service.State(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "adv-1", state.ListingID)
	assert.Equal(t, advert.ContentHash(listing(42)), state.ContentHash)
}

/*
TestService_PublishOne_StrictPhotos aborts before the advert is built when one
photo cannot be downloaded.
*/
func TestService_PublishOne_StrictPhotos(t *testing.T) {
	f := newFixture(t, false)
	f.seed(7)
	f.fetcher.failing[photos[1]] = &photo.StatusError{Status: 404}

	_, err := f.service.PublishOne(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodePhotoTransferFailed))
	assert.Contains(t, err.Error(), photos[1])
	assert.Contains(t, err.Error(), "404")

	assert.Zero(t, f.market.creates)
	_, err = f.service.State(context.Background(), 7)
	assert.True(t, dberr.IsNotFound(err), "no state must be recorded")
}

/*
TestService_PublishOne_Drafts covers both paths that keep the payload offline.
*/
func TestService_PublishOne_Drafts(t *testing.T) {
	tests := []struct {
		name      string
		draftOnly bool
		createErr error
		reason    string
	}{
		{name: "insufficient balance", createErr: apperr.UpstreamRejected(marketplace.Service, 402, "Insufficient balance"), reason: "insufficient balance"},
		{name: "draft-only mode", draftOnly: true, reason: "draft-only mode"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.draftOnly)
			f.seed(9)
			f.market.createErr = tc.createErr

			result, err := f.service.PublishOne(context.Background(), 9)
			require.NoError(t, err)
			assert.Equal(t, publish.ActionDrafted, result.Action)
			assert.Equal(t, tc.reason, result.Reason)
			assert.Empty(t, result.ListingID)
			assert.Zero(t, f.market.creates)

			data, err := os.ReadFile(result.DraftRef)
			require.NoError(t, err)
			assert.Contains(t, string(data), `"category_id"`)

			state, err := f.service.State(context.Background(), 9)
			require.NoError(t, err)
			assert.Equal(t, result.DraftRef, state.DraftRef)
			assert.False(t, state.Published())
		})
	}
}

/*
TestService_PublishOne_OtherRejection propagates rejections other than balance.
*/
func TestService_PublishOne_OtherRejection(t *testing.T) {
	f := newFixture(t, false)
	f.seed(5)
	f.market.createErr = apperr.UpstreamRejected(marketplace.Service, 400, "invalid feature 20")

	_, err := f.service.PublishOne(context.Background(), 5)
	assert.True(t, apperr.HasCode(err, apperr.CodeUpstreamRejected))

	_, err = f.service.State(context.Background(), 5)
	assert.True(t, dberr.IsNotFound(err))
}

/*
TestService_PublishOne_NotEligible rejects records outside the eligibility filter.
*/
func TestService_PublishOne_NotEligible(t *testing.T) {
	f := newFixture(t, false)
	f.records.add(record.New(3, "NEW", "111", time.Now(), map[string]record.Value{"brand": record.Text("BMW")}))

	_, err := f.service.PublishOne(context.Background(), 3)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, apperr.CodeValidation, ae.Code)
	assert.Zero(t, f.market.uploads)
}

/*
TestService_SyncOne_HashGated sends a patch only when refreshable content changed.
*/
func TestService_SyncOne_HashGated(t *testing.T) {
	f := newFixture(t, false)
	f.seed(42)
	ctx := context.Background()

	created, err := f.service.PublishOne(ctx, 42)
	require.NoError(t, err)

	unchanged, err := f.service.SyncOne(ctx, created.ListingID, 42)
	require.NoError(t, err)
	assert.Equal(t, publish.ActionUnchanged, unchanged.Action)
	assert.Empty(t, f.market.patches)

	f.normalizer.listings[42].Price = 24000
	f.clock.Advance(time.Hour)

	updated, err := f.service.SyncOne(ctx, created.ListingID, 42)
	require.NoError(t, err)
	assert.Equal(t, publish.ActionUpdated, updated.Action)
	require.Len(t, f.market.patches, 1)

	again, err := f.service.SyncOne(ctx, created.ListingID, 42)
	require.NoError(t, err)
	assert.Equal(t, publish.ActionUnchanged, again.Action)
	assert.Len(t, f.market.patches, 1, "second sync must not patch")

	state, err := f.service.State(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now(), state.SyncedAt)
}

/*
TestService_SyncOne_BestEffortPhotos keeps refreshing when one photo fails.
*/
func TestService_SyncOne_BestEffortPhotos(t *testing.T) {
	f := newFixture(t, false)
	f.seed(42)
	ctx := context.Background()

	created, err := f.service.PublishOne(ctx, 42)
	require.NoError(t, err)

	f.fetcher.failing[photos[1]] = &photo.StatusError{Status: 403}
	f.normalizer.listings[42].Description = "Fresh description"

	_, err = f.service.SyncOne(ctx, created.ListingID, 42)
	require.NoError(t, err)
	require.Len(t, f.market.patches, 1)

	features := f.market.patches[0].Features
	images := features[len(features)-1]
	assert.Equal(t, "14", images.ID)
	assert.Len(t, images.Value, 2)
}

/*
TestService_SyncOne_Errors covers states that cannot be refreshed.
*/
func TestService_SyncOne_Errors(t *testing.T) {
	f := newFixture(t, false)
	f.seed(42)
	ctx := context.Background()

	_, err := f.service.SyncOne(ctx, "adv-1", 42)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = f.service.PublishOne(ctx, 42)
	require.NoError(t, err)

	_, err = f.service.SyncOne(ctx, "adv-999", 42)
	assert.True(t, apperr.HasCode(err, "CONFLICT"))

	_, err = f.service.SyncOne(ctx, "", 42)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	result, err := f.service.SyncRecord(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, publish.ActionUnchanged, result.Action)
}

/*
TestService_HideOne switches terminal records to private exactly once.
*/
func TestService_HideOne(t *testing.T) {
	f := newFixture(t, false)
	f.seed(42)
	ctx := context.Background()

	_, err := f.service.PublishOne(ctx, 42)
	require.NoError(t, err)

	skipped, err := f.service.HideOne(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, publish.ActionSkipped, skipped.Action)

	f.records.records[42].StageID = "SOLD"

	hidden, err := f.service.HideOne(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, publish.ActionHidden, hidden.Action)

	again, err := f.service.HideOne(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, publish.ActionHidden, again.Action)
	assert.Equal(t, "already hidden", again.Reason)

	assert.Equal(t, []string{"adv-1=public", "adv-1=private"}, f.market.policies)

	synced, err := f.service.SyncRecord(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, publish.ActionSkipped, synced.Action)
}

/*
TestService_ListEligible drops records failing the in-memory checks.
*/
func TestService_ListEligible(t *testing.T) {
	f := newFixture(t, false)
	f.seed(1)
	f.records.add(record.New(2, "NEW", "111", time.Now(), map[string]record.Value{"brand": record.Text("Audi")}))
	f.seed(3)
	f.seed(4)

	ids, err := f.service.ListEligible(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)

	none, err := f.service.ListEligible(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

/*
TestService_Candidates_PagesPastRejected puts twelve newer photo-less records
ahead of the only eligible one; the first page holds no survivor.
*/
func TestService_Candidates_PagesPastRejected(t *testing.T) {
	f := newFixture(t, false)
	for id := int64(100); id < 112; id++ {
		f.records.add(record.New(id, "NEW", "111", time.Now(), map[string]record.Value{"brand": record.Text("Audi")}))
	}
	f.seed(7)

	records, err := f.service.Candidates(context.Background(), publish.Selection{Limit: 3})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(7), records[0].ID)
	assert.Equal(t, 2, f.records.queries)
}

/*
TestService_Candidates_StopsWhenFilled reads a single page when it already
holds enough eligible records.
*/
func TestService_Candidates_StopsWhenFilled(t *testing.T) {
	f := newFixture(t, false)
	for id := int64(1); id <= 20; id++ {
		f.seed(id)
	}

	records, err := f.service.Candidates(context.Background(), publish.Selection{Limit: 3})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int64(3), records[2].ID)
	assert.Equal(t, 1, f.records.queries)
}

func intPtr(v int) *int { return &v }
