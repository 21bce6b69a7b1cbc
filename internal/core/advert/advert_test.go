// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package advert_test

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/autolist/internal/core/advert"
	"github.com/taibuivan/autolist/internal/core/vehicle"
	"github.com/taibuivan/autolist/internal/platform/apperr"
	"github.com/taibuivan/autolist/internal/platform/config"
)

func marketConfig() config.Marketplace {
	return config.Marketplace{
		CategoryID:    "658",
		SubcategoryID: "659",
		OfferType:     "776",
		ContactPhone:  "+373 (69) 123-456",
	}
}

func sampleListing() *vehicle.Listing {
	return &vehicle.Listing{
		SourceID:    42,
		Brand:       "BMW",
		Model:       "X5",
		Title:       "BMW X5 ABC123",
		Year:        2019,
		Price:       25500.9,
		PriceUnit:   "EUR",
		Mileage:     intPtr(120000),
		Description: "BMW X5\n\nWell kept, one owner.",
		Photos:      []string{"https://crm.example.com/1.jpg", "https://crm.example.com/2.jpg"},
		Plate:       "ABC123",
	}
}

func sampleOptions() *advert.Options {
	return &advert.Options{
		Brand:        "2",
		Model:        "71",
		Generation:   "700",
		Body:         "18",
		Fuel:         "24",
		Engine:       "43690",
		Drive:        "17",
		Transmission: "16",
		Fixed: map[string]string{
			"775": "18592", "593": "18668", "1761": "29670", "1763": "29677",
			"795": "23241", "1196": "21979", "846": "19119", "7": "12900",
		},
	}
}

func assertGolden(t *testing.T, name string, payload any) {
	t.Helper()
	data, err := json.MarshalIndent(payload, "", "  ")
	require.NoError(t, err)

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, name, append(data, '\n'))
}

/*
TestBuilder_Build pins the creation payload, feature order included.
*/
func TestBuilder_Build(t *testing.T) {
	payload, err := advert.NewBuilder(marketConfig()).Build(sampleListing(), sampleOptions(), []string{"img-1", "img-2"})
	require.NoError(t, err)
	assertGolden(t, "advert_create", payload)
}

/*
TestBuilder_BuildPatch pins the refresh payload; images are omitted when none were uploaded.
*/
func TestBuilder_BuildPatch(t *testing.T) {
	patch, err := advert.NewBuilder(marketConfig()).BuildPatch(sampleListing(), nil)
	require.NoError(t, err)
	assertGolden(t, "advert_patch", patch)

	withImages, err := advert.NewBuilder(marketConfig()).BuildPatch(sampleListing(), []string{"img-9"})
	require.NoError(t, err)
	last := withImages.Features[len(withImages.Features)-1]
	assert.Equal(t, "14", last.ID)
	assert.Equal(t, []string{"img-9"}, last.Value)
}

/*
TestBuilder_Build_Validation rejects payloads the marketplace would refuse.
*/
func TestBuilder_Build_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(l *vehicle.Listing, o *advert.Options)
		photos  []string
		failing []string
	}{
		{name: "no photos", mutate: func(*vehicle.Listing, *advert.Options) {}, failing: []string{"photos"}},
		{name: "zero price", mutate: func(l *vehicle.Listing, _ *advert.Options) { l.Price = 0 }, photos: []string{"img"}, failing: []string{"price"}},
		{name: "missing brand and model", mutate: func(_ *vehicle.Listing, o *advert.Options) { o.Brand, o.Model = "", "" }, photos: []string{"img"}, failing: []string{"brand", "model"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, o := sampleListing(), sampleOptions()
			tc.mutate(l, o)

			_, err := advert.NewBuilder(marketConfig()).Build(l, o, tc.photos)
			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, apperr.CodeValidation, ae.Code)

			fields := make([]string, 0, len(ae.Details))
			for _, d := range ae.Details {
				fields = append(fields, d.Field)
			}
			assert.Equal(t, tc.failing, fields)
		})
	}
}

/*
TestFieldRules covers the small normalization rules of the payload.
*/
func TestFieldRules(t *testing.T) {
	t.Run("year clamp", func(t *testing.T) {
		assert.Equal(t, 1990, advert.ClampYear(1975))
		assert.Equal(t, 2030, advert.ClampYear(2099))
		assert.Equal(t, 2015, advert.ClampYear(2015))
	})

	t.Run("currency", func(t *testing.T) {
		assert.Equal(t, "usd", advert.Currency(" USD "))
		assert.Equal(t, "eur", advert.Currency("rub"))
		assert.Equal(t, "eur", advert.Currency(""))
	})

	t.Run("phone", func(t *testing.T) {
		assert.Equal(t, "37369123456", advert.NormalizePhone("069 123 456"))
		assert.Equal(t, "37369123456", advert.NormalizePhone("+373 69 123 456"))
		assert.Equal(t, "37369123456", advert.NormalizePhone("69123456"))
		assert.Equal(t, "", advert.NormalizePhone("n/a"))
	})

	t.Run("title falls back to brand and model", func(t *testing.T) {
		l := &vehicle.Listing{Brand: "Dacia", Model: "Duster", Title: "MDQ086"}
		assert.Equal(t, "Dacia Duster", advert.Title(l))
	})

	t.Run("access policy", func(t *testing.T) {
		cfg := marketConfig()
		cfg.AccessPolicy = "private"
		assert.Equal(t, "private", advert.NewBuilder(cfg).AccessPolicy())
		assert.Equal(t, "public", advert.NewBuilder(marketConfig()).AccessPolicy())
	})
}

/*
TestContentHash changes only when refreshable content changes.
*/
func TestContentHash(t *testing.T) {
	base := advert.ContentHash(sampleListing())
	assert.Len(t, base, 64)
	assert.Equal(t, base, advert.ContentHash(sampleListing()))

	sameTitle := sampleListing()
	sameTitle.Title = "BMW X5"
	assert.Equal(t, base, advert.ContentHash(sameTitle), "plate removal happens before hashing")

	cheaper := sampleListing()
	cheaper.Price = 24000
	assert.NotEqual(t, base, advert.ContentHash(cheaper))

	newPhotos := sampleListing()
	newPhotos.Photos = newPhotos.Photos[:1]
	assert.NotEqual(t, base, advert.ContentHash(newPhotos))
}

func intPtr(v int) *int { return &v }
