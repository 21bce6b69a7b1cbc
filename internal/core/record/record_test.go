// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/autolist/internal/core/record"
	"github.com/taibuivan/autolist/internal/platform/clock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestValue_Unwrap checks the wrapper reduction applied before decoding.
*/
func TestValue_Unwrap(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"plain_text", `" Golf "`, "Golf"},
		{"number_literal_kept", `2019.0`, "2019.0"},
		{"list_first", `["482", "483"]`, "482"},
		{"nested_list", `[[7]]`, "7"},
		{"object_value_first", `{"title": "T", "value": "V", "id": 1}`, "V"},
		{"object_id", `{"title": "T", "id": 12}`, "12"},
		{"object_name", `{"name": "N"}`, "N"},
		{"object_without_members", `{"other": 1}`, ""},
		{"empty_list", `[]`, ""},
		{"null", `null`, ""},
		{"bool", `true`, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, err := record.ParseJSON([]byte(tt.json))
			require.NoError(t, err)
			assert.Equal(t, tt.want, value.String())
		})
	}
}

/*
TestValue_Filled mirrors the required-field rule.
*/
func TestValue_Filled(t *testing.T) {
	assert.False(t, record.Null().Filled())
	assert.False(t, record.Text("   ").Filled())
	assert.False(t, record.List().Filled())
	assert.True(t, record.Text("x").Filled())
	assert.True(t, record.Number("0").Filled())
	assert.True(t, record.Bool(false).Filled())
	assert.True(t, record.List(record.Null()).Filled())
}

/*
TestValue_MarshalJSON renders numbers by their literal and sorts object keys.
*/
func TestValue_MarshalJSON(t *testing.T) {
	value, err := record.ParseJSON([]byte(`{"b": [1, "x", null], "a": 2019.0}`))
	require.NoError(t, err)

	out, err := value.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 2019.0, "b": [1, "x", null]}`, string(out))
	assert.Equal(t, `{"a":2019.0,"b":[1,"x",null]}`, string(out))
}

/*
TestFromRaw decodes the raw copy and falls back to it for stage and category.
*/
func TestFromRaw(t *testing.T) {
	raw := []byte(`{"id": 42, "stageId": "DT1114_111:NEW", "categoryId": 111, "ufCrm34_Brand": "482"}`)

	r, err := record.FromRaw(42, "", "", time.Time{}, raw)
	require.NoError(t, err)

	assert.Equal(t, int64(42), r.ID)
	assert.Equal(t, "DT1114_111:NEW", r.StageID)
	assert.Equal(t, "111", r.CategoryID)
	assert.Equal(t, "482", r.Get("ufCrm34_Brand").String())
	assert.Equal(t, "482", r.Get("UFCRM34_BRAND").String(), "lookup is case-insensitive")
	assert.True(t, r.Get("missing").IsNull())
	assert.Equal(t, []string{"categoryId", "id", "stageId", "ufCrm34_Brand"}, r.Keys())

	_, err = record.FromRaw(1, "", "", time.Time{}, []byte(`[1, 2]`))
	assert.Error(t, err)
}

/*
TestParseMetadata covers the settings and labels shapes found in the mirror.
*/
func TestParseMetadata(t *testing.T) {
	t.Run("reference_field", func(t *testing.T) {
		meta := record.ParseMetadata(record.RawMetadata{
			FieldID:  "ufCrm34_Brand",
			CRMType:  "iblock_element",
			Title:    "Marca",
			Settings: []byte(`{"IBLOCK_ID": "56", "IBLOCK_TYPE_ID": "lists"}`),
		})
		assert.Equal(t, record.FieldReference, meta.Type)
		assert.Equal(t, int64(56), meta.CatalogID)
		assert.Equal(t, "lists", meta.CatalogType)
		assert.True(t, meta.IsReference())
	})

	t.Run("enum_from_settings", func(t *testing.T) {
		meta := record.ParseMetadata(record.RawMetadata{
			FieldID:  "ufCrm34_Fuel",
			CRMType:  "enumeration",
			Settings: []byte(`{"items": [{"ID": 10, "VALUE": "Benzina"}, {"id": "11", "value": "Motorina"}]}`),
			Labels:   []byte(`{"formLabel": "Tipul de combustibil"}`),
		})
		assert.Equal(t, record.FieldEnum, meta.Type)
		assert.Equal(t, map[string]string{"10": "Benzina", "11": "Motorina"}, meta.Enum)
		assert.Equal(t, "Tipul de combustibil", meta.Title, "title falls back to labels")
	})

	t.Run("enum_from_digit_keyed_labels", func(t *testing.T) {
		meta := record.ParseMetadata(record.RawMetadata{
			FieldID: "ufCrm34_Drive",
			Labels:  []byte(`{"1": "Fata", "2": "Spate"}`),
		})
		assert.Equal(t, map[string]string{"1": "Fata", "2": "Spate"}, meta.Enum)
	})

	t.Run("labels_as_string_encoded_list", func(t *testing.T) {
		meta := record.ParseMetadata(record.RawMetadata{
			FieldID: "ufCrm34_Body",
			Labels:  []byte(`"[{\"ID\": 5, \"NAME\": \"Sedan\"}]"`),
		})
		assert.Equal(t, map[string]string{"5": "Sedan"}, meta.Enum)
	})

	t.Run("stored_enum_only_when_nothing_else", func(t *testing.T) {
		meta := record.ParseMetadata(record.RawMetadata{
			FieldID: "ufCrm34_Gear",
			EnumMap: map[string]string{"7": "Automat"},
		})
		assert.Equal(t, record.FieldEnum, meta.Type)
		assert.Equal(t, "Automat", meta.Enum["7"])
	})

	t.Run("plain_text", func(t *testing.T) {
		meta := record.ParseMetadata(record.RawMetadata{FieldID: "title", CRMType: "string", Settings: []byte(`not json`)})
		assert.Equal(t, record.FieldText, meta.Type)
		assert.Empty(t, meta.Enum)
	})
}

/*
TestSchema_FindByTitle matches trimmed titles case-insensitively.
*/
func TestSchema_FindByTitle(t *testing.T) {
	s := record.NewSchema([]record.FieldMetadata{
		{FieldID: "ufCrm34_B", Title: " Год выпуска "},
		{FieldID: "ufCrm34_A", Title: "Caroserie"},
		{FieldID: "ufCrm34_C", Title: "Anul producerii"},
	})

	id, ok := s.FindByTitle("anul producerii", "Год выпуска")
	require.True(t, ok)
	assert.Equal(t, "ufCrm34_B", id, "first field in id order wins")

	_, ok = s.FindByTitle("Numar Auto")
	assert.False(t, ok)

	assert.Equal(t, []string{"ufCrm34_B", "ufCrm34_C"}, s.FindByTitleStem("год", "anul"))
	assert.NotNil(t, s.Field("UFCRM34_A"))
	assert.Nil(t, s.Field("nope"))
}

type fakeMetadataRepository struct {
	rows  []record.RawMetadata
	err   error
	calls int
}

func (f *fakeMetadataRepository) ListMetadata(context.Context, string) ([]record.RawMetadata, error) {
	f.calls++
	return f.rows, f.err
}

/*
TestSchemaCache reloads after the TTL and keeps the stale snapshot on failure.
*/
func TestSchemaCache(t *testing.T) {
	repo := &fakeMetadataRepository{rows: []record.RawMetadata{{FieldID: "title", Title: "Title"}}}
	clk := clock.NewManual(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC))
	cache := record.NewSchemaCache(repo, "sp:1114", 15*time.Minute, clk, discardLogger())
	ctx := context.Background()

	first, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Len())

	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls, "fresh snapshot is reused")

	clk.Advance(16 * time.Minute)
	repo.err = errors.New("db down")
	stale, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, first, stale)
	assert.Equal(t, 2, repo.calls)

	repo.err = nil
	repo.rows = append(repo.rows, record.RawMetadata{FieldID: "year"})
	refreshed, err := cache.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed.Len())
}

/*
TestCriteria_Check reports every failed condition.
*/
func TestCriteria_Check(t *testing.T) {
	criteria := record.Criteria{
		CategoryID: "111",
		Stages:     []string{"S1"},
		Required:   []string{"brand", "price"},
		PhotoField: "photos",
		MinPhotos:  2,
		MaxPhotos:  3,
	}

	ok := record.New(1, "S1", "111", time.Time{}, map[string]record.Value{
		"brand":  record.Text("482"),
		"price":  record.Number("9500"),
		"photos": record.Text(`[{"id": 1}, {"id": 2}]`),
	})
	assert.Empty(t, criteria.Check(ok))
	assert.True(t, criteria.Eligible(ok))

	bad := record.New(2, "S2", "111", time.Time{}, map[string]record.Value{
		"brand":  record.Text(" "),
		"photos": record.List(record.Text("a"), record.Text("b"), record.Text("c"), record.Text("d")),
	})
	reasons := criteria.Check(bad)
	assert.Len(t, reasons, 4)
	assert.Contains(t, reasons, "missing brand")
	assert.Contains(t, reasons, "missing price")
}

/*
TestPhotoCount handles every storage shape of the attachment field.
*/
func TestPhotoCount(t *testing.T) {
	assert.Equal(t, 0, record.PhotoCount(record.Null()))
	assert.Equal(t, 0, record.PhotoCount(record.Text("")))
	assert.Equal(t, 1, record.PhotoCount(record.Text("https://cdn/x.jpg")))
	assert.Equal(t, 3, record.PhotoCount(record.Text(`["a","b","c"]`)))
	assert.Equal(t, 2, record.PhotoCount(record.List(record.Text("a"), record.Text("b"))))
}
