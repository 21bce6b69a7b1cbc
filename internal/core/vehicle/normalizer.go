// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vehicle

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/taibuivan/autolist/internal/core/record"
	"github.com/taibuivan/autolist/internal/core/reference"
	"github.com/taibuivan/autolist/internal/platform/apperr"
	"github.com/taibuivan/autolist/internal/platform/config"
	"github.com/taibuivan/autolist/pkg/convert"
	"github.com/taibuivan/autolist/pkg/plate"
)

// SchemaSource yields the current field metadata snapshot.
type SchemaSource interface {
	Get(ctx context.Context) (*record.Schema, error)
}

// LabelResolver resolves catalog labels for reference fields.
type LabelResolver interface {
	ResolveBatch(ctx context.Context, requests []reference.Request) (reference.Labels, []reference.LookupFailure)
}

// Normalizer converts CRM records into [Listing] values.
type Normalizer struct {
	fields    config.Fields
	schemas   SchemaSource
	labels    LabelResolver
	describer *Describer
	webhook   string
	logger    *slog.Logger
}

// NewNormalizer wires a normalizer. webhook is the CRM webhook base used to
// rebuild attachment download URLs.
func NewNormalizer(fields config.Fields, schemas SchemaSource, labels LabelResolver, describer *Describer, webhook string, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		fields:    fields,
		schemas:   schemas,
		labels:    labels,
		describer: describer,
		webhook:   webhook,
		logger:    logger,
	}
}

// Context builds the decoding context for one record: the schema snapshot
// plus the labels of every reference it holds. Unresolved references are
// logged and decode to their raw id.
func (n *Normalizer) Context(ctx context.Context, r *record.Record) (*reference.Context, error) {
	schema, err := n.schemas.Get(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	labels, failures := n.labels.ResolveBatch(ctx, reference.Requests(schema, r))
	for _, failure := range failures {
		n.logger.Warn("reference_unresolved",
			slog.Int64("record_id", r.ID),
			slog.String("key", failure.Key.String()),
			slog.Any("error", failure.Err),
		)
	}

	return reference.NewContext(schema, labels), nil
}

/*
Normalize decodes a record into a listing.

Description: Field locations come from configuration (brand, model, year,
price, mileage, link, photos) or from metadata titles (plate, body, fuel,
engine, drive, transmission). Normalization never rejects a record; missing
values surface later as validation errors of the payload builder.
*/
func (n *Normalizer) Normalize(ctx context.Context, r *record.Record) (*Listing, error) {
	decoder, err := n.Context(ctx, r)
	if err != nil {
		return nil, err
	}

	byTitle := func(titles []string) string {
		key, ok := decoder.Schema.FindByTitle(titles...)
		if !ok {
			return ""
		}
		return decoder.Decode(r, key)
	}

	listing := &Listing{
		SourceID:  r.ID,
		PriceUnit: n.fields.PriceUnit,
		Plate:     byTitle(PlateTitles),
		Link:      decoder.Decode(r, n.fields.Link),
	}

	listing.Brand = stripName(decoder.Decode(r, n.fields.Brand), listing.Plate)
	listing.Model = stripName(decoder.Decode(r, n.fields.Model), listing.Plate)
	listing.Title = n.title(r, listing)
	listing.Year = n.year(r, decoder)

	if price, ok := numberOrText(r.Get(n.fields.Price), decoder.Decode(r, n.fields.Price), convert.ParseDecimal); ok {
		listing.Price = price
	}
	if mileage, ok := numberOrText(r.Get(n.fields.Mileage), decoder.Decode(r, n.fields.Mileage), parseDigits); ok {
		km := int(mileage)
		listing.Mileage = &km
	}

	listing.Attributes = Attributes{
		Body:         byTitle(BodyTitles),
		Fuel:         byTitle(FuelTitles),
		Engine:       strings.ReplaceAll(byTitle(EngineTitles), ",", "."),
		Drive:        byTitle(DriveTitles),
		Transmission: byTitle(TransmissionTitles),
	}

	listing.Photos = PhotoURLs(r.Get(n.fields.Photos), n.webhook)

	if n.describer != nil {
		description, err := n.describer.Describe(listing)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		listing.Description = description
	}

	return listing, nil
}

// title is the record title when present, otherwise "brand model"; the two are never mixed.
func (n *Normalizer) title(r *record.Record, l *Listing) string {
	scrubber := l.Scrubber()
	if title := scrubber.Strip(r.Get(n.fields.Title).String()); title != "" {
		return title
	}
	return scrubber.Strip(strings.TrimSpace(l.Brand + " " + l.Model))
}

// stripName scrubs a brand or model. Model codes look like plates (XC90,
// CX30), so a value that would vanish entirely is kept as written.
func stripName(value, plateNumber string) string {
	if stripped := plate.Strip(value, plateNumber); stripped != "" {
		return stripped
	}
	return strings.Join(strings.Fields(value), " ")
}

/*
year applies the precedence chain:

 1. the raw value of the year field, when it is itself a plausible year;
 2. the decoded year field (enumerations hold years as labels);
 3. the field titled like a year (raw, then decoded);
 4. fields whose title contains a year stem (raw, then decoded);
 5. any other field, in key order.
*/
func (n *Normalizer) year(r *record.Record, decoder *reference.Context) int {
	try := func(key string) (int, bool) {
		if key == "" {
			return 0, false
		}
		if year, ok := parseYearValue(r.Get(key)); ok {
			return year, true
		}
		return parseYearText(decoder.Decode(r, key))
	}

	if year, ok := parseYearValue(r.Get(n.fields.Year)); ok {
		return year
	}
	if year, ok := parseYearText(decoder.Decode(r, n.fields.Year)); ok {
		return year
	}

	if key, ok := decoder.Schema.FindByTitle(YearTitles...); ok {
		if year, ok := try(key); ok {
			return year
		}
	}
	for _, key := range decoder.Schema.FindByTitleStem(yearTitleStems...) {
		if year, ok := try(key); ok {
			return year
		}
	}

	excluded := n.scanExcluded()
	for _, key := range r.Keys() {
		if slices.Contains(excluded, strings.ToLower(key)) {
			continue
		}
		if year, ok := parseYearValue(r.Get(key)); ok {
			return year
		}
	}

	return DefaultYear
}

func (n *Normalizer) scanExcluded() []string {
	keys := []string{n.fields.Title, n.fields.Brand, n.fields.Model, n.fields.Price, n.fields.Mileage, n.fields.Link, n.fields.Photos}
	keys = append(keys, yearScanExcluded...)
	for i, key := range keys {
		keys[i] = strings.ToLower(key)
	}
	return keys
}

// # Value parsing

// parseYearValue reads a year from a raw value: numbers directly, text by its leading digits.
func parseYearValue(v record.Value) (int, bool) {
	v = v.Unwrap()
	switch v.Kind() {
	case record.KindNumber:
		literal, _ := v.Scalar()
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return 0, false
		}
		return plausibleYear(int(f))
	case record.KindText:
		text, _ := v.Scalar()
		return parseYearText(text)
	default:
		return 0, false
	}
}

// parseYearText reads the first four digits of text as a year.
func parseYearText(text string) (int, bool) {
	digits := convert.DigitsOnly(text)
	if len(digits) > 4 {
		digits = digits[:4]
	}
	if digits == "" {
		return 0, false
	}
	year, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return plausibleYear(year)
}

func plausibleYear(year int) (int, bool) {
	if year < minParsedYear || year > maxParsedYear {
		return 0, false
	}
	return year, true
}

// numberOrText prefers a raw number and falls back to parsing the decoded text.
// Negative numbers are treated as absent.
func numberOrText(raw record.Value, decoded string, parse func(string) (float64, bool)) (float64, bool) {
	if unwrapped := raw.Unwrap(); unwrapped.Kind() == record.KindNumber {
		literal, _ := unwrapped.Scalar()
		if f, err := strconv.ParseFloat(literal, 64); err == nil && f >= 0 {
			return f, true
		}
	}
	if decoded == "" {
		return 0, false
	}
	return parse(decoded)
}

func parseDigits(s string) (float64, bool) {
	digits := convert.DigitsOnly(s)
	if digits == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(digits, 64)
	return f, err == nil
}
