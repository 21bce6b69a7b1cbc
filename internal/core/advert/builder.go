// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package advert assembles marketplace payloads from a normalized listing and
its resolved options.

The builder is pure: it performs no I/O, so the same listing, options and
photo ids always produce the same payload. [ContentHash] fingerprints the
inputs so unchanged listings are never re-sent.
*/
package advert

import (
	"math"
	"strings"

	"github.com/taibuivan/autolist/internal/core/marketplace"
	"github.com/taibuivan/autolist/internal/core/vehicle"
	"github.com/taibuivan/autolist/internal/platform/config"
	"github.com/taibuivan/autolist/internal/platform/constants"
	"github.com/taibuivan/autolist/internal/platform/validate"
	"github.com/taibuivan/autolist/pkg/convert"
)

// Currencies accepted by the price feature; anything else becomes eur.
var Currencies = []string{"eur", "usd", "mdl"}

// Builder turns listings into advert payloads.
type Builder struct {
	cfg config.Marketplace
}

// NewBuilder returns a builder filing adverts under the configured category.
func NewBuilder(cfg config.Marketplace) *Builder {
	return &Builder{cfg: cfg}
}

// Build returns the creation payload.
//
// It fails with a VALIDATION_ERROR when the brand or model option is missing,
// when no photo was uploaded, or when the price is not positive.
func (b *Builder) Build(l *vehicle.Listing, o *Options, photoIDs []string) (*marketplace.Advert, error) {
	if o == nil {
		o = &Options{}
	}

	v := &validate.Validator{}
	v.Required("brand", o.Brand).
		Required("model", o.Model).
		Positive("price", l.Price).
		MinCount("photos", len(photoIDs), 1)
	if err := v.Err(); err != nil {
		return nil, err
	}

	f := &features{}
	f.add(constants.FeatureBrand, o.Brand)
	f.add(constants.FeatureModel, o.Model)
	if o.Generation != "" {
		f.add(constants.FeatureGeneration, o.Generation)
	}
	f.add(constants.FeatureTitle, Title(l))

	f.addFixed(o, "775", "593", "1761", "1763", "795")
	f.add(constants.FeatureYear, ClampYear(l.Year))
	f.addFixed(o, "1196", "846")

	f.addOption(constants.FeatureBody, o.Body)
	f.addUnit(constants.FeatureMileage, l.MileageOrZero(), "km")
	f.addOption(constants.FeatureEngine, o.Engine)
	f.addOption(constants.FeatureFuel, o.Fuel)
	f.addOption(constants.FeatureDrive, o.Drive)
	f.addOption(constants.FeatureTransmission, o.Transmission)
	f.addFixed(o, constants.FeatureRegion)

	f.addUnit(constants.FeaturePrice, priceValue(l.Price), Currency(l.PriceUnit))
	if description := Description(l); description != "" {
		f.add(constants.FeatureDescription, description)
	}
	f.add(constants.FeatureImages, photoIDs)

	if phone := NormalizePhone(b.cfg.ContactPhone); phone != "" {
		f.add(constants.FeaturePhone, []string{phone})
	}

	return &marketplace.Advert{
		CategoryID:    b.cfg.CategoryID,
		SubcategoryID: b.cfg.SubcategoryID,
		OfferType:     b.cfg.OfferType,
		Features:      f.list,
		AccessPolicy:  b.AccessPolicy(),
	}, nil
}

// BuildPatch returns the refresh payload: title, description, price, mileage
// and, when photoIDs is not empty, the images.
func (b *Builder) BuildPatch(l *vehicle.Listing, photoIDs []string) (*marketplace.AdvertPatch, error) {
	v := &validate.Validator{}
	if err := v.Positive("price", l.Price).Err(); err != nil {
		return nil, err
	}

	f := &features{}
	f.add(constants.FeatureTitle, Title(l))
	if description := Description(l); description != "" {
		f.add(constants.FeatureDescription, description)
	}
	f.addUnit(constants.FeaturePrice, priceValue(l.Price), Currency(l.PriceUnit))
	f.addUnit(constants.FeatureMileage, l.MileageOrZero(), "km")
	if len(photoIDs) > 0 {
		f.add(constants.FeatureImages, photoIDs)
	}
	return &marketplace.AdvertPatch{Features: f.list}, nil
}

// AccessPolicy is the visibility new adverts are created with.
func (b *Builder) AccessPolicy() string {
	if b.cfg.AccessPolicy == constants.AccessPrivate {
		return constants.AccessPrivate
	}
	return constants.AccessPublic
}

// # Field rules

// Title is the listing title with any plate number removed. It falls back to
// "brand model" when nothing is left.
func Title(l *vehicle.Listing) string {
	scrubber := l.Scrubber()
	if title := scrubber.Strip(l.Title); title != "" {
		return title
	}
	fallback := strings.Join(strings.Fields(l.Brand+" "+l.Model), " ")
	if stripped := scrubber.Strip(fallback); stripped != "" {
		return stripped
	}
	return fallback
}

// Description is the listing description with any plate number removed.
func Description(l *vehicle.Listing) string {
	return strings.TrimSpace(l.Scrubber().StripLines(l.Description))
}

// ClampYear bounds a year to the range the marketplace accepts.
func ClampYear(year int) int {
	return max(constants.YearMin, min(constants.YearMax, year))
}

// Currency returns unit when it is accepted, eur otherwise.
func Currency(unit string) string {
	unit = strings.ToLower(strings.TrimSpace(unit))
	for _, c := range Currencies {
		if unit == c {
			return unit
		}
	}
	return "eur"
}

// NormalizePhone keeps digits only and makes sure the number carries the
// country prefix: a leading 0 is replaced, a missing prefix is prepended.
func NormalizePhone(phone string) string {
	digits := convert.DigitsOnly(phone)
	switch {
	case digits == "":
		return ""
	case strings.HasPrefix(digits, "0"):
		return constants.PhoneCountryPrefix + digits[1:]
	case strings.HasPrefix(digits, constants.PhoneCountryPrefix):
		return digits
	default:
		return constants.PhoneCountryPrefix + digits
	}
}

// priceValue truncates the price to whole units.
func priceValue(price float64) int64 {
	return int64(math.Trunc(price))
}

// features accumulates payload entries in order.
type features struct {
	list []marketplace.FeatureValue
}

func (f *features) add(id string, value any) {
	f.list = append(f.list, marketplace.FeatureValue{ID: id, Value: value})
}

func (f *features) addUnit(id string, value any, unit string) {
	f.list = append(f.list, marketplace.FeatureValue{ID: id, Value: value, Unit: unit})
}

// addOption skips features without an option.
func (f *features) addOption(id, optionID string) {
	if optionID != "" {
		f.add(id, optionID)
	}
}

func (f *features) addFixed(o *Options, ids ...string) {
	for _, id := range ids {
		f.addOption(id, o.Fixed[id])
	}
}
