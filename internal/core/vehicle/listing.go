// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package vehicle turns a CRM record into the canonical attributes of a car listing.

The normalizer decodes every field it needs once, through a [reference.Context]
built for the record, and never touches the marketplace. Attributes that map to
marketplace options (body, fuel, engine, drive, transmission) are kept as the
decoded text; the taxonomy package resolves them.
*/
package vehicle

import "github.com/taibuivan/autolist/pkg/plate"

// DefaultYear is used when no field of the record yields a plausible year.
const DefaultYear = 2020

// Year bounds accepted when parsing a year out of a field.
const (
	minParsedYear = 1900
	maxParsedYear = 2030
)

// Listing is the normalized form of a CRM record. It is never persisted; only
// its content hash is.
type Listing struct {
	SourceID int64 `json:"source_id"`

	Brand string `json:"brand"`
	Model string `json:"model"`
	Title string `json:"title"`
	Year  int    `json:"year"`

	Price     float64 `json:"price"`
	PriceUnit string  `json:"price_unit"`
	// Mileage is nil when the record carries no usable mileage.
	Mileage *int `json:"mileage,omitempty"`

	Description string   `json:"description"`
	Photos      []string `json:"photos"`
	Link        string   `json:"link,omitempty"`

	Attributes Attributes `json:"attributes"`

	// Plate is used for scrubbing only and never published.
	Plate string `json:"-"`
}

// Attributes holds decoded free text for the option-backed features.
type Attributes struct {
	Body         string `json:"body,omitempty"`
	Fuel         string `json:"fuel,omitempty"`
	Engine       string `json:"engine,omitempty"`
	Drive        string `json:"drive,omitempty"`
	Transmission string `json:"transmission,omitempty"`
}

// MileageOrZero returns the mileage, or 0 when unknown.
func (l *Listing) MileageOrZero() int {
	if l.Mileage == nil {
		return 0
	}
	return *l.Mileage
}

// Scrubber removes the plate from listing text while protecting the words of
// the brand and model.
func (l *Listing) Scrubber() *plate.Scrubber {
	return plate.New(l.Plate).Keep(l.Brand, l.Model)
}
