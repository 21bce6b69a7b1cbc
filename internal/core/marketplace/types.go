// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package marketplace

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ID is an identifier the partner API sends either as a JSON number or a string.
type ID string

// UnmarshalJSON accepts 42, "42" and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || string(data) == "null":
		*id = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*id = ID(n.String())
	}
	return nil
}

// String returns the id text.
func (id ID) String() string { return string(id) }

// # Taxonomy

// Option is one controlled value of a feature.
type Option struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
}

// UnmarshalJSON reads the label from "title", falling back to "value".
func (o *Option) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID    ID              `json:"id"`
		Title string          `json:"title"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	o.ID = wire.ID
	o.Title = strings.TrimSpace(wire.Title)
	if o.Title == "" && len(wire.Value) > 0 {
		var value string
		if json.Unmarshal(wire.Value, &value) == nil {
			o.Title = strings.TrimSpace(value)
		}
	}
	return nil
}

// Feature is one attribute of the category form.
type Feature struct {
	ID      ID       `json:"id"`
	Title   string   `json:"title"`
	Type    string   `json:"type,omitempty"`
	Units   []string `json:"units,omitempty"`
	Options []Option `json:"options,omitempty"`
}

// FeatureGroup is a section of the category form.
type FeatureGroup struct {
	Title    string    `json:"title,omitempty"`
	Features []Feature `json:"features"`
}

// FeatureTree is the answer of GET /features.
type FeatureTree struct {
	Groups []FeatureGroup `json:"features_groups"`
}

// # Adverts

// FeatureValue is one feature of an advert payload.
type FeatureValue struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// Advert is the body of POST /adverts.
type Advert struct {
	CategoryID    string         `json:"category_id"`
	SubcategoryID string         `json:"subcategory_id"`
	OfferType     string         `json:"offer_type"`
	Features      []FeatureValue `json:"features"`
	AccessPolicy  string         `json:"access_policy,omitempty"`
}

// Feature returns the value of a feature, if present.
func (a *Advert) Feature(id string) (FeatureValue, bool) {
	for _, feature := range a.Features {
		if feature.ID == id {
			return feature, true
		}
	}
	return FeatureValue{}, false
}

// AdvertPatch is the body of PATCH /adverts/{id}.
type AdvertPatch struct {
	Features []FeatureValue `json:"features"`
}
