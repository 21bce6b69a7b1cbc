// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reference turns raw CRM field values into display text.

CRM fields come in three flavours: free text, enumerations (codes with a label
map in the field metadata) and references (integer ids of elements that live in
a separate CRM catalog). The first two are decoded from metadata alone; the
third needs labels fetched from the CRM.

# Core Responsibility

  - Decoding: [Decode] is pure and never fails. Unknown ids and codes fall back
    to the raw text.
  - Label cache: [Cache] fills (catalog, entity) labels from an in-process memo,
    the Postgres cache table and finally the CRM lookup service, in that order.
  - Context: [Context] bundles the metadata snapshot and resolved labels for one
    record so the decoder never reaches for global state.
*/
package reference

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/taibuivan/autolist/internal/core/record"
	"github.com/taibuivan/autolist/pkg/convert"
)

// # Label Domain

// Key identifies one catalog element.
type Key struct {
	CatalogID int64
	EntityID  int64
}

// String renders the key as "catalog:entity".
func (k Key) String() string {
	return fmt.Sprintf("%d:%d", k.CatalogID, k.EntityID)
}

// Labels maps catalog elements to their display label.
type Labels map[Key]string

// Request asks for the label of one element. CatalogType is the type named by
// the field metadata; it is tried before the fixed fallbacks.
type Request struct {
	Key         Key
	CatalogType string
}

// LookupFailure reports an element whose label could not be resolved.
// The decoder falls back to the raw id for it.
type LookupFailure struct {
	Key   Key
	Tried []string
	Err   error
}

// Error implements error so failures can be logged uniformly.
func (f LookupFailure) Error() string {
	return fmt.Sprintf("reference %s unresolved (tried %s): %v", f.Key, strings.Join(f.Tried, ","), f.Err)
}

// # Decoding

// Decode converts a raw field value into display text.
//
//   - Lists and objects are unwrapped first (see [record.Value.Unwrap]).
//   - Reference fields: the integer id is looked up in labels; a miss yields the id.
//   - Enumerations: a code maps to its label; "a|b" maps each code and joins with ", ".
//   - Unknown metadata: the raw text.
func Decode(fieldID string, raw record.Value, meta *record.FieldMetadata, labels Labels) string {
	text := raw.String()
	if text == "" || meta == nil {
		return text
	}

	if meta.IsReference() {
		entityID, ok := convert.ParseID(text)
		if !ok {
			return text
		}
		if label, found := labels[Key{CatalogID: meta.CatalogID, EntityID: entityID}]; found && label != "" {
			return label
		}
		return strconv.FormatInt(entityID, 10)
	}

	if len(meta.Enum) == 0 {
		return text
	}
	if label, ok := meta.Enum[text]; ok {
		return label
	}
	if strings.Contains(text, "|") {
		var parts []string
		for _, code := range strings.Split(text, "|") {
			code = strings.TrimSpace(code)
			if code == "" {
				continue
			}
			if label, ok := meta.Enum[code]; ok {
				parts = append(parts, label)
			} else {
				parts = append(parts, code)
			}
		}
		return strings.Join(parts, ", ")
	}
	return text
}

// Requests lists the catalog elements referenced by a record.
func Requests(schema *record.Schema, r *record.Record) []Request {
	var out []Request
	seen := map[Key]struct{}{}

	for _, fieldID := range r.Keys() {
		meta := schema.Field(fieldID)
		if !meta.IsReference() {
			continue
		}
		entityID, ok := convert.ParseID(r.Get(fieldID).String())
		if !ok {
			continue
		}
		key := Key{CatalogID: meta.CatalogID, EntityID: entityID}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Request{Key: key, CatalogType: meta.CatalogType})
	}

	return out
}

// # Context

// Context is everything needed to decode one record: the metadata snapshot
// and the labels resolved for it.
type Context struct {
	Schema *record.Schema
	Labels Labels
}

// NewContext bundles a schema and labels.
func NewContext(schema *record.Schema, labels Labels) *Context {
	if labels == nil {
		labels = Labels{}
	}
	return &Context{Schema: schema, Labels: labels}
}

// Decode decodes the value stored under fieldID in r.
func (c *Context) Decode(r *record.Record, fieldID string) string {
	if fieldID == "" {
		return ""
	}
	return Decode(fieldID, r.Get(fieldID), c.Schema.Field(fieldID), c.Labels)
}
