// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package record models the CRM side of the sync: loosely typed source records,
their field metadata and the repositories that read them from the Postgres mirror.

A record's fields are decoded exactly once, when the row is read, into the
[Value] tagged union. Everything downstream (the reference decoder, the vehicle
normalizer) works on those values and never re-inspects raw JSON.
*/
package record

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record is one CRM item. It is read-only for this service.
type Record struct {
	ID         int64
	StageID    string
	CategoryID string
	CreatedAt  time.Time
	Fields     map[string]Value

	// folded maps lowercase keys to their original spelling.
	folded map[string]string
}

// New builds a record from already decoded fields.
func New(id int64, stageID, categoryID string, createdAt time.Time, fields map[string]Value) *Record {
	if fields == nil {
		fields = map[string]Value{}
	}
	r := &Record{
		ID:         id,
		StageID:    stageID,
		CategoryID: categoryID,
		CreatedAt:  createdAt,
		Fields:     fields,
	}
	r.index()
	return r
}

// FromRaw decodes the raw JSON object stored for a record.
func FromRaw(id int64, stageID, categoryID string, createdAt time.Time, raw []byte) (*Record, error) {
	fields := map[string]Value{}
	if len(raw) > 0 {
		doc, err := ParseJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", id, err)
		}
		if doc.Kind() != KindObject && !doc.IsNull() {
			return nil, fmt.Errorf("record %d: raw payload is a %s, want object", id, doc.Kind())
		}
		fields = doc.fields
		if fields == nil {
			fields = map[string]Value{}
		}
	}

	// Columns win over raw keys, but the raw copy fills gaps.
	if stageID == "" {
		stageID = fields["stageId"].String()
	}
	if categoryID == "" {
		categoryID = fields["categoryId"].String()
	}

	return New(id, stageID, categoryID, createdAt, fields), nil
}

func (r *Record) index() {
	r.folded = make(map[string]string, len(r.Fields))
	for key := range r.Fields {
		r.folded[strings.ToLower(key)] = key
	}
}

// Get returns the value stored under key. Lookup is exact first, then
// case-insensitive, because CRM exports disagree on key casing (ufCrm34_x / UF_CRM_34_X).
func (r *Record) Get(key string) Value {
	if value, ok := r.Fields[key]; ok {
		return value
	}
	if r.folded == nil {
		r.index()
	}
	if original, ok := r.folded[strings.ToLower(key)]; ok {
		return r.Fields[original]
	}
	return Null()
}

// Has reports whether key holds a filled value.
func (r *Record) Has(key string) bool {
	return r.Get(key).Filled()
}

// Keys returns the field keys in sorted order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for key := range r.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON renders the record as its raw field object.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(Object(r.Fields))
}
