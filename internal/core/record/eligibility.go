// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package record

import (
	"fmt"
	"slices"
	"strings"
)

// Criteria is the in-memory half of the eligibility filter. It applies the
// checks that need decoded values: required fields and the photo count.
type Criteria struct {
	CategoryID string
	Stages     []string
	Required   []string
	PhotoField string
	MinPhotos  int
	MaxPhotos  int
}

// Check returns the reasons a record is not eligible; an empty slice means it is.
func (c Criteria) Check(r *Record) []string {
	var reasons []string

	if c.CategoryID != "" && r.CategoryID != c.CategoryID {
		reasons = append(reasons, fmt.Sprintf("category %q is not %q", r.CategoryID, c.CategoryID))
	}
	if len(c.Stages) > 0 && !slices.Contains(c.Stages, r.StageID) {
		reasons = append(reasons, fmt.Sprintf("stage %q is not allowed", r.StageID))
	}

	for _, key := range c.Required {
		if !r.Has(key) {
			reasons = append(reasons, "missing "+key)
		}
	}

	if c.PhotoField != "" {
		count := PhotoCount(r.Get(c.PhotoField))
		if count < c.MinPhotos || (c.MaxPhotos > 0 && count > c.MaxPhotos) {
			reasons = append(reasons, fmt.Sprintf("photo count %d outside [%d, %d]", count, c.MinPhotos, c.MaxPhotos))
		}
	}

	return reasons
}

// Eligible reports whether the record passes every check.
func (c Criteria) Eligible(r *Record) bool {
	return len(c.Check(r)) == 0
}

// PhotoCount counts the attachments held by a photo field. Lists stored as a
// JSON string are parsed; any other non-blank text counts as one attachment.
func PhotoCount(v Value) int {
	switch v.Kind() {
	case KindList:
		return len(v.Items())
	case KindObject:
		return 1
	case KindText:
		text := strings.TrimSpace(v.text)
		if text == "" {
			return 0
		}
		if strings.HasPrefix(text, "[") {
			if inner, err := ParseJSON([]byte(text)); err == nil && inner.Kind() == KindList {
				return len(inner.Items())
			}
		}
		return 1
	default:
		return 0
	}
}
