// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package reference

import "context"

// Repository persists resolved labels.
type Repository interface {
	// LoadLabels returns the stored labels among keys; missing keys are absent from the result.
	LoadLabels(context context.Context, keys []Key) (Labels, error)

	// SaveLabels upserts labels; the last write wins.
	SaveLabels(context context.Context, labels Labels) error
}

// Lookup fetches a label from the CRM catalog service.
type Lookup interface {
	// Element returns the label of one catalog element. found is false when
	// the catalog type does not hold the element.
	Element(context context.Context, catalogType string, key Key) (label string, found bool, err error)
}
