// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package publish

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestUpsertQuery checks the conflict branch: the listing id is never replaced,
and the hash and sync time only change along with the listing that is kept.
*/
func TestUpsertQuery(t *testing.T) {
	query := strings.Join(strings.Fields(upsertQuery), " ")

	assert.Contains(t, query, "INSERT INTO sync.publishstate AS p (sourceid, listingid, contenthash, draftref, createdat, syncedat)")
	assert.Contains(t, query, "ON CONFLICT (sourceid) DO UPDATE SET")
	assert.Contains(t, query, "listingid = COALESCE(p.listingid, EXCLUDED.listingid)")
	assert.Contains(t, query,
		"contenthash = CASE WHEN p.listingid IS NULL OR p.listingid = EXCLUDED.listingid THEN EXCLUDED.contenthash ELSE p.contenthash END")
	assert.Contains(t, query,
		"syncedat = CASE WHEN p.listingid IS NULL OR p.listingid = EXCLUDED.listingid THEN EXCLUDED.syncedat ELSE p.syncedat END")
	assert.Contains(t, query, "draftref = COALESCE(EXCLUDED.draftref, p.draftref)")
	assert.NotContains(t, query, "createdat = ", "creation time is set once")
}
