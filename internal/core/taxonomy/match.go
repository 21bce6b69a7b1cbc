// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package taxonomy

import (
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/autolist/internal/core/marketplace"
	"github.com/taibuivan/autolist/pkg/textnorm"
)

// Match ranks, higher is better. An exact key match returns immediately.
// A prefix of either side is a containment, so prefixes rank as containments.
const (
	rankNone       = -1
	rankSharedStem = 0 // both start with the same four runes
	rankContained  = 1 // the option is inside the query, at most one rune shorter
	rankContains   = 2 // the query is inside the option
)

// MatchOption picks the option whose title best matches text, comparing
// [textnorm.MatchKey] forms. Ties go to the earliest option.
//
// The rules keep short options from swallowing longer queries: "CLA" never
// matches "C Class", whichever comes first in the list.
func MatchOption(options []marketplace.Option, text string) (string, bool) {
	query := textnorm.MatchKey(text)
	if query == "" {
		return "", false
	}

	best, bestRank := "", rankNone
	for _, option := range options {
		title := textnorm.MatchKey(option.Title)
		if title == "" {
			continue
		}
		if title == query {
			return option.ID.String(), true
		}
		if rank := matchRank(query, title); rank > bestRank {
			best, bestRank = option.ID.String(), rank
		}
	}
	return best, bestRank != rankNone
}

func matchRank(query, title string) int {
	ql, tl := utf8.RuneCountInString(query), utf8.RuneCountInString(title)

	if strings.Contains(title, query) {
		return rankContains
	}
	if strings.Contains(query, title) {
		if tl >= ql-1 {
			return rankContained
		}
		return rankNone
	}
	if stem := prefixRunes(query, 4); stem != "" && strings.HasPrefix(title, stem) {
		return rankSharedStem
	}
	return rankNone
}

// prefixRunes returns the first n runes of s, or "" when s is shorter.
func prefixRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	if n == 0 {
		return s
	}
	return ""
}
