// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package plate removes vehicle registration numbers from free text.

Registration numbers must never reach a public listing. CRM titles often carry
them glued to the model ("Golf ABC123"), appended after it ("Camry ABC 123")
or in front of the title ("MDQ 086 Dacia Logan").

Rules:

  - A token made of 2-3 letters and 2-3 digits (either order) is removed anywhere.
  - A "letters digits" pair (2-3 letters, 2-3 digits) is removed at either edge
    when something else is left.
  - Explicit plate values known from the record are removed case-insensitively.
  - Words registered with [Scrubber.Keep] are never removed, so model codes
    such as XC90 or GLE 350 survive next to a plate.

Removal repeats until nothing changes, so stripping is idempotent.
*/
package plate

import (
	"regexp"
	"strings"
)

const letters = `A-Za-zА-Яа-яЁё`

var (
	compactToken = regexp.MustCompile(`^(?:[` + letters + `]{2,3}[0-9]{2,3}|[0-9]{2,3}[` + letters + `]{2,3})$`)
	letterGroup  = regexp.MustCompile(`^[` + letters + `]{2,3}$`)
	digitGroup   = regexp.MustCompile(`^[0-9]{2,3}$`)
)

// tokenPunct is trimmed from token edges before matching: "(ABC123)," still counts.
const tokenPunct = `()[]{}<>,.;:!?"'«»`

// Scrubber strips plates from text. The zero value removes pattern matches only.
type Scrubber struct {
	explicit []*regexp.Regexp
	keep     map[string]struct{}
}

// New returns a scrubber that also removes the explicit plate values.
func New(explicit ...string) *Scrubber {
	s := &Scrubber{keep: make(map[string]struct{})}
	for _, value := range explicit {
		if value = strings.TrimSpace(value); value != "" {
			s.explicit = append(s.explicit, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(value)))
		}
	}
	return s
}

// Keep protects every word of values from pattern removal.
func (s *Scrubber) Keep(values ...string) *Scrubber {
	if s.keep == nil {
		s.keep = make(map[string]struct{})
	}
	for _, value := range values {
		for _, word := range strings.Fields(value) {
			if word = strings.Trim(word, tokenPunct); word != "" {
				s.keep[strings.ToLower(word)] = struct{}{}
			}
		}
	}
	return s
}

// Strip removes plates from text and collapses whitespace into single
// spaces. The result is a fixed point.
func (s *Scrubber) Strip(text string) string {
	current := text
	for {
		next := s.stripOnce(current)
		if next == current {
			return next
		}
		current = next
	}
}

// StripLines applies [Scrubber.Strip] to every line, keeping line breaks.
func (s *Scrubber) StripLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = s.Strip(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Strip removes plate-like tokens and the explicit values from text.
func Strip(text string, explicit ...string) string {
	return New(explicit...).Strip(text)
}

// StripLines applies [Strip] to every line of text, keeping line breaks.
func StripLines(text string, explicit ...string) string {
	return New(explicit...).StripLines(text)
}

func (s *Scrubber) kept(token string) bool {
	_, ok := s.keep[strings.ToLower(token)]
	return ok
}

// spacedPair reports whether first and second form an unprotected
// "letters digits" plate.
func (s *Scrubber) spacedPair(first, second string) bool {
	first, second = strings.Trim(first, tokenPunct), strings.Trim(second, tokenPunct)
	if s.kept(first) || s.kept(second) {
		return false
	}
	return letterGroup.MatchString(first) && digitGroup.MatchString(second)
}

// stripOnce performs a single removal pass.
func (s *Scrubber) stripOnce(text string) string {

	// 1. Known plate values
	for _, pattern := range s.explicit {
		text = pattern.ReplaceAllString(text, " ")
	}

	// 2. Compact tokens anywhere
	tokens := strings.Fields(text)
	kept := tokens[:0]
	for _, token := range tokens {
		bare := strings.Trim(token, tokenPunct)
		if compactToken.MatchString(bare) && !s.kept(bare) {
			continue
		}
		kept = append(kept, token)
	}

	// 3. Spaced pairs at the edges, only when something else remains
	if n := len(kept); n >= 3 && s.spacedPair(kept[n-2], kept[n-1]) {
		kept = kept[:n-2]
	}
	if len(kept) >= 3 && s.spacedPair(kept[0], kept[1]) {
		kept = kept[2:]
	}

	return strings.Join(kept, " ")
}
