// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package textnorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/autolist/pkg/textnorm"
)

/*
TestMatchKey_Diacritics checks that accented and plain spellings share a key.
*/
func TestMatchKey_Diacritics(t *testing.T) {
	assert.Equal(t, textnorm.MatchKey("Scenic"), textnorm.MatchKey("Scénic"))
	assert.Equal(t, textnorm.MatchKey("Fata"), textnorm.MatchKey("Fața"))
	assert.Equal(t, textnorm.MatchKey("Tractiune"), textnorm.MatchKey("Tracţiune"))
}

/*
TestMatchKey tests case folding and whitespace removal.
*/
func TestMatchKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercase", "GOLF", "golf"},
		{"inner_spaces", "C Class", "cclass"},
		{"nbsp", "Range\u00a0Rover", "rangerover"},
		{"cyrillic", "  Седан ", "седан"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, textnorm.MatchKey(tt.input))
		})
	}
}

/*
TestFold keeps inner spacing intact.
*/
func TestFold(t *testing.T) {
	assert.Equal(t, "c class coupe", textnorm.Fold(" C Class Coupé "))
}
