// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package plate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/autolist/pkg/plate"
)

/*
TestStrip covers the removal rules on realistic CRM titles.
*/
func TestStrip(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		explicit []string
		want     string
	}{
		{"compact_suffix", "Volkswagen Golf ABC123", nil, "Volkswagen Golf"},
		{"compact_prefix", "(MDQ086) Dacia Logan", nil, "Dacia Logan"},
		{"digits_first", "Renault Megane 123ABC", nil, "Renault Megane"},
		{"spaced_suffix", "Toyota Camry ABC 123", nil, "Toyota Camry"},
		{"spaced_prefix", "MDQ 086 Dacia Logan", nil, "Dacia Logan"},
		{"spaced_both_edges", "MDQ 086 Dacia Logan ABC 123", nil, "Dacia Logan"},
		{"compound_suffix", "Skoda Octavia AB 12 CD 34", nil, "Skoda Octavia"},
		{"cyrillic", "Лада Веста АВС123", nil, "Лада Веста"},
		{"explicit_value", "Golf xyz 987 blue", []string{"XYZ 987"}, "Golf blue"},
		{"model_code_kept", "Mercedes-Benz C200", nil, "Mercedes-Benz C200"},
		{"short_code_kept", "BMW X5", nil, "BMW X5"},
		{"brand_model_pair_kept", "BMW 320", nil, "BMW 320"},
		{"year_kept", "Ford Focus ST 2019", nil, "Ford Focus ST 2019"},
		{"whitespace_collapsed", "  Audi   A4  ", nil, "Audi A4"},
		{"empty", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, plate.Strip(tt.input, tt.explicit...))
		})
	}
}

/*
TestScrubber_Keep protects brand and model words that look like plates.
*/
func TestScrubber_Keep(t *testing.T) {
	tests := []struct {
		name  string
		keep  []string
		input string
		want  string
	}{
		{"compact_model", []string{"Volvo", "XC90"}, "Volvo XC90 ABC123", "Volvo XC90"},
		{"lowercase_match", []string{"Mazda", "CX30"}, "mazda cx30", "mazda cx30"},
		{"spaced_model", []string{"Mercedes-Benz", "GLE 350"}, "Mercedes-Benz GLE 350", "Mercedes-Benz GLE 350"},
		{"leading_brand_pair", []string{"BMW", "320"}, "BMW 320 Touring", "BMW 320 Touring"},
		{"plate_still_removed", []string{"BMW", "320"}, "MDQ 086 BMW 320 Touring", "BMW 320 Touring"},
		{"punctuation", []string{"XC60"}, "Volvo (XC60), ABC123", "Volvo (XC60),"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scrubber := plate.New("MDQ 086").Keep(tt.keep...)
			got := scrubber.Strip(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, scrubber.Strip(got))
		})
	}

	// Without protection the same text loses the model code.
	assert.Equal(t, "Volvo", plate.Strip("Volvo XC90"))
}

/*
TestStrip_FixedPoint checks that a second pass never removes anything more.
*/
func TestStrip_FixedPoint(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"AB 12",
		"AB 12 CD 34 EF 56",
		"Golf AB 12 CD 34 EF 56",
		"a\nb ABC123 c",
		"ABC123ABC123",
		"x AB 12 (CD34) 56EF, ok",
		"Toyota Camry  ABC 123",
		"12 AB 12 AB 12",
		"Škoda Superb 2.0TDI",
	}

	for _, input := range inputs {
		once := plate.Strip(input)
		assert.Equal(t, once, plate.Strip(once), "input %q", input)
	}
}

/*
TestStripLines keeps the line structure of descriptions.
*/
func TestStripLines(t *testing.T) {
	text := "Volkswagen Golf ABC123\n\nRulaj: 120 000 km\nhttps://example.com/car/1"
	want := "Volkswagen Golf\n\nRulaj: 120 000 km\nhttps://example.com/car/1"

	assert.Equal(t, want, plate.StripLines(text))
	assert.Equal(t, want, plate.StripLines(want))
}
