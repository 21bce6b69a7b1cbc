// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides quick, fault-tolerant conversions for loosely-typed input.

CRM exports mix integers, floats with a ".0" artifact and human-formatted numbers
("15 500 €", "120,5"). These helpers turn such values into numbers or report
that they could not.
*/
package convert

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ToIntD converts a string to an int, returning def when it is empty or not a number.
func ToIntD(str string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(str)); err == nil {
		return v
	}
	return def
}

// ParseID parses an integer identifier, tolerating a float artifact such as "123.0".
// Non-integral values ("12.5") are rejected.
func ParseID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// DigitsOnly drops every rune that is not an ASCII digit.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// ParseDecimal extracts a decimal number from human-formatted text.
//
// Everything except digits, '.' and ',' is discarded and ',' is read as the
// decimal separator: "15 500 €" → 15500, "120,5" → 120.5.
func ParseDecimal(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			return r
		case r == '.' || r == ',':
			return '.'
		default:
			return -1
		}
	}, s)

	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		return 0, false
	}

	// Several separators mean thousands grouping: "1.250.000" → 1250000.
	if strings.Count(cleaned, ".") > 1 {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
