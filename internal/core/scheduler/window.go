// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package scheduler

import (
	"fmt"
	"time"
)

// DailyWindow is the local-time span [Start, End) hours during which new
// adverts may be published.
type DailyWindow struct {
	Location *time.Location
	Start    int
	End      int
}

// NewDailyWindow loads timezone and validates the hours.
func NewDailyWindow(timezone string, start, end int) (DailyWindow, error) {
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return DailyWindow{}, fmt.Errorf("scheduler: load timezone %q: %w", timezone, err)
	}
	if start < 0 || end > 24 || start >= end {
		return DailyWindow{}, fmt.Errorf("scheduler: invalid window [%d, %d)", start, end)
	}
	return DailyWindow{Location: location, Start: start, End: end}, nil
}

// Contains reports whether t falls inside the window.
func (w DailyWindow) Contains(t time.Time) bool {
	hour := t.In(w.Location).Hour()
	return hour >= w.Start && hour < w.End
}

// Next returns t when it is inside the window, otherwise the next opening.
func (w DailyWindow) Next(t time.Time) time.Time {
	if w.Contains(t) {
		return t
	}
	local := t.In(w.Location)
	opening := time.Date(local.Year(), local.Month(), local.Day(), w.Start, 0, 0, 0, w.Location)
	if !opening.After(local) {
		opening = opening.AddDate(0, 0, 1)
	}
	return opening
}
