// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ratelimit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/autolist/internal/core/scheduler/ratelimit"
	"github.com/taibuivan/autolist/internal/platform/clock"
)

var start = time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

/*
TestWindow_SlidingHour blocks the third event until the oldest leaves the hour.
*/
func TestWindow_SlidingHour(t *testing.T) {
	w := ratelimit.NewWindow(2, time.Hour)

	assert.True(t, w.Allow(start))
	w.Record(start)
	w.Record(start.Add(20 * time.Minute))

	third := start.Add(30 * time.Minute)
	assert.False(t, w.Allow(third))
	assert.Equal(t, start.Add(time.Hour), w.NextAt(third))
	assert.Equal(t, 0, w.Remaining(third))

	assert.False(t, w.Allow(start.Add(time.Hour-time.Second)))
	assert.True(t, w.Allow(start.Add(time.Hour)), "NextAt is the first allowed instant")
	assert.Equal(t, 1, w.Remaining(start.Add(time.Hour)))
}

/*
TestWindow_Unlimited never blocks when no limit is configured.
*/
func TestWindow_Unlimited(t *testing.T) {
	w := ratelimit.NewWindow(0, time.Hour)
	for i := range 100 {
		w.Record(start.Add(time.Duration(i) * time.Second))
	}
	assert.True(t, w.Allow(start))
	assert.Equal(t, start, w.NextAt(start))
	assert.Equal(t, -1, w.Remaining(start))
}

/*
TestRegistry reads time from the injected clock.
*/
func TestRegistry(t *testing.T) {
	clk := clock.NewManual(start)
	registry := ratelimit.NewRegistry(clk)
	registry.Set("catchup", 2, time.Hour)

	assert.True(t, registry.Allow("unknown"))
	assert.Equal(t, -1, registry.Remaining("unknown"))

	registry.Record("catchup")
	clk.Advance(10 * time.Minute)
	registry.Record("catchup")

	clk.Advance(10 * time.Minute)
	assert.False(t, registry.Allow("catchup"))
	assert.Equal(t, start.Add(time.Hour), registry.NextAt("catchup"))

	clk.Set(start.Add(61 * time.Minute))
	assert.True(t, registry.Allow("catchup"))
	assert.Equal(t, 1, registry.Remaining("catchup"))
}
