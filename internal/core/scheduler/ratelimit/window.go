// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package ratelimit caps how many publishes a scheduling mode may perform in a
rolling period.

A [Window] remembers the timestamps of recorded events and allows a new one
while fewer than the limit fall inside the period ending now. Windows are not
safe for concurrent use; a [Registry] holds them all behind one mutex and reads
time from an injectable clock, so tests advance time instead of sleeping.
*/
package ratelimit

import (
	"sync"
	"time"

	"github.com/taibuivan/autolist/internal/platform/clock"
)

// Window is a sliding-window counter. A limit of zero or less never blocks.
type Window struct {
	limit  int
	period time.Duration
	events []time.Time
}

// NewWindow returns a window allowing limit events per period.
func NewWindow(limit int, period time.Duration) *Window {
	return &Window{limit: limit, period: period}
}

// prune drops events that left the window; events are kept in time order.
func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-w.period)
	keep := 0
	for keep < len(w.events) && !w.events[keep].After(cutoff) {
		keep++
	}
	w.events = w.events[keep:]
}

// Allow reports whether one more event fits at now.
func (w *Window) Allow(now time.Time) bool {
	if w.limit <= 0 {
		return true
	}
	w.prune(now)
	return len(w.events) < w.limit
}

// Record adds an event at now.
func (w *Window) Record(now time.Time) {
	if w.limit <= 0 {
		return
	}
	w.prune(now)
	w.events = append(w.events, now)
}

// NextAt returns the earliest time an event fits: now when allowed, otherwise
// the moment the oldest counted event leaves the window.
func (w *Window) NextAt(now time.Time) time.Time {
	if w.Allow(now) {
		return now
	}
	return w.events[len(w.events)-w.limit].Add(w.period)
}

// Remaining returns how many events still fit at now, or -1 when unlimited.
func (w *Window) Remaining(now time.Time) int {
	if w.limit <= 0 {
		return -1
	}
	w.prune(now)
	return max(0, w.limit-len(w.events))
}

// Registry holds one window per mode.
type Registry struct {
	mu      sync.Mutex
	clock   clock.Clock
	windows map[string]*Window
}

// NewRegistry returns an empty registry reading time from clk.
func NewRegistry(clk clock.Clock) *Registry {
	return &Registry{clock: clk, windows: map[string]*Window{}}
}

// Set installs or replaces the window of mode.
func (r *Registry) Set(mode string, limit int, period time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows[mode] = NewWindow(limit, period)
}

// Allow reports whether mode may act now. Modes without a window are unlimited.
func (r *Registry) Allow(mode string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[mode]
	return !ok || w.Allow(r.clock.Now())
}

// Record counts one event for mode.
func (r *Registry) Record(mode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.windows[mode]; ok {
		w.Record(r.clock.Now())
	}
}

// NextAt returns when mode may act next.
func (r *Registry) NextAt(mode string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	if w, ok := r.windows[mode]; ok {
		return w.NextAt(now)
	}
	return now
}

// Remaining returns how many events mode may still perform now, or -1 when unlimited.
func (r *Registry) Remaining(mode string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.windows[mode]; ok {
		return w.Remaining(r.clock.Now())
	}
	return -1
}
