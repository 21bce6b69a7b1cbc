// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package scheduler

import (
	"slices"
	"sync"
	"time"

	"github.com/taibuivan/autolist/internal/platform/clock"
)

// Parking keeps failed candidates out of selection for a cool-down, so a
// record that keeps failing cannot block the ones behind it.
type Parking struct {
	mu       sync.Mutex
	clock    clock.Clock
	cooldown time.Duration
	until    map[int64]time.Time
}

// NewParking returns an empty parking lot.
func NewParking(clk clock.Clock, cooldown time.Duration) *Parking {
	return &Parking{clock: clk, cooldown: cooldown, until: map[int64]time.Time{}}
}

// Park excludes id until the cool-down elapses.
func (p *Parking) Park(id int64) {
	if p.cooldown <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.until[id] = p.clock.Now().Add(p.cooldown)
}

// Parked reports whether id is still cooling down.
func (p *Parking) Parked(id int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	until, ok := p.until[id]
	return ok && p.clock.Now().Before(until)
}

// Excluded returns the ids still cooling down, in ascending order, and
// forgets the expired ones.
func (p *Parking) Excluded() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	ids := make([]int64, 0, len(p.until))
	for id, until := range p.until {
		if !now.Before(until) {
			delete(p.until, id)
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
