// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package scheduler runs the background workers that move records through the
publish state machine.

# Workers

Each enabled mode runs in its own goroutine: one tick right away, then one per
interval, until the context is cancelled.

  - steady: inside the daily window, publishes one recent eligible record per
    tick, optionally capped per hour.
  - catchup: ignores recency and the window; strictly capped per rolling hour.
  - resync: refreshes published adverts, least recently synced first.
  - hide: switches adverts of records in a terminal stage to private.

A failed candidate is parked for a cool-down and retried on a later cycle.
Nothing runs in draft-only mode.
*/
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/autolist/internal/core/publish"
	"github.com/taibuivan/autolist/internal/core/record"
	"github.com/taibuivan/autolist/internal/core/scheduler/ratelimit"
	"github.com/taibuivan/autolist/internal/platform/clock"
	"github.com/taibuivan/autolist/internal/platform/config"
	"github.com/taibuivan/autolist/internal/platform/ctxutil"
)

// Mode names a worker.
type Mode string

const (
	ModeSteady  Mode = "steady"
	ModeCatchup Mode = "catchup"
	ModeResync  Mode = "resync"
	ModeHide    Mode = "hide"
)

// Modes lists every worker mode.
var Modes = []Mode{ModeSteady, ModeCatchup, ModeResync, ModeHide}

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, error) {
	for _, mode := range Modes {
		if string(mode) == name {
			return mode, nil
		}
	}
	return "", fmt.Errorf("scheduler: unknown mode %q", name)
}

// maxAttemptsPerTick bounds how many candidates one publishing tick may try.
const maxAttemptsPerTick = 3

// Publisher is the publish service as seen by the workers.
type Publisher interface {
	PublishOne(ctx context.Context, recordID int64) (*publish.Result, error)
	SyncOne(ctx context.Context, listingID string, recordID int64) (*publish.Result, error)
	HideOne(ctx context.Context, recordID int64) (*publish.Result, error)
	Candidates(ctx context.Context, sel publish.Selection) ([]*record.Record, error)
	ResyncQueue(ctx context.Context, limit int) ([]*publish.State, error)
	HideQueue(ctx context.Context, limit int) ([]*publish.State, error)
	DraftOnly() bool
}

// Report summarizes one tick.
type Report struct {
	Mode      Mode              `json:"mode"`
	Skipped   string            `json:"skipped,omitempty"`
	Attempted int               `json:"attempted"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Results   []*publish.Result `json:"results,omitempty"`
}

// Scheduler owns the workers and their shared rate windows.
type Scheduler struct {
	cfg       config.Scheduler
	publisher Publisher
	window    DailyWindow
	limits    *ratelimit.Registry
	parked    *Parking
	clock     clock.Clock
	logger    *slog.Logger
}

// New builds a scheduler. It fails when the timezone or window is invalid.
func New(cfg config.Scheduler, publisher Publisher, clk clock.Clock, logger *slog.Logger) (*Scheduler, error) {
	window, err := NewDailyWindow(cfg.Timezone, cfg.WindowStart, cfg.WindowEnd)
	if err != nil {
		return nil, err
	}

	limits := ratelimit.NewRegistry(clk)
	limits.Set(string(ModeSteady), cfg.SteadyPerHour, time.Hour)
	limits.Set(string(ModeCatchup), cfg.CatchupPerHour, time.Hour)

	return &Scheduler{
		cfg:       cfg,
		publisher: publisher,
		window:    window,
		limits:    limits,
		parked:    NewParking(clk, cfg.Cooldown),
		clock:     clk,
		logger:    logger.With(slog.String("component", "scheduler")),
	}, nil
}

// # Lifecycle

type worker struct {
	mode     Mode
	interval time.Duration
}

func (s *Scheduler) workers() []worker {
	var out []worker
	if s.cfg.PollInterval > 0 {
		out = append(out, worker{ModeSteady, s.cfg.PollInterval})
	}
	if s.cfg.CatchupEnabled && s.cfg.CatchupInterval > 0 {
		out = append(out, worker{ModeCatchup, s.cfg.CatchupInterval})
	}
	if s.cfg.ResyncEnabled && s.cfg.ResyncInterval > 0 {
		out = append(out, worker{ModeResync, s.cfg.ResyncInterval})
	}
	if s.cfg.HideEnabled && s.cfg.HideInterval > 0 {
		out = append(out, worker{ModeHide, s.cfg.HideInterval})
	}
	return out
}

// Run starts every enabled worker and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler_disabled")
		return
	}
	if s.publisher.DraftOnly() {
		s.logger.Info("scheduler_idle_draft_only")
		return
	}

	var wg sync.WaitGroup
	for _, w := range s.workers() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, w)
		}()
		s.logger.Info("scheduler_worker_started", slog.String("mode", string(w.mode)), slog.Duration("interval", w.interval))
	}

	wg.Wait()
	s.logger.Info("scheduler_stopped")
}

func (s *Scheduler) loop(ctx context.Context, w worker) {
	ctx = ctxutil.WithTrigger(ctx, "scheduler:"+string(w.mode))

	s.safeTick(ctx, w.mode)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.safeTick(ctx, w.mode)
		}
	}
}

// safeTick runs one tick; a panic is logged and the worker keeps going.
func (s *Scheduler) safeTick(ctx context.Context, mode Mode) {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.logger.Error("scheduler_panic", slog.String("mode", string(mode)), slog.Any("panic", recovered))
		}
	}()

	report, err := s.Tick(ctx, mode)
	if err != nil {
		s.logger.Error("scheduler_tick_failed", slog.String("mode", string(mode)), slog.Any("error", err))
		return
	}
	if report.Skipped != "" {
		s.logger.Debug("scheduler_tick_skipped", slog.String("mode", string(mode)), slog.String("reason", report.Skipped))
		return
	}
	s.logger.Info("scheduler_tick",
		slog.String("mode", string(mode)),
		slog.Int("attempted", report.Attempted),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
	)
}

// # Ticks

// Tick runs one cycle of mode.
func (s *Scheduler) Tick(ctx context.Context, mode Mode) (*Report, error) {
	report := &Report{Mode: mode}
	if s.publisher.DraftOnly() {
		report.Skipped = "draft_only"
		return report, nil
	}

	switch mode {
	case ModeSteady, ModeCatchup:
		return report, s.publishTick(ctx, report)
	case ModeResync:
		return report, s.resyncTick(ctx, report)
	case ModeHide:
		return report, s.hideTick(ctx, report)
	default:
		return nil, fmt.Errorf("scheduler: unknown mode %q", mode)
	}
}

func (s *Scheduler) publishTick(ctx context.Context, report *Report) error {
	mode := string(report.Mode)
	now := s.clock.Now()

	if report.Mode == ModeSteady && !s.window.Contains(now) {
		report.Skipped = "outside_window"
		s.logger.Debug("scheduler_outside_window", slog.Time("opens_at", s.window.Next(now)))
		return nil
	}
	if !s.limits.Allow(mode) {
		report.Skipped = "rate_limited"
		s.logger.Debug("scheduler_rate_limited", slog.String("mode", mode), slog.Time("next_at", s.limits.NextAt(mode)))
		return nil
	}

	candidates, err := s.publisher.Candidates(ctx, publish.Selection{
		Limit:   maxAttemptsPerTick,
		Recent:  report.Mode == ModeSteady,
		Exclude: s.parked.Excluded(),
	})
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		report.Skipped = "no_candidates"
		return nil
	}

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}

		report.Attempted++
		result, err := s.publisher.PublishOne(ctx, candidate.ID)
		if err != nil {
			report.Failed++
			s.parked.Park(candidate.ID)
			s.logger.Warn("scheduler_publish_failed",
				slog.String("mode", mode),
				slog.Int64("record_id", candidate.ID),
				slog.Any("error", err),
			)
			continue
		}

		report.Results = append(report.Results, result)
		if result.Action == publish.ActionCreated || result.Action == publish.ActionDrafted {
			report.Succeeded++
			s.limits.Record(mode)
			break
		}
	}
	return nil
}

func (s *Scheduler) resyncTick(ctx context.Context, report *Report) error {
	states, err := s.publisher.ResyncQueue(ctx, s.cfg.ResyncBatch)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		report.Skipped = "nothing_published"
		return nil
	}

	for _, state := range states {
		if ctx.Err() != nil {
			break
		}

		report.Attempted++
		result, err := s.publisher.SyncOne(ctx, state.ListingID, state.SourceID)
		if err != nil {
			report.Failed++
			s.logger.Warn("scheduler_sync_failed",
				slog.Int64("record_id", state.SourceID),
				slog.String("listing_id", state.ListingID),
				slog.Any("error", err),
			)
			continue
		}
		report.Succeeded++
		if result.Action == publish.ActionUpdated {
			report.Results = append(report.Results, result)
		}
	}
	return nil
}

func (s *Scheduler) hideTick(ctx context.Context, report *Report) error {
	states, err := s.publisher.HideQueue(ctx, s.cfg.HideBatch)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		report.Skipped = "nothing_to_hide"
		return nil
	}

	for _, state := range states {
		if ctx.Err() != nil {
			break
		}

		report.Attempted++
		result, err := s.publisher.HideOne(ctx, state.SourceID)
		if err != nil {
			report.Failed++
			s.logger.Warn("scheduler_hide_failed",
				slog.Int64("record_id", state.SourceID),
				slog.String("listing_id", state.ListingID),
				slog.Any("error", err),
			)
			continue
		}
		report.Succeeded++
		report.Results = append(report.Results, result)
	}
	return nil
}
