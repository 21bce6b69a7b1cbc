// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taibuivan/autolist/internal/app"
	"github.com/taibuivan/autolist/internal/platform/config"
	"github.com/taibuivan/autolist/internal/platform/constants"
	"github.com/taibuivan/autolist/internal/platform/ctxutil"
)

// newLogger writes JSON logs to w; diagnostics never mix with command output.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName), slog.String("component", "cli"))
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}
	return cfg, nil
}

// openApp wires the application for one command. The returned context is
// tagged with the cli trigger.
func openApp(cmd *cobra.Command, opts *RootOptions) (context.Context, *app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose || cfg.Debug)
	ctx := ctxutil.WithTrigger(cmd.Context(), "cli")
	ctx = ctxutil.WithLogger(ctx, logger)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "wire application", err)
	}
	return ctx, a, nil
}

func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

// parseIDs reads positive record ids from args.
func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, WrapExitError(ExitCommandError, "invalid record id "+strconv.Quote(arg), err)
		}
		ids[i] = id
	}
	return ids, nil
}
