// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/taibuivan/autolist/internal/core/scheduler"
	"github.com/taibuivan/autolist/internal/platform/migration"
)

// NewTickCommand creates the tick command.
func NewTickCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tick <steady|catchup|resync|hide>",
		Short: "Run one scheduler cycle",
		Long: `Run one cycle of a scheduler worker in the foreground, honoring the
publishing window. Useful from cron when the API server runs with
SCHEDULER_ENABLED=false.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := scheduler.ParseMode(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid mode", err)
			}

			ctx, a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			out := formatter(cmd, opts)
			report, err := a.Scheduler.Tick(ctx, mode)
			if err != nil {
				return out.Failure("tick failed", err)
			}
			return out.Success(report)
		},
	}
}

// NewTaxonomyCommand creates the taxonomy command group.
func NewTaxonomyCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Inspect and refresh the marketplace taxonomy",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Download the feature tree and rewrite the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			out := formatter(cmd, opts)
			catalog, err := a.Resolver.Refresh(ctx)
			if err != nil {
				return out.Failure("refresh failed", err)
			}
			return out.Success(map[string]int{"features": catalog.Len()})
		},
	})

	var featureID, text string
	match := &cobra.Command{
		Use:   "match",
		Short: "Show which option free text resolves to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			optionID, ok := a.Resolver.ResolveOption(featureID, text)
			return formatter(cmd, opts).Success(map[string]any{
				"feature_id": featureID,
				"text":       text,
				"option_id":  optionID,
				"matched":    ok,
			})
		},
	}
	match.Flags().StringVar(&featureID, "feature", "", "feature id (required)")
	match.Flags().StringVar(&text, "text", "", "free text to resolve (required)")
	_ = match.MarkFlagRequired("feature")
	_ = match.MarkFlagRequired("text")
	cmd.AddCommand(match)

	return cmd
}

// NewMigrateCommand creates the migrate command group.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), true)
			if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, logger); err != nil {
				return WrapExitError(ExitFailure, "migrate up", err)
			}
			return formatter(cmd, opts).Success("migrations applied")
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), true)
			if err := migration.RunDown(cfg.DatabaseURL, cfg.MigrationPath, steps, logger); err != nil {
				return WrapExitError(ExitFailure, "migrate down", err)
			}
			return formatter(cmd, opts).Success("migrations rolled back")
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}
