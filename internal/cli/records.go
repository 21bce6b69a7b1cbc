// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/taibuivan/autolist/internal/core/publish"
)

// recordAction runs fn for every record id argument and prints the results.
// The first failure stops the loop.
func recordAction(opts *RootOptions, message string, fn func(ctx context.Context, svc *publish.Service, id int64) (*publish.Result, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}

		ctx, a, err := openApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		out := formatter(cmd, opts)
		results := make([]*publish.Result, 0, len(ids))
		for _, id := range ids {
			result, err := fn(ctx, a.Publisher, id)
			if err != nil {
				return out.Failure(message, err)
			}
			results = append(results, result)
		}
		return out.Success(results)
	}
}

// NewPublishCommand creates the publish command.
func NewPublishCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <record-id>...",
		Short: "Create the marketplace advert of CRM records",
		Long: `Create the marketplace advert of each record. Records that already hold a
listing are skipped; records the marketplace refuses for lack of balance are
saved as drafts.

Examples:
  autolistctl publish 5012
  autolistctl publish 5012 5013 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: recordAction(opts, "publish failed", func(ctx context.Context, svc *publish.Service, id int64) (*publish.Result, error) {
			return svc.PublishOne(ctx, id)
		}),
	}
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	var listingID string

	cmd := &cobra.Command{
		Use:   "sync <record-id>...",
		Short: "Refresh published adverts whose content changed",
		Long: `Refresh the advert of each record. Nothing is sent when the title,
description, price, mileage and photos are unchanged since the last sync.

Examples:
  autolistctl sync 5012
  autolistctl sync 5012 --listing 87654321`,
		Args: cobra.MinimumNArgs(1),
		RunE: recordAction(opts, "sync failed", func(ctx context.Context, svc *publish.Service, id int64) (*publish.Result, error) {
			if listingID != "" {
				return svc.SyncOne(ctx, listingID, id)
			}
			return svc.SyncRecord(ctx, id)
		}),
	}

	cmd.Flags().StringVar(&listingID, "listing", "", "expected marketplace listing id")
	return cmd
}

// NewHideCommand creates the hide command.
func NewHideCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hide <record-id>...",
		Short: "Make adverts of closed records private",
		Args:  cobra.MinimumNArgs(1),
		RunE: recordAction(opts, "hide failed", func(ctx context.Context, svc *publish.Service, id int64) (*publish.Result, error) {
			return svc.HideOne(ctx, id)
		}),
	}
}

// NewEligibleCommand creates the eligible command.
func NewEligibleCommand(opts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "eligible",
		Short: "List records that may be published now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			out := formatter(cmd, opts)
			ids, err := a.Publisher.ListEligible(ctx, limit)
			if err != nil {
				return out.Failure("eligible failed", err)
			}
			return out.Success(ids)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of records")
	return cmd
}
