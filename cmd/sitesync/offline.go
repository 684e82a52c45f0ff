package main

import (
	"context"
	"fmt"

	"github.com/ganot/sitesync/internal/domain/activity"
	"github.com/spf13/cobra"
)

func newOfflineCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offline",
		Short: "Manage which projects are kept available offline",
	}
	cmd.AddCommand(newOfflineToggleCommand(opts, "enable", true))
	cmd.AddCommand(newOfflineToggleCommand(opts, "disable", false))
	return cmd
}

func newOfflineToggleCommand(opts *rootOptions, use string, enabled bool) *cobra.Command {
	var projectID int

	short := "Mark a project for offline use and download its drawings and documents"
	if !enabled {
		short = "Stop keeping a project available offline"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID <= 0 {
				return fmt.Errorf("--project is required")
			}
			return withApp(cmd, opts, appOptions{probe: enabled}, func(ctx context.Context, a *app) error {
				if enabled {
					if _, err := requireCredentials(a); err != nil {
						return err
					}
				}
				if err := a.coordinator.SetOfflineMode(ctx, projectID, enabled); err != nil {
					return reauthHint(err)
				}
				typ := activity.TypeOfflineEnabled
				if !enabled {
					typ = activity.TypeOfflineDisabled
				}
				a.activity.Record(ctx, typ, a.tenantID(), projectID, fmt.Sprintf("offline mode %sd", use), nil)
				fmt.Fprintf(cmd.OutOrStdout(), "Offline mode %sd for project %d\n", use, projectID)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&projectID, "project", 0, "project id")
	return cmd
}
