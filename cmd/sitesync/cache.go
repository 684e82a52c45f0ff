package main

import (
	"context"
	"fmt"

	"github.com/ganot/sitesync/internal/domain/activity"
	"github.com/ganot/sitesync/internal/resource"
	"github.com/spf13/cobra"
)

func newCacheCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached data",
	}
	cmd.AddCommand(newCacheClearCommand(opts))
	return cmd
}

func newCacheClearCommand(opts *rootOptions) *cobra.Command {
	var kindName string
	var projectID int

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete cached entries (all of them unless --kind is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				if kindName == "" {
					if err := a.cache.ClearAll(); err != nil {
						return err
					}
					a.activity.Record(ctx, activity.TypeCacheCleared, a.tenantID(), 0, "cleared all cached data", nil)
					fmt.Fprintln(cmd.OutOrStdout(), "Cleared all cached data")
					return nil
				}
				kind, err := resource.ParseKind(kindName)
				if err != nil {
					return err
				}
				key := resource.NewKey(kind, projectID)
				if err := a.cache.Clear(key); err != nil {
					return err
				}
				a.activity.Record(ctx, activity.TypeCacheCleared, a.tenantID(), key.ProjectID, "cleared "+key.String(), nil)
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", key)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "resource kind (projects, drawings, rfis, forms, formSubmissions, documents)")
	cmd.Flags().IntVar(&projectID, "project", 0, "project id for project-scoped kinds")
	return cmd
}
