package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/ganot/sitesync/internal/domain/activity"
	"github.com/spf13/cobra"
)

func newActivityCommand(opts *rootOptions) *cobra.Command {
	var (
		projectID int
		typeName  string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the local activity history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				listOpts := activity.ListOptions{ProjectID: projectID, Limit: limit}
				if typeName != "" {
					typ := activity.Type(typeName)
					listOpts.Type = &typ
				}
				entries, err := a.activity.Recent(ctx, listOpts)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "WHEN\tTYPE\tPROJECT\tSUMMARY")
				for _, e := range entries {
					project := "-"
					if e.ProjectID != 0 {
						project = fmt.Sprint(e.ProjectID)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", humanize.Time(e.CreatedAt), e.Type, project, e.Summary)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().IntVar(&projectID, "project", 0, "only entries for this project")
	cmd.Flags().StringVar(&typeName, "type", "", "only entries of this type (e.g. sync_completed)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries to show (default 20)")
	return cmd
}
