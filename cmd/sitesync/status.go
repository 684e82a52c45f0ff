package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/ganot/sitesync/internal/domain/session"
	"github.com/ganot/sitesync/internal/resource"
	"github.com/spf13/cobra"
)

var projectsKey = resource.NewKey(resource.Projects, 0)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session, network and cache state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{probe: true}, func(ctx context.Context, a *app) error {
				return printStatus(ctx, cmd, a)
			})
		},
	}
}

func printStatus(ctx context.Context, cmd *cobra.Command, a *app) error {
	out := cmd.OutOrStdout()
	snap := a.session.Snapshot()

	fmt.Fprintf(out, "Session: %s\n", snap.State)
	if snap.State == session.StateTenantSelected {
		fmt.Fprintf(out, "Tenant:  %d\n", snap.TenantID)
	}
	network := "unavailable"
	if a.monitor.IsAvailable() {
		network = "available"
	}
	fmt.Fprintf(out, "Network: %s\n", network)

	entries, err := a.cache.Entries()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nCache (%s):\n", a.cache.Dir())
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RESOURCE\tPROJECT\tSIZE\tUPDATED")
	for _, e := range entries {
		project := "-"
		if e.Key.Kind.ProjectScoped() {
			project = fmt.Sprint(e.Key.ProjectID)
		}
		updated := "unknown"
		if !e.StoredAt.IsZero() {
			updated = humanize.Time(e.StoredAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Key.Kind, project, humanize.Bytes(uint64(e.Size)), updated)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	offline, err := a.offline.List(ctx)
	if err != nil {
		return err
	}
	if len(offline) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\nOffline projects:")
	for _, p := range offline {
		drawings, err := a.coordinator.IsAvailableOffline(ctx, resource.Drawings, p.ProjectID)
		if err != nil {
			return err
		}
		documents, err := a.coordinator.IsAvailableOffline(ctx, resource.Documents, p.ProjectID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %d %s (enabled %s; drawings ready: %t, documents ready: %t)\n",
			p.ProjectID, projectLabel(a, p.ProjectID), humanize.Time(p.EnabledAt), drawings, documents)
	}
	return nil
}
