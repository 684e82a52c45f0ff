package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/ganot/sitesync/internal/coordinator"
	"github.com/ganot/sitesync/internal/domain/activity"
	"github.com/ganot/sitesync/internal/domain/project"
	"github.com/spf13/cobra"
)

func newSyncCommand(opts *rootOptions) *cobra.Command {
	var (
		projectID int
		watch     bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the project list, or every resource of one project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{probe: true}, func(ctx context.Context, a *app) error {
				if _, err := requireCredentials(a); err != nil {
					return err
				}
				run := func() error {
					if projectID == 0 {
						return syncProjects(ctx, cmd, a)
					}
					return syncProject(ctx, cmd, a, projectID)
				}
				if watch {
					return watchSync(ctx, cmd, a, run)
				}
				return run()
			})
		},
	}

	cmd.Flags().IntVar(&projectID, "project", 0, "project id to sync")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and sync again whenever the network comes back")
	return cmd
}

// watchSync runs sync once, then again on every transition to reachable,
// until ctx ends or the session has to be re-established.
func watchSync(ctx context.Context, cmd *cobra.Command, a *app, sync func() error) error {
	changes := a.monitor.Subscribe()
	last := a.monitor.IsAvailable()
	errOut := cmd.ErrOrStderr()

	attempt := func() error {
		err := sync()
		if errors.Is(err, coordinator.ErrReauthenticate) {
			return err
		}
		if err != nil {
			fmt.Fprintf(errOut, "sync: %v\n", err)
		}
		return nil
	}

	if err := attempt(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-changes:
			if !ok {
				return nil
			}
			if up == last {
				continue
			}
			last = up
			if !up {
				fmt.Fprintln(errOut, "network lost, serving cached data")
				continue
			}
			fmt.Fprintln(errOut, "network restored, refreshing")
			if err := attempt(); err != nil {
				return err
			}
		}
	}
}

func syncProjects(ctx context.Context, cmd *cobra.Command, a *app) error {
	res, err := a.coordinator.Projects(ctx, nil)
	if err != nil {
		return reauthHint(err)
	}
	out := cmd.OutOrStdout()
	printOrigin(cmd, res.Origin, res.Staleness, res.Err)
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tNAME\tSTATUS")
	for _, p := range res.Data {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", p.ID, p.Number, p.Name, p.Status)
	}
	return w.Flush()
}

func syncProject(ctx context.Context, cmd *cobra.Command, a *app, projectID int) error {
	tenantID := a.tenantID()
	outcomes, err := a.coordinator.SyncProject(ctx, projectID)
	if err != nil {
		a.activity.Record(ctx, activity.TypeSyncFailed, tenantID, projectID, err.Error(), nil)
		return reauthHint(err)
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RESOURCE\tITEMS\tSOURCE\tUPDATED\tNOTE")
	var failed int
	for _, o := range outcomes {
		updated := "-"
		if !o.StoredAt.IsZero() {
			updated = humanize.Time(o.StoredAt)
		}
		note := o.Staleness
		if o.Err != nil && o.Staleness == "" {
			note = o.Err.Error()
			failed++
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", o.Kind, o.Count, sourceLabel(o.Origin), updated, note)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	recordSync(ctx, a, tenantID, projectID, outcomes, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d resources failed to sync", failed, len(outcomes))
	}
	return nil
}

type syncDetails struct {
	Refreshed []string `json:"refreshed,omitempty"`
	Cached    []string `json:"cached,omitempty"`
	Failed    []string `json:"failed,omitempty"`
}

func recordSync(ctx context.Context, a *app, tenantID, projectID int, outcomes []coordinator.KindOutcome, failed int) {
	var details syncDetails
	for _, o := range outcomes {
		switch {
		case o.Err != nil && o.Staleness == "":
			details.Failed = append(details.Failed, string(o.Kind))
		case o.Origin == coordinator.OriginNetwork:
			details.Refreshed = append(details.Refreshed, string(o.Kind))
		default:
			details.Cached = append(details.Cached, string(o.Kind))
		}
	}
	if failed > 0 {
		a.activity.Record(ctx, activity.TypeSyncFailed, tenantID, projectID,
			fmt.Sprintf("%d of %d resources failed", failed, len(outcomes)), details)
		return
	}
	a.activity.Record(ctx, activity.TypeSyncCompleted, tenantID, projectID,
		fmt.Sprintf("%d refreshed, %d from cache", len(details.Refreshed), len(details.Cached)), details)
}

func sourceLabel(origin coordinator.Origin) string {
	if origin == "" {
		return "-"
	}
	return string(origin)
}

func printOrigin(cmd *cobra.Command, origin coordinator.Origin, staleness string, refreshErr error) {
	out := cmd.ErrOrStderr()
	switch {
	case staleness != "" && refreshErr != nil:
		fmt.Fprintf(out, "%s (%v)\n", staleness, refreshErr)
	case staleness != "":
		fmt.Fprintln(out, staleness)
	case origin == coordinator.OriginCache:
		fmt.Fprintln(out, "offline, showing cached data")
	}
}

func reauthHint(err error) error {
	if errors.Is(err, coordinator.ErrReauthenticate) {
		return fmt.Errorf("%w: run `sitesync login`", err)
	}
	return err
}

// projectLabel names a project from the cached project list.
func projectLabel(a *app, projectID int) string {
	var projects []project.Project
	if _, ok := a.cache.Read(projectsKey, &projects); !ok {
		return ""
	}
	for _, p := range projects {
		if p.ID != projectID {
			continue
		}
		s := p.Summary()
		if s.Number == "" {
			return s.Name
		}
		return fmt.Sprintf("%s [%s]", s.Name, s.Number)
	}
	return ""
}
