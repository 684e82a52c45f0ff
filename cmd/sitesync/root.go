package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/ganot/sitesync/internal/domain/session"
	"github.com/spf13/cobra"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	configPath string
}

var errNotLoggedIn = errors.New("not logged in; run `sitesync login`")

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sitesync",
		Short: "Offline-first sync client for construction project data",
		Long: `sitesync keeps a local, offline-readable copy of project data
(drawings, RFIs, forms, submissions and documents) and refreshes it from
the platform API whenever the network is reachable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to YAML config (default $SITESYNC_CONFIG_PATH)")

	cmd.AddCommand(newLoginCommand(opts))
	cmd.AddCommand(newSelectTenantCommand(opts))
	cmd.AddCommand(newLogoutCommand(opts))
	cmd.AddCommand(newSyncCommand(opts))
	cmd.AddCommand(newStatusCommand(opts))
	cmd.AddCommand(newOfflineCommand(opts))
	cmd.AddCommand(newRegisterDeviceCommand(opts))
	cmd.AddCommand(newUpdateSubmissionCommand(opts))
	cmd.AddCommand(newCacheCommand(opts))
	cmd.AddCommand(newActivityCommand(opts))

	return cmd
}

// withApp opens the app for one command run and closes it afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, aopts appOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, opts, cmd.ErrOrStderr(), aopts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// requireCredentials returns the tenant-scoped token or errNotLoggedIn.
func requireCredentials(a *app) (session.Credentials, error) {
	creds, ok := a.session.Credentials()
	if !ok {
		return session.Credentials{}, errNotLoggedIn
	}
	return creds, nil
}

func printTenants(cmd *cobra.Command, snap session.Snapshot) {
	out := cmd.OutOrStdout()
	for _, m := range snap.Tenants {
		marker := " "
		if snap.State == session.StateTenantSelected && m.Tenant.ID == snap.TenantID {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %d\t%s\t%s\n", marker, m.Tenant.ID, m.Tenant.Name, m.Role)
	}
}
