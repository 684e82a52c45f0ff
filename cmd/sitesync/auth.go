package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newLoginCommand(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and select a tenant when there is only one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("SITESYNC_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or $SITESYNC_PASSWORD) are required")
			}
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				if err := a.session.Logout(ctx); err != nil {
					return err
				}
				result, err := a.session.Login(ctx, email, password)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if result.NeedsTenantSelection {
					fmt.Fprintln(out, "Logged in. Choose a tenant with `sitesync select-tenant <id>`:")
					printTenants(cmd, result.Snapshot)
					return nil
				}
				fmt.Fprintf(out, "Logged in to tenant %d\n", result.Snapshot.TenantID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newSelectTenantCommand(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "select-tenant <tenant-id>",
		Short: "Switch to another tenant",
		Long: `Switch to another of the account's tenants. The unscoped login token
is not persisted, so the credentials are needed again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid tenant id %q", args[0])
			}
			if password == "" {
				password = os.Getenv("SITESYNC_PASSWORD")
			}
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				if email != "" {
					if err := a.session.Logout(ctx); err != nil {
						return err
					}
					if _, err := a.session.Login(ctx, email, password); err != nil {
						return err
					}
				}
				if err := a.session.SelectTenant(ctx, tenantID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Selected tenant %d\n", tenantID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (log in again before switching)")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session; cached data is kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				if err := a.session.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}
