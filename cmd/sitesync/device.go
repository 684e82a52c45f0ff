package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/ganot/sitesync/internal/domain/form"
	"github.com/ganot/sitesync/internal/transport"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRegisterDeviceCommand(opts *rootOptions) *cobra.Command {
	var deviceToken, platform string

	cmd := &cobra.Command{
		Use:   "register-device",
		Short: "Register this device for push notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deviceToken == "" {
				deviceToken = uuid.NewString()
			}
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				creds, err := requireCredentials(a)
				if err != nil {
					return err
				}
				if err := a.client.RegisterDevice(ctx, creds.Token, deviceToken, platform); err != nil {
					return expireOn403(a, creds.Token, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered device %s\n", deviceToken)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&deviceToken, "token", "", "push token (default: a new installation id)")
	cmd.Flags().StringVar(&platform, "platform", "ios", "device platform")
	return cmd
}

func newUpdateSubmissionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update-submission <submission-id> <responses.json>",
		Short: "Send edited form responses for a submission",
		Long: `Send edited form responses for a submission. The file holds a JSON
object mapping field ids to response values.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid submission id %q", args[0])
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			var responses map[string]form.ResponseValue
			if err := json.Unmarshal(data, &responses); err != nil {
				return fmt.Errorf("parse %s: %w", args[1], err)
			}
			return withApp(cmd, opts, appOptions{}, func(ctx context.Context, a *app) error {
				creds, err := requireCredentials(a)
				if err != nil {
					return err
				}
				body := struct {
					Responses map[string]form.ResponseValue `json:"responses"`
				}{Responses: responses}
				if err := a.client.UpdateFormSubmission(ctx, creds.Token, id, body); err != nil {
					return expireOn403(a, creds.Token, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated submission %d\n", id)
				return nil
			})
		},
	}
}

// expireOn403 routes a token-expired response through the session, like
// the coordinator does for fetches.
func expireOn403(a *app, token string, err error) error {
	if errors.Is(err, transport.ErrTokenExpired) {
		a.session.ExpireToken(token)
		return errNotLoggedIn
	}
	return err
}
