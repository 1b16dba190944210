package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gbarton/yt4kids/internal/config"
	"github.com/gbarton/yt4kids/internal/ipc"
	"github.com/gbarton/yt4kids/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	var local bool
	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through ntfy and the Redis mirror",
		Long: "Send a test notification. The daemon sends it when running; " +
			"otherwise, or with --local, the CLI publishes it directly with the same configuration.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !local {
				client, err := ctx.dialClient()
				if err == nil {
					defer client.Close()
					return sendViaDaemon(cmd, client)
				}
				fmt.Fprintln(out, "Daemon not reachable; sending from this process")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !notificationsConfigured(cfg) {
				fmt.Fprintln(out, "notifications not configured")
				return nil
			}
			svc := notifications.NewService(cfg)
			defer notifications.Close(svc)
			if err := svc.Publish(cmd.Context(), notifications.EventTestNotification, notifications.Payload{}); err != nil {
				return fmt.Errorf("send test notification: %w", err)
			}
			fmt.Fprintln(out, "Test notification sent")
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "Publish from the CLI even when the daemon is running")
	return cmd
}

func sendViaDaemon(cmd *cobra.Command, client *ipc.Client) error {
	resp, err := client.TestNotification()
	if err != nil {
		return err
	}
	if resp == nil {
		return errors.New("missing notification response")
	}
	switch {
	case resp.Message != "":
		fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
	case resp.Sent:
		fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
	default:
		fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
	}
	return nil
}

func notificationsConfigured(cfg *config.Config) bool {
	n := cfg.Notifications
	return strings.TrimSpace(n.NtfyTopic) != "" || strings.TrimSpace(n.RedisAddr) != ""
}
