package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hbstatus/internal/config"
	"hbstatus/internal/monitor"
	"hbstatus/internal/notifications"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMonitor(commandContextOf(cmd), func(cfg *config.Config, m *monitor.Monitor) error {
				dispatcher := m.Dispatcher()
				if err := notifications.Test(commandContextOf(cmd), dispatcher, notifications.Envelope(cfg)); err != nil {
					return fmt.Errorf("send test notification via %s: %w", dispatcher.Name(), err)
				}
				if dispatcher.Name() == "log" {
					fmt.Fprintln(cmd.OutOrStdout(), "No ntfy topic configured; test notification written to the log")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Test notification sent via %s\n", dispatcher.Name())
				return nil
			})
		},
	}
}
