package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hbstatus/internal/config"
	"hbstatus/internal/monitor"
	"hbstatus/internal/notifystate"
	"hbstatus/internal/signals"
)

func newStateCommand(ctx *commandContext) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset the notification state",
	}
	stateCmd.AddCommand(newStateShowCommand(ctx))
	stateCmd.AddCommand(newStateResetCommand(ctx))
	return stateCmd
}

func newStateShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the last recorded condition of every signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMonitor(commandContextOf(cmd), func(cfg *config.Config, m *monitor.Monitor) error {
				state, err := loadLocked(cmd, m.Store())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, state)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "State file: %s (version %d)\n", m.Store().Path(), state.JSONVersion)
				fmt.Fprintln(out, stateTable(cfg, state))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newStateResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget all recorded conditions and notification times",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMonitor(commandContextOf(cmd), func(cfg *config.Config, m *monitor.Monitor) error {
				store := m.Store()
				unlock, err := store.Lock(commandContextOf(cmd))
				if err != nil {
					return err
				}
				defer func() { _ = unlock() }()

				if _, err := store.Reset(); err != nil {
					return fmt.Errorf("reset state: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Notification state reset at %s\n", store.Path())
				return nil
			})
		},
	}
}

func loadLocked(cmd *cobra.Command, store *notifystate.FileStore) (notifystate.State, error) {
	unlock, err := store.Lock(commandContextOf(cmd))
	if err != nil {
		return notifystate.State{}, err
	}
	defer func() { _ = unlock() }()
	return store.Load()
}

func stateTable(cfg *config.Config, state notifystate.State) string {
	rows := make([][]string, 0, len(signals.Kinds()))
	for _, kind := range signals.Kinds() {
		entry := state.Entry(kind)
		condition := "good"
		if !entry.Status {
			condition = "degraded"
		}
		notified := "-"
		if entry.LastNotified != nil {
			notified = formatTimestamp(*entry.LastNotified, cfg.Display.DateFormat)
		}
		tracked := yesNo(kind != signals.RuntimeUpToDate || cfg.Display.ShowNodeJSStatus)
		rows = append(rows, []string{kindLabel(kind), kind.Key(), condition, notified, tracked})
	}
	return renderTable([]string{"Signal", "Key", "Condition", "Last notified", "Tracked"}, rows, nil)
}
