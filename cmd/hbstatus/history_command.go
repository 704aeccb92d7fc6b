package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"hbstatus/internal/config"
	"hbstatus/internal/history"
	"hbstatus/internal/monitor"
	"hbstatus/internal/signals"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent status transitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1, got %d", limit)
			}
			return ctx.withMonitor(commandContextOf(cmd), func(cfg *config.Config, m *monitor.Monitor) error {
				journal := m.Journal()
				if journal == nil {
					if !cfg.History.Enabled {
						return errors.New("history is disabled (set history.enabled = true)")
					}
					return errors.New("history journal unavailable; see the log for details")
				}
				entries, err := journal.Recent(commandContextOf(cmd), limit)
				if err != nil {
					return fmt.Errorf("read history: %w", err)
				}
				if asJSON {
					if entries == nil {
						entries = []history.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No transitions recorded")
					return nil
				}
				fmt.Fprintln(out, historyTable(cfg, entries))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of transitions to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func historyTable(cfg *config.Config, entries []history.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		label := e.Signal
		if kind, ok := signals.ParseKind(e.Signal); ok {
			label = kindLabel(kind)
		}
		delivery := yesNo(e.Notified)
		if e.DispatchError != "" {
			delivery = "failed"
		}
		rows = append(rows, []string{
			formatTimestamp(e.OccurredAt, cfg.Display.DateFormat),
			label,
			titleCase(e.Direction),
			delivery,
			e.Message,
			shortRunID(e.RunID),
		})
	}
	return renderTable([]string{"Time", "Signal", "Direction", "Notified", "Message", "Run"}, rows, nil)
}
