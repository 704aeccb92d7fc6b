package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hbstatus/internal/alerts"
	"hbstatus/internal/config"
	"hbstatus/internal/monitor"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one status check and send notifications for changes",
		Long: "Run one status check against the Homebridge UI, notify about signals that\n" +
			"changed since the last run, and persist the notification state. Intended\n" +
			"to be scheduled with cron or a systemd timer.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMonitor(commandContextOf(cmd), func(cfg *config.Config, m *monitor.Monitor) error {
				report, err := m.Check(commandContextOf(cmd))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, line := range runReportLines(report, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
}

func runReportLines(report monitor.Report, colorize bool) []string {
	runLabel := shortRunID(report.RunID)
	if !report.Reachable {
		detail := "not reachable"
		if report.HubErr != nil {
			detail = report.HubErr.Error()
		}
		return []string{
			fmt.Sprintf("Run %s: notifications skipped", runLabel),
			renderStatusLine("Homebridge UI", statusError, detail, colorize),
		}
	}
	if report.Outcome.Skipped {
		return []string{fmt.Sprintf("Run %s: notifications disabled", runLabel)}
	}

	decision := report.Decision()
	lines := []string{fmt.Sprintf("Run %s: %s, %s",
		runLabel,
		plural(len(decision.Transitions), "change"),
		plural(len(report.Outcome.Deliveries)-len(report.Outcome.Failed()), "notification")+" sent")}

	failed := make(map[int]error)
	for _, d := range report.Outcome.Deliveries {
		failed[int(d.Transition.Kind)] = d.Err
	}
	for _, t := range decision.Transitions {
		kind := statusOK
		if t.Direction == alerts.Degraded {
			kind = readingKind(t.Kind, t.Reading)
		}
		detail := titleCase(t.Direction.String())
		switch {
		case !t.Notify:
			detail += ", not notified"
		case failed[int(t.Kind)] != nil:
			detail += ", delivery failed: " + failed[int(t.Kind)].Error()
			kind = statusError
		default:
			detail += ", notified"
		}
		lines = append(lines, renderStatusLine(kindLabel(t.Kind), kind, detail, colorize))
	}
	return lines
}

func shortRunID(runID string) string {
	runID = strings.TrimSpace(runID)
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
