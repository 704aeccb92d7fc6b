package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hbstatus/internal/config"
	"hbstatus/internal/format"
	"hbstatus/internal/hubapi"
	"hbstatus/internal/monitor"
	"hbstatus/internal/signals"
)

const sparklineWidth = 24

var errHubUnreachable = errors.New("homebridge ui not reachable")

type statusPayload struct {
	RunID     string            `json:"runId"`
	Reachable bool              `json:"reachable"`
	Error     string            `json:"error,omitempty"`
	Signals   map[string]string `json:"signals,omitempty"`
	Snapshot  *hubapi.Snapshot  `json:"snapshot,omitempty"`
	Telemetry *hubapi.Telemetry `json:"telemetry,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show Homebridge status and system telemetry",
		Long:  "Read the current status from the Homebridge UI without evaluating or\nrecording notifications.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withMonitor(commandContextOf(cmd), func(cfg *config.Config, m *monitor.Monitor) error {
				_, report := m.Observe(commandContextOf(cmd), true)
				if asJSON {
					if err := writeJSON(cmd, newStatusPayload(report)); err != nil {
						return err
					}
				} else {
					out := cmd.OutOrStdout()
					for _, line := range statusLines(cfg, report, shouldColorize(out)) {
						fmt.Fprintln(out, line)
					}
				}
				if !report.Reachable {
					return errHubUnreachable
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newStatusPayload(report monitor.Report) statusPayload {
	payload := statusPayload{RunID: report.RunID, Reachable: report.Reachable}
	if !report.Reachable {
		if report.HubErr != nil {
			payload.Error = report.HubErr.Error()
		}
		return payload
	}
	payload.Signals = make(map[string]string, len(signals.Kinds()))
	for _, kind := range signals.Kinds() {
		payload.Signals[kind.Key()] = report.Snapshot.Signals.Get(kind).String()
	}
	snapshot := report.Snapshot
	payload.Snapshot = &snapshot
	payload.Telemetry = report.Telemetry
	return payload
}

func statusLines(cfg *config.Config, report monitor.Report, colorize bool) []string {
	lines := renderSectionHeader("Homebridge", colorize)
	if !report.Reachable {
		detail := "not reachable"
		if report.HubErr != nil {
			detail = report.HubErr.Error()
		}
		return append(lines, renderStatusLine("Homebridge UI", statusError, detail, colorize))
	}

	snap := report.Snapshot
	for _, kind := range signals.Kinds() {
		if kind == signals.RuntimeUpToDate && !cfg.Display.ShowNodeJSStatus {
			continue
		}
		reading := snap.Signals.Get(kind)
		lines = append(lines, renderStatusLine(kindLabel(kind), readingKind(kind, reading), signalDetail(kind, reading, snap), colorize))
	}

	if report.Telemetry != nil {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("System", colorize)...)
		lines = append(lines, telemetryTable(cfg, *report.Telemetry))
	}
	return lines
}

func signalDetail(kind signals.Kind, reading signals.Ternary, snap hubapi.Snapshot) string {
	if reading == signals.Unknown {
		if kind == signals.ServiceRunning && snap.ServiceStatus != "" {
			return snap.ServiceStatus
		}
		return format.Unknown
	}

	switch kind {
	case signals.ServiceRunning:
		if reading == signals.True {
			return "running"
		}
		if snap.ServiceStatus != "" {
			return "not running (" + snap.ServiceStatus + ")"
		}
		return "not running"
	case signals.ServiceUpToDate:
		return versionDetail(snap.ServiceVersion)
	case signals.RuntimeUpToDate:
		return versionDetail(snap.Runtime)
	case signals.PluginsUpToDate:
		outdated := snap.OutdatedPlugins()
		if len(outdated) == 0 {
			return fmt.Sprintf("%s, all up to date", plural(len(snap.Plugins), "plugin"))
		}
		names := make([]string, 0, len(outdated))
		for _, p := range outdated {
			names = append(names, p.Name)
		}
		return "updates for " + strings.Join(names, ", ")
	default:
		return reading.String()
	}
}

func versionDetail(info *hubapi.VersionInfo) string {
	switch {
	case info == nil:
		return format.Unknown
	case info.Ignored:
		return "update check ignored"
	case info.UpdateAvailable:
		return fmt.Sprintf("%s -> %s available", valueOr(info.InstalledVersion, "?"), valueOr(info.LatestVersion, "?"))
	default:
		return valueOr(info.InstalledVersion, "up to date")
	}
}

func telemetryTable(cfg *config.Config, t hubapi.Telemetry) string {
	f := format.New(cfg.Display.DecimalChar, cfg.Display.TemperatureUnit)
	rows := [][]string{}

	if t.CPU != nil {
		rows = append(rows,
			[]string{"CPU load", f.Percent(t.CPU.CurrentLoad), trend(f, t.CPU.LoadHistory, 1)},
			[]string{"CPU temperature", f.Temperature(t.CPU.Temperature), ""},
		)
	} else {
		rows = append(rows, []string{"CPU", format.Unknown, ""})
	}
	if t.RAM != nil {
		rows = append(rows, []string{"RAM used", f.RAMUsage(t.RAM.Total, t.RAM.Available), trend(f, t.RAM.UsageHistory, 1)})
	} else {
		rows = append(rows, []string{"RAM", format.Unknown, ""})
	}
	if t.Uptime != nil {
		rows = append(rows,
			[]string{"System uptime", f.Seconds(t.Uptime.SystemSeconds), ""},
			[]string{"UI uptime", f.Seconds(t.Uptime.ProcessSeconds), ""},
		)
	} else {
		rows = append(rows, []string{"Uptime", format.Unknown, ""})
	}

	return renderTable([]string{"Metric", "Value", "Trend"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft})
}

// trend draws the recent history with its range, e.g. "▁▃█ 2,5-9%".
func trend(f format.Formatter, series []float64, decimals int) string {
	if len(series) == 0 {
		return ""
	}
	return fmt.Sprintf("%s %s-%s%%",
		format.SparklineTail(series, sparklineWidth),
		f.Min(series, decimals),
		f.Max(series, decimals))
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
