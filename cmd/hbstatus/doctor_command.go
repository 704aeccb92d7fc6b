package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hbstatus/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, paths, hub access, and notification delivery",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(commandContextOf(cmd), cfg)

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			if ctx.configExists {
				fmt.Fprintln(out, renderStatusLine("Config", statusOK, ctx.configPath, colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Config", statusInfo, ctx.configPath+" (not found, using defaults)", colorize))
			}
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%s failed", plural(len(failed), "check"))
			}
			return nil
		},
	}
}
