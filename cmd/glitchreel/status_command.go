package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"glitchreel/internal/deps"
	"glitchreel/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check configuration, external tools and cache health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			configMsg := ctx.configPath
			configKind := statusOK
			if !ctx.configExists {
				configMsg += " (not found, using defaults)"
				configKind = statusWarn
			}
			lines = append(lines, renderStatusLine("Config file", configKind, configMsg, colorize))
			lines = append(lines, renderStatusLine("Glitch amount", statusInfo, fmt.Sprintf("%d", cfg.Generate.Amount), colorize))
			lines = append(lines, renderStatusLine("Frames per image", statusInfo,
				fmt.Sprintf("%d clean, %d per side", cfg.Generate.NormalFrames, cfg.TransitionFramesPerSide()), colorize))
			lines = append(lines, renderStatusLine("Conversion", statusInfo, yesNo(cfg.Convert.Enabled), colorize))
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(preflight.CheckSystemDeps(cfg), colorize)...)
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			for _, r := range preflight.RunAll(cfg) {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				lines = append(lines, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Frame index", colorize)...)
			lines = append(lines, indexStatusLines(cmd, ctx, colorize)...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func indexStatusLines(cmd *cobra.Command, ctx *commandContext, colorize bool) []string {
	cfg := ctx.configValue()
	if cfg == nil || !cfg.Cache.Index {
		return []string{renderStatusLine("Ledger", statusInfo, "disabled", colorize)}
	}
	store, err := ctx.openIndex(cfg)
	if err != nil {
		return []string{renderStatusLine("Ledger", statusError, err.Error(), colorize)}
	}
	defer store.Close()
	sum, err := store.Summary(cmd.Context())
	if err != nil {
		return []string{renderStatusLine("Ledger", statusError, err.Error(), colorize)}
	}
	return []string{
		renderStatusLine("Ledger", statusOK, store.Path(), colorize),
		renderStatusLine("Runs", statusInfo, fmt.Sprintf("%d", sum.Runs), colorize),
		renderStatusLine("Frames", statusInfo,
			fmt.Sprintf("%d (%d clean, %d glitch) across %d images, %s",
				sum.Frames, sum.CleanFrames, sum.GlitchFrames, sum.Sources, humanBytes(sum.Bytes)), colorize),
	}
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := make([]string, 0, len(statuses))
	for _, dep := range statuses {
		if !dep.Available {
			kind := statusError
			if dep.Optional {
				kind = statusWarn
			}
			detail := dep.Detail
			if detail == "" {
				detail = "not available"
			}
			lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
			continue
		}
		msg := dep.Path
		if dep.Version != "" {
			msg += " (" + dep.Version + ")"
		}
		lines = append(lines, renderStatusLine(dep.Name, statusOK, msg, colorize))
	}
	return lines
}
