package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"glitchreel/internal/config"
	"glitchreel/internal/pipeline"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var amount int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "plan INPUT",
		Short: "Preview the timeline of each image without generating frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("amount") {
				cfg.Generate.Amount = config.ClampAmount(amount)
			}
			input, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input: %w", err)
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			p, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}
			plan, err := p.Plan(input)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, plan)
			}

			rows := make([][]string, 0, len(plan.Entries))
			for _, e := range plan.Entries {
				rows = append(rows, []string{
					e.Name,
					displayTitle(e.Kind.String()),
					joinInts(e.Amounts),
					joinInts(e.GlitchIn),
					strconv.Itoa(e.Normal),
					joinInts(e.GlitchOut),
					strconv.Itoa(e.Frames),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Image", "Source", "Amounts", "Glitch In", "Clean", "Glitch Out", "Frames"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%d images, %d frames per side, interlace %d, %d frames total (%s at %d fps)\n",
				len(plan.Entries), plan.PerSide, plan.Interlace, plan.TotalFrames,
				formatFrames(plan.TotalFrames, cfg.Render.FPS), cfg.Render.FPS)
			return nil
		},
	}

	cmd.Flags().IntVar(&amount, "amount", 0, "Glitch amount 1-100 (clamped)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the plan as JSON")
	return cmd
}

func joinInts(values []int) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
