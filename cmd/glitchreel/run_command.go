package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"glitchreel/internal/config"
	"glitchreel/internal/logging"
	"glitchreel/internal/pipeline"
	"glitchreel/internal/preflight"
)

type runOptions struct {
	amount           int
	normalFrames     int
	transitionFrames int
	fps              int
	workers          int
	seed             uint64
	shuffle          bool
	render           bool
	video            string
	av1              bool
	jsonOutput       bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run INPUT OUTPUT",
		Short: "Generate glitch frames for every image in INPUT and link the sequence into OUTPUT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyRunOverrides(cmd, cfg, &opts); err != nil {
				return err
			}

			input, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input: %w", err)
			}
			output, err := config.ExpandPath(args[1])
			if err != nil {
				return fmt.Errorf("resolve output: %w", err)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			checks := append(preflight.RunAll(cfg), preflight.CheckOutputDirectory("Output directory", output))
			var details []string
			for _, r := range preflight.Failed(checks) {
				if r.Name == preflight.FreeSpaceCheck {
					logging.WarnWithContext(logger, "low free space on cache filesystem", "preflight_free_space",
						logging.String("detail", r.Detail),
						logging.String(logging.FieldErrorHint, "raise free space or lower cache.max_gib"),
					)
					continue
				}
				details = append(details, fmt.Sprintf("%s: %s", r.Name, r.Detail))
			}
			if len(details) > 0 {
				return fmt.Errorf("preflight failed:\n  %s", strings.Join(details, "\n  "))
			}

			var pipelineOpts []pipeline.Option
			index, err := ctx.openIndex(cfg)
			if err != nil {
				return err
			}
			if index != nil {
				defer index.Close()
				pipelineOpts = append(pipelineOpts, pipeline.WithIndex(index))
			}

			p, err := pipeline.New(cfg, logger, pipelineOpts...)
			if err != nil {
				return err
			}

			req := pipeline.Request{InputDir: input, OutputDir: output}
			if opts.render || opts.video != "" {
				req.Video = opts.video
				if req.Video == "" {
					req.Video = filepath.Join(output, "glitchreel.mp4")
				}
			}

			summary, runErr := p.Run(cmd.Context(), req)
			if opts.jsonOutput && runErr == nil {
				return writeJSON(cmd, summaryJSON(summary))
			}
			if summary.RunID != "" {
				printRunSummary(cmd.OutOrStdout(), summary, req.Video != "")
			}
			return runErr
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&opts.amount, "amount", 0, "Glitch amount 1-100 (clamped)")
	flags.IntVar(&opts.normalFrames, "normal-frames", 0, "Clean frames held per image")
	flags.IntVar(&opts.transitionFrames, "transition-frames", 0, "Glitch-in plus glitch-out frames per image")
	flags.IntVar(&opts.fps, "fps", 0, "Frames per second for rendering")
	flags.IntVar(&opts.workers, "workers", 0, "Concurrent frame workers per image (0 uses all CPUs)")
	flags.Uint64Var(&opts.seed, "seed", 0, "Random seed (0 seeds from the clock)")
	flags.BoolVar(&opts.shuffle, "shuffle", false, "Shuffle image order")
	flags.BoolVar(&opts.render, "render", false, "Encode the sequence with ffmpeg after linking")
	flags.StringVar(&opts.video, "video", "", "Rendered video path (implies --render)")
	flags.BoolVar(&opts.av1, "av1", false, "Also produce an AV1 encode with drapto (implies --render)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print the run summary as JSON")

	return cmd
}

// applyRunOverrides copies explicitly set flags onto cfg and revalidates it.
func applyRunOverrides(cmd *cobra.Command, cfg *config.Config, opts *runOptions) error {
	flags := cmd.Flags()
	if flags.Changed("amount") {
		cfg.Generate.Amount = config.ClampAmount(opts.amount)
	}
	if flags.Changed("normal-frames") {
		cfg.Generate.NormalFrames = opts.normalFrames
	}
	if flags.Changed("transition-frames") {
		cfg.Generate.TransitionFrames = opts.transitionFrames
	}
	if flags.Changed("fps") {
		cfg.Render.FPS = opts.fps
	}
	if flags.Changed("workers") {
		cfg.Generate.Workers = opts.workers
	}
	if flags.Changed("seed") {
		cfg.Generate.Seed = opts.seed
	}
	if flags.Changed("shuffle") {
		cfg.Generate.Shuffle = opts.shuffle
	}
	if opts.av1 {
		cfg.Render.AV1 = true
		opts.render = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	return nil
}

func printRunSummary(w io.Writer, s pipeline.Summary, rendered bool) {
	fmt.Fprintf(w, "Run %s\n", s.RunID)
	fmt.Fprintf(w, "  Images:        %d (%d skipped)\n", s.Images, len(s.Skipped))
	fmt.Fprintf(w, "  Frames linked: %d into %s\n", s.Frames, s.OutputDir)
	fmt.Fprintf(w, "  Glitch frames: %d (%d cached, %d dropped)\n", s.GlitchFrames, s.CacheHits, s.DroppedFrames)
	fmt.Fprintf(w, "  Interlace:     %d\n", s.Interlace)
	fmt.Fprintf(w, "  Seed:          %d\n", s.Seed)
	for _, skip := range s.Skipped {
		fmt.Fprintf(w, "  Skipped %s: %s\n", skip.Name, skip.Reason)
	}
	switch {
	case s.Render.Video != "":
		fmt.Fprintf(w, "Rendered %s\n", s.Render.Video)
		if s.Render.AV1 != "" {
			fmt.Fprintf(w, "Rendered %s\n", s.Render.AV1)
		}
	case !rendered && s.Command != "":
		fmt.Fprintf(w, "Render with:\n  %s\n", s.Command)
	}
}

type runSummaryJSON struct {
	RunID         string        `json:"run_id"`
	Seed          uint64        `json:"seed"`
	OutputDir     string        `json:"output_dir"`
	Images        int           `json:"images"`
	Skipped       []skippedJSON `json:"skipped"`
	Frames        int           `json:"frames"`
	GlitchFrames  int           `json:"glitch_frames"`
	DroppedFrames int           `json:"dropped_frames"`
	CacheHits     int           `json:"cache_hits"`
	Interlace     int           `json:"interlace"`
	Command       string        `json:"command"`
	Video         string        `json:"video,omitempty"`
	AV1           string        `json:"av1,omitempty"`
}

type skippedJSON struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func summaryJSON(s pipeline.Summary) runSummaryJSON {
	skipped := make([]skippedJSON, 0, len(s.Skipped))
	for _, sk := range s.Skipped {
		skipped = append(skipped, skippedJSON(sk))
	}
	return runSummaryJSON{
		RunID:         s.RunID,
		Seed:          s.Seed,
		OutputDir:     s.OutputDir,
		Images:        s.Images,
		Skipped:       skipped,
		Frames:        s.Frames,
		GlitchFrames:  s.GlitchFrames,
		DroppedFrames: s.DroppedFrames,
		CacheHits:     s.CacheHits,
		Interlace:     s.Interlace,
		Command:       s.Command,
		Video:         s.Render.Video,
		AV1:           s.Render.AV1,
	}
}
