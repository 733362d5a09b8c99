package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"glitchreel/internal/config"
	"glitchreel/internal/fileutil"
	"glitchreel/internal/framecache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the frame cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	cacheCmd.AddCommand(newCacheExportCommand(ctx))
	cacheCmd.AddCommand(newCacheImportCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show frame cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := frameCache(ctx)
			if err != nil {
				return err
			}
			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Entries: %d (%d frames)\n", stats.Entries, stats.Frames)
			fmt.Fprintf(out, "Size:    %s / %s\n", humanBytes(stats.TotalBytes), humanBytes(stats.MaxBytes))
			fmt.Fprintf(out, "Disk:    %s free (%.1f%%)\n", humanBytes(int64(stats.FreeBytes)), stats.FreeRatio*100)
			printCacheEntries(out, stats.EntrySummaries)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print stats as JSON")
	return cmd
}

func printCacheEntries(out io.Writer, entries []framecache.EntrySummary) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "Cached images: none")
		return
	}
	const stampLayout = "2006-01-02 15:04"
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		source := strings.TrimSpace(entry.Source)
		if source == "" {
			source = "(unknown)"
		}
		updated := "unknown"
		if !entry.ModifiedAt.IsZero() {
			updated = entry.ModifiedAt.Local().Format(stampLayout)
		}
		rows = append(rows, []string{
			source,
			shortHash(entry.Hash),
			strconv.Itoa(entry.Frames),
			humanBytes(entry.SizeBytes),
			updated,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Source", "Hash", "Frames", "Size", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Prune the frame cache to its configured limits now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := frameCache(ctx)
			if err != nil {
				return err
			}
			before, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if err := cache.Prune(cmd.Context()); err != nil {
				return err
			}
			after, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			forgotten, err := forgetPrunedFrames(context.WithoutCancel(cmd.Context()), ctx, cache)
			if err != nil {
				return err
			}
			freed := before.TotalBytes - after.TotalBytes
			out := cmd.OutOrStdout()
			if freed <= 0 {
				fmt.Fprintln(out, "No cache entries pruned")
			} else {
				fmt.Fprintf(out, "Pruned %s (now %s / %s)\n", humanBytes(freed), humanBytes(after.TotalBytes), humanBytes(after.MaxBytes))
			}
			if forgotten > 0 {
				fmt.Fprintf(out, "Removed %d ledger rows for pruned images\n", forgotten)
			}
			return nil
		},
	}
}

// forgetPrunedFrames drops ledger rows whose cache entry no longer exists.
func forgetPrunedFrames(runCtx context.Context, ctx *commandContext, cache *framecache.Cache) (int, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return 0, err
	}
	store, err := ctx.openIndex(cfg)
	if err != nil || store == nil {
		return 0, err
	}
	defer store.Close()
	return store.ForgetHashes(runCtx, cache.HasEntry)
}

func newCacheExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export FILE [HASH...]",
		Short: "Write cache entries to a zstd-compressed tar archive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := frameCache(ctx)
			if err != nil {
				return err
			}
			target, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve archive path: %w", err)
			}
			var res framecache.ArchiveResult
			err = fileutil.WriteAtomic(target, 0o644, func(w io.Writer) error {
				var exportErr error
				res, exportErr = cache.Export(cmd.Context(), w, args[1:]...)
				return exportErr
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries (%d files, %s) to %s\n",
				res.Entries, res.Files, humanBytes(res.Bytes), target)
			return nil
		},
	}
}

func newCacheImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Load cache entries from an archive written by cache export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := frameCache(ctx)
			if err != nil {
				return err
			}
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve archive path: %w", err)
			}
			file, err := os.Open(source)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer file.Close()
			res, err := cache.Import(cmd.Context(), file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d files (%s), skipped %d already cached\n",
				res.Files, humanBytes(res.Bytes), res.Skipped)
			return nil
		},
	}
}

func frameCache(ctx *commandContext) (*framecache.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.FramesDir(), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
	}
	return framecache.NewFromConfig(cfg, logger), nil
}
