package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"glitchreel/internal/codec"
	"glitchreel/internal/config"
	"glitchreel/internal/convert"
	"glitchreel/internal/discover"
	"glitchreel/internal/frameindex"
	"glitchreel/internal/framecache"
	"glitchreel/internal/generate"
	"glitchreel/internal/logging"
	"glitchreel/internal/render"
	"glitchreel/internal/services"
	"glitchreel/internal/services/magick"
	"glitchreel/internal/timeline"
)

const lockFileName = ".glitchreel.lock"

// Pipeline wires the generation stages together for one configuration.
type Pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	cache     *framecache.Cache
	codec     *codec.Codec
	index     *frameindex.Store
	converter convert.Converter
	renderer  *render.Renderer
	now       func() time.Time
}

// Option customizes a pipeline.
type Option func(*Pipeline)

// WithIndex records runs and frames in store.
func WithIndex(store *frameindex.Store) Option {
	return func(p *Pipeline) { p.index = store }
}

// WithConverter overrides the external converter used for formats the codec
// cannot read.
func WithConverter(c convert.Converter) Option {
	return func(p *Pipeline) { p.converter = c }
}

// WithRenderer overrides the renderer used for suggestions and --render.
func WithRenderer(r *render.Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

// New builds a pipeline from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "config required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		cache:  framecache.NewFromConfig(cfg, logger),
		codec:  codec.New(cfg.Render.Width, cfg.Render.Height),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.converter == nil && cfg.Convert.Enabled {
		client, err := magick.New(cfg.MagickBinary(), cfg.Convert.Timeout)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "pipeline", "init", "check convert.magick_binary", err)
		}
		p.converter = client
	}
	if p.renderer == nil {
		r, err := render.NewFromConfig(cfg, cfg.Render.AV1, logger)
		if err != nil {
			return nil, err
		}
		p.renderer = r
	}
	return p, nil
}

// Cache exposes the frame cache the pipeline writes to.
func (p *Pipeline) Cache() *framecache.Cache { return p.cache }

// Request names the directories of one run.
type Request struct {
	InputDir  string
	OutputDir string
	// Video, when set, renders the linked sequence to this path.
	Video string
}

// Skipped records an image left out of the sequence.
type Skipped struct {
	Name   string
	Reason string
}

// Summary describes a finished run.
type Summary struct {
	RunID         string
	Seed          uint64
	OutputDir     string
	Images        int
	Skipped       []Skipped
	Frames        int
	GlitchFrames  int
	DroppedFrames int
	CacheHits     int
	Interlace     int
	// Command is the ffmpeg invocation that renders the output.
	Command string
	Render  render.Output

	hashes []string
}

// Run executes the pipeline for req.
func (p *Pipeline) Run(ctx context.Context, req Request) (summary Summary, err error) {
	if info, statErr := os.Stat(req.InputDir); statErr != nil || !info.IsDir() {
		return Summary{}, services.Wrap(services.ErrConfiguration, "pipeline", "input", "input must be an existing directory", statErr)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "pipeline", "output", "create output directory", err)
	}
	if err := p.cfg.EnsureDirectories(); err != nil {
		return Summary{}, services.Wrap(services.ErrConfiguration, "pipeline", "cache", "create cache directories", err)
	}

	lock := flock.New(filepath.Join(req.OutputDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire output lock: %w", err)
	}
	if !locked {
		return Summary{}, services.Wrap(services.ErrConfiguration, "pipeline", "output lock",
			fmt.Sprintf("another run is writing to %s", req.OutputDir), nil)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			p.logger.Warn("failed to release output lock", logging.Error(unlockErr))
		}
	}()

	summary = Summary{
		RunID:     uuid.NewString(),
		Seed:      p.resolveSeed(),
		OutputDir: req.OutputDir,
	}
	ctx = services.WithRunID(ctx, summary.RunID)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("run started",
		logging.String("input", req.InputDir),
		logging.String("output", req.OutputDir),
		logging.Int("amount", p.cfg.Generate.Amount),
		logging.Uint64("seed", summary.Seed),
	)

	p.beginRun(ctx, summary.RunID, req)
	defer func() { p.finishRun(ctx, summary, err) }()

	frames, err := p.generate(ctx, req.InputDir, &summary)
	if err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if err := linkFrames(req.OutputDir, frames); err != nil {
		return summary, services.Wrap(services.ErrTransient, "pipeline", "link", "link output frames", err)
	}
	summary.Frames = len(frames)
	summary.Command = p.renderer.CommandLine(req.OutputDir, len(frames), filepath.Join(req.OutputDir, "glitchreel.mp4"))
	logger.Info("frames linked",
		logging.Int("frames", summary.Frames),
		logging.Int("images", summary.Images),
		logging.Int("skipped", len(summary.Skipped)),
	)

	p.pruneCache(ctx, summary.hashes)

	if req.Video != "" {
		out, err := p.renderer.Render(ctx, req.OutputDir, len(frames), req.Video)
		summary.Render = out
		if err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (p *Pipeline) generate(ctx context.Context, input string, summary *Summary) ([]timeline.Frame, error) {
	logger := logging.WithContext(ctx, p.logger)

	sources, err := discover.Find(input)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "discover", input, err)
	}
	if len(sources) == 0 {
		return nil, services.Wrap(services.ErrNoFrames, "pipeline", "discover", "no images found in "+input, nil)
	}

	rng := rand.New(rand.NewPCG(summary.Seed, summary.Seed))
	if p.cfg.Generate.Shuffle {
		rng.Shuffle(len(sources), func(i, j int) { sources[i], sources[j] = sources[j], sources[i] })
	}

	var recorder generate.Recorder
	if p.index != nil {
		recorder = p.index
	}
	perSide := p.cfg.TransitionFramesPerSide()
	gen := generate.New(p.cache, p.codec, recorder, rng, p.logger, generate.Options{
		Amount:         p.cfg.Generate.Amount,
		PerSide:        perSide,
		Workers:        p.cfg.Generate.Workers,
		ReseedAttempts: p.cfg.Generate.ReseedAttempts,
		RunID:          summary.RunID,
	})
	preparer := convert.New(p.cfg.ConvertedDir(), p.codec, p.converter)

	timelines := make([]timeline.Timeline, 0, len(sources))
	skip := func(src discover.Source, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if services.Fatal(err) {
			return err
		}
		logging.WarnWithContext(logger, "image skipped", "image_skipped",
			logging.String(logging.FieldImage, src.Name()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "image is left out of the sequence"),
		)
		summary.Skipped = append(summary.Skipped, Skipped{Name: src.Name(), Reason: err.Error()})
		return nil
	}

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		jpegPath, err := preparer.Prepare(ctx, src)
		if err != nil {
			if err := skip(src, err); err != nil {
				return nil, err
			}
			continue
		}
		res, err := gen.Image(ctx, src.Name(), jpegPath)
		if err != nil {
			if err := skip(src, err); err != nil {
				return nil, err
			}
			continue
		}

		timelines = append(timelines, timeline.Build(timeline.Input{
			Image:       src.Name(),
			Glitch:      res.Glitch,
			Clean:       res.Clean,
			ImageFrames: p.cfg.Generate.NormalFrames,
			CycleIn:     timeline.ShuffledCycle(rng, p.cfg.Timeline.HoldCycle),
			CycleOut:    timeline.ShuffledCycle(rng, p.cfg.Timeline.HoldCycle),
		}))
		summary.Images++
		summary.hashes = append(summary.hashes, res.Hash)
		summary.GlitchFrames += len(res.Glitch)
		summary.DroppedFrames += res.Dropped
		summary.CacheHits += res.CacheHits
	}

	if len(timelines) == 0 {
		return nil, services.Wrap(services.ErrNoFrames, "pipeline", "generate",
			fmt.Sprintf("none of %d images produced frames", len(sources)), nil)
	}
	summary.Interlace = timeline.InterlaceWidth(perSide, p.cfg.Timeline.InterlaceCap)
	return timeline.Interlace(timelines, summary.Interlace), nil
}

func (p *Pipeline) resolveSeed() uint64 {
	if p.cfg.Generate.Seed != 0 {
		return p.cfg.Generate.Seed
	}
	return uint64(p.now().UnixNano())
}

func (p *Pipeline) beginRun(ctx context.Context, runID string, req Request) {
	if p.index == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := p.index.BeginRun(ctx, frameindex.Run{
		ID:        runID,
		InputDir:  req.InputDir,
		OutputDir: req.OutputDir,
		Amount:    p.cfg.Generate.Amount,
		StartedAt: p.now(),
	}); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "run not recorded", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will be missing from `glitchreel runs`"),
		)
	}
}

func (p *Pipeline) finishRun(ctx context.Context, summary Summary, runErr error) {
	if p.index == nil {
		return
	}
	status := frameindex.RunCompleted
	switch {
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		status = frameindex.RunCancelled
	case runErr != nil:
		status = frameindex.RunFailed
	}
	ctx = context.WithoutCancel(ctx)
	if err := p.index.FinishRun(ctx, summary.RunID, status, summary.Images, summary.Frames, runErr); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "run outcome not recorded", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run stays marked as running in the ledger"),
		)
	}
}

// pruneCache trims the frame cache to its limits, never touching entries
// used by the current run, and forgets ledger rows for pruned entries.
func (p *Pipeline) pruneCache(ctx context.Context, keep []string) {
	logger := logging.WithContext(ctx, p.logger)
	if err := p.cache.Prune(ctx, keep...); err != nil {
		logging.WarnWithContext(logger, "frame cache prune incomplete", "cache_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "cache may exceed cache.max_gib"),
			logging.String(logging.FieldErrorHint, "raise cache.max_gib or free disk space"),
		)
	}
	if p.index == nil {
		return
	}
	if n, err := p.index.ForgetHashes(ctx, p.cache.HasEntry); err != nil {
		logger.Warn("failed to forget pruned frames", logging.Error(err))
	} else if n > 0 {
		logger.Info("forgot pruned frames", logging.Int("frames", n))
	}
}
