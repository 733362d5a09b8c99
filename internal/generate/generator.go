package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"glitchreel/internal/codec"
	"glitchreel/internal/fileutil"
	"glitchreel/internal/frameindex"
	"glitchreel/internal/framecache"
	"glitchreel/internal/glitch"
	"glitchreel/internal/logging"
	"glitchreel/internal/services"
	"glitchreel/internal/timeline"
)

// Recorder stores ledger rows. frameindex.Store satisfies it.
type Recorder interface {
	RecordFrame(ctx context.Context, f frameindex.Frame) error
}

// Options shape frame generation for every image of a run.
type Options struct {
	// Amount is the run-level glitch amount (1-100).
	Amount int
	// PerSide is the number of glitch frames per image.
	PerSide int
	// Workers bounds concurrent frame requests. 0 uses every CPU.
	Workers int
	// ReseedAttempts is how many extra seeds a frame may try.
	ReseedAttempts int
	RunID          string
}

// Generator produces frames into a cache.
type Generator struct {
	cache    *framecache.Cache
	codec    *codec.Codec
	decoder  glitch.Decoder
	recorder Recorder
	rng      *rand.Rand
	logger   *slog.Logger
	opts     Options
}

// New builds a generator. recorder may be nil. rng must not be nil.
func New(cache *framecache.Cache, c *codec.Codec, recorder Recorder, rng *rand.Rand, logger *slog.Logger, opts Options) *Generator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	opts.ReseedAttempts = max(0, opts.ReseedAttempts)
	return &Generator{
		cache:    cache,
		codec:    c,
		decoder:  c,
		recorder: recorder,
		rng:      rng,
		logger:   logging.NewComponentLogger(logger, "generate"),
		opts:     opts,
	}
}

// Result is the outcome for one image.
type Result struct {
	Name  string
	Hash  string
	Clean timeline.Frame
	// Glitch holds successfully produced frames, least corrupted first.
	Glitch    []timeline.Frame
	Requested int
	Dropped   int
	CacheHits int
}

// request is one glitch frame to produce. seeds[0] is the first try.
type request struct {
	seq   int
	seeds []int
}

// Image produces the clean frame and every glitch frame for the JPEG at path.
// name labels the source in logs and cache metadata. A source without a
// start-of-scan marker fails with glitch.ErrInvalidFormat.
func (g *Generator) Image(ctx context.Context, name, path string) (Result, error) {
	ctx = services.WithImage(ctx, name)
	logger := logging.WithContext(ctx, g.logger)

	source, err := os.ReadFile(path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrNotFound, "generate", "read source", name, err)
	}
	if _, err := glitch.HeaderLength(source); err != nil {
		return Result{}, services.Wrap(services.ErrValidation, "generate", "scan header", name, err)
	}

	hash := fileutil.ContentHash(source)
	res := Result{Name: name, Hash: hash, Requested: g.opts.PerSide}
	if err := g.cache.WriteMetadata(framecache.EntryMetadata{
		Hash:       hash,
		SourceName: name,
		SourcePath: path,
		Width:      g.codec.Width,
		Height:     g.codec.Height,
	}); err != nil {
		logging.WarnWithContext(logger, "cache metadata not written", "cache_metadata_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "cache stats will not show the source name"),
		)
	}
	g.cache.Touch(hash)

	clean, hit, err := g.cleanFrame(ctx, name, hash, source)
	if err != nil {
		return Result{}, err
	}
	res.Clean = clean
	if hit {
		res.CacheHits++
	}

	requests := g.drawSeeds()
	frames := make([]*timeline.Frame, len(requests))
	hits := make([]bool, len(requests))

	var (
		mu      sync.Mutex
		done    int
		sampler = logging.NewProgressSampler(20)
	)
	var group errgroup.Group
	group.SetLimit(g.opts.Workers)
	for i, req := range requests {
		if ctx.Err() != nil {
			break
		}
		group.Go(func() error {
			frame, cached, err := g.glitchFrame(ctx, name, hash, source, req)
			mu.Lock()
			done++
			if sampler.ShouldLog(name, done, len(requests)) {
				logger.Info("glitch frames", logging.Int("done", done), logging.Int("total", len(requests)))
			}
			mu.Unlock()
			if err != nil {
				return err
			}
			frames[i] = frame
			hits[i] = cached
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	for i, f := range frames {
		if f == nil {
			res.Dropped++
			continue
		}
		if hits[i] {
			res.CacheHits++
		}
		res.Glitch = append(res.Glitch, *f)
	}
	logger.Info("image frames ready",
		logging.Hash(hash),
		logging.Int("glitch_frames", len(res.Glitch)),
		logging.Int("dropped", res.Dropped),
		logging.Int("cache_hits", res.CacheHits),
	)
	return res, nil
}

// drawSeeds draws every seed the image could use, in sequence order.
func (g *Generator) drawSeeds() []request {
	requests := make([]request, g.opts.PerSide)
	for i := range requests {
		seeds := make([]int, 1+g.opts.ReseedAttempts)
		for j := range seeds {
			seeds[j] = g.rng.IntN(glitch.MaxSeed + 1)
		}
		requests[i] = request{seq: i, seeds: seeds}
	}
	return requests
}

func (g *Generator) cleanFrame(ctx context.Context, name, hash string, source []byte) (timeline.Frame, bool, error) {
	path := g.cache.CleanPath(hash, g.codec.SizeTag())
	frame := timeline.Frame{Path: path, Clean: true}
	if g.cache.Has(path) {
		return frame, true, nil
	}
	img, err := g.codec.Decode(source)
	if err != nil {
		return timeline.Frame{}, false, services.Wrap(services.ErrValidation, "generate", "decode source", name, err)
	}
	if err := g.cache.Store(path, func(w io.Writer) error { return g.codec.WritePNG(w, img) }); err != nil {
		return timeline.Frame{}, false, services.Wrap(services.ErrTransient, "generate", "store clean frame", name, err)
	}
	g.record(ctx, frameindex.Frame{
		Name:       filepath.Base(path),
		Hash:       hash,
		SourceName: name,
		Kind:       frameindex.KindClean,
		Bytes:      fileSize(path),
	})
	return frame, false, nil
}

// glitchFrame returns nil without error when the frame is dropped. Only
// cancellation and storage failures are returned as errors.
func (g *Generator) glitchFrame(ctx context.Context, name, hash string, source []byte, req request) (*timeline.Frame, bool, error) {
	ctx = services.WithFrameIndex(ctx, req.seq)
	logger := logging.WithContext(ctx, g.logger)

	params := glitch.FrameParams(g.opts.Amount, req.seq, g.opts.PerSide, req.seeds[0])
	path := g.cache.GlitchPath(hash, params.Amount, req.seq, g.codec.SizeTag())
	frame := &timeline.Frame{Path: path, Amount: params.Amount}
	if g.cache.Has(path) {
		return frame, true, nil
	}

	loop := glitch.Loop{Decoder: g.decoder}
	var lastErr error
	for attempt, seed := range req.seeds {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		params.Seed = seed
		out, err := loop.Run(ctx, source, params)
		if err != nil {
			var gerr *glitch.GlitchError
			switch {
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return nil, false, err
			case errors.As(err, &gerr):
				logger.Debug("corruption undecodable, reseeding",
					logging.Int("seed", seed),
					logging.Int("reseed", attempt),
					logging.Int("attempts", gerr.Attempts),
				)
				lastErr = err
				continue
			default:
				lastErr = err
			}
			break
		}

		if err := g.cache.Store(path, func(w io.Writer) error { return g.codec.WritePNG(w, out.Image) }); err != nil {
			return nil, false, services.Wrap(services.ErrTransient, "generate", "store glitch frame", name, err)
		}
		g.record(ctx, frameindex.Frame{
			Name:                filepath.Base(path),
			Hash:                hash,
			SourceName:          name,
			Kind:                frameindex.KindGlitch,
			Amount:              params.Amount,
			Seq:                 req.seq,
			Seed:                seed,
			IterationsRequested: params.Iterations,
			IterationsUsed:      out.Iterations,
			Attempts:            out.Attempts,
			Bytes:               fileSize(path),
		})
		logger.Debug("glitch frame generated",
			logging.Int("amount", params.Amount),
			logging.Int("seed", seed),
			logging.Int("iterations", out.Iterations),
			logging.Int("attempts", out.Attempts),
		)
		return frame, false, nil
	}

	logging.WarnWithContext(logger, "glitch frame dropped", "frame_dropped",
		logging.Int("amount", params.Amount),
		logging.Error(lastErr),
		logging.String(logging.FieldImpact, "transition is one frame shorter"),
		logging.String(logging.FieldErrorHint, fmt.Sprintf("raise generate.reseed_attempts (currently %d) or lower the amount", g.opts.ReseedAttempts)),
	)
	return nil, false, nil
}

func (g *Generator) record(ctx context.Context, f frameindex.Frame) {
	if g.recorder == nil {
		return
	}
	f.RunID = g.opts.RunID
	if err := g.recorder.RecordFrame(ctx, f); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, g.logger), "frame ledger write failed", "ledger_write_failed",
			logging.String("frame", f.Name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "frame is cached but missing from the ledger"),
		)
	}
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
