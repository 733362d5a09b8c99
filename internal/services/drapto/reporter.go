package drapto

import (
	"fmt"
	"log/slog"
	"strings"

	draptolib "github.com/five82/drapto"

	"glitchreel/internal/logging"
)

// logReporter adapts the drapto Reporter interface to structured log lines.
type logReporter struct {
	logger   *slog.Logger
	progress *logging.ProgressSampler
}

func newLogReporter(logger *slog.Logger) *logReporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &logReporter{logger: logger, progress: logging.NewProgressSampler(10)}
}

func (r *logReporter) Hardware(s draptolib.HardwareSummary) {
	r.logger.Debug("drapto hardware info", logging.String("hostname", strings.TrimSpace(s.Hostname)))
}

func (r *logReporter) Initialization(s draptolib.InitializationSummary) {
	r.logger.Info("drapto input",
		logging.String("video_file", strings.TrimSpace(s.InputFile)),
		logging.String("video_duration", strings.TrimSpace(s.Duration)),
		logging.String("video_resolution", strings.TrimSpace(s.Resolution)),
	)
}

func (r *logReporter) StageProgress(s draptolib.StageProgress) {
	r.logger.Debug("drapto stage",
		logging.String("stage", strings.TrimSpace(s.Stage)),
		logging.Float64("percent", float64(s.Percent)),
		logging.String("message", strings.TrimSpace(s.Message)),
	)
}

func (r *logReporter) CropResult(s draptolib.CropSummary) {
	r.logger.Debug("drapto crop detection",
		logging.Bool("required", s.Required),
		logging.String("crop", strings.TrimSpace(s.Crop)),
	)
}

func (r *logReporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.logger.Info("drapto encoding config",
		logging.String("encoder", strings.TrimSpace(s.Encoder)),
		logging.String("preset", strings.TrimSpace(s.Preset)),
		logging.String("quality", strings.TrimSpace(s.Quality)),
		logging.String("pixel_format", strings.TrimSpace(s.PixelFormat)),
	)
}

func (r *logReporter) EncodingStarted(totalFrames uint64) {
	r.logger.Info("drapto encoding started", logging.Uint64("total_frames", totalFrames))
}

func (r *logReporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	if !r.progress.ShouldLog("av1", int(s.CurrentFrame), int(s.TotalFrames)) {
		return
	}
	r.logger.Info("drapto progress",
		logging.Float64("percent", float64(s.Percent)),
		logging.Float64("fps", float64(s.FPS)),
		logging.Duration("eta", s.ETA),
	)
}

func (r *logReporter) ValidationComplete(s draptolib.ValidationSummary) {
	failed := 0
	for _, step := range s.Steps {
		if !step.Passed {
			failed++
			r.logger.Warn("drapto validation step failed",
				logging.String("step", strings.TrimSpace(step.Name)),
				logging.String("details", strings.TrimSpace(step.Details)),
			)
		}
	}
	r.logger.Info("drapto validation", logging.Bool("passed", s.Passed), logging.Int("failed_steps", failed))
}

func (r *logReporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.logger.Info("drapto results",
		logging.String("output", strings.TrimSpace(s.OutputPath)),
		logging.String("size", fmt.Sprintf("%d -> %d bytes", s.OriginalSize, s.EncodedSize)),
		logging.Duration("duration", s.TotalTime),
	)
}

func (r *logReporter) Warning(message string) {
	if strings.TrimSpace(message) == "" {
		return
	}
	r.logger.Warn("drapto warning", logging.String("drapto_warning", strings.TrimSpace(message)))
}

func (r *logReporter) Error(e draptolib.ReporterError) {
	attrs := []logging.Attr{
		logging.String("drapto_error_title", strings.TrimSpace(e.Title)),
		logging.String("drapto_error_message", strings.TrimSpace(e.Message)),
	}
	if hint := strings.TrimSpace(e.Suggestion); hint != "" {
		attrs = append(attrs, logging.String(logging.FieldErrorHint, hint))
	}
	r.logger.Error("drapto error", logging.Args(attrs...)...)
}

func (r *logReporter) OperationComplete(message string) {
	if strings.TrimSpace(message) == "" {
		return
	}
	r.logger.Info("drapto encode complete", logging.String("result", strings.TrimSpace(message)))
}

// Batch events never fire for the single-file encodes we run.
func (r *logReporter) BatchStarted(draptolib.BatchStartInfo)      {}
func (r *logReporter) FileProgress(draptolib.FileProgressContext) {}
func (r *logReporter) BatchComplete(draptolib.BatchSummary)       {}

var _ draptolib.Reporter = (*logReporter)(nil)
