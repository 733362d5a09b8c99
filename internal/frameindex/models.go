package frameindex

import "time"

// RunStatus is the outcome of a generate run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Run is one invocation of the pipeline.
type Run struct {
	ID         string
	InputDir   string
	OutputDir  string
	Amount     int
	Status     RunStatus
	Images     int
	Frames     int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is how long a finished run took.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FrameKind separates clean frames from glitch frames.
type FrameKind string

const (
	KindClean  FrameKind = "clean"
	KindGlitch FrameKind = "glitch"
)

// Frame is the ledger record for one cached artifact, keyed by file name.
type Frame struct {
	Name                string
	Hash                string
	SourceName          string
	Kind                FrameKind
	Amount              int
	Seq                 int
	Seed                int
	IterationsRequested int
	IterationsUsed      int
	Attempts            int
	Bytes               int64
	RunID               string
	CreatedAt           time.Time
}

// Summary aggregates ledger contents.
type Summary struct {
	Frames       int
	CleanFrames  int
	GlitchFrames int
	Sources      int
	Bytes        int64
	Runs         int
}
