package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/estate-toolkit/internal/canvas"
	processor "github.com/joseph-ayodele/estate-toolkit/internal/pipeline"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document waiting for analysis.
type Job struct {
	ID          uuid.UUID
	Path        string
	UserID      string
	SkipRefine  bool
	SubmittedAt time.Time
	TraceID     string
}

// JobResult is handed to the result handler once a job finishes.
type JobResult struct {
	Job      Job
	Analysis *processor.Analysis
	Err      error
	Elapsed  time.Duration
}

// Analyzer is what the workers run. *processor.Processor satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, sources []canvas.Source, opts processor.Options) (*processor.Analysis, error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
