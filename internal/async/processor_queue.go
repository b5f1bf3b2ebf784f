package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/estate-toolkit/internal/canvas"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/ingest"
	processor "github.com/joseph-ayodele/estate-toolkit/internal/pipeline"
)

type ProcessorQueue struct {
	proc     Analyzer
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onResult func(JobResult)
	load     func(path string) (canvas.Source, error)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithResultHandler receives every finished job. It is called from the
// worker goroutines and must be safe for concurrent use.
func WithResultHandler(fn func(JobResult)) Option {
	return func(q *ProcessorQueue) {
		q.onResult = fn
	}
}

func withLoader(fn func(string) (canvas.Source, error)) Option {
	return func(q *ProcessorQueue) {
		q.load = fn
	}
}

func NewProcessorQueue(proc Analyzer, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		load:    ingest.LoadSource,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					res := q.run(job)
					if res.Err != nil {
						q.logger.Error("async.job.failed", "worker_id", workerID, "job_id", job.ID, "path", job.Path, "error", res.Err)
					} else {
						q.logger.Info("async.job.ok", "worker_id", workerID, "job_id", job.ID, "path", job.Path, "elapsed_ms", res.Elapsed.Milliseconds())
					}
					if q.onResult != nil {
						q.onResult(res)
					}
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(job Job) JobResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	ctx = common.WithUserID(ctx, job.UserID)
	ctx = common.WithRequestID(ctx, job.TraceID)

	res := JobResult{Job: job}
	src, err := q.load(job.Path)
	if err != nil {
		res.Err = err
	} else {
		res.Analysis, res.Err = q.proc.Analyze(ctx, []canvas.Source{src}, processor.Options{SkipRefine: job.SkipRefine})
	}
	if res.Analysis != nil && res.Analysis.Document != nil {
		// batch results never render overlays
		res.Analysis.Document.Close()
	}
	res.Elapsed = time.Since(start)
	return res
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued document for analysis", "job_id", job.ID, "path", job.Path)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "path", job.Path)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
