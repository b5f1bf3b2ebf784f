package batch

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/estate-toolkit/internal/async"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/ingest"
)

// Service analyzes every supported document of a directory.
type Service struct {
	analyzer async.Analyzer
	opts     []async.Option
	logger   *slog.Logger
}

// NewService creates a batch service. opts configure the worker pool each run uses.
func NewService(analyzer async.Analyzer, logger *slog.Logger, opts ...async.Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{analyzer: analyzer, opts: opts, logger: logger}
}

// DirectoryRequest represents directory analysis parameters.
type DirectoryRequest struct {
	RootPath   string
	Extensions []string
	SkipHidden bool
	SkipRefine bool
	UserID     string
}

type Stats struct {
	ingest.DirStats
	Succeeded uint32
}

// DirectoryResult holds per-document outcomes in path order.
type DirectoryResult struct {
	Statistics Stats
	Results    []async.JobResult
	Skipped    []ingest.FileError
}

// RunDirectory walks the root, queues each document and waits for all of them.
// Per-document failures are reported in the results, not returned.
func (s *Service) RunDirectory(ctx context.Context, req DirectoryRequest) (*DirectoryResult, error) {
	start := time.Now()
	root := strings.TrimSpace(req.RootPath)
	if root == "" {
		return nil, common.InvalidArgumentError("root_path is required")
	}

	paths, skipped, stats, err := ingest.Walk(ctx, root, req.Extensions, req.SkipHidden)
	if err != nil {
		s.logger.Error("batch.walk.failed", "root", root, "error", err)
		return nil, err
	}
	s.logger.Info("batch.start", "root", root, "scanned", stats.Scanned, "matched", stats.Matched)

	var mu sync.Mutex
	var results []async.JobResult
	opts := append(append([]async.Option{}, s.opts...), async.WithResultHandler(func(r async.JobResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
	}))
	q := async.NewProcessorQueue(s.analyzer, s.logger, opts...)

	for _, p := range paths {
		if err := q.Enqueue(ctx, async.Job{Path: p, UserID: req.UserID, SkipRefine: req.SkipRefine}); err != nil {
			// drain what was queued before giving up
			q.Shutdown(context.Background())
			return nil, err
		}
	}
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	sort.Slice(results, func(i, j int) bool { return results[i].Job.Path < results[j].Job.Path })

	out := &DirectoryResult{Statistics: Stats{DirStats: stats}, Results: results, Skipped: skipped}
	for _, r := range results {
		if r.Err != nil {
			out.Statistics.Failed++
		} else {
			out.Statistics.Succeeded++
		}
	}
	s.logger.Info("batch.completed",
		"root", root,
		"matched", stats.Matched,
		"succeeded", out.Statistics.Succeeded,
		"failed", out.Statistics.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// Watch analyzes documents as they appear under root until ctx is done.
func (s *Service) Watch(ctx context.Context, cfg ingest.WatchConfig, userID string, skipRefine bool, handle func(async.JobResult)) error {
	events, errs, err := ingest.Watch(ctx, cfg, s.logger)
	if err != nil {
		return err
	}
	opts := append(append([]async.Option{}, s.opts...), async.WithResultHandler(handle))
	q := async.NewProcessorQueue(s.analyzer, s.logger, opts...)
	defer q.Shutdown(context.Background())

	for {
		select {
		case p, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			if err := q.Enqueue(ctx, async.Job{Path: p, UserID: userID, SkipRefine: skipRefine}); err != nil {
				return err
			}
		case err, ok := <-errs:
			if ok && err != nil {
				s.logger.Warn("batch.watch.error", "error", err)
			}
			if !ok {
				errs = nil
			}
		}
	}
}
