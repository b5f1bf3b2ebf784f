package calculation

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/apportionment"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/proration"
	"github.com/joseph-ayodele/estate-toolkit/internal/repository"
	"github.com/joseph-ayodele/estate-toolkit/internal/valuation"
)

// Service runs the calculators for a caller and keeps a snapshot of every
// successful run.
type Service struct {
	snapshots repository.SnapshotRepository
	logger    *slog.Logger
}

// NewService creates a calculation service. snapshots may be nil, in which
// case nothing is persisted.
func NewService(snapshots repository.SnapshotRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{snapshots: snapshots, logger: logger}
}

// Outcome pairs a calculator result with the stored snapshot, if any.
type Outcome[T any] struct {
	Result   T                    `json:"result"`
	Snapshot *repository.Snapshot `json:"snapshot,omitempty"`
}

func (s *Service) Valuation(ctx context.Context, in valuation.Inputs) (*Outcome[valuation.Result], error) {
	return run(ctx, s, constants.SnapshotValuation, in, valuation.Calculate)
}

func (s *Service) Apportionment(ctx context.Context, in apportionment.Inputs) (*Outcome[apportionment.Result], error) {
	return run(ctx, s, constants.SnapshotApportionment, in, apportionment.Calculate)
}

func (s *Service) Proration(ctx context.Context, in proration.Inputs) (*Outcome[proration.Result], error) {
	return run(ctx, s, constants.SnapshotProration, in, proration.Calculate)
}

// Record stores an arbitrary result, used for extraction snapshots.
func (s *Service) Record(ctx context.Context, kind constants.SnapshotKind, inputs, result any) (*repository.Snapshot, error) {
	if s.snapshots == nil {
		return nil, nil
	}
	return s.snapshots.Create(ctx, kind, common.UserIDFromContext(ctx), inputs, result)
}

// ListSnapshots returns the caller's recent snapshots.
func (s *Service) ListSnapshots(ctx context.Context, kind constants.SnapshotKind, limit int) ([]*repository.Snapshot, error) {
	if s.snapshots == nil {
		return nil, nil
	}
	if kind != "" {
		v := common.NewValidator()
		v.Field("kind", string(kind), common.OneOf(
			string(constants.SnapshotValuation),
			string(constants.SnapshotApportionment),
			string(constants.SnapshotProration),
			string(constants.SnapshotExtraction),
		))
		if err := v.Err(); err != nil {
			return nil, err
		}
	}
	return s.snapshots.List(ctx, common.UserIDFromContext(ctx), kind, limit)
}

func run[I, R any](ctx context.Context, s *Service, kind constants.SnapshotKind, in I, calc func(I) (R, error)) (*Outcome[R], error) {
	start := time.Now()
	userID := common.UserIDFromContext(ctx)

	res, err := calc(in)
	if err != nil {
		s.logger.Info("calculation.rejected", "kind", kind, "user_id", userID, "error", err)
		return nil, err
	}

	out := &Outcome[R]{Result: res}
	snap, err := s.Record(ctx, kind, in, res)
	if err != nil {
		// the figures are still valid; losing the audit row is not fatal
		s.logger.Error("calculation.snapshot_failed", "kind", kind, "user_id", userID, "error", err)
	} else {
		out.Snapshot = snap
	}

	s.logger.Info("calculation.ok",
		"kind", kind,
		"user_id", userID,
		"request_id", common.RequestIDFromContext(ctx),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
