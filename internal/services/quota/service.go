package quota

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/repository"
)

const (
	DefaultDailyLimit = 3
	DefaultTimezone   = "Asia/Tokyo"
)

// Service enforces the per-user daily analysis limit. The day rolls over at
// midnight in the configured location.
type Service struct {
	usage  repository.UsageRepository
	limit  int
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a quota service. A limit of zero disables the check.
func NewService(usage repository.UsageRepository, cfg common.QuotaConfig, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tz := cfg.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("quota timezone %q: %w", tz, err)
	}
	return &Service{
		usage:  usage,
		limit:  cfg.DailyLimit,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}, nil
}

// Day is the quota bucket a moment falls into.
func (s *Service) Day(t time.Time) string {
	return t.In(s.loc).Format(time.DateOnly)
}

// Remaining reports how many analyses the user has left today.
func (s *Service) Remaining(ctx context.Context, userID string) (int, error) {
	if s.limit <= 0 {
		return -1, nil
	}
	used, err := s.usage.Count(ctx, userID, s.Day(s.now()))
	if err != nil {
		return 0, common.NewAppError(common.CodeDatabase, "read usage", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	if used >= s.limit {
		return 0, nil
	}
	return s.limit - used, nil
}

// Reserve takes one of today's analyses before work starts. The limit check
// and the increment are one statement, so concurrent callers cannot overrun it.
// The returned release gives the slot back and must be called when the
// analysis does not complete.
func (s *Service) Reserve(ctx context.Context, userID string) (func(context.Context), error) {
	if s.limit <= 0 {
		return func(context.Context) {}, nil
	}
	now := s.now()
	day := s.Day(now)
	n, ok, err := s.usage.Reserve(ctx, userID, day, s.limit, now)
	if err != nil {
		return nil, common.NewAppError(common.CodeDatabase, "reserve usage", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	if !ok {
		s.logger.Warn("quota.exceeded", "user_id", userID, "limit", s.limit, "day", day)
		return nil, common.NewAppError(common.CodeQuota,
			fmt.Sprintf("daily limit of %d analyses reached", s.limit), common.ErrQuotaExceeded)
	}
	s.logger.Info("quota.reserved", "user_id", userID, "count", n, "limit", s.limit)

	var once sync.Once
	return func(ctx context.Context) {
		once.Do(func() {
			if err := s.usage.Release(ctx, userID, day, s.now()); err != nil {
				s.logger.Error("quota.release_failed", "user_id", userID, "day", day, "error", err)
				return
			}
			s.logger.Info("quota.released", "user_id", userID, "day", day)
		})
	}, nil
}
