package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"
)

// UsageRepository counts analyses per user per quota day.
type UsageRepository interface {
	Count(ctx context.Context, userID, day string) (int, error)
	// Reserve takes one slot if the day's count is below limit, in a single
	// statement. ok is false when the limit was already reached.
	Reserve(ctx context.Context, userID, day string, limit int, at time.Time) (count int, ok bool, err error)
	// Release gives back a reserved slot.
	Release(ctx context.Context, userID, day string, at time.Time) error
}

type usageRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewUsageRepository(db *DB, logger *slog.Logger) UsageRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &usageRepository{db: db, logger: logger}
}

func (r *usageRepository) Count(ctx context.Context, userID, day string) (int, error) {
	const q = `SELECT count FROM analysis_usage WHERE user_id = $1 AND day = $2`
	var n int
	err := r.db.SQL.QueryRowContext(ctx, r.db.Rebind(q), userID, day).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		r.logger.Error("failed to read usage", "user_id", userID, "day", day, "error", err)
		return 0, err
	}
	return n, nil
}

func (r *usageRepository) Reserve(ctx context.Context, userID, day string, limit int, at time.Time) (int, bool, error) {
	const q = `
INSERT INTO analysis_usage (user_id, day, count, updated_at)
VALUES ($1, $2, 1, $3)
ON CONFLICT (user_id, day) DO UPDATE
SET count = analysis_usage.count + 1,
    updated_at = excluded.updated_at
WHERE analysis_usage.count < $4
RETURNING count`
	var n int
	err := r.db.SQL.QueryRowContext(ctx, r.db.Rebind(q), userID, day, at.UnixMilli(), limit).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return limit, false, nil
	}
	if err != nil {
		r.logger.Error("failed to reserve usage", "user_id", userID, "day", day, "error", err)
		return 0, false, err
	}
	return n, true, nil
}

func (r *usageRepository) Release(ctx context.Context, userID, day string, at time.Time) error {
	const q = `
UPDATE analysis_usage
SET count = count - 1, updated_at = $3
WHERE user_id = $1 AND day = $2 AND count > 0`
	if _, err := r.db.SQL.ExecContext(ctx, r.db.Rebind(q), userID, day, at.UnixMilli()); err != nil {
		r.logger.Error("failed to release usage", "user_id", userID, "day", day, "error", err)
		return err
	}
	return nil
}
