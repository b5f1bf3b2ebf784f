package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type Snapshot struct {
	ID        uuid.UUID              `json:"id"`
	Kind      constants.SnapshotKind `json:"kind"`
	UserID    string                 `json:"user_id"`
	Inputs    json.RawMessage        `json:"inputs"`
	Result    json.RawMessage        `json:"result"`
	CreatedAt time.Time              `json:"created_at"`
}

type SnapshotRepository interface {
	Create(ctx context.Context, kind constants.SnapshotKind, userID string, inputs, result any) (*Snapshot, error)
	Get(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	// List returns the newest snapshots first. An empty kind matches every kind.
	List(ctx context.Context, userID string, kind constants.SnapshotKind, limit int) ([]*Snapshot, error)
}

type snapshotRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewSnapshotRepository(db *DB, logger *slog.Logger) SnapshotRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &snapshotRepository{db: db, logger: logger, now: time.Now}
}

func (r *snapshotRepository) Create(ctx context.Context, kind constants.SnapshotKind, userID string, inputs, result any) (*Snapshot, error) {
	in, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("marshal inputs: %w", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	s := &Snapshot{
		ID:        uuid.New(),
		Kind:      kind,
		UserID:    userID,
		Inputs:    in,
		Result:    out,
		CreatedAt: r.now().UTC().Truncate(time.Millisecond),
	}

	const q = `
INSERT INTO calculation_snapshot (id, kind, user_id, inputs, result, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.db.SQL.ExecContext(ctx, r.db.Rebind(q),
		s.ID.String(), string(s.Kind), s.UserID, string(s.Inputs), string(s.Result), s.CreatedAt.UnixMilli())
	if err != nil {
		r.logger.Error("failed to create snapshot", "kind", kind, "user_id", userID, "error", err)
		return nil, common.NewAppError(common.CodeDatabase, "create snapshot", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	r.logger.Debug("snapshot created", "snapshot_id", s.ID, "kind", kind)
	return s, nil
}

func (r *snapshotRepository) Get(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	const q = `
SELECT id, kind, user_id, inputs, result, created_at
FROM calculation_snapshot
WHERE id = $1`
	s, err := scanSnapshot(r.db.SQL.QueryRowContext(ctx, r.db.Rebind(q), id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeNotFound, "snapshot "+id.String(), common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("failed to get snapshot", "snapshot_id", id, "error", err)
		return nil, err
	}
	return s, nil
}

func (r *snapshotRepository) List(ctx context.Context, userID string, kind constants.SnapshotKind, limit int) ([]*Snapshot, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	q := `
SELECT id, kind, user_id, inputs, result, created_at
FROM calculation_snapshot
WHERE user_id = $1`
	args := []any{userID}
	if kind != "" {
		args = append(args, string(kind))
		q += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d", len(args))

	rows, err := r.db.SQL.QueryContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		r.logger.Error("failed to list snapshots", "user_id", userID, "kind", kind, "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var (
		id, kind, userID, inputs, result string
		createdAt                        int64
	)
	if err := row.Scan(&id, &kind, &userID, &inputs, &result, &createdAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("snapshot id %q: %w", id, err)
	}
	return &Snapshot{
		ID:        parsed,
		Kind:      constants.SnapshotKind(kind),
		UserID:    userID,
		Inputs:    json.RawMessage(inputs),
		Result:    json.RawMessage(result),
		CreatedAt: time.UnixMilli(createdAt).UTC(),
	}, nil
}
