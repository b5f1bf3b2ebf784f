package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: "sqlite::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	return db
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, Postgres, DialectFor("postgres://u:p@localhost/estate"))
	assert.Equal(t, Postgres, DialectFor("postgresql://localhost/estate"))
	assert.Equal(t, SQLite, DialectFor(""))
	assert.Equal(t, SQLite, DialectFor("sqlite:estate.db"))
	assert.Equal(t, SQLite, DialectFor("file:estate.db?cache=shared"))
}

func TestRebind(t *testing.T) {
	q := "SELECT 1 WHERE a = $1 AND b = $2 AND c = $12"
	assert.Equal(t, "SELECT 1 WHERE a = ?1 AND b = ?2 AND c = ?12", (&DB{Dialect: SQLite}).Rebind(q))
	assert.Equal(t, q, (&DB{Dialect: Postgres}).Rebind(q))
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Migrate(context.Background()))
	require.NoError(t, HealthCheck(context.Background(), db, time.Second, nil))
}

func TestUsageReserveStopsAtLimit(t *testing.T) {
	db := openTestDB(t)
	repo := NewUsageRepository(db, nil)
	ctx := context.Background()
	now := time.Now()

	n, err := repo.Count(ctx, "u1", "2025-06-15")
	require.NoError(t, err)
	assert.Zero(t, n)

	for want := 1; want <= 3; want++ {
		n, ok, err := repo.Reserve(ctx, "u1", "2025-06-15", 3, now)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, want, n)
	}
	_, ok, err := repo.Reserve(ctx, "u1", "2025-06-15", 3, now)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err = repo.Count(ctx, "u1", "2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, ok, err = repo.Reserve(ctx, "u1", "2025-06-16", 3, now)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestUsageRelease(t *testing.T) {
	db := openTestDB(t)
	repo := NewUsageRepository(db, nil)
	ctx := context.Background()
	now := time.Now()

	_, ok, err := repo.Reserve(ctx, "u1", "2025-06-15", 1, now)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, repo.Release(ctx, "u1", "2025-06-15", now))

	n, err := repo.Count(ctx, "u1", "2025-06-15")
	require.NoError(t, err)
	assert.Zero(t, n)

	// never below zero, and a missing row is not an error
	require.NoError(t, repo.Release(ctx, "u1", "2025-06-15", now))
	require.NoError(t, repo.Release(ctx, "u2", "2025-06-15", now))
	n, err = repo.Count(ctx, "u1", "2025-06-15")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSnapshotCreateGetList(t *testing.T) {
	db := openTestDB(t)
	repo := NewSnapshotRepository(db, nil).(*snapshotRepository)
	ctx := context.Background()

	base := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	v, err := repo.Create(ctx, constants.SnapshotValuation, "u1", map[string]any{"landArea": 100}, map[string]any{"total": 18545454})
	require.NoError(t, err)
	_, err = repo.Create(ctx, constants.SnapshotProration, "u1", map[string]any{}, map[string]any{})
	require.NoError(t, err)
	_, err = repo.Create(ctx, constants.SnapshotValuation, "u2", map[string]any{}, map[string]any{})
	require.NoError(t, err)

	got, err := repo.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.SnapshotValuation, got.Kind)
	assert.Equal(t, base.Add(time.Minute), got.CreatedAt)
	var result map[string]int
	require.NoError(t, json.Unmarshal(got.Result, &result))
	assert.Equal(t, 18545454, result["total"])

	all, err := repo.List(ctx, "u1", "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, constants.SnapshotProration, all[0].Kind)

	vals, err := repo.List(ctx, "u1", constants.SnapshotValuation, 10)
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Equal(t, v.ID, vals[0].ID)

	limited, err := repo.List(ctx, "u1", "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSnapshotGetMissing(t *testing.T) {
	db := openTestDB(t)
	_, err := NewSnapshotRepository(db, nil).Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}
