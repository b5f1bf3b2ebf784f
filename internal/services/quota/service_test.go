package quota

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/repository"
)

func newService(t *testing.T, limit int) *Service {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{DSN: "sqlite::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })

	s, err := NewService(repository.NewUsageRepository(db, nil), common.QuotaConfig{DailyLimit: limit, Timezone: "Asia/Tokyo"}, nil)
	require.NoError(t, err)
	return s
}

func TestDayBoundaryIsTokyoMidnight(t *testing.T) {
	s := newService(t, 3)
	// 14:59 UTC is 23:59 JST, 15:00 UTC is the next JST day
	assert.Equal(t, "2025-06-15", s.Day(time.Date(2025, 6, 15, 14, 59, 0, 0, time.UTC)))
	assert.Equal(t, "2025-06-16", s.Day(time.Date(2025, 6, 15, 15, 0, 0, 0, time.UTC)))
}

func TestReserveUpToLimit(t *testing.T) {
	s := newService(t, 3)
	ctx := context.Background()
	now := time.Date(2025, 6, 15, 1, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := s.Reserve(ctx, "u1")
		require.NoError(t, err)
	}

	_, err := s.Reserve(ctx, "u1")
	assert.ErrorIs(t, err, common.ErrQuotaExceeded)
	_, err = s.Reserve(ctx, "u2")
	assert.NoError(t, err)

	left, err := s.Remaining(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, left)

	now = now.Add(14 * time.Hour) // past JST midnight
	left, err = s.Remaining(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, left)
	_, err = s.Reserve(ctx, "u1")
	assert.NoError(t, err)
}

func TestReleaseReturnsSlot(t *testing.T) {
	s := newService(t, 1)
	ctx := context.Background()

	release, err := s.Reserve(ctx, "u1")
	require.NoError(t, err)
	_, err = s.Reserve(ctx, "u1")
	require.ErrorIs(t, err, common.ErrQuotaExceeded)

	release(ctx)
	release(ctx) // second call is a no-op

	left, err := s.Remaining(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, left)
	_, err = s.Reserve(ctx, "u1")
	assert.NoError(t, err)
}

func TestConcurrentReservesNeverExceedLimit(t *testing.T) {
	s := newService(t, 3)
	ctx := context.Background()

	var (
		wg       sync.WaitGroup
		granted  atomic.Int32
		rejected atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Reserve(ctx, "u1")
			switch {
			case err == nil:
				granted.Add(1)
			case errors.Is(err, common.ErrQuotaExceeded):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 3, granted.Load())
	assert.EqualValues(t, 7, rejected.Load())
	left, err := s.Remaining(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestZeroLimitDisablesCheck(t *testing.T) {
	s := newService(t, 0)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		release, err := s.Reserve(ctx, "u1")
		require.NoError(t, err)
		release(ctx)
	}
	left, err := s.Remaining(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, -1, left)
}

func TestUnknownTimezone(t *testing.T) {
	_, err := NewService(nil, common.QuotaConfig{DailyLimit: 3, Timezone: "Mars/Olympus"}, nil)
	assert.Error(t, err)
}
