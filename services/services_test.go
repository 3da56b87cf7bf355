package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/checkin"
	"questHubAPI/internal/stats"
	"questHubAPI/internal/store"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advanceDays(n int) { c.now = c.now.AddDate(0, 0, n) }

func newClock() *testClock {
	return &testClock{now: time.Date(2024, 5, 20, 14, 30, 0, 0, time.UTC)}
}

// seedCheckin writes a past check-in directly, leaving current streak at streakDay.
func seedCheckin(t *testing.T, m *store.Memory, userKey string, at time.Time, streakDay int) {
	t.Helper()
	_, err := m.ApplyCheckin(context.Background(), checkin.Record{
		ID:           uuid.New(),
		UserKey:      userKey,
		Date:         checkin.UTCDate(at),
		StreakDay:    streakDay,
		BaseXP:       checkin.BaseXP,
		TokensEarned: checkin.BaseTokens,
		CheckedInAt:  at,
	})
	require.NoError(t, err)
}

// racingStore lets a competing check-in for the same day land just before the
// first ApplyCheckin goes through.
type racingStore struct {
	*store.Memory
	competitor *checkin.Record
}

func (r *racingStore) ApplyCheckin(ctx context.Context, rec checkin.Record) (*stats.UserStats, error) {
	if r.competitor == nil {
		competitor := rec
		competitor.ID = uuid.New()
		r.competitor = &competitor
		if _, err := r.Memory.ApplyCheckin(ctx, competitor); err != nil {
			return nil, err
		}
	}
	return r.Memory.ApplyCheckin(ctx, rec)
}

// failingStore fails every stats read, like a database that went away.
type failingStore struct {
	*store.Memory
	err error
}

func (f failingStore) GetOrCreateStats(ctx context.Context, userKey string) (*stats.UserStats, error) {
	return nil, apperr.Persistence("get user stats", f.err)
}
