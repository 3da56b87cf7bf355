package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeExpirer struct {
	calls []time.Time
	n     int64
	err   error
}

func (f *fakeExpirer) ExpireBrokenStreaks(ctx context.Context, today time.Time) (int64, error) {
	f.calls = append(f.calls, today)
	return f.n, f.err
}

var fixedNow = time.Date(2024, 6, 1, 0, 5, 0, 0, time.UTC)

func TestExpireStreaks(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	exp := &fakeExpirer{n: 4}
	s := NewScheduler(exp, func() time.Time { return fixedNow }, zap.New(core))

	s.ExpireStreaks(context.Background())

	require.Len(t, exp.calls, 1)
	assert.Equal(t, fixedNow, exp.calls[0])
	entries := logs.FilterMessage("streak expiry finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(4), entries[0].ContextMap()["expired"])
}

func TestExpireStreaksLogsFailure(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	exp := &fakeExpirer{err: errors.New("db down")}
	s := NewScheduler(exp, func() time.Time { return fixedNow }, zap.New(core))

	s.ExpireStreaks(context.Background())

	assert.Equal(t, 1, logs.FilterMessage("streak expiry failed").Len())
}

func TestExpireStreaksSkipsAfterCancel(t *testing.T) {
	exp := &fakeExpirer{}
	s := NewScheduler(exp, func() time.Time { return fixedNow }, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.ExpireStreaks(ctx)

	assert.Empty(t, exp.calls)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&fakeExpirer{}, time.Now, zap.NewNop())
	assert.Error(t, s.Start(context.Background(), "every day please"))
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(&fakeExpirer{}, time.Now, zap.NewNop())
	require.NoError(t, s.Start(context.Background(), "5 0 * * *"))
	s.Stop()
}
