package services

import (
	"context"
	"time"

	"questHubAPI/internal/checkin"
	"questHubAPI/internal/leaderboard"
	"questHubAPI/internal/quest"
	"questHubAPI/internal/stats"
)

// Clock supplies the current instant. Services never call time.Now directly.
type Clock func() time.Time

type StatsStore interface {
	GetOrCreateStats(ctx context.Context, userKey string) (*stats.UserStats, error)
}

// CheckinStore must make ApplyCheckin atomic: the record insert and the stats
// update are both visible or neither is, and a duplicate (user, day) is
// reported as apperr.ErrAlreadyCheckedIn.
type CheckinStore interface {
	StatsStore
	FindCheckin(ctx context.Context, userKey string, date time.Time) (*checkin.Record, error)
	LatestCheckinBefore(ctx context.Context, userKey string, date time.Time) (*checkin.Record, error)
	ApplyCheckin(ctx context.Context, rec checkin.Record) (*stats.UserStats, error)
}

type QuestStore interface {
	StatsStore
	ApplyQuestCompletion(ctx context.Context, c quest.Completion) (*stats.UserStats, error)
	ListQuestCompletions(ctx context.Context, userKey string) ([]quest.Completion, error)
	WasReferred(ctx context.Context, userKey string) (bool, error)
	ResolveReferralCode(ctx context.Context, code string) (string, error)
}

type LeaderboardStore interface {
	TopByXP(ctx context.Context, limit int) ([]*leaderboard.LeaderboardEntry, error)
	CountUsers(ctx context.Context) (int, error)
	RankOf(ctx context.Context, userKey string) (*leaderboard.LeaderboardEntry, error)
}

type LeaderboardCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
