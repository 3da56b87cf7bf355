package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"questHubAPI/internal/leaderboard"
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

type LeaderboardService struct {
	store LeaderboardStore
	cache LeaderboardCache
	ttl   time.Duration
	log   *zap.Logger
}

// NewLeaderboardService builds the service; cache may be nil to always hit the store.
func NewLeaderboardService(store LeaderboardStore, cache LeaderboardCache, ttl time.Duration, log *zap.Logger) *LeaderboardService {
	return &LeaderboardService{
		store: store,
		cache: cache,
		ttl:   ttl,
		log:   log.Named("leaderboard"),
	}
}

type cachedTop struct {
	Entries    []*leaderboard.LeaderboardEntry `json:"entries"`
	TotalUsers int                             `json:"total_users"`
}

func (s *LeaderboardService) GetLeaderboard(ctx context.Context, userKey string, limit int) (*leaderboard.Leaderboard, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	top, err := s.top(ctx, limit)
	if err != nil {
		return nil, err
	}

	lb := leaderboard.Build(top.Entries, userKey, top.TotalUsers)
	if lb.UserPosition == nil && userKey != "" {
		lb.UserPosition, err = s.store.RankOf(ctx, userKey)
		if err != nil {
			return nil, err
		}
	}

	return lb, nil
}

func (s *LeaderboardService) top(ctx context.Context, limit int) (*cachedTop, error) {
	key := fmt.Sprintf("leaderboard:xp:%d", limit)

	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			leaderboardCacheTotal.WithLabelValues("error").Inc()
			s.log.Warn("leaderboard cache read failed", zap.Error(err))
		case ok:
			var top cachedTop
			if err := json.Unmarshal(raw, &top); err == nil {
				leaderboardCacheTotal.WithLabelValues("hit").Inc()
				return &top, nil
			}
			s.log.Warn("leaderboard cache entry unreadable", zap.String("key", key))
		default:
			leaderboardCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	entries, err := s.store.TopByXP(ctx, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	top := &cachedTop{Entries: entries, TotalUsers: total}

	if s.cache != nil {
		raw, err := json.Marshal(top)
		if err == nil {
			err = s.cache.Set(ctx, key, raw, s.ttl)
		}
		if err != nil {
			s.log.Warn("leaderboard cache write failed", zap.Error(err))
		}
	}

	return top, nil
}
