package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/leaderboard"
)

// TopByXP returns up to limit users ordered by XP, then longest streak, then key.
func (s *Postgres) TopByXP(ctx context.Context, limit int) ([]*leaderboard.LeaderboardEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_key, total_xp, level, current_streak, longest_streak
		FROM user_stats
		ORDER BY total_xp DESC, longest_streak DESC, user_key ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperr.Persistence("fetch leaderboard", err)
	}
	defer rows.Close()

	var entries []*leaderboard.LeaderboardEntry
	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		if err := rows.Scan(&entry.UserKey, &entry.TotalXP, &entry.Level, &entry.CurrentStreak, &entry.LongestStreak); err != nil {
			return nil, apperr.Persistence("scan leaderboard row", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate leaderboard", err)
	}

	return entries, nil
}

func (s *Postgres) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_stats`).Scan(&n); err != nil {
		return 0, apperr.Persistence("count users", err)
	}
	return n, nil
}

// RankOf returns the user's entry ranked against everyone, or nil if the user has no stats.
func (s *Postgres) RankOf(ctx context.Context, userKey string) (*leaderboard.LeaderboardEntry, error) {
	entry := &leaderboard.LeaderboardEntry{}
	err := s.db.QueryRow(ctx, `
		SELECT u.user_key, u.total_xp, u.level, u.current_streak, u.longest_streak,
		       (SELECT COUNT(*) FROM user_stats o WHERE o.total_xp > u.total_xp) + 1 AS rank
		FROM user_stats u
		WHERE u.user_key = $1
	`, userKey).Scan(&entry.UserKey, &entry.TotalXP, &entry.Level, &entry.CurrentStreak, &entry.LongestStreak, &entry.Rank)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Persistence("rank user", err)
	}
	return entry, nil
}
