package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/quest"
	"questHubAPI/internal/stats"
)

// ApplyQuestCompletion records c and credits its reward to c.UserKey atomically.
// A completion already recorded for the same period yields apperr.ErrAlreadyCompleted.
func (s *Postgres) ApplyQuestCompletion(ctx context.Context, c quest.Completion) (*stats.UserStats, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperr.Persistence("begin quest completion", err)
	}
	defer tx.Rollback(ctx)

	if err := ensureStats(ctx, tx, c.UserKey); err != nil {
		return nil, apperr.Persistence("create user stats", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO quest_completions (id, user_key, quest, period_key, detail, xp, tokens, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, c.ID, c.UserKey, string(c.Quest), c.PeriodKey, c.Detail, c.XP, c.Tokens, c.CompletedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", c.Quest, apperr.ErrAlreadyCompleted)
		}
		return nil, apperr.Persistence("insert quest completion", err)
	}

	updated, err := updateStats(ctx, tx, c.UserKey, func(st stats.UserStats) stats.UserStats {
		return st.ApplyReward(c.XP, c.Tokens, c.CompletedAt)
	})
	if err != nil {
		return nil, apperr.Persistence("update user stats", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Persistence("commit quest completion", err)
	}

	return updated, nil
}

// ListQuestCompletions returns the completions credited to userKey, newest first.
func (s *Postgres) ListQuestCompletions(ctx context.Context, userKey string) ([]quest.Completion, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_key, quest, period_key, detail, xp, tokens, completed_at
		FROM quest_completions
		WHERE user_key = $1
		ORDER BY completed_at DESC
	`, userKey)
	if err != nil {
		return nil, apperr.Persistence("list quest completions", err)
	}
	defer rows.Close()

	completions := []quest.Completion{}
	for rows.Next() {
		var c quest.Completion
		var kind string
		if err := rows.Scan(&c.ID, &c.UserKey, &kind, &c.PeriodKey, &c.Detail, &c.XP, &c.Tokens, &c.CompletedAt); err != nil {
			return nil, apperr.Persistence("scan quest completion", err)
		}
		c.Quest = quest.Kind(kind)
		completions = append(completions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("iterate quest completions", err)
	}

	return completions, nil
}

// WasReferred reports whether userKey has already been credited as someone's referral.
func (s *Postgres) WasReferred(ctx context.Context, userKey string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM quest_completions
			WHERE quest = $1 AND period_key = $2
		)
	`, string(quest.KindReferral), userKey).Scan(&exists)
	if err != nil {
		return false, apperr.Persistence("check referral", err)
	}
	return exists, nil
}

// ResolveReferralCode returns the user key owning code, or "" when unknown.
func (s *Postgres) ResolveReferralCode(ctx context.Context, code string) (string, error) {
	var userKey string
	err := s.db.QueryRow(ctx, `SELECT user_key FROM user_stats WHERE referral_code = $1`, code).Scan(&userKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", apperr.Persistence("resolve referral code", err)
	}
	return userKey, nil
}
