package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/checkin"
	"questHubAPI/internal/stats"
)

const checkinColumns = `id, user_key, checkin_date, streak_day, base_xp, bonus_xp, tokens_earned, bonus_reward, checked_in_at`

func scanCheckin(row pgx.Row) (*checkin.Record, error) {
	rec := &checkin.Record{}
	err := row.Scan(
		&rec.ID,
		&rec.UserKey,
		&rec.Date,
		&rec.StreakDay,
		&rec.BaseXP,
		&rec.BonusXP,
		&rec.TokensEarned,
		&rec.BonusReward,
		&rec.CheckedInAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Date = checkin.UTCDate(rec.Date)
	return rec, nil
}

// FindCheckin returns the user's record for date, or nil when there is none.
func (s *Postgres) FindCheckin(ctx context.Context, userKey string, date time.Time) (*checkin.Record, error) {
	rec, err := scanCheckin(s.db.QueryRow(ctx, `
		SELECT `+checkinColumns+`
		FROM checkins
		WHERE user_key = $1 AND checkin_date = $2
	`, userKey, checkin.UTCDate(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Persistence("find checkin", err)
	}
	return rec, nil
}

// LatestCheckinBefore returns the most recent record dated strictly before date, or nil.
func (s *Postgres) LatestCheckinBefore(ctx context.Context, userKey string, date time.Time) (*checkin.Record, error) {
	rec, err := scanCheckin(s.db.QueryRow(ctx, `
		SELECT `+checkinColumns+`
		FROM checkins
		WHERE user_key = $1 AND checkin_date < $2
		ORDER BY checkin_date DESC
		LIMIT 1
	`, userKey, checkin.UTCDate(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperr.Persistence("find previous checkin", err)
	}
	return rec, nil
}

// ApplyCheckin inserts rec and folds its reward and streak day into the user's
// stats in one transaction. A second record for the same day, including one
// that loses a race on the unique index, yields apperr.ErrAlreadyCheckedIn.
func (s *Postgres) ApplyCheckin(ctx context.Context, rec checkin.Record) (*stats.UserStats, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, apperr.Persistence("begin checkin", err)
	}
	defer tx.Rollback(ctx)

	if err := ensureStats(ctx, tx, rec.UserKey); err != nil {
		return nil, apperr.Persistence("create user stats", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO checkins (`+checkinColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		rec.ID,
		rec.UserKey,
		checkin.UTCDate(rec.Date),
		rec.StreakDay,
		rec.BaseXP,
		rec.BonusXP,
		rec.TokensEarned,
		rec.BonusReward,
		rec.CheckedInAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("checkin %s: %w", rec.Date.Format(time.DateOnly), apperr.ErrAlreadyCheckedIn)
		}
		return nil, apperr.Persistence("insert checkin", err)
	}

	updated, err := updateStats(ctx, tx, rec.UserKey, func(st stats.UserStats) stats.UserStats {
		return st.WithStreak(rec.StreakDay).ApplyReward(rec.XPEarned(), rec.TokensEarned, rec.CheckedInAt)
	})
	if err != nil {
		return nil, apperr.Persistence("update user stats", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("checkin %s: %w", rec.Date.Format(time.DateOnly), apperr.ErrAlreadyCheckedIn)
		}
		return nil, apperr.Persistence("commit checkin", err)
	}

	return updated, nil
}

// ExpireBrokenStreaks zeroes current_streak for users with no check-in on
// today or yesterday. Longest streaks are left alone.
func (s *Postgres) ExpireBrokenStreaks(ctx context.Context, today time.Time) (int64, error) {
	yesterday := checkin.UTCDate(today).AddDate(0, 0, -1)

	tag, err := s.db.Exec(ctx, `
		UPDATE user_stats s
		SET current_streak = 0, updated_at = NOW()
		WHERE s.current_streak > 0
		  AND NOT EXISTS (
			SELECT 1 FROM checkins c
			WHERE c.user_key = s.user_key AND c.checkin_date >= $1
		  )
	`, yesterday)
	if err != nil {
		return 0, apperr.Persistence("expire broken streaks", err)
	}
	return tag.RowsAffected(), nil
}
