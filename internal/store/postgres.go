// Package store is the Postgres binding of the check-in, quest and stats stores.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/config"
	"questHubAPI/internal/quest"
	"questHubAPI/internal/stats"
)

//go:embed schema.sql
var schema string

const (
	uniqueViolation     = "23505"
	maxReferralAttempts = 8
)

// referralCode is swapped in tests to force collisions.
var referralCode = quest.ReferralCode

type Postgres struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// NewPool opens and pings a connection pool sized from cfg.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Migrate applies the schema. Every statement is idempotent.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return apperr.Persistence("migrate schema", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

const statsColumns = `user_key, referral_code, total_xp, tokens, current_streak, longest_streak, total_checkins, level, created_at, updated_at`

func scanStats(row pgx.Row) (*stats.UserStats, error) {
	st := &stats.UserStats{}
	err := row.Scan(
		&st.UserKey,
		&st.ReferralCode,
		&st.TotalXP,
		&st.Tokens,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.TotalCheckins,
		&st.Level,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ensureStats creates the user's stats row if missing. A referral code already
// owned by another user is skipped in favour of the next salted attempt.
func ensureStats(ctx context.Context, q querier, userKey string) error {
	for attempt := 0; attempt < maxReferralAttempts; attempt++ {
		tag, err := q.Exec(ctx, `
			INSERT INTO user_stats (user_key, referral_code)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, userKey, referralCode(userKey, attempt))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 1 {
			return nil
		}

		var exists bool
		err = q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM user_stats WHERE user_key = $1)`, userKey).Scan(&exists)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
	}
	return fmt.Errorf("no free referral code for %s after %d attempts", userKey, maxReferralAttempts)
}

// GetOrCreateStats returns the user's stats, creating a zeroed row on first access.
func (s *Postgres) GetOrCreateStats(ctx context.Context, userKey string) (*stats.UserStats, error) {
	if err := ensureStats(ctx, s.db, userKey); err != nil {
		return nil, apperr.Persistence("create user stats", err)
	}

	st, err := scanStats(s.db.QueryRow(ctx, `SELECT `+statsColumns+` FROM user_stats WHERE user_key = $1`, userKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user stats %s: %w", userKey, apperr.ErrNotFound)
		}
		return nil, apperr.Persistence("get user stats", err)
	}
	return st, nil
}

// updateStats locks the user's stats row, lets apply compute the new values and
// writes them back, all inside tx.
func updateStats(ctx context.Context, tx pgx.Tx, userKey string, apply func(stats.UserStats) stats.UserStats) (*stats.UserStats, error) {
	if err := ensureStats(ctx, tx, userKey); err != nil {
		return nil, err
	}

	current, err := scanStats(tx.QueryRow(ctx, `SELECT `+statsColumns+` FROM user_stats WHERE user_key = $1 FOR UPDATE`, userKey))
	if err != nil {
		return nil, err
	}

	next := apply(*current)

	updated, err := scanStats(tx.QueryRow(ctx, `
		UPDATE user_stats
		SET total_xp = $2,
		    tokens = $3,
		    current_streak = $4,
		    longest_streak = $5,
		    total_checkins = $6,
		    level = $7,
		    updated_at = $8
		WHERE user_key = $1
		RETURNING `+statsColumns,
		userKey,
		next.TotalXP,
		next.Tokens,
		next.CurrentStreak,
		next.LongestStreak,
		next.TotalCheckins,
		next.Level,
		next.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
