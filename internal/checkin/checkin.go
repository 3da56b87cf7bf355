// Package checkin decides whether a daily check-in is allowed and what it pays.
//
// Everything here is pure: callers pass the current instant, the user's check-in
// for today (if any), their most recent earlier check-in and their stats. The
// package never reads a clock, touches storage or logs.
package checkin

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/stats"
)

const (
	BaseXP     int64 = 10
	BaseTokens int64 = 5
)

// Record is the immutable log entry written by a successful check-in.
// TokensEarned already includes any milestone tokens.
type Record struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserKey      string    `json:"userKey" db:"user_key"`
	Date         time.Time `json:"date" db:"checkin_date"`
	StreakDay    int       `json:"streakDay" db:"streak_day"`
	BaseXP       int64     `json:"baseXp" db:"base_xp"`
	BonusXP      int64     `json:"bonusXp" db:"bonus_xp"`
	TokensEarned int64     `json:"tokensEarned" db:"tokens_earned"`
	BonusReward  *string   `json:"bonusReward" db:"bonus_reward"`
	CheckedInAt  time.Time `json:"checkedInAt" db:"checked_in_at"`
}

func (r Record) XPEarned() int64 {
	return r.BaseXP + r.BonusXP
}

type Result struct {
	Record  Record          `json:"record"`
	Stats   stats.UserStats `json:"stats"`
	Reward  Reward          `json:"reward"`
	Message string          `json:"message"`
}

// UTCDate truncates t to midnight of its UTC calendar day.
func UTCDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AttemptCheckin computes the outcome of a check-in by userKey at now.
//
// today is the user's record for UTCDate(now), nil when there is none. previous is
// the most recent record dated before today, nil for a first check-in. When the
// user already checked in today the existing record is returned together with
// apperr.ErrAlreadyCheckedIn and current is left untouched.
func AttemptCheckin(userKey string, now time.Time, today, previous *Record, current stats.UserStats) (*Result, error) {
	if userKey == "" {
		return nil, apperr.ErrUnauthenticated
	}

	day := UTCDate(now)

	if today != nil {
		return &Result{Record: *today, Stats: current, Message: "You have already checked in today"}, apperr.ErrAlreadyCheckedIn
	}
	if previous != nil && !UTCDate(previous.Date).Before(day) {
		return &Result{Record: *previous, Stats: current, Message: "You have already checked in today"}, apperr.ErrAlreadyCheckedIn
	}

	streakDay := nextStreakDay(day, previous, current)
	reward := RewardFor(streakDay)

	record := Record{
		ID:           uuid.New(),
		UserKey:      userKey,
		Date:         day,
		StreakDay:    streakDay,
		BaseXP:       reward.BaseXP,
		BonusXP:      reward.BonusXP,
		TokensEarned: reward.Tokens(),
		BonusReward:  reward.BonusReward,
		CheckedInAt:  now,
	}

	updated := current.WithStreak(streakDay).ApplyReward(reward.XP(), reward.Tokens(), now)
	updated.UserKey = userKey

	return &Result{
		Record:  record,
		Stats:   updated,
		Reward:  reward,
		Message: successMessage(streakDay, reward),
	}, nil
}

// nextStreakDay continues the streak only when the previous check-in was yesterday.
func nextStreakDay(day time.Time, previous *Record, current stats.UserStats) int {
	if previous == nil {
		return 1
	}
	if !UTCDate(previous.Date).Equal(day.AddDate(0, 0, -1)) {
		return 1
	}

	streak := current.CurrentStreak
	if streak < 1 {
		// stats lagging behind the log; the record knows the day it landed on
		streak = previous.StreakDay
	}
	return streak + 1
}

func successMessage(streakDay int, reward Reward) string {
	msg := fmt.Sprintf("Day %d check-in complete! +%d XP, +%d tokens", streakDay, reward.XP(), reward.Tokens())
	if reward.BonusReward != nil {
		msg += fmt.Sprintf(" (%s bonus unlocked)", *reward.BonusReward)
	}
	return msg
}
