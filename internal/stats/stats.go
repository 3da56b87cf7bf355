package stats

import (
	"time"

	"questHubAPI/internal/leveling"
)

// UserStats is the per-user aggregate every quest completion feeds into.
// Level is cached for display and always equals leveling.Level(TotalXP).
type UserStats struct {
	UserKey       string    `json:"userKey" db:"user_key"`
	ReferralCode  string    `json:"referralCode" db:"referral_code"`
	TotalXP       int64     `json:"totalXP" db:"total_xp"`
	Tokens        int64     `json:"tokens" db:"tokens"`
	CurrentStreak int       `json:"currentStreak" db:"current_streak"`
	LongestStreak int       `json:"longestStreak" db:"longest_streak"`
	TotalCheckins int       `json:"totalCheckins" db:"total_checkins"`
	Level         int64     `json:"level" db:"level"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// New returns zeroed stats for a user seen for the first time.
func New(userKey string, now time.Time) *UserStats {
	return &UserStats{
		UserKey:   userKey,
		Level:     leveling.Level(0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyReward returns a copy of s with xp and tokens added and the level recomputed.
// Negative amounts are ignored; XP and tokens only grow here.
func (s UserStats) ApplyReward(xp, tokens int64, now time.Time) UserStats {
	if xp > 0 {
		s.TotalXP += xp
	}
	if tokens > 0 {
		s.Tokens += tokens
	}
	s.Level = leveling.Level(s.TotalXP)
	s.UpdatedAt = now
	return s
}

// WithStreak returns a copy of s after a check-in landing on streakDay.
func (s UserStats) WithStreak(streakDay int) UserStats {
	s.CurrentStreak = streakDay
	if streakDay > s.LongestStreak {
		s.LongestStreak = streakDay
	}
	s.TotalCheckins++
	return s
}

// Profile is the stats view served on the user endpoint.
type Profile struct {
	Stats        UserStats         `json:"stats"`
	Progress     leveling.Progress `json:"progress"`
	ReferralCode string            `json:"referralCode"`
}
