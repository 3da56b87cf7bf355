package checkin

import (
	"time"

	"questHubAPI/internal/stats"
)

type NextReward struct {
	Milestone
	DaysAway int `json:"daysAway"`
}

type StatusView struct {
	CanCheckinToday   bool        `json:"canCheckinToday"`
	HasCheckedInToday bool        `json:"hasCheckedInToday"`
	TodayCheckin      *Record     `json:"todayCheckin"`
	CurrentStreak     int         `json:"currentStreak"`
	LongestStreak     int         `json:"longestStreak"`
	TotalCheckins     int         `json:"totalCheckins"`
	TotalXP           int64       `json:"totalXP"`
	Level             int64       `json:"level"`
	Tokens            int64       `json:"tokens"`
	NextCheckinIn     int64       `json:"nextCheckinIn"`
	NextCheckinAt     time.Time   `json:"nextCheckinAt"`
	NextReward        *NextReward `json:"nextReward"`
}

// ComputeStatus reports check-in availability for the UTC day of now.
// NextCheckinAt is always the next UTC midnight; NextCheckinIn is the time left
// until then in milliseconds.
func ComputeStatus(now time.Time, today *Record, s stats.UserStats) StatusView {
	nextAt := UTCDate(now).AddDate(0, 0, 1)
	nextIn := nextAt.Sub(now).Milliseconds()
	if nextIn < 0 {
		nextIn = 0
	}

	view := StatusView{
		CanCheckinToday:   today == nil,
		HasCheckedInToday: today != nil,
		TodayCheckin:      today,
		CurrentStreak:     s.CurrentStreak,
		LongestStreak:     s.LongestStreak,
		TotalCheckins:     s.TotalCheckins,
		TotalXP:           s.TotalXP,
		Level:             s.Level,
		Tokens:            s.Tokens,
		NextCheckinIn:     nextIn,
		NextCheckinAt:     nextAt,
	}

	if m, ok := NextMilestone(s.CurrentStreak); ok {
		view.NextReward = &NextReward{Milestone: m, DaysAway: m.Day - s.CurrentStreak}
	}

	return view
}
