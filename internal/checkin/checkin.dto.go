package checkin

type UpdatedStats struct {
	TotalXP       int64 `json:"totalXP"`
	Level         int64 `json:"level"`
	Tokens        int64 `json:"tokens"`
	CurrentStreak int   `json:"currentStreak"`
	LongestStreak int   `json:"longestStreak"`
	TotalCheckins int   `json:"totalCheckins"`
}

type CheckinResponse struct {
	StreakDay    int          `json:"streakDay"`
	XPEarned     int64        `json:"xpEarned"`
	TokensEarned int64        `json:"tokensEarned"`
	BonusReward  *string      `json:"bonusReward"`
	Message      string       `json:"message"`
	UpdatedStats UpdatedStats `json:"updatedStats"`
}

type AlreadyCheckedInResponse struct {
	Error        string  `json:"error"`
	TodayCheckin *Record `json:"todayCheckin,omitempty"`
}

func NewCheckinResponse(res *Result) CheckinResponse {
	return CheckinResponse{
		StreakDay:    res.Record.StreakDay,
		XPEarned:     res.Record.XPEarned(),
		TokensEarned: res.Record.TokensEarned,
		BonusReward:  res.Record.BonusReward,
		Message:      res.Message,
		UpdatedStats: UpdatedStats{
			TotalXP:       res.Stats.TotalXP,
			Level:         res.Stats.Level,
			Tokens:        res.Stats.Tokens,
			CurrentStreak: res.Stats.CurrentStreak,
			LongestStreak: res.Stats.LongestStreak,
			TotalCheckins: res.Stats.TotalCheckins,
		},
	}
}
