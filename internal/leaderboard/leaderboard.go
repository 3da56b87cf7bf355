package leaderboard

type LeaderboardEntry struct {
	UserKey       string `json:"user_key" db:"user_key"`
	TotalXP       int64  `json:"total_xp" db:"total_xp"`
	Level         int64  `json:"level" db:"level"`
	CurrentStreak int    `json:"current_streak" db:"current_streak"`
	LongestStreak int    `json:"longest_streak" db:"longest_streak"`
	Rank          int    `json:"rank" db:"rank"`
}

type Leaderboard struct {
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"user_position"`
	TotalUsers   int                 `json:"total_users"`
}

// Build ranks entries, which must already be sorted by TotalXP descending.
// Equal XP shares a rank and the following rank skips ahead (1, 2, 2, 4).
func Build(entries []*LeaderboardEntry, userKey string, totalUsers int) *Leaderboard {
	lb := &Leaderboard{Entries: entries, TotalUsers: totalUsers}
	if lb.Entries == nil {
		lb.Entries = []*LeaderboardEntry{}
	}

	for i, e := range lb.Entries {
		if i > 0 && e.TotalXP == lb.Entries[i-1].TotalXP {
			e.Rank = lb.Entries[i-1].Rank
		} else {
			e.Rank = i + 1
		}
		if e.UserKey == userKey {
			lb.UserPosition = e
		}
	}

	return lb
}
