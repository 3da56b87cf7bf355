package checkin

// Milestone is a one-time bonus paid on the day a streak first reaches Day.
type Milestone struct {
	Day    int    `json:"day"`
	XP     int64  `json:"xp"`
	Tokens int64  `json:"tokens"`
	Label  string `json:"label"`
}

var milestones = []Milestone{
	{Day: 3, XP: 15, Tokens: 8, Label: "3-Day Streak"},
	{Day: 7, XP: 25, Tokens: 15, Label: "Weekly Warrior"},
	{Day: 14, XP: 40, Tokens: 25, Label: "Bi-Weekly Beast"},
	{Day: 30, XP: 100, Tokens: 50, Label: "Monthly Master"},
}

// Milestones returns the bonus table ordered by day.
func Milestones() []Milestone {
	out := make([]Milestone, len(milestones))
	copy(out, milestones)
	return out
}

// MilestoneFor reports the milestone paid exactly on streakDay.
func MilestoneFor(streakDay int) (Milestone, bool) {
	for _, m := range milestones {
		if m.Day == streakDay {
			return m, true
		}
	}
	return Milestone{}, false
}

// NextMilestone is the first milestone strictly after streakDay.
func NextMilestone(streakDay int) (Milestone, bool) {
	for _, m := range milestones {
		if m.Day > streakDay {
			return m, true
		}
	}
	return Milestone{}, false
}

type Reward struct {
	BaseXP      int64   `json:"baseXp"`
	BonusXP     int64   `json:"bonusXp"`
	BaseTokens  int64   `json:"baseTokens"`
	BonusTokens int64   `json:"bonusTokens"`
	BonusReward *string `json:"bonusReward"`
}

func (r Reward) XP() int64 {
	return r.BaseXP + r.BonusXP
}

func (r Reward) Tokens() int64 {
	return r.BaseTokens + r.BonusTokens
}

// RewardFor is the flat daily reward plus the milestone bonus for streakDay, if any.
func RewardFor(streakDay int) Reward {
	r := Reward{BaseXP: BaseXP, BaseTokens: BaseTokens}
	if m, ok := MilestoneFor(streakDay); ok {
		label := m.Label
		r.BonusXP = m.XP
		r.BonusTokens = m.Tokens
		r.BonusReward = &label
	}
	return r
}
