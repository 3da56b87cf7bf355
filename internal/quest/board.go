package quest

import "time"

type Status struct {
	Definition
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	TimesCompleted int        `json:"timesCompleted"`
}

// Board reports, for every quest in the catalogue, whether the user can still
// complete it in the period containing now. Referral quests never close.
func Board(completions []Completion, now time.Time) []Status {
	board := make([]Status, 0, len(catalogue))

	for _, def := range catalogue {
		st := Status{Definition: def}
		current := PeriodKey(def, now)

		for i := range completions {
			c := completions[i]
			if c.Quest != def.Kind {
				continue
			}
			st.TimesCompleted++

			if def.Period == PeriodPerReferral || c.PeriodKey != current {
				continue
			}
			st.Completed = true
			if st.CompletedAt == nil || c.CompletedAt.After(*st.CompletedAt) {
				at := c.CompletedAt
				st.CompletedAt = &at
			}
		}

		board = append(board, st)
	}

	return board
}
