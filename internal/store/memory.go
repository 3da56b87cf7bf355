package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/checkin"
	"questHubAPI/internal/leaderboard"
	"questHubAPI/internal/quest"
	"questHubAPI/internal/stats"
)

// Memory keeps everything in process. It honours the same uniqueness rules as
// the Postgres schema and is used for tests and DATABASE_URL=memory local runs.
type Memory struct {
	mu          sync.Mutex
	stats       map[string]*stats.UserStats
	checkins    map[string]map[string]checkin.Record
	completions []quest.Completion

	// Now stamps rows created outside a reward, like the database's NOW().
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		stats:    make(map[string]*stats.UserStats),
		checkins: make(map[string]map[string]checkin.Record),
		Now:      time.Now,
	}
}

func (m *Memory) Migrate(ctx context.Context) error { return nil }

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) ensure(userKey string) *stats.UserStats {
	st, ok := m.stats[userKey]
	if !ok {
		st = stats.New(userKey, m.Now().UTC())
		st.ReferralCode = m.freeReferralCode(userKey)
		m.stats[userKey] = st
	}
	return st
}

// freeReferralCode mirrors the Postgres retry: the first attempt no other user owns.
func (m *Memory) freeReferralCode(userKey string) string {
	for attempt := 0; ; attempt++ {
		code := referralCode(userKey, attempt)
		if m.ownerOf(code) == "" || attempt >= maxReferralAttempts {
			return code
		}
	}
}

func (m *Memory) ownerOf(code string) string {
	for key, st := range m.stats {
		if st.ReferralCode == code {
			return key
		}
	}
	return ""
}

func (m *Memory) GetOrCreateStats(ctx context.Context, userKey string) (*stats.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *m.ensure(userKey)
	return &cp, nil
}

func dateKey(t time.Time) string {
	return checkin.UTCDate(t).Format(time.DateOnly)
}

func (m *Memory) FindCheckin(ctx context.Context, userKey string, date time.Time) (*checkin.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.checkins[userKey][dateKey(date)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) LatestCheckinBefore(ctx context.Context, userKey string, date time.Time) (*checkin.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := checkin.UTCDate(date)
	var latest *checkin.Record
	for _, rec := range m.checkins[userKey] {
		if !rec.Date.Before(day) {
			continue
		}
		if latest == nil || rec.Date.After(latest.Date) {
			r := rec
			latest = &r
		}
	}
	return latest, nil
}

func (m *Memory) ApplyCheckin(ctx context.Context, rec checkin.Record) (*stats.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := dateKey(rec.Date)
	if _, dup := m.checkins[rec.UserKey][key]; dup {
		return nil, fmt.Errorf("checkin %s: %w", key, apperr.ErrAlreadyCheckedIn)
	}
	if m.checkins[rec.UserKey] == nil {
		m.checkins[rec.UserKey] = make(map[string]checkin.Record)
	}
	rec.Date = checkin.UTCDate(rec.Date)
	m.checkins[rec.UserKey][key] = rec

	st := m.ensure(rec.UserKey)
	*st = st.WithStreak(rec.StreakDay).ApplyReward(rec.XPEarned(), rec.TokensEarned, rec.CheckedInAt)

	cp := *st
	return &cp, nil
}

func (m *Memory) ExpireBrokenStreaks(ctx context.Context, today time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	yesterday := checkin.UTCDate(today).AddDate(0, 0, -1)
	var n int64
	for key, st := range m.stats {
		if st.CurrentStreak == 0 {
			continue
		}
		recent := false
		for _, rec := range m.checkins[key] {
			if !rec.Date.Before(yesterday) {
				recent = true
				break
			}
		}
		if !recent {
			st.CurrentStreak = 0
			st.UpdatedAt = m.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (m *Memory) ApplyQuestCompletion(ctx context.Context, c quest.Completion) (*stats.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.completions {
		if existing.Quest != c.Quest {
			continue
		}
		sameSlot := existing.UserKey == c.UserKey && existing.PeriodKey == c.PeriodKey
		sameReferral := c.Quest == quest.KindReferral && existing.PeriodKey == c.PeriodKey
		if sameSlot || sameReferral {
			return nil, fmt.Errorf("%s: %w", c.Quest, apperr.ErrAlreadyCompleted)
		}
	}
	m.completions = append(m.completions, c)

	st := m.ensure(c.UserKey)
	*st = st.ApplyReward(c.XP, c.Tokens, c.CompletedAt)

	cp := *st
	return &cp, nil
}

func (m *Memory) ListQuestCompletions(ctx context.Context, userKey string) ([]quest.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []quest.Completion{}
	for _, c := range m.completions {
		if c.UserKey == userKey {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

func (m *Memory) WasReferred(ctx context.Context, userKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.completions {
		if c.Quest == quest.KindReferral && c.PeriodKey == userKey {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ResolveReferralCode(ctx context.Context, code string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ownerOf(code), nil
}

func (m *Memory) sorted() []*stats.UserStats {
	all := make([]*stats.UserStats, 0, len(m.stats))
	for _, st := range m.stats {
		all = append(all, st)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.TotalXP != b.TotalXP {
			return a.TotalXP > b.TotalXP
		}
		if a.LongestStreak != b.LongestStreak {
			return a.LongestStreak > b.LongestStreak
		}
		return a.UserKey < b.UserKey
	})
	return all
}

func entryFor(st *stats.UserStats) *leaderboard.LeaderboardEntry {
	return &leaderboard.LeaderboardEntry{
		UserKey:       st.UserKey,
		TotalXP:       st.TotalXP,
		Level:         st.Level,
		CurrentStreak: st.CurrentStreak,
		LongestStreak: st.LongestStreak,
	}
}

func (m *Memory) TopByXP(ctx context.Context, limit int) ([]*leaderboard.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []*leaderboard.LeaderboardEntry
	for i, st := range m.sorted() {
		if i >= limit {
			break
		}
		entries = append(entries, entryFor(st))
	}
	return entries, nil
}

func (m *Memory) CountUsers(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stats), nil
}

func (m *Memory) RankOf(ctx context.Context, userKey string) (*leaderboard.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.stats[userKey]
	if !ok {
		return nil, nil
	}

	entry := entryFor(st)
	entry.Rank = 1
	for _, other := range m.stats {
		if other.TotalXP > st.TotalXP {
			entry.Rank++
		}
	}
	return entry, nil
}
