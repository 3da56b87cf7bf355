package services

import (
	"context"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/leveling"
	"questHubAPI/internal/stats"
)

type UserService struct {
	store StatsStore
}

func NewUserService(store StatsStore) *UserService {
	return &UserService{store: store}
}

// GetProfile returns the user's stats with level progress, creating the stats
// row on first access.
func (s *UserService) GetProfile(ctx context.Context, userKey string) (*stats.Profile, error) {
	if userKey == "" {
		return nil, apperr.ErrUnauthenticated
	}

	st, err := s.store.GetOrCreateStats(ctx, userKey)
	if err != nil {
		return nil, err
	}

	return &stats.Profile{
		Stats:        *st,
		Progress:     leveling.ProgressFor(st.TotalXP),
		ReferralCode: st.ReferralCode,
	}, nil
}
