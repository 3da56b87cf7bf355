package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/quest"
	"questHubAPI/internal/store"
)

func TestGetProfile(t *testing.T) {
	m := store.NewMemory()
	clock := newClock()
	seedCheckin(t, m, "user_1", clock.now, 1)

	profile, err := NewUserService(m).GetProfile(context.Background(), "user_1")
	require.NoError(t, err)

	assert.Equal(t, int64(10), profile.Stats.TotalXP)
	assert.Equal(t, int64(1), profile.Progress.CurrentLevel)
	assert.Equal(t, int64(2), profile.Progress.NextLevel)
	assert.Equal(t, int64(10), profile.Progress.XPIntoLevel)
	assert.Equal(t, quest.ReferralCode("user_1", 0), profile.ReferralCode)
}

func TestGetProfileUnauthenticated(t *testing.T) {
	_, err := NewUserService(store.NewMemory()).GetProfile(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}
