package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/quest"
	"questHubAPI/internal/store"
)

func newQuestService(m *store.Memory, clock *testClock) *QuestService {
	return NewQuestService(m, clock.Now, zap.NewNop())
}

func boardStatus(t *testing.T, board []quest.Status, kind quest.Kind) quest.Status {
	t.Helper()
	for _, st := range board {
		if st.Kind == kind {
			return st
		}
	}
	require.Failf(t, "missing quest", "%s not on board", kind)
	return quest.Status{}
}

func TestCompleteWalletLink(t *testing.T) {
	m := store.NewMemory()
	svc := newQuestService(m, newClock())
	ctx := context.Background()

	res, err := svc.Complete(ctx, "user_1", quest.KindWalletLink, quest.Submission{
		WalletAddress: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100), res.XPEarned)
	assert.Equal(t, int64(25), res.TokensEarned)
	assert.Equal(t, "user_1", res.CreditedTo)
	assert.Equal(t, int64(100), res.UpdatedStats.TotalXP)
	assert.Equal(t, int64(2), res.UpdatedStats.Level)

	_, err = svc.Complete(ctx, "user_1", quest.KindWalletLink, quest.Submission{
		WalletAddress: "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	})
	assert.ErrorIs(t, err, apperr.ErrAlreadyCompleted)
}

func TestCompleteRejectsBadInput(t *testing.T) {
	svc := newQuestService(store.NewMemory(), newClock())
	ctx := context.Background()

	_, err := svc.Complete(ctx, "user_1", quest.KindTweetShare, quest.Submission{TweetURL: "https://example.com/a/status/1"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Complete(ctx, "user_1", quest.Kind("moon_landing"), quest.Submission{})
	assert.ErrorIs(t, err, apperr.ErrUnknownQuest)

	_, err = svc.Complete(ctx, "", quest.KindGoogleVerify, quest.Submission{Handle: "someone"})
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestTweetShareRepeatsDaily(t *testing.T) {
	m := store.NewMemory()
	clock := newClock()
	svc := newQuestService(m, clock)
	ctx := context.Background()
	sub := quest.Submission{TweetURL: "https://twitter.com/quester/status/1790000000000000000"}

	_, err := svc.Complete(ctx, "user_1", quest.KindTweetShare, sub)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, "user_1", quest.KindTweetShare, sub)
	assert.ErrorIs(t, err, apperr.ErrAlreadyCompleted)

	board, err := svc.GetBoard(ctx, "user_1")
	require.NoError(t, err)
	assert.True(t, boardStatus(t, board, quest.KindTweetShare).Completed)

	clock.advanceDays(1)

	board, err = svc.GetBoard(ctx, "user_1")
	require.NoError(t, err)
	assert.False(t, boardStatus(t, board, quest.KindTweetShare).Completed)

	res, err := svc.Complete(ctx, "user_1", quest.KindTweetShare, sub)
	require.NoError(t, err)
	assert.Equal(t, int64(40), res.UpdatedStats.TotalXP)
}

func TestReferralCreditsReferrer(t *testing.T) {
	m := store.NewMemory()
	svc := newQuestService(m, newClock())
	ctx := context.Background()

	alice, err := m.GetOrCreateStats(ctx, "alice")
	require.NoError(t, err)
	code := alice.ReferralCode

	res, err := svc.Complete(ctx, "bob", quest.KindReferral, quest.Submission{ReferralCode: code})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.CreditedTo)
	assert.Equal(t, "bob", res.UpdatedStats.UserKey)
	assert.Zero(t, res.UpdatedStats.TotalXP)

	alice, err = m.GetOrCreateStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(75), alice.TotalXP)
	assert.Equal(t, int64(20), alice.Tokens)

	_, err = svc.Complete(ctx, "bob", quest.KindReferral, quest.Submission{ReferralCode: code})
	assert.ErrorIs(t, err, apperr.ErrAlreadyCompleted)

	board, err := svc.GetBoard(ctx, "alice")
	require.NoError(t, err)
	ref := boardStatus(t, board, quest.KindReferral)
	assert.False(t, ref.Completed)
	assert.Equal(t, 1, ref.TimesCompleted)
}

func TestReferralRejections(t *testing.T) {
	m := store.NewMemory()
	svc := newQuestService(m, newClock())
	ctx := context.Background()

	_, err := svc.Complete(ctx, "bob", quest.KindReferral, quest.Submission{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Complete(ctx, "bob", quest.KindReferral, quest.Submission{ReferralCode: "0000000000"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	bob, err := m.GetOrCreateStats(ctx, "bob")
	require.NoError(t, err)
	_, err = svc.Complete(ctx, "bob", quest.KindReferral, quest.Submission{ReferralCode: bob.ReferralCode})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
