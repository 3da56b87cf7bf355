package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/quest"
	"questHubAPI/internal/stats"
)

type QuestService struct {
	store QuestStore
	clock Clock
	log   *zap.Logger
}

func NewQuestService(store QuestStore, clock Clock, log *zap.Logger) *QuestService {
	return &QuestService{
		store: store,
		clock: clock,
		log:   log.Named("quest"),
	}
}

type QuestResult struct {
	Quest        quest.Kind      `json:"quest"`
	XPEarned     int64           `json:"xpEarned"`
	TokensEarned int64           `json:"tokensEarned"`
	CreditedTo   string          `json:"creditedTo"`
	Message      string          `json:"message"`
	UpdatedStats stats.UserStats `json:"updatedStats"`
}

func (s *QuestService) GetBoard(ctx context.Context, userKey string) ([]quest.Status, error) {
	if userKey == "" {
		return nil, apperr.ErrUnauthenticated
	}

	completions, err := s.store.ListQuestCompletions(ctx, userKey)
	if err != nil {
		return nil, err
	}

	return quest.Board(completions, s.clock()), nil
}

// Complete validates and rewards one quest submission by userKey. Referral
// rewards go to the referrer; the caller's own stats are returned unchanged.
func (s *QuestService) Complete(ctx context.Context, userKey string, kind quest.Kind, sub quest.Submission) (*QuestResult, error) {
	if userKey == "" {
		return nil, apperr.ErrUnauthenticated
	}
	if _, err := quest.Lookup(kind); err != nil {
		return nil, err
	}

	own, err := s.store.GetOrCreateStats(ctx, userKey)
	if err != nil {
		return nil, s.fail(userKey, kind, err)
	}

	referrerKey := ""
	if kind == quest.KindReferral {
		referrerKey, err = s.resolveReferrer(ctx, userKey, sub.ReferralCode)
		if err != nil {
			return nil, s.fail(userKey, kind, err)
		}
	}

	completion, err := quest.Evaluate(kind, userKey, referrerKey, sub, s.clock())
	if err != nil {
		return nil, s.fail(userKey, kind, err)
	}

	credited, err := s.store.ApplyQuestCompletion(ctx, *completion)
	if err != nil {
		return nil, s.fail(userKey, kind, err)
	}

	result := &QuestResult{
		Quest:        kind,
		XPEarned:     completion.XP,
		TokensEarned: completion.Tokens,
		CreditedTo:   completion.UserKey,
		UpdatedStats: *credited,
		Message:      fmt.Sprintf("Quest complete! +%d XP, +%d tokens", completion.XP, completion.Tokens),
	}
	if kind == quest.KindReferral {
		result.UpdatedStats = *own
		result.Message = "Referral recorded! Your friend has been rewarded"
	}

	questCompletionsTotal.WithLabelValues(string(kind), "success").Inc()
	s.log.Info("quest completed",
		zap.String("user_key", userKey),
		zap.String("quest", string(kind)),
		zap.String("credited_to", completion.UserKey),
		zap.Int64("xp", completion.XP),
		zap.Int64("tokens", completion.Tokens),
	)

	return result, nil
}

func (s *QuestService) resolveReferrer(ctx context.Context, userKey, code string) (string, error) {
	if code == "" {
		return "", apperr.Invalid("referral code is required")
	}

	referred, err := s.store.WasReferred(ctx, userKey)
	if err != nil {
		return "", err
	}
	if referred {
		return "", fmt.Errorf("referral: %w", apperr.ErrAlreadyCompleted)
	}

	referrerKey, err := s.store.ResolveReferralCode(ctx, code)
	if err != nil {
		return "", err
	}
	if referrerKey == "" {
		return "", apperr.Invalid("referral code not recognised")
	}
	return referrerKey, nil
}

func (s *QuestService) fail(userKey string, kind quest.Kind, err error) error {
	outcome := "error"
	switch {
	case errors.Is(err, apperr.ErrAlreadyCompleted):
		outcome = "already_completed"
	case errors.Is(err, apperr.ErrInvalidInput):
		outcome = "invalid"
	}
	questCompletionsTotal.WithLabelValues(string(kind), outcome).Inc()

	if outcome == "error" {
		s.log.Error("quest completion failed", zap.String("user_key", userKey), zap.String("quest", string(kind)), zap.Error(err))
	} else {
		s.log.Debug("quest completion rejected", zap.String("user_key", userKey), zap.String("quest", string(kind)), zap.Error(err))
	}
	return err
}
