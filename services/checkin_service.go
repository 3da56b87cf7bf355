package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/checkin"
)

type CheckinService struct {
	store CheckinStore
	clock Clock
	log   *zap.Logger
}

func NewCheckinService(store CheckinStore, clock Clock, log *zap.Logger) *CheckinService {
	return &CheckinService{
		store: store,
		clock: clock,
		log:   log.Named("checkin"),
	}
}

func (s *CheckinService) GetStatus(ctx context.Context, userKey string) (*checkin.StatusView, error) {
	if userKey == "" {
		return nil, apperr.ErrUnauthenticated
	}
	now := s.clock()

	st, err := s.store.GetOrCreateStats(ctx, userKey)
	if err != nil {
		return nil, err
	}

	today, err := s.store.FindCheckin(ctx, userKey, now)
	if err != nil {
		return nil, err
	}

	view := checkin.ComputeStatus(now, today, *st)
	return &view, nil
}

// Checkin records today's check-in for userKey. On apperr.ErrAlreadyCheckedIn
// the returned result carries the existing record and unchanged stats.
func (s *CheckinService) Checkin(ctx context.Context, userKey string) (*checkin.Result, error) {
	if userKey == "" {
		return nil, apperr.ErrUnauthenticated
	}
	now := s.clock()

	st, err := s.store.GetOrCreateStats(ctx, userKey)
	if err != nil {
		return nil, s.fail(userKey, err)
	}

	today, err := s.store.FindCheckin(ctx, userKey, now)
	if err != nil {
		return nil, s.fail(userKey, err)
	}

	var previous *checkin.Record
	if today == nil {
		previous, err = s.store.LatestCheckinBefore(ctx, userKey, now)
		if err != nil {
			return nil, s.fail(userKey, err)
		}
	}

	res, err := checkin.AttemptCheckin(userKey, now, today, previous, *st)
	if err != nil {
		return res, s.fail(userKey, err)
	}

	updated, err := s.store.ApplyCheckin(ctx, res.Record)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyCheckedIn) {
			// lost the race against a concurrent check-in for the same day;
			// report the winner's record and the stats it produced
			return s.existingCheckin(ctx, userKey, now), s.fail(userKey, err)
		}
		return nil, s.fail(userKey, err)
	}
	res.Stats = *updated

	checkinsTotal.WithLabelValues("success").Inc()
	if res.Record.BonusReward != nil {
		milestonesTotal.WithLabelValues(*res.Record.BonusReward).Inc()
	}

	s.log.Info("checkin recorded",
		zap.String("user_key", userKey),
		zap.Int("streak_day", res.Record.StreakDay),
		zap.Int64("xp", res.Record.XPEarned()),
		zap.Int64("tokens", res.Record.TokensEarned),
		zap.Int64("level", res.Stats.Level),
	)

	return res, nil
}

// existingCheckin rereads today's record and the current stats, or returns nil
// if either read fails.
func (s *CheckinService) existingCheckin(ctx context.Context, userKey string, now time.Time) *checkin.Result {
	existing, err := s.store.FindCheckin(ctx, userKey, now)
	if err != nil || existing == nil {
		return nil
	}
	current, err := s.store.GetOrCreateStats(ctx, userKey)
	if err != nil {
		return nil
	}
	return &checkin.Result{Record: *existing, Stats: *current, Message: "You have already checked in today"}
}

func (s *CheckinService) fail(userKey string, err error) error {
	switch {
	case errors.Is(err, apperr.ErrAlreadyCheckedIn):
		checkinsTotal.WithLabelValues("already_checked_in").Inc()
		s.log.Debug("checkin rejected", zap.String("user_key", userKey), zap.Error(err))
	case errors.Is(err, apperr.ErrUnauthenticated):
		checkinsTotal.WithLabelValues("unauthenticated").Inc()
	default:
		checkinsTotal.WithLabelValues("error").Inc()
		s.log.Error("checkin failed", zap.String("user_key", userKey), zap.Error(err))
	}
	return err
}
