package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/checkin"
	"questHubAPI/middleware"
	"questHubAPI/services"
)

type CheckinHandler struct {
	checkinService *services.CheckinService
	log            *zap.Logger
}

func NewCheckinHandler(checkinService *services.CheckinService, log *zap.Logger) *CheckinHandler {
	return &CheckinHandler{
		checkinService: checkinService,
		log:            log,
	}
}

func (h *CheckinHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	status, err := h.checkinService.GetStatus(ctx, clerkID)
	if err != nil {
		h.log.Error("get checkin status failed", zap.String("user_key", clerkID), zap.Error(err))
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, status)
}

func (h *CheckinHandler) Checkin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	res, err := h.checkinService.Checkin(ctx, clerkID)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyCheckedIn) {
			body := checkin.AlreadyCheckedInResponse{Error: "Already checked in today"}
			if res != nil {
				body.TodayCheckin = &res.Record
			}
			respondWithJSON(w, http.StatusBadRequest, body)
			return
		}
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, checkin.NewCheckinResponse(res))
}
