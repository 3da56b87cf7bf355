package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"questHubAPI/middleware"
	"questHubAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
	log                *zap.Logger
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService, log *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		log:                log,
	}
}

func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondWithError(w, http.StatusBadRequest, "Query parameter 'limit' must be a positive integer")
			return
		}
		limit = n
	}

	lb, err := h.leaderboardService.GetLeaderboard(ctx, clerkID, limit)
	if err != nil {
		h.log.Error("get leaderboard failed", zap.String("user_key", clerkID), zap.Error(err))
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, lb)
}
