package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"questHubAPI/internal/quest"
	"questHubAPI/middleware"
	"questHubAPI/services"
)

type QuestHandler struct {
	questService *services.QuestService
	log          *zap.Logger
}

func NewQuestHandler(questService *services.QuestService, log *zap.Logger) *QuestHandler {
	return &QuestHandler{
		questService: questService,
		log:          log,
	}
}

func (h *QuestHandler) GetQuests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	board, err := h.questService.GetBoard(ctx, clerkID)
	if err != nil {
		h.log.Error("get quest board failed", zap.String("user_key", clerkID), zap.Error(err))
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, board)
}

func (h *QuestHandler) CompleteQuest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	kind := quest.Kind(mux.Vars(r)["quest"])

	var sub quest.Submission
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.questService.Complete(ctx, clerkID, kind, sub)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
