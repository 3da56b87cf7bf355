package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"questHubAPI/internal/apperr"
	"questHubAPI/internal/checkin"
	"questHubAPI/internal/leaderboard"
	"questHubAPI/internal/quest"
	"questHubAPI/internal/stats"
	"questHubAPI/internal/store"
	"questHubAPI/middleware"
	"questHubAPI/services"
)

type backend interface {
	services.CheckinStore
	services.QuestStore
	services.LeaderboardStore
}

type testEnv struct {
	store  backend
	now    time.Time
	router *mux.Router
}

// brokenStore fails every stats read with a wrapped driver error.
type brokenStore struct {
	*store.Memory
}

func (brokenStore) GetOrCreateStats(ctx context.Context, userKey string) (*stats.UserStats, error) {
	return nil, apperr.Persistence("get user stats", errors.New("connection reset"))
}

// newTestEnv wires the API routes over an in-memory store. The X-Test-User
// header stands in for a verified token.
func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, store.NewMemory())
}

func newTestEnvWith(t *testing.T, b backend) *testEnv {
	t.Helper()
	env := &testEnv{
		store: b,
		now:   time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }
	log := zap.NewNop()

	checkinHandler := NewCheckinHandler(services.NewCheckinService(env.store, clock, log), log)
	questHandler := NewQuestHandler(services.NewQuestService(env.store, clock, log), log)
	userHandler := NewUserHandler(services.NewUserService(env.store), log)
	leaderboardHandler := NewLeaderboardHandler(services.NewLeaderboardService(env.store, nil, time.Minute, log), log)

	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get("X-Test-User"); id != "" {
				r = r.WithContext(middleware.WithClerkID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	})
	api.HandleFunc("/checkin/status", checkinHandler.GetStatus).Methods("GET")
	api.HandleFunc("/checkin", checkinHandler.Checkin).Methods("POST")
	api.HandleFunc("/user/stats", userHandler.GetUserStats).Methods("GET")
	api.HandleFunc("/quests", questHandler.GetQuests).Methods("GET")
	api.HandleFunc("/quests/{quest}", questHandler.CompleteQuest).Methods("POST")
	api.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")

	env.router = r
	return env
}

func (e *testEnv) do(method, path, user, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestCheckinEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/checkin", "user_1", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[checkin.CheckinResponse](t, rr)
	assert.Equal(t, 1, resp.StreakDay)
	assert.Equal(t, int64(10), resp.XPEarned)
	assert.Equal(t, int64(5), resp.TokensEarned)
	assert.Nil(t, resp.BonusReward)
	assert.Equal(t, int64(10), resp.UpdatedStats.TotalXP)
	assert.Equal(t, 1, resp.UpdatedStats.TotalCheckins)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	assert.Contains(t, raw, "bonusReward")
	assert.Contains(t, raw["updatedStats"], "totalXP")
}

func TestCheckinEndpointAlreadyCheckedIn(t *testing.T) {
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/checkin", "user_1", "").Code)

	rr := env.do(http.MethodPost, "/api/v1/checkin", "user_1", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	resp := decode[checkin.AlreadyCheckedInResponse](t, rr)
	assert.Equal(t, "Already checked in today", resp.Error)
	require.NotNil(t, resp.TodayCheckin)
	assert.Equal(t, 1, resp.TodayCheckin.StreakDay)
}

func TestCheckinEndpointUnauthenticated(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/checkin/status", "/api/v1/user/stats", "/api/v1/quests", "/api/v1/leaderboard"} {
		rr := env.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodPost, "/api/v1/checkin", "", "").Code)
}

func TestCheckinEndpointPersistenceFailure(t *testing.T) {
	env := newTestEnvWith(t, brokenStore{store.NewMemory()})

	rr := env.do(http.MethodPost, "/api/v1/checkin", "user_1", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
}

func TestCheckinStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/v1/checkin/status", "user_1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	view := decode[checkin.StatusView](t, rr)
	assert.True(t, view.CanCheckinToday)
	assert.Equal(t, int64(16*time.Hour/time.Millisecond), view.NextCheckinIn)

	env.do(http.MethodPost, "/api/v1/checkin", "user_1", "")

	rr = env.do(http.MethodGet, "/api/v1/checkin/status", "user_1", "")
	view = decode[checkin.StatusView](t, rr)
	assert.False(t, view.CanCheckinToday)
	assert.True(t, view.HasCheckedInToday)
	assert.Equal(t, 1, view.CurrentStreak)
}

func TestUserStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodPost, "/api/v1/checkin", "user_1", "")

	rr := env.do(http.MethodGet, "/api/v1/user/stats", "user_1", "")
	require.Equal(t, http.StatusOK, rr.Code)

	profile := decode[stats.Profile](t, rr)
	assert.Equal(t, int64(10), profile.Stats.TotalXP)
	assert.Equal(t, int64(1), profile.Progress.CurrentLevel)
	assert.Equal(t, quest.ReferralCode("user_1", 0), profile.ReferralCode)
}

func TestQuestEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/v1/quests/discord_verify", "user_1", `{"handle":"quester#0001"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	res := decode[services.QuestResult](t, rr)
	assert.Equal(t, int64(50), res.XPEarned)

	rr = env.do(http.MethodPost, "/api/v1/quests/discord_verify", "user_1", `{"handle":"quester#0001"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Quest already completed"}`, rr.Body.String())

	rr = env.do(http.MethodPost, "/api/v1/quests/wallet_link", "user_1", `{"walletAddress":"0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "checksum mismatch")

	rr = env.do(http.MethodPost, "/api/v1/quests/unknown", "user_1", `{}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(http.MethodPost, "/api/v1/quests/tweet_share", "user_1", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(http.MethodGet, "/api/v1/quests", "user_1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	board := decode[[]quest.Status](t, rr)
	require.Len(t, board, len(quest.Catalogue()))
	for _, st := range board {
		assert.Equal(t, st.Kind == quest.KindDiscordVerify, st.Completed, st.Kind)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(http.MethodPost, "/api/v1/checkin", "user_1", "")
	env.do(http.MethodPost, "/api/v1/quests/google_verify", "user_2", `{"handle":"someone"}`)

	rr := env.do(http.MethodGet, "/api/v1/leaderboard?limit=10", "user_1", "")
	require.Equal(t, http.StatusOK, rr.Code)

	lb := decode[leaderboard.Leaderboard](t, rr)
	require.Len(t, lb.Entries, 2)
	assert.Equal(t, "user_2", lb.Entries[0].UserKey)
	require.NotNil(t, lb.UserPosition)
	assert.Equal(t, 2, lb.UserPosition.Rank)
	assert.Equal(t, 2, lb.TotalUsers)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/v1/leaderboard?limit=abc", "user_1", "").Code)
}
