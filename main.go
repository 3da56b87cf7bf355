package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"questHubAPI/handlers"
	"questHubAPI/internal/cache"
	"questHubAPI/internal/config"
	"questHubAPI/internal/logger"
	"questHubAPI/internal/store"
	"questHubAPI/internal/workers"
	"questHubAPI/middleware"
	"questHubAPI/services"
)

// backend is everything the API needs from persistence.
type backend interface {
	services.CheckinStore
	services.QuestStore
	services.LeaderboardStore
	workers.StreakExpirer
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
}

func main() {
	cfg, dotenv, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logr.Sync()
	if !dotenv {
		logr.Info("no .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var verifier middleware.TokenVerifier
	if cfg.ClerkSecretKey != "" {
		clerk.SetKey(cfg.ClerkSecretKey)
		verifier = middleware.ClerkVerifier{}
		logr.Info("clerk initialized")
	} else {
		verifier = middleware.DevVerifier{Secret: []byte(cfg.AuthDevSecret)}
		logr.Warn("using development token verifier")
	}

	var db backend
	if cfg.DatabaseURL == "memory" {
		db = store.NewMemory()
		logr.Warn("using in-memory store; data is lost on restart")
	} else {
		pool, err := store.NewPool(ctx, cfg)
		if err != nil {
			logr.Fatal("database unavailable", zap.Error(err))
		}
		defer func() {
			logr.Info("closing database connection pool")
			pool.Close()
		}()
		db = store.New(pool)
		logr.Info("connected to postgres")
	}

	if cfg.DBMigrateOnStart {
		if err := db.Migrate(ctx); err != nil {
			logr.Fatal("schema migration failed", zap.Error(err))
		}
	}

	var leaderboardCache services.LeaderboardCache
	redisCache, err := cache.NewRedis(ctx, cfg)
	switch {
	case err != nil:
		logr.Warn("redis unavailable, leaderboard served uncached", zap.Error(err))
	case redisCache != nil:
		defer redisCache.Close()
		leaderboardCache = redisCache
		logr.Info("leaderboard cache enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	middleware.InitPrometheus()
	services.InitMetrics()

	clock := func() time.Time { return time.Now().UTC() }

	checkinService := services.NewCheckinService(db, clock, logr)
	questService := services.NewQuestService(db, clock, logr)
	userService := services.NewUserService(db)
	leaderboardService := services.NewLeaderboardService(db, leaderboardCache, cfg.LeaderboardTTL, logr)

	checkinHandler := handlers.NewCheckinHandler(checkinService, logr)
	questHandler := handlers.NewQuestHandler(questService, logr)
	userHandler := handlers.NewUserHandler(userService, logr)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, logr)

	scheduler := workers.NewScheduler(db, clock, logr)
	if err := scheduler.Start(ctx, cfg.StreakExpirySchedule); err != nil {
		logr.Fatal("scheduler failed to start", zap.Error(err))
	}
	defer scheduler.Stop()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	go limiter.CleanupVisitors(ctx)

	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(limiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "questhub-api"}`))
	}).Methods("GET")

	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware(verifier, logr))

	protected.HandleFunc("/checkin/status", checkinHandler.GetStatus).Methods("GET")
	protected.HandleFunc("/checkin", checkinHandler.Checkin).Methods("POST")

	protected.HandleFunc("/user/stats", userHandler.GetUserStats).Methods("GET")

	protected.HandleFunc("/quests", questHandler.GetQuests).Methods("GET")
	protected.HandleFunc("/quests/{quest}", questHandler.CompleteQuest).Methods("POST")

	protected.HandleFunc("/leaderboard", leaderboardHandler.GetLeaderboard).Methods("GET")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins(cfg.CORSOrigins),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	server := http.Server{
		Addr:         cfg.Addr(),
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logr.Info("starting server", zap.String("addr", cfg.Addr()), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("server shutdown error", zap.Error(err))
	}

	logr.Info("server shutdown complete")
}
