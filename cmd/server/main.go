package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mulakhat/interview/internal/api"
	"mulakhat/interview/internal/config"
	"mulakhat/interview/internal/events"
	"mulakhat/interview/internal/grading"
	"mulakhat/interview/internal/judge"
	"mulakhat/interview/internal/repositories"
	"mulakhat/interview/internal/repositories/memory"
	mongorepo "mulakhat/interview/internal/repositories/mongo"
	"mulakhat/interview/internal/routers"
	"mulakhat/interview/internal/session"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	var (
		interviews repositories.InterviewStore
		questions  repositories.QuestionStore
		messages   repositories.MessageStore
	)
	if cfg.MongoURI != "" {
		client, err := mongorepo.NewClient(context.Background(), cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Fatal("failed to connect to mongo", zap.Error(err))
		}
		defer client.Close(context.Background())
		interviews = mongorepo.NewInterviewRepo(client)
		questions = mongorepo.NewQuestionRepo(client)
		messages = mongorepo.NewMessageRepo(client)
		logger.Info("using mongo storage", zap.String("db", cfg.MongoDB))
	} else {
		interviews = memory.NewInterviewStore()
		questions = memory.NewQuestionStore()
		messages = memory.NewMessageStore()
		logger.Warn("MONGO_URI not set, using in-memory storage")
	}

	var pub *events.Publisher
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		pub = events.NewPublisher(rdb, logger)
		logger.Info("publishing lifecycle events", zap.String("redis", cfg.RedisAddr))
	}

	backend := judge.ResolveBackend(cfg.JudgeURL, cfg.JudgeAPIKey)
	judgeClient := judge.NewClient(backend, cfg.JudgeTimeout, logger)
	logger.Info("judge backend resolved", zap.String("backend", backend.String()))

	grader := grading.NewEngine(judgeClient, logger)
	hub := session.NewHub(interviews, messages, pub, logger)
	handlers := api.NewHandlers(hub, interviews, questions, messages, judgeClient, grader, logger)

	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		chimw.RealIP,
		chimw.Logger,
		chimw.Recoverer,
		chimw.Timeout(60*time.Second),
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Mount("/", routers.New(handlers, []byte(cfg.JWTSecret)))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("interview service starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("interview service shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("interview service exited")
}
