package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/quartierboard/board-api/internal/broadcast"
	"github.com/quartierboard/board-api/internal/config"
	"github.com/quartierboard/board-api/internal/database"
	"github.com/quartierboard/board-api/internal/handlers"
	"github.com/quartierboard/board-api/internal/logger"
	"github.com/quartierboard/board-api/internal/middleware"
	"github.com/quartierboard/board-api/internal/routes"
	"github.com/quartierboard/board-api/internal/services"
	"github.com/quartierboard/board-api/internal/store"
	"github.com/quartierboard/board-api/internal/sweeper"
	"github.com/quartierboard/board-api/internal/token"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Log.Sync()

	if cfg.IsProduction() && cfg.JWTSecret == "your-secret-key-change-in-production" {
		logger.Log.Fatal("JWT_SECRET must be set in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Datastores
	mongoClient, db, err := database.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		logger.Log.Fatalw("failed to connect to MongoDB", "error", err)
	}
	defer mongoClient.Disconnect(context.Background())

	if err := database.EnsureIndexes(ctx, db); err != nil {
		logger.Log.Fatalw("failed to ensure MongoDB indexes", "error", err)
	}

	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI)
	if err != nil {
		logger.Log.Fatalw("failed to connect to Redis", "error", err)
	}
	defer rdb.Close()

	// Components
	infos := store.NewInfoStore(db)
	users := store.NewUserStore(db)
	subs := store.NewSubscriptionStore(db)

	hub := broadcast.NewHub(rdb)
	go hub.Start(ctx)

	tokens := token.NewService(cfg.JWTSecret, cfg.TokenTTL)
	captcha := services.NewCaptchaVerifier(cfg.RecaptchaSecret)
	push := services.NewPushSender(cfg.PushAppID, cfg.PushAPIKey, cfg.PushEndpoint)

	h := handlers.New(infos, users, subs, hub, push, captcha, tokens, cfg)

	sw := sweeper.New(infos, subs, cfg.SweepInterval)
	go sw.Start(ctx)
	logger.Log.Infow("expiry sweeper started", "interval", cfg.SweepInterval)

	// Router
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Metrics)
	r.Use(middleware.RateLimit(rdb))

	routes.Setup(r, h, tokens)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Log.Infow("board API listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatalw("server failed", "error", err)
	}
}
