package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	v1 "github.com/AlessioS-GithubAccount/karaoke-app-sub000/cmd/api/router/v1"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/auth"
	cacheAdapter "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/cache/adapter"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/database"
	queueAdapter "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/queue/adapter"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/realtime"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/application/task"
	chatHTTP "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/presentation/http"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg(".env file not found or could not be loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	pool, err := database.NewPoolFromEnv(connectCtx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	cache, err := cacheAdapter.NewRedisAdapter()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer cache.Close()

	queueClient, err := queueAdapter.NewAsynqClientFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue client")
	}
	defer queueClient.Close()

	queueServer, err := queueAdapter.NewAsynqServer(log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create queue server")
	}
	task.RegisterArchiveMessageTask(queueServer, pool)
	go func() {
		if err := queueServer.Run(ctx); err != nil {
			log.Error().Err(err).Msg("queue server stopped")
		}
	}()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal().Msg("JWT_SECRET environment variable is not set")
	}
	issuer := auth.NewIssuer([]byte(secret), 15*time.Minute)

	users := auth.NewPgUserRepository(pool)
	authSvc := auth.NewService(users, cache, issuer, 7*24*time.Hour, log)

	hub := realtime.NewHub()
	defer hub.Close()

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	auth.NewController(authSvc).RegisterRoutes(r)
	v1.RegisterRoutes(r, pool, cache, issuer)
	chatHTTP.RegisterRoutes(r, pool, hub, issuer, queueClient, log)

	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if err := r.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}
