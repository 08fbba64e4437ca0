package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/auth"
	qport "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/queue/port"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/realtime"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/presentation/controller"
)

// RegisterRoutes mounts the realtime endpoint. Authentication happens inside
// the handler because browsers cannot set headers on websocket upgrades, so
// the token also travels as a query parameter.
func RegisterRoutes(r gin.IRouter, pool *pgxpool.Pool, hub *realtime.Hub, issuer *auth.Issuer, queue qport.Client, log zerolog.Logger) {
	socketCtl := controller.NewSocketController(pool, hub, issuer, queue, log)

	// GET /ws -> websocket endpoint for presence + direct messages
	r.GET("/ws", socketCtl.Handle())
}
