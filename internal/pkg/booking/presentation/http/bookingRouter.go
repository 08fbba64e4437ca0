package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/cache/port"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/presentation/controller"
)

// RegisterRoutes registers the booking endpoints under the given (already
// authenticated) router group.
func RegisterRoutes(g *gin.RouterGroup, pool *pgxpool.Pool, cache cacheport.Cache) {
	songCtl := controller.NewSongController(pool)
	voteCtl := controller.NewVoteSongController(pool)
	boardCtl := controller.NewLeaderboardController(pool, cache)
	archiveCtl := controller.NewArchiveController(pool)
	wishCtl := controller.NewWishlistController(pool)

	g.GET("/songs", songCtl.List)
	g.POST("/songs", songCtl.Request)
	g.DELETE("/songs/:id", songCtl.Delete)
	g.POST("/songs/:id/vote", voteCtl.Handle())

	g.GET("/leaderboard", boardCtl.Handle())
	g.GET("/archive", archiveCtl.Handle())

	g.GET("/wishlist", wishCtl.List)
	g.POST("/wishlist", wishCtl.Add)
	g.DELETE("/wishlist/:id", wishCtl.Delete)
}
