package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	cacheport "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/cache/port"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/application/usecase"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/persistence/repository/adapter"
)

// LeaderboardController serves the cached standings.
type LeaderboardController struct {
	UC      *usecase.LeaderboardUseCase
	timeout time.Duration
}

func NewLeaderboardController(pool *pgxpool.Pool, cache cacheport.Cache) *LeaderboardController {
	repo := adapter.NewPgBookingRepository(pool)
	return &LeaderboardController{UC: usecase.NewLeaderboardUseCase(repo, cache), timeout: 3 * time.Second}
}

func (ctl *LeaderboardController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 20
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
		defer cancel()

		rows, err := ctl.UC.Execute(ctx, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": rows})
	}
}
