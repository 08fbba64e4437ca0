package controller

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/persistence/repository/adapter"
	repository "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/persistence/repository/port"
)

// ArchiveController handles past-night search.
type ArchiveController struct {
	repo    repository.BookingRepository
	timeout time.Duration
}

func NewArchiveController(pool *pgxpool.Pool) *ArchiveController {
	return &ArchiveController{repo: adapter.NewPgBookingRepository(pool), timeout: 3 * time.Second}
}

func (ctl *ArchiveController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))

		limit := 50
		if v := c.Query("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				limit = n
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
		defer cancel()

		entries, err := ctl.repo.SearchArchive(ctx, query, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "archive search failed"})
			return
		}

		out := make([]gin.H, 0, len(entries))
		for _, e := range entries {
			out = append(out, gin.H{
				"id":           e.ID,
				"singer":       e.Singer,
				"title":        e.Title,
				"artist":       e.Artist,
				"score":        e.Score,
				"performed_at": e.PerformedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"entries": out, "count": len(out)})
	}
}
