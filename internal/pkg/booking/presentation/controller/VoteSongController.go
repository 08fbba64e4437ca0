package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/auth"
	booking "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/application/domain"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/application/usecase"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/persistence/repository/adapter"
)

// VoteSongController handles the vote endpoint only (one controller per endpoint)
type VoteSongController struct {
	UC      *usecase.VoteSongUseCase
	timeout time.Duration
}

func NewVoteSongController(pool *pgxpool.Pool) *VoteSongController {
	repo := adapter.NewPgBookingRepository(pool)
	return &VoteSongController{UC: usecase.NewVoteSongUseCase(repo), timeout: 3 * time.Second}
}

func (ctl *VoteSongController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		songID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid song id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
		defer cancel()

		err = ctl.UC.Execute(ctx, usecase.VoteSongInput{SongID: songID, UserID: auth.CurrentUserID(c)})
		switch {
		case errors.Is(err, booking.ErrDuplicateVote):
			c.JSON(http.StatusConflict, gin.H{"error": "already voted"})
		case errors.Is(err, usecase.ErrPersistence):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "vote failed"})
		case err != nil:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.Status(http.StatusNoContent)
		}
	}
}
