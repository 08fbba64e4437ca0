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
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/persistence/repository/adapter"
	repository "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/persistence/repository/port"
)

// SongController handles tonight's request queue: list, request, withdraw.
type SongController struct {
	repo    repository.BookingRepository
	timeout time.Duration
}

func NewSongController(pool *pgxpool.Pool) *SongController {
	return &SongController{repo: adapter.NewPgBookingRepository(pool), timeout: 3 * time.Second}
}

type requestSongBody struct {
	Singer string `json:"singer"`
	Title  string `json:"title" binding:"required"`
	Artist string `json:"artist"`
}

func (ctl *SongController) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
	defer cancel()

	songs, err := ctl.repo.ListSongs(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list songs"})
		return
	}

	out := make([]gin.H, 0, len(songs))
	for _, s := range songs {
		out = append(out, gin.H{
			"id":         s.ID,
			"user_id":    s.UserID,
			"singer":     s.Singer,
			"title":      s.Title,
			"artist":     s.Artist,
			"votes":      s.Votes,
			"created_at": s.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"songs": out, "count": len(out)})
}

func (ctl *SongController) Request(c *gin.Context) {
	var req requestSongBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	singer := req.Singer
	if singer == "" {
		singer = auth.CurrentUsername(c)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
	defer cancel()

	id, err := ctl.repo.AddSong(ctx, booking.SongRequest{
		UserID:    auth.CurrentUserID(c),
		Singer:    singer,
		Title:     req.Title,
		Artist:    req.Artist,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add song"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (ctl *SongController) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid song id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
	defer cancel()

	err = ctl.repo.DeleteSong(ctx, id, auth.CurrentUserID(c))
	if errors.Is(err, booking.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "song not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete song"})
		return
	}
	c.Status(http.StatusNoContent)
}
