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

// WishlistController handles the per-user wishlist resource.
type WishlistController struct {
	repo    repository.BookingRepository
	timeout time.Duration
}

func NewWishlistController(pool *pgxpool.Pool) *WishlistController {
	return &WishlistController{repo: adapter.NewPgBookingRepository(pool), timeout: 3 * time.Second}
}

type wishlistBody struct {
	Title  string `json:"title" binding:"required"`
	Artist string `json:"artist"`
}

func (ctl *WishlistController) List(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
	defer cancel()

	items, err := ctl.repo.ListWishlist(ctx, auth.CurrentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list wishlist"})
		return
	}

	out := make([]gin.H, 0, len(items))
	for _, w := range items {
		out = append(out, gin.H{
			"id":         w.ID,
			"title":      w.Title,
			"artist":     w.Artist,
			"created_at": w.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out, "count": len(out)})
}

func (ctl *WishlistController) Add(c *gin.Context) {
	var req wishlistBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
	defer cancel()

	id, err := ctl.repo.AddWishlist(ctx, booking.WishlistItem{
		UserID:    auth.CurrentUserID(c),
		Title:     req.Title,
		Artist:    req.Artist,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add wishlist item"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (ctl *WishlistController) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
	defer cancel()

	err = ctl.repo.DeleteWishlist(ctx, id, auth.CurrentUserID(c))
	if errors.Is(err, booking.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete item"})
		return
	}
	c.Status(http.StatusNoContent)
}
