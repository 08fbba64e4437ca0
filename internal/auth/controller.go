package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Controller exposes the three auth endpoints.
type Controller struct {
	svc     *Service
	timeout time.Duration
}

func NewController(svc *Service) *Controller {
	return &Controller{svc: svc, timeout: 3 * time.Second}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// loginResponse keeps the historical wire contract; "ruolo" is the role field
// name the original frontend shipped with and existing clients still expect.
type loginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Ruolo        string `json:"ruolo"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type logoutRequest struct {
	Username     string `json:"username"`
	RefreshToken string `json:"refreshToken"`
}

// Login handles POST /auth/login.
func (ctl *Controller) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
	defer cancel()

	res, err := ctl.svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{Token: res.Token, RefreshToken: res.RefreshToken, Ruolo: res.Role})
}

// Token handles POST /auth/token (refresh exchange).
func (ctl *Controller) Token(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
	defer cancel()

	access, err := ctl.svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrRefreshDenied) {
			c.JSON(http.StatusForbidden, gin.H{"error": "refresh token rejected"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": access})
}

// Logout handles POST /auth/logout. Always answers 204: revocation is
// best-effort and the client clears its state regardless.
func (ctl *Controller) Logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
	defer cancel()

	_ = ctl.svc.Logout(ctx, req.RefreshToken)
	c.Status(http.StatusNoContent)
}

// RegisterRoutes mounts the auth endpoints on the engine root.
func (ctl *Controller) RegisterRoutes(r gin.IRouter) {
	r.POST("/auth/login", ctl.Login)
	r.POST("/auth/token", ctl.Token)
	r.POST("/auth/logout", ctl.Logout)
}
