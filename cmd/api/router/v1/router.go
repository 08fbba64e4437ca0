package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/auth"
	cacheport "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/cache/port"
	bookingHTTP "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/booking/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1, behind the
// bearer-token middleware.
func RegisterRoutes(r *gin.Engine, pool *pgxpool.Pool, cache cacheport.Cache, issuer *auth.Issuer) {
	v1 := r.Group("/api/v1", auth.RequireAuth(issuer))
	bookingHTTP.RegisterRoutes(v1, pool, cache)
}
