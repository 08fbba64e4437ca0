package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	cacheport "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/cache/port"
)

var (
	// ErrInvalidCredentials is returned when login is rejected.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrRefreshDenied is returned when a refresh token is unknown or expired.
	ErrRefreshDenied = errors.New("auth: refresh token not recognized")
)

const refreshKeyPrefix = "auth:refresh:"

// UserRepository is the persistence contract the auth service depends on.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
}

// Service owns the login / refresh / logout lifecycle. Refresh tokens are
// opaque ids allowlisted in the cache with a TTL; deleting the entry is the
// whole revocation story.
type Service struct {
	users      UserRepository
	cache      cacheport.Cache
	issuer     *Issuer
	refreshTTL time.Duration
	log        zerolog.Logger
}

func NewService(users UserRepository, cache cacheport.Cache, issuer *Issuer, refreshTTL time.Duration, log zerolog.Logger) *Service {
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &Service{users: users, cache: cache, issuer: issuer, refreshTTL: refreshTTL, log: log}
}

// LoginResult carries the issued token pair and the user's role.
type LoginResult struct {
	Token        string
	RefreshToken string
	Role         string
}

// Login verifies the password and issues an access/refresh token pair.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	access, err := s.issuer.Issue(u)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: sign token: %w", err)
	}

	refresh := uuid.NewString()
	if err := s.cache.Set(ctx, refreshKeyPrefix+refresh, strconv.FormatInt(u.ID, 10), s.refreshTTL); err != nil {
		return LoginResult{}, fmt.Errorf("auth: store refresh token: %w", err)
	}

	return LoginResult{Token: access, RefreshToken: refresh, Role: u.Role}, nil
}

// Refresh exchanges an allowlisted refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	val, err := s.cache.Get(ctx, refreshKeyPrefix+refreshToken)
	if errors.Is(err, cacheport.ErrMiss) {
		return "", ErrRefreshDenied
	}
	if err != nil {
		return "", fmt.Errorf("auth: load refresh token: %w", err)
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return "", ErrRefreshDenied
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return "", ErrRefreshDenied
	}
	access, err := s.issuer.Issue(u)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return access, nil
}

// Logout revokes the refresh token. Missing entries are not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if _, err := s.cache.Del(ctx, refreshKeyPrefix+refreshToken); err != nil {
		s.log.Warn().Err(err).Msg("logout: failed to revoke refresh token")
		return err
	}
	return nil
}
