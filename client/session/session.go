// Package session owns the client's login/logout/refresh lifecycle and the
// observable login state derived from it.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/client/observe"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/client/store"
)

var (
	// ErrInvalidCredentials is returned when the backend rejects a login.
	ErrInvalidCredentials = errors.New("session: invalid credentials")
	// ErrRefreshFailed is returned when the refresh endpoint rejects or errors.
	ErrRefreshFailed = errors.New("session: token refresh failed")
)

// UserProfile is the identity decoded from the access token. It is advisory
// (the payload is not signature-checked locally) and only used for UI
// personalization; authorization stays server-enforced.
type UserProfile struct {
	ID       int64
	Username string
	Role     string
}

// Manager owns the stored session and its observable state. The manager
// talks to the auth endpoints with a plain HTTP client: running refresh
// traffic through the authorized transport would recurse.
type Manager struct {
	baseURL string
	httpc   *http.Client
	tokens  *TokenStore
	log     zerolog.Logger

	loggedIn    *observe.Value[bool]
	currentUser *observe.Value[UserProfile]
}

// NewManager derives the initial logged-in state from the stored token's
// expiry claim; a token without one is treated as still valid.
func NewManager(baseURL string, st store.Store, log zerolog.Logger) *Manager {
	m := &Manager{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 10 * time.Second},
		tokens:  NewTokenStore(st),
		log:     log,
	}
	valid := tokenUsable(m.tokens.AccessToken())
	m.loggedIn = observe.NewValue(valid)
	m.currentUser = observe.NewValue(UserProfile{})
	if valid {
		m.refreshProfile()
	}
	return m
}

// Tokens exposes the underlying token store.
func (m *Manager) Tokens() *TokenStore { return m.tokens }

// LoggedIn returns the observable login flag.
func (m *Manager) LoggedIn() *observe.Value[bool] { return m.loggedIn }

// CurrentUser returns the observable decoded profile.
func (m *Manager) CurrentUser() *observe.Value[UserProfile] { return m.currentUser }

// IsLoggedIn is a pure read of the cached flag.
func (m *Manager) IsLoggedIn() bool { return m.loggedIn.Get() }

// AccessToken returns the stored raw access token, empty when logged out.
func (m *Manager) AccessToken() string { return m.tokens.AccessToken() }

// UserID returns the advisory numeric identity from the stored token, or 0.
func (m *Manager) UserID() int64 { return m.currentUser.Get().ID }

type loginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Ruolo        string `json:"ruolo"`
}

// Login authenticates and stores the session. Stored state is untouched on
// failure. The cached profile refreshes asynchronously.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	var res loginResponse
	status, err := m.postJSON(ctx, "/auth/login",
		map[string]string{"username": username, "password": password}, &res)
	if err != nil {
		return fmt.Errorf("session: login: %w", err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return ErrInvalidCredentials
	}
	if status != http.StatusOK {
		return fmt.Errorf("session: login: unexpected status %d", status)
	}

	if err := m.tokens.SaveLogin(res.Token, res.RefreshToken, res.Ruolo, username); err != nil {
		return fmt.Errorf("session: persist login: %w", err)
	}
	m.loggedIn.Set(true)
	go m.refreshProfile()
	return nil
}

// Logout notifies the backend best-effort and unconditionally clears local
// state.
func (m *Manager) Logout(ctx context.Context) {
	body := map[string]string{
		"username":     m.tokens.Username(),
		"refreshToken": m.tokens.RefreshToken(),
	}
	if _, err := m.postJSON(ctx, "/auth/logout", body, nil); err != nil {
		m.log.Debug().Err(err).Msg("logout notification failed")
	}
	m.clearLocal()
}

// RefreshToken exchanges the stored refresh token for a new access token.
// It deliberately does not store the result: the HTTP authorization layer
// owns replay ordering and calls SetAccessToken itself.
func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	refresh := m.tokens.RefreshToken()
	if refresh == "" {
		return "", ErrRefreshFailed
	}
	var res struct {
		Token string `json:"token"`
	}
	status, err := m.postJSON(ctx, "/auth/token", map[string]string{"refreshToken": refresh}, &res)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	if status != http.StatusOK || res.Token == "" {
		return "", ErrRefreshFailed
	}
	return res.Token, nil
}

// SetAccessToken stores a refreshed token and keeps derived state current.
func (m *Manager) SetAccessToken(token string) {
	if err := m.tokens.SetAccessToken(token); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist refreshed token")
	}
	m.loggedIn.Set(true)
	m.refreshProfile()
}

// ForceLogout is the refresh-failure path: fire-and-forget backend notify,
// then clear local state.
func (m *Manager) ForceLogout() {
	body := map[string]string{
		"username":     m.tokens.Username(),
		"refreshToken": m.tokens.RefreshToken(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = m.postJSON(ctx, "/auth/logout", body, nil)
	}()
	m.clearLocal()
}

func (m *Manager) clearLocal() {
	if err := m.tokens.Clear(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear session storage")
	}
	m.loggedIn.Set(false)
	m.currentUser.Set(UserProfile{})
}

func (m *Manager) refreshProfile() {
	tok := m.tokens.AccessToken()
	if tok == "" {
		return
	}
	p, err := DecodeIdentity(tok)
	if err != nil {
		m.log.Debug().Err(err).Msg("could not decode identity from token")
		return
	}
	if p.Username == "" {
		p.Username = m.tokens.Username()
	}
	if p.Role == "" {
		p.Role = m.tokens.Role()
	}
	m.currentUser.Set(p)
}

func (m *Manager) postJSON(ctx context.Context, path string, body any, out any) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

type identityClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// DecodeIdentity reads the token payload without verifying the signature.
// Advisory only: never use the result for authorization decisions.
func DecodeIdentity(token string) (UserProfile, error) {
	var claims identityClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return UserProfile{}, err
	}
	id := claims.UserID
	if id == 0 && claims.Subject != "" {
		id, _ = strconv.ParseInt(claims.Subject, 10, 64)
	}
	return UserProfile{ID: id, Username: claims.Username, Role: claims.Role}, nil
}

// tokenUsable reports whether the stored token should count as a live login.
// A token without an expiry claim is treated as valid.
func tokenUsable(token string) bool {
	if token == "" {
		return false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.After(time.Now())
}
