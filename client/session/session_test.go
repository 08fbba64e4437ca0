package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/client/store"
)

func signedToken(t *testing.T, uid int64, username, role string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid":      uid,
		"username": username,
		"role":     role,
		"sub":      "ignored",
		"exp":      exp.Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestLoginStoresSessionAndFlipsState(t *testing.T) {
	tok := signedToken(t, 42, "bob", "user", time.Now().Add(time.Hour))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body) //nolint:errcheck
		if body["username"] != "bob" || body["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
			"token": tok, "refreshToken": "r1", "ruolo": "user",
		})
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	m := NewManager(srv.URL, st, zerolog.Nop())

	if m.IsLoggedIn() {
		t.Fatal("logged in with empty storage")
	}
	if err := m.Login(context.Background(), "bob", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !m.IsLoggedIn() {
		t.Fatal("login did not flip logged-in state")
	}
	if m.AccessToken() != tok {
		t.Fatalf("stored token = %q", m.AccessToken())
	}
	if m.Tokens().RefreshToken() != "r1" || m.Tokens().Role() != "user" {
		t.Fatal("refresh token or role not persisted")
	}
}

func TestLoginRejectionLeavesStorageUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewManager(srv.URL, store.NewMemoryStore(), zerolog.Nop())
	err := m.Login(context.Background(), "bob", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if m.AccessToken() != "" || m.IsLoggedIn() {
		t.Fatal("failed login mutated session state")
	}
}

func TestRefreshTokenDoesNotStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "new"}) //nolint:errcheck
	}))
	defer srv.Close()

	m := NewManager(srv.URL, store.NewMemoryStore(), zerolog.Nop())
	if err := m.Tokens().SaveLogin("old", "r1", "user", "bob"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tok, err := m.RefreshToken(context.Background())
	if err != nil || tok != "new" {
		t.Fatalf("refresh = (%q, %v), want (\"new\", nil)", tok, err)
	}
	// Storing is the transport's job, after it has lined up its waiters.
	if m.AccessToken() != "old" {
		t.Fatalf("RefreshToken stored the token itself: %q", m.AccessToken())
	}

	m.SetAccessToken(tok)
	if m.AccessToken() != "new" {
		t.Fatal("SetAccessToken did not persist")
	}
}

func TestRefreshTokenFailsWithoutRefreshToken(t *testing.T) {
	m := NewManager("http://127.0.0.1:0", store.NewMemoryStore(), zerolog.Nop())
	if _, err := m.RefreshToken(context.Background()); !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("err = %v, want ErrRefreshFailed", err)
	}
}

func TestLogoutClearsEverythingButGuestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	st := store.NewMemoryStore()
	m := NewManager(srv.URL, st, zerolog.Nop())
	if err := m.Tokens().SaveLogin("tok", "r1", "user", "bob"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	guest := m.Tokens().GuestID()

	m.Logout(context.Background())

	if m.AccessToken() != "" || m.Tokens().RefreshToken() != "" {
		t.Fatal("logout left tokens behind")
	}
	if m.IsLoggedIn() {
		t.Fatal("still logged in after logout")
	}
	if got := m.Tokens().GuestID(); got != guest {
		t.Fatalf("guest id changed across logout: %q -> %q", guest, got)
	}
}

func TestNewManagerDerivesStateFromStoredToken(t *testing.T) {
	live := signedToken(t, 1, "bob", "user", time.Now().Add(time.Hour))
	expired := signedToken(t, 1, "bob", "user", time.Now().Add(-time.Hour))

	for _, tc := range []struct {
		name  string
		token string
		want  bool
	}{
		{"live token", live, true},
		{"expired token", expired, false},
		{"garbage token", "not-a-jwt", false},
		{"no token", "", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			st := store.NewMemoryStore()
			if tc.token != "" {
				if err := st.Set(KeyToken, tc.token); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}
			m := NewManager("http://127.0.0.1:0", st, zerolog.Nop())
			if m.IsLoggedIn() != tc.want {
				t.Fatalf("IsLoggedIn() = %v, want %v", m.IsLoggedIn(), tc.want)
			}
		})
	}
}

func TestDecodeIdentity(t *testing.T) {
	tok := signedToken(t, 42, "bob", "admin", time.Now().Add(time.Hour))
	p, err := DecodeIdentity(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ID != 42 || p.Username != "bob" || p.Role != "admin" {
		t.Fatalf("profile = %+v", p)
	}

	if _, err := DecodeIdentity("garbage"); err == nil {
		t.Fatal("expected error for a non-JWT token")
	}
}

func TestDecodeIdentityFallsBackToSubject(t *testing.T) {
	claims := jwt.MapClaims{"sub": "17", "username": "ann"}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	p, err := DecodeIdentity(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.ID != 17 {
		t.Fatalf("id = %d, want subject fallback 17", p.ID)
	}
}
