package session

import (
	"errors"

	"github.com/google/uuid"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/client/store"
)

// Storage keys shared with the original web client. Session fields are
// global; chat state is namespaced per user id elsewhere.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refresh_token"
	KeyRole         = "role"
	KeyUsername     = "username"
	KeyGuestID      = "guestId"
)

// TokenStore wraps the raw Store with the session field layout.
type TokenStore struct {
	st store.Store
}

func NewTokenStore(st store.Store) *TokenStore {
	return &TokenStore{st: st}
}

func (t *TokenStore) get(key string) string {
	v, err := t.st.Get(key)
	if err != nil {
		return ""
	}
	return v
}

func (t *TokenStore) AccessToken() string  { return t.get(KeyToken) }
func (t *TokenStore) RefreshToken() string { return t.get(KeyRefreshToken) }
func (t *TokenStore) Role() string         { return t.get(KeyRole) }
func (t *TokenStore) Username() string     { return t.get(KeyUsername) }

func (t *TokenStore) SetAccessToken(token string) error {
	return t.st.Set(KeyToken, token)
}

// SaveLogin stores the whole session in one shot.
func (t *TokenStore) SaveLogin(token, refresh, role, username string) error {
	if err := t.st.Set(KeyToken, token); err != nil {
		return err
	}
	if err := t.st.Set(KeyRefreshToken, refresh); err != nil {
		return err
	}
	if err := t.st.Set(KeyRole, role); err != nil {
		return err
	}
	return t.st.Set(KeyUsername, username)
}

// Clear removes every session field. The guest id survives logout so an
// anonymous visitor keeps their identity.
func (t *TokenStore) Clear() error {
	var firstErr error
	for _, key := range []string{KeyToken, KeyRefreshToken, KeyRole, KeyUsername} {
		if err := t.st.Del(key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GuestID returns the stable anonymous id, creating one on first use.
func (t *TokenStore) GuestID() string {
	if v, err := t.st.Get(KeyGuestID); err == nil && v != "" {
		return v
	}
	id := uuid.NewString()
	if err := t.st.Set(KeyGuestID, id); err != nil && !errors.Is(err, store.ErrQuotaExceeded) {
		return id
	}
	return id
}
