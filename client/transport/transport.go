// Package transport implements the HTTP authorization layer: it attaches the
// bearer token to outgoing requests and, on an authorization failure,
// coordinates a single in-flight token refresh shared by every request that
// failed while it was pending.
package transport

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/client/session"
)

// AuthTransport is an http.RoundTripper that speaks the refresh protocol.
//
// Guarantee: at most one refresh call is in flight at a time. Requests that
// hit a 403 while a refresh is pending queue up and are replayed, in arrival
// order, with that refresh's outcome; none of them trigger their own refresh.
type AuthTransport struct {
	Base    http.RoundTripper
	Session *session.Manager
	Log     zerolog.Logger

	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshOutcome
}

type refreshOutcome struct {
	token string
	err   error
}

// NewClient wraps a default http.Client with the authorized transport.
func NewClient(sess *session.Manager, log zerolog.Logger) *http.Client {
	return &http.Client{Transport: &AuthTransport{Session: sess, Log: log}}
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip sends the request with the current token. On 403 it refreshes
// (or joins the refresh already in flight) and retries once with the new
// token; every other outcome passes through unchanged.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody != nil {
		// Attempts use fresh GetBody copies; the transport owns closing the
		// body it was handed.
		req.Body.Close() //nolint:errcheck
	}

	resp, err := t.send(req, t.Session.AccessToken())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusForbidden {
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		// The body cannot be replayed; surface the 403 as-is.
		return resp, nil
	}

	token, rerr := t.refresh(req.Context())
	if rerr != nil {
		// Refresh failed: the session is already torn down; the caller gets
		// the original authorization failure.
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()              //nolint:errcheck

	return t.send(req, token)
}

func (t *AuthTransport) send(req *http.Request, token string) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	if token != "" {
		clone.Header.Set("Authorization", "Bearer "+token)
	}
	return t.base().RoundTrip(clone)
}

// refresh either performs the refresh call or waits for the one in flight.
func (t *AuthTransport) refresh(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.refreshing {
		ch := make(chan refreshOutcome, 1)
		t.waiters = append(t.waiters, ch)
		t.mu.Unlock()
		select {
		case out := <-ch:
			return out.token, out.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	t.refreshing = true
	t.mu.Unlock()

	token, err := t.Session.RefreshToken(ctx)

	t.mu.Lock()
	t.refreshing = false
	waiters := t.waiters
	t.waiters = nil
	t.mu.Unlock()

	if err == nil {
		t.Session.SetAccessToken(token)
	} else {
		t.Log.Warn().Err(err).Msg("token refresh failed, forcing logout")
		t.Session.ForceLogout()
	}

	// Unblock queued requests in the order they arrived.
	for _, ch := range waiters {
		ch <- refreshOutcome{token: token, err: err}
	}
	return token, err
}
