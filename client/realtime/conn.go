// Package realtime maintains the client's websocket connection: dial with the
// session token, dispatch inbound frames to registered handlers, and keep
// reconnecting until closed.
package realtime

import (
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/client/session"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/realtime"
)

const reconnectDelay = 2 * time.Second

// Conn is a self-healing websocket client. Handlers survive reconnects; a
// presence snapshot is requested on every successful (re)connect so trackers
// converge after a drop.
type Conn struct {
	wsURL string
	sess  *session.Manager
	log   zerolog.Logger

	mu        sync.Mutex
	ws        *websocket.Conn
	handlers  map[string][]func(json.RawMessage)
	connected bool
	closed    bool
	done      chan struct{}
}

// Dial starts the connection loop. wsURL is the ws:// endpoint without query
// parameters; the token is appended at each attempt so reconnects pick up
// refreshed credentials.
func Dial(wsURL string, sess *session.Manager, log zerolog.Logger) *Conn {
	c := &Conn{
		wsURL:    wsURL,
		sess:     sess,
		log:      log,
		handlers: make(map[string][]func(json.RawMessage)),
		done:     make(chan struct{}),
	}
	go c.run()
	return c
}

// UserID returns the numeric identity decoded from the current token, or 0
// when it cannot be decoded. A zero id only disables self-filtering.
func (c *Conn) UserID() int64 {
	p, err := session.DecodeIdentity(c.sess.AccessToken())
	if err != nil {
		return 0
	}
	return p.ID
}

// Handle registers fn for an inbound event. Multiple handlers per event are
// invoked in registration order.
func (c *Conn) Handle(event string, fn func(json.RawMessage)) {
	c.mu.Lock()
	c.handlers[event] = append(c.handlers[event], fn)
	c.mu.Unlock()
}

// Connected reports whether a live socket is currently attached.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Emit sends an event frame. Returns false when disconnected or the write
// fails; the payload is dropped, not queued.
func (c *Conn) Emit(event string, v any) bool {
	frame, err := realtime.EncodeFrame(event, v)
	if err != nil {
		c.log.Error().Err(err).Str("event", event).Msg("encode frame")
		return false
	}

	c.mu.Lock()
	ws := c.ws
	live := c.connected
	c.mu.Unlock()
	if !live || ws == nil {
		return false
	}
	if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.log.Warn().Err(err).Str("event", event).Msg("websocket write failed")
		return false
	}
	return true
}

// Close stops the reconnect loop and tears down the socket. Idempotent.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	ws := c.ws
	c.ws = nil
	c.connected = false
	c.mu.Unlock()

	if ws != nil {
		_ = ws.Close()
	}
}

func (c *Conn) run() {
	for {
		select {
		case <-c.done:
			return
		default:
		}

		ws, err := c.dialOnce()
		if err != nil {
			c.log.Warn().Err(err).Msg("websocket dial failed, retrying")
			select {
			case <-c.done:
				return
			case <-time.After(reconnectDelay):
			}
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			_ = ws.Close()
			return
		}
		c.ws = ws
		c.connected = true
		c.mu.Unlock()

		// Fresh presence snapshot after every (re)connect.
		c.Emit(realtime.EventPresenceGet, nil)

		c.readLoop(ws)

		c.mu.Lock()
		if c.ws == ws {
			c.ws = nil
			c.connected = false
		}
		closed := c.closed
		c.mu.Unlock()
		_ = ws.Close()
		if closed {
			return
		}

		select {
		case <-c.done:
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Conn) dialOnce() (*websocket.Conn, error) {
	token := strings.TrimPrefix(c.sess.AccessToken(), "Bearer ")
	target := c.wsURL
	if token != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + "token=" + url.QueryEscape(token)
	}
	ws, _, err := websocket.DefaultDialer.Dial(target, nil)
	return ws, err
}

func (c *Conn) readLoop(ws *websocket.Conn) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			c.log.Debug().Err(err).Msg("websocket read ended")
			return
		}
		var frame realtime.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed frame")
			continue
		}

		c.mu.Lock()
		fns := make([]func(json.RawMessage), len(c.handlers[frame.Event]))
		copy(fns, c.handlers[frame.Event])
		c.mu.Unlock()
		for _, fn := range fns {
			fn(frame.Data)
		}
	}
}
