package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/client/session"
	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/client/store"
	rt "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/realtime"
)

type wsFixture struct {
	srv    *httptest.Server
	tokens chan string
	frames chan rt.Frame
	send   chan []byte
}

// newWSFixture runs a websocket endpoint that records the token each dial
// presented, captures inbound frames, and relays anything pushed into send.
func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	f := &wsFixture{
		tokens: make(chan string, 8),
		frames: make(chan rt.Frame, 32),
		send:   make(chan []byte, 8),
	}
	up := websocket.Upgrader{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.tokens <- r.URL.Query().Get("token")
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		go func() {
			for payload := range f.send {
				if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			}
		}()
		for {
			_, raw, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var fr rt.Frame
			if json.Unmarshal(raw, &fr) == nil {
				f.frames <- fr
			}
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *wsFixture) wsURL() string {
	return "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
}

func (f *wsFixture) nextFrame(t *testing.T) rt.Frame {
	t.Helper()
	select {
	case fr := <-f.frames:
		return fr
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client frame")
		return rt.Frame{}
	}
}

func newConnSession(t *testing.T, token string) *session.Manager {
	t.Helper()
	st := store.NewMemoryStore()
	if token != "" {
		if err := st.Set(session.KeyToken, token); err != nil {
			t.Fatalf("seed token: %v", err)
		}
	}
	return session.NewManager("http://127.0.0.1:0", st, zerolog.Nop())
}

func TestConnDialsWithTokenAndRequestsPresence(t *testing.T) {
	f := newWSFixture(t)
	sess := newConnSession(t, "Bearer tok-123")

	c := Dial(f.wsURL(), sess, zerolog.Nop())
	defer c.Close()

	select {
	case tok := <-f.tokens:
		// A stored "Bearer " prefix is stripped before dialing.
		if tok != "tok-123" {
			t.Fatalf("dial token = %q, want \"tok-123\"", tok)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client never dialed")
	}

	if fr := f.nextFrame(t); fr.Event != rt.EventPresenceGet {
		t.Fatalf("first frame = %s, want %s", fr.Event, rt.EventPresenceGet)
	}
}

func TestConnDispatchesInboundFrames(t *testing.T) {
	f := newWSFixture(t)
	c := Dial(f.wsURL(), newConnSession(t, "tok"), zerolog.Nop())
	defer c.Close()

	got := make(chan string, 1)
	c.Handle(rt.EventMessage, func(data json.RawMessage) {
		var m struct {
			Text string `json:"text"`
		}
		if json.Unmarshal(data, &m) == nil {
			got <- m.Text
		}
	})

	f.nextFrame(t) // presence request confirms the socket is live

	payload, err := rt.EncodeFrame(rt.EventMessage, map[string]string{"text": "hi"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	f.send <- payload

	select {
	case text := <-got:
		if text != "hi" {
			t.Fatalf("handler saw %q, want \"hi\"", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never fired")
	}
}

func TestConnEmitReachesServer(t *testing.T) {
	f := newWSFixture(t)
	c := Dial(f.wsURL(), newConnSession(t, "tok"), zerolog.Nop())
	defer c.Close()

	f.nextFrame(t) // skip the presence request

	deadline := time.Now().Add(2 * time.Second)
	for !c.Connected() {
		if time.Now().After(deadline) {
			t.Fatal("connection never became live")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !c.Emit(rt.EventSend, map[string]any{"to": 5, "text": "hello"}) {
		t.Fatal("emit on a live connection failed")
	}
	if fr := f.nextFrame(t); fr.Event != rt.EventSend {
		t.Fatalf("server saw %s, want %s", fr.Event, rt.EventSend)
	}
}

func TestConnEmitWhileDisconnectedDropsPayload(t *testing.T) {
	c := Dial("ws://127.0.0.1:0/ws", newConnSession(t, "tok"), zerolog.Nop())
	defer c.Close()

	if c.Emit(rt.EventSend, map[string]string{"text": "x"}) {
		t.Fatal("emit succeeded with no connection")
	}
	if c.Connected() {
		t.Fatal("Connected() true with no server")
	}
}

func TestConnCloseIsIdempotent(t *testing.T) {
	f := newWSFixture(t)
	c := Dial(f.wsURL(), newConnSession(t, "tok"), zerolog.Nop())

	f.nextFrame(t)
	c.Close()
	c.Close()

	if c.Connected() {
		t.Fatal("Connected() true after close")
	}
}
