package chat

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/client/store"
)

type fakeEmitter struct {
	connected bool
	emitted   []emittedFrame
	handlers  map[string][]func(json.RawMessage)
}

type emittedFrame struct {
	event string
	data  any
}

func newFakeEmitter() *fakeEmitter {
	return &fakeEmitter{connected: true, handlers: make(map[string][]func(json.RawMessage))}
}

func (f *fakeEmitter) Emit(event string, v any) bool {
	if !f.connected {
		return false
	}
	f.emitted = append(f.emitted, emittedFrame{event: event, data: v})
	return true
}

func (f *fakeEmitter) Connected() bool { return f.connected }

func (f *fakeEmitter) Handle(event string, fn func(json.RawMessage)) {
	f.handlers[event] = append(f.handlers[event], fn)
}

func (f *fakeEmitter) deliver(t *testing.T, event string, payload string) {
	t.Helper()
	for _, fn := range f.handlers[event] {
		fn(json.RawMessage(payload))
	}
}

func newTestRouter(t *testing.T) (*Router, *fakeEmitter) {
	t.Helper()
	em := newFakeEmitter()
	ts := NewThreadStore(store.NewMemoryStore(), 1, zerolog.Nop())
	return NewRouter(em, ts, 1, zerolog.Nop()), em
}

func TestRouterSelectEmitsOpenAndClearsUnread(t *testing.T) {
	r, em := newTestRouter(t)

	em.deliver(t, "chat:message", `{"id":"m1","text":"hi","fromUserId":5}`)
	if r.Unread(5) != 1 {
		t.Fatalf("unread = %d before select, want 1", r.Unread(5))
	}

	r.Select(5)

	if r.ActivePeer() != 5 {
		t.Fatalf("active peer = %d, want 5", r.ActivePeer())
	}
	if r.Unread(5) != 0 {
		t.Fatalf("unread = %d after select, want 0", r.Unread(5))
	}
	if len(em.emitted) != 1 || em.emitted[0].event != "chat:dm:open" {
		t.Fatalf("emitted = %v, want one chat:dm:open", em.emitted)
	}
}

func TestRouterSendRequiresTextPeerAndConnection(t *testing.T) {
	r, em := newTestRouter(t)

	r.Send("hello") // no peer selected
	r.Select(5)
	r.Send("   ") // blank after trimming
	em.connected = false
	r.Send("hello") // disconnected
	em.connected = true
	r.Send("  hello  ")

	var sends []emittedFrame
	for _, e := range em.emitted {
		if e.event == "chat:send" {
			sends = append(sends, e)
		}
	}
	if len(sends) != 1 {
		t.Fatalf("got %d chat:send frames, want 1", len(sends))
	}
	payload, ok := sends[0].data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected payload type %T", sends[0].data)
	}
	if payload["to"] != int64(5) || payload["text"] != "hello" {
		t.Fatalf("payload = %v, want to=5 text=\"hello\" (trimmed)", payload)
	}
}

// TestRouterSendThenEchoStoresOnce: an outgoing message is only stored when
// the server echoes it back, so send plus echo yields exactly one entry.
func TestRouterSendThenEchoStoresOnce(t *testing.T) {
	r, em := newTestRouter(t)

	r.Select(5)
	r.Send("hello")
	if got := r.Thread(5); len(got) != 0 {
		t.Fatalf("message stored before echo: %v", got)
	}

	em.deliver(t, "chat:message", `{"id":"m1","text":"hello","fromUserId":1,"toUserId":5}`)

	got := r.Thread(5)
	if len(got) != 1 || got[0].Text != "hello" {
		t.Fatalf("thread after echo = %v, want one message", got)
	}
	if r.Unread(5) != 0 {
		t.Fatalf("own echo counted as unread: %d", r.Unread(5))
	}
}

func TestRouterUnreadAccounting(t *testing.T) {
	r, em := newTestRouter(t)

	// Inbound for an unselected conversation counts as unread.
	em.deliver(t, "chat:message", `{"id":"m1","text":"a","fromUserId":5}`)
	if r.Unread(5) != 1 {
		t.Fatalf("unread = %d, want 1", r.Unread(5))
	}

	// Inbound for the active, focused conversation does not.
	r.Select(5)
	em.deliver(t, "chat:message", `{"id":"m2","text":"b","fromUserId":5}`)
	if r.Unread(5) != 0 {
		t.Fatalf("unread = %d for focused active thread, want 0", r.Unread(5))
	}

	// Losing focus makes even the active conversation accumulate unread.
	r.SetFocused(false)
	em.deliver(t, "chat:message", `{"id":"m3","text":"c","fromUserId":5}`)
	if r.Unread(5) != 1 {
		t.Fatalf("unread = %d while unfocused, want 1", r.Unread(5))
	}

	// Regaining focus clears the active conversation.
	r.SetFocused(true)
	if r.Unread(5) != 0 {
		t.Fatalf("unread = %d after refocus, want 0", r.Unread(5))
	}
}

func TestRouterHistoryReplacesThread(t *testing.T) {
	r, em := newTestRouter(t)

	em.deliver(t, "chat:message", `{"id":"local","text":"stale","fromUserId":5}`)
	em.deliver(t, "chat:dm:history", `{
		"peerId": 5,
		"messages": [
			{"id":"h1","text":"first","fromUserId":5,"toUserId":1},
			{"id":"h2","text":"second","fromUserId":1,"toUserId":5}
		]
	}`)

	got := r.Thread(5)
	if len(got) != 2 || got[0].ID != "h1" || got[1].ID != "h2" {
		t.Fatalf("thread after history = %v, want [h1 h2]", got)
	}
}

func TestRouterDropsMalformedMessages(t *testing.T) {
	r, em := newTestRouter(t)

	em.deliver(t, "chat:message", `{"id":"m1","text":"no sender"}`)
	em.deliver(t, "chat:message", `not json`)
	em.deliver(t, "chat:dm:history", `{"peerId":0,"messages":[]}`)

	if got := r.Thread(0); got != nil {
		t.Fatalf("malformed traffic created a thread: %v", got)
	}
}

func TestRouterRestoreActive(t *testing.T) {
	st := store.NewMemoryStore()
	ts := NewThreadStore(st, 1, zerolog.Nop())
	em := newFakeEmitter()
	r := NewRouter(em, ts, 1, zerolog.Nop())
	r.Select(7)

	// A new router over the same storage picks the selection back up.
	em2 := newFakeEmitter()
	r2 := NewRouter(em2, NewThreadStore(st, 1, zerolog.Nop()), 1, zerolog.Nop())
	r2.RestoreActive()

	if r2.ActivePeer() != 7 {
		t.Fatalf("restored active peer = %d, want 7", r2.ActivePeer())
	}
	if len(em2.emitted) != 1 || em2.emitted[0].event != "chat:dm:open" {
		t.Fatalf("restore did not request history: %v", em2.emitted)
	}
}

func TestRouterSubscribersSeeThreadChanges(t *testing.T) {
	r, em := newTestRouter(t)

	var peers []int64
	cancel := r.Subscribe(func(peerID int64) { peers = append(peers, peerID) })

	em.deliver(t, "chat:message", `{"id":"m1","text":"a","fromUserId":5}`)
	cancel()
	em.deliver(t, "chat:message", `{"id":"m2","text":"b","fromUserId":5}`)

	if len(peers) != 1 || peers[0] != 5 {
		t.Fatalf("subscriber saw %v, want [5]", peers)
	}
}
