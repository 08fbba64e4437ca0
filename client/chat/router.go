package chat

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/realtime"
)

// emitter is the slice of the realtime connection the router depends on.
type emitter interface {
	Emit(event string, v any) bool
	Connected() bool
	Handle(event string, fn func(json.RawMessage))
}

// Router routes direct-message traffic between the realtime connection and
// the thread store: outbound sends, inbound delivery, history hydration,
// unread accounting, and the selected-conversation state.
type Router struct {
	conn   emitter
	store  *ThreadStore
	selfID int64
	log    zerolog.Logger

	mu      sync.Mutex
	focused bool
	subs    map[int]func(peerID int64)
	next    int
}

// NewRouter wires the router to the connection. The window starts focused;
// call SetFocused when the hosting surface loses or regains attention.
func NewRouter(conn emitter, st *ThreadStore, selfID int64, log zerolog.Logger) *Router {
	r := &Router{
		conn:    conn,
		store:   st,
		selfID:  selfID,
		log:     log,
		focused: true,
		subs:    make(map[int]func(int64)),
	}
	conn.Handle(realtime.EventMessage, r.onMessage)
	conn.Handle(realtime.EventDMHistory, r.onHistory)
	return r
}

// Thread exposes the stored conversation with peerID, oldest first.
func (r *Router) Thread(peerID int64) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Thread(peerID)
}

// Unread exposes the unread counter for peerID.
func (r *Router) Unread(peerID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Unread(peerID)
}

// ActivePeer returns the currently selected conversation, 0 when none.
func (r *Router) ActivePeer() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.ActivePeer()
}

// Select makes peerID the active conversation: persists the selection,
// clears its unread counter when the surface is focused, and asks the server
// for history to hydrate the thread.
func (r *Router) Select(peerID int64) {
	r.mu.Lock()
	r.store.SetActive(peerID)
	if r.focused {
		r.store.ResetUnread(peerID)
	}
	r.mu.Unlock()

	r.conn.Emit(realtime.EventDMOpen, map[string]int64{"peerId": peerID})
	r.notify(peerID)
}

// RestoreActive re-selects the conversation persisted from a previous run.
// No-op when none was stored.
func (r *Router) RestoreActive() {
	r.mu.Lock()
	peer := r.store.ActivePeer()
	r.mu.Unlock()
	if peer != 0 {
		r.Select(peer)
	}
}

// SetFocused records whether the hosting surface has the user's attention.
// Regaining focus clears the active conversation's unread counter.
func (r *Router) SetFocused(focused bool) {
	r.mu.Lock()
	r.focused = focused
	if focused {
		if peer := r.store.ActivePeer(); peer != 0 {
			r.store.ResetUnread(peer)
		}
	}
	peer := r.store.ActivePeer()
	r.mu.Unlock()

	if focused && peer != 0 {
		r.notify(peer)
	}
}

// Send delivers text to the active conversation. Empty (after trimming) text,
// no selected peer, or a dead connection make it a silent no-op; the message
// is appended locally only when it echoes back from the server, so send and
// echo never double up.
func (r *Router) Send(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	r.mu.Lock()
	peer := r.store.ActivePeer()
	r.mu.Unlock()
	if peer == 0 || !r.conn.Connected() {
		return
	}
	r.conn.Emit(realtime.EventSend, map[string]any{"to": peer, "text": text})
}

// Subscribe registers fn for thread changes; fn receives the peer id whose
// conversation changed. Returns a cancel func.
func (r *Router) Subscribe(fn func(peerID int64)) func() {
	r.mu.Lock()
	id := r.next
	r.next++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func (r *Router) onMessage(data json.RawMessage) {
	m, err := NormalizeMessage(data)
	if err != nil {
		r.log.Warn().Err(err).Msg("dropping malformed chat message")
		return
	}

	// The thread is keyed by the remote party: for our own echoed sends that
	// is the recipient, otherwise the sender.
	peer := m.SenderID
	fromSelf := r.selfID != 0 && m.SenderID == r.selfID
	if fromSelf {
		peer = m.RecipientID
	}
	if peer == 0 {
		r.log.Warn().Str("id", m.ID).Msg("dropping message with no thread peer")
		return
	}

	r.mu.Lock()
	r.store.Append(peer, m)
	if !fromSelf && !(r.focused && r.store.ActivePeer() == peer) {
		r.store.IncUnread(peer)
	}
	r.mu.Unlock()

	r.notify(peer)
}

type historyPayload struct {
	PeerID   int64             `json:"peerId"`
	Messages []json.RawMessage `json:"messages"`
}

// onHistory replaces the thread with the server's canonical transcript.
func (r *Router) onHistory(data json.RawMessage) {
	var h historyPayload
	if err := json.Unmarshal(data, &h); err != nil || h.PeerID == 0 {
		r.log.Warn().Err(err).Msg("dropping malformed history payload")
		return
	}

	msgs := make([]Message, 0, len(h.Messages))
	for _, raw := range h.Messages {
		m, err := NormalizeMessage(raw)
		if err != nil {
			continue
		}
		msgs = append(msgs, m)
	}

	r.mu.Lock()
	r.store.ReplaceThread(h.PeerID, msgs)
	r.mu.Unlock()

	r.notify(h.PeerID)
}

func (r *Router) notify(peerID int64) {
	r.mu.Lock()
	fns := make([]func(int64), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn(peerID)
	}
}
