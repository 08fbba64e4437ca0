// Package presence mirrors the server's online-user roster on the client.
package presence

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/realtime"
)

// Peer is one online user visible to the local client.
type Peer struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Tracker keeps the set of online peers, excluding the local user. It is
// driven by snapshot and delta events and converges to the server roster no
// matter how the two interleave, because a snapshot fully replaces state.
type Tracker struct {
	selfID int64
	log    zerolog.Logger

	mu    sync.Mutex
	peers map[int64]Peer
	subs  map[int]func([]Peer)
	next  int
}

// NewTracker builds a tracker that filters out selfID. A zero selfID disables
// self-filtering.
func NewTracker(selfID int64, log zerolog.Logger) *Tracker {
	return &Tracker{
		selfID: selfID,
		log:    log,
		peers:  make(map[int64]Peer),
		subs:   make(map[int]func([]Peer)),
	}
}

// eventSource is the slice of the realtime connection the tracker needs.
type eventSource interface {
	Handle(event string, fn func(json.RawMessage))
}

// Bind subscribes the tracker to presence traffic. Both current event names
// and the legacy "users:*" spellings are registered; the handlers are
// idempotent so hearing an event under both names is harmless.
func (t *Tracker) Bind(conn eventSource) {
	for _, ev := range []string{realtime.EventPresenceList, "users:list"} {
		conn.Handle(ev, t.onSnapshot)
	}
	for _, ev := range []string{realtime.EventPresenceUpdate, "users:online"} {
		conn.Handle(ev, t.onUpsert)
	}
	for _, ev := range []string{realtime.EventPresenceRemove, "users:offline"} {
		conn.Handle(ev, t.onRemove)
	}
}

func (t *Tracker) onSnapshot(data json.RawMessage) {
	var list []Peer
	if err := json.Unmarshal(data, &list); err != nil {
		t.log.Warn().Err(err).Msg("dropping malformed presence snapshot")
		return
	}
	t.ApplySnapshot(list)
}

func (t *Tracker) onUpsert(data json.RawMessage) {
	var p Peer
	if err := json.Unmarshal(data, &p); err != nil || p.ID == 0 {
		t.log.Warn().Err(err).Msg("dropping malformed presence update")
		return
	}
	t.Upsert(p)
}

func (t *Tracker) onRemove(data json.RawMessage) {
	var p Peer
	if err := json.Unmarshal(data, &p); err != nil || p.ID == 0 {
		t.log.Warn().Err(err).Msg("dropping malformed presence removal")
		return
	}
	t.Remove(p.ID)
}

// ApplySnapshot replaces the whole roster.
func (t *Tracker) ApplySnapshot(list []Peer) {
	t.mu.Lock()
	t.peers = make(map[int64]Peer, len(list))
	for _, p := range list {
		if p.ID == 0 || p.ID == t.selfID {
			continue
		}
		t.peers[p.ID] = p
	}
	t.notifyLocked()
}

// Upsert adds or updates one peer.
func (t *Tracker) Upsert(p Peer) {
	if p.ID == t.selfID {
		return
	}
	t.mu.Lock()
	t.peers[p.ID] = p
	t.notifyLocked()
}

// Remove drops a peer; unknown ids are ignored.
func (t *Tracker) Remove(id int64) {
	t.mu.Lock()
	if _, ok := t.peers[id]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.peers, id)
	t.notifyLocked()
}

// Peers returns the roster sorted by username for stable rendering.
func (t *Tracker) Peers() []Peer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sortedLocked()
}

// Subscribe registers fn for roster changes and returns a cancel func.
func (t *Tracker) Subscribe(fn func([]Peer)) func() {
	t.mu.Lock()
	id := t.next
	t.next++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

// notifyLocked snapshots subscribers and roster, releases the lock, then
// fires callbacks.
func (t *Tracker) notifyLocked() {
	list := t.sortedLocked()
	fns := make([]func([]Peer), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(list)
	}
}

func (t *Tracker) sortedLocked() []Peer {
	list := make([]Peer, 0, len(t.peers))
	for _, p := range t.peers {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list
}
