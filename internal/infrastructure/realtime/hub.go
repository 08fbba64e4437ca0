package realtime

import (
	"sort"
	"sync"
)

// Hub tracks one live Connection per user and derives the presence set from
// the attached connections. Attaching a second socket for the same user
// replaces the first.
type Hub struct {
	mu        sync.RWMutex
	sessions  map[string]*Connection // sessionID -> connection
	userConns map[int64]string       // userID -> sessionID
}

// NewHub constructs an initialized Hub.
func NewHub() *Hub {
	return &Hub{
		sessions:  make(map[string]*Connection),
		userConns: make(map[int64]string),
	}
}

// Attach registers a connection, closes any previous session of the same
// user, and broadcasts a presence delta for the new arrival.
func (h *Hub) Attach(conn *Connection) {
	var previous *Connection

	h.mu.Lock()
	if existingID, ok := h.userConns[conn.UserID]; ok {
		if existing := h.sessions[existingID]; existing != nil {
			previous = existing
			delete(h.sessions, existingID)
		}
	}
	h.sessions[conn.ID] = conn
	h.userConns[conn.UserID] = conn.ID
	h.mu.Unlock()

	conn.Start()

	if previous != nil {
		previous.Close(4001, "session replaced")
	}

	if payload, err := EncodeFrame(EventPresenceUpdate, PeerInfo{ID: conn.UserID, Username: conn.Username}); err == nil {
		h.broadcast(payload, conn.ID)
	}
}

// Detach removes a connection if it is still the user's current session and
// broadcasts a presence removal.
func (h *Hub) Detach(conn *Connection) {
	h.mu.Lock()
	_, tracked := h.sessions[conn.ID]
	if tracked {
		delete(h.sessions, conn.ID)
		if current, ok := h.userConns[conn.UserID]; ok && current == conn.ID {
			delete(h.userConns, conn.UserID)
		} else {
			// Replaced by a newer socket: the user is still online.
			tracked = false
		}
	}
	h.mu.Unlock()

	if tracked {
		if payload, err := EncodeFrame(EventPresenceRemove, PeerInfo{ID: conn.UserID}); err == nil {
			h.broadcast(payload, conn.ID)
		}
	}
}

// Snapshot returns the full online set, sorted by username for stable output.
func (h *Hub) Snapshot() []PeerInfo {
	h.mu.RLock()
	out := make([]PeerInfo, 0, len(h.userConns))
	for _, sessionID := range h.userConns {
		if c := h.sessions[sessionID]; c != nil {
			out = append(out, PeerInfo{ID: c.UserID, Username: c.Username})
		}
	}
	h.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

// SendToUser delivers payload to the user's current connection, reporting
// whether a live connection accepted it.
func (h *Hub) SendToUser(userID int64, payload []byte) bool {
	h.mu.RLock()
	sessionID, ok := h.userConns[userID]
	var conn *Connection
	if ok {
		conn = h.sessions[sessionID]
	}
	h.mu.RUnlock()
	if conn == nil {
		return false
	}
	return conn.Send(payload) == nil
}

// Close terminates all tracked connections and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.sessions))
	for _, c := range h.sessions {
		conns = append(conns, c)
	}
	h.sessions = make(map[string]*Connection)
	h.userConns = make(map[int64]string)
	h.mu.Unlock()

	for _, c := range conns {
		c.Close(1001, "hub shutdown")
	}
}

func (h *Hub) broadcast(payload []byte, excludeSessionID string) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.sessions))
	for id, c := range h.sessions {
		if id == excludeSessionID {
			continue
		}
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		_ = c.Send(payload)
	}
}
