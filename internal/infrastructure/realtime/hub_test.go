package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeWS captures written frames so tests can observe delivery without a
// network socket.
type fakeWS struct {
	frames chan []byte
	closed chan struct{}
}

func newFakeWS() *fakeWS {
	return &fakeWS{frames: make(chan []byte, 32), closed: make(chan struct{}, 1)}
}

func (f *fakeWS) WriteMessage(messageType int, data []byte) error {
	if messageType == websocket.TextMessage {
		f.frames <- data
	}
	return nil
}

func (f *fakeWS) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (f *fakeWS) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeWS) Close() error {
	select {
	case f.closed <- struct{}{}:
	default:
	}
	return nil
}

func (f *fakeWS) nextFrame(t *testing.T) Frame {
	t.Helper()
	select {
	case raw := <-f.frames:
		var fr Frame
		if err := json.Unmarshal(raw, &fr); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return fr
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func (f *fakeWS) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-f.closed:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for close")
	}
}

func attach(h *Hub, userID int64, username string) (*Connection, *fakeWS) {
	ws := newFakeWS()
	conn := NewConnection(userID, username, ws)
	h.Attach(conn)
	return conn, ws
}

func TestHubSnapshotSortedByUsername(t *testing.T) {
	h := NewHub()
	defer h.Close()

	attach(h, 1, "zoe")
	attach(h, 2, "alice")
	attach(h, 3, "bob")

	got := h.Snapshot()
	if len(got) != 3 {
		t.Fatalf("snapshot size = %d, want 3", len(got))
	}
	want := []string{"alice", "bob", "zoe"}
	for i, p := range got {
		if p.Username != want[i] {
			t.Fatalf("snapshot[%d] = %s, want %s", i, p.Username, want[i])
		}
	}
}

func TestHubBroadcastsPresenceOnAttach(t *testing.T) {
	h := NewHub()
	defer h.Close()

	_, ws1 := attach(h, 1, "bob")
	attach(h, 2, "alice")

	fr := ws1.nextFrame(t)
	if fr.Event != EventPresenceUpdate {
		t.Fatalf("event = %s, want %s", fr.Event, EventPresenceUpdate)
	}
	var p PeerInfo
	if err := json.Unmarshal(fr.Data, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.ID != 2 || p.Username != "alice" {
		t.Fatalf("payload = %+v", p)
	}
}

// TestHubReplacesDuplicateSession: a second socket for the same user closes
// the first and keeps the user online with no presence removal.
func TestHubReplacesDuplicateSession(t *testing.T) {
	h := NewHub()
	defer h.Close()

	old, oldWS := attach(h, 1, "bob")
	_, spectatorWS := attach(h, 2, "alice")
	replacement, _ := attach(h, 1, "bob")

	oldWS.waitClosed(t)

	// Detaching the replaced socket must not announce the user offline.
	h.Detach(old)
	if got := h.Snapshot(); len(got) != 2 {
		t.Fatalf("snapshot after stale detach = %v, want bob still online", got)
	}

	// The spectator saw bob re-announced, never removed.
	fr := spectatorWS.nextFrame(t)
	if fr.Event != EventPresenceUpdate {
		t.Fatalf("spectator saw %s, want %s", fr.Event, EventPresenceUpdate)
	}

	h.Detach(replacement)
	if got := h.Snapshot(); len(got) != 1 || got[0].Username != "alice" {
		t.Fatalf("snapshot after real detach = %v, want only alice", got)
	}
	fr = spectatorWS.nextFrame(t)
	if fr.Event != EventPresenceRemove {
		t.Fatalf("spectator saw %s, want %s", fr.Event, EventPresenceRemove)
	}
}

func TestHubSendToUser(t *testing.T) {
	h := NewHub()
	defer h.Close()

	_, ws := attach(h, 1, "bob")

	payload, err := EncodeFrame(EventMessage, map[string]string{"text": "hi"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !h.SendToUser(1, payload) {
		t.Fatal("delivery to an online user reported failure")
	}
	if fr := ws.nextFrame(t); fr.Event != EventMessage {
		t.Fatalf("event = %s, want %s", fr.Event, EventMessage)
	}

	if h.SendToUser(99, payload) {
		t.Fatal("delivery to an offline user reported success")
	}
}

func TestHubDetachRemovesFromSnapshot(t *testing.T) {
	h := NewHub()
	defer h.Close()

	conn, _ := attach(h, 1, "bob")
	h.Detach(conn)

	if got := h.Snapshot(); len(got) != 0 {
		t.Fatalf("snapshot after detach = %v, want empty", got)
	}
}
