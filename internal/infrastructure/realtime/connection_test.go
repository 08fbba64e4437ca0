package realtime

import (
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// TestConnectionSendCloseRace hammers Send against a concurrent Close. The
// hub delivers to connections outside its lock while Attach closes replaced
// sessions, so this interleaving happens in production; it must surface as an
// error from Send, never as a panic.
func TestConnectionSendCloseRace(t *testing.T) {
	for i := 0; i < 200; i++ {
		conn := NewConnection(1, "bob", newFakeWS())
		conn.Start()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = conn.Send([]byte("x"))
			}
		}()
		go func() {
			defer wg.Done()
			conn.Close(websocket.CloseNormalClosure, "bye")
		}()
		wg.Wait()

		if err := conn.Send([]byte("x")); err == nil {
			t.Fatal("Send on a closed connection returned nil")
		}
	}
}

func TestConnectionCloseIsIdempotent(t *testing.T) {
	ws := newFakeWS()
	conn := NewConnection(1, "bob", ws)
	conn.Start()

	conn.Close(websocket.CloseNormalClosure, "bye")
	conn.Close(websocket.CloseNormalClosure, "again")
	ws.waitClosed(t)
}

func TestConnectionSendBufferOverflowCloses(t *testing.T) {
	// No Start: nothing drains the channel, so the buffer fills up.
	conn := NewConnection(1, "bob", newFakeWS())

	var overflowed bool
	for i := 0; i < cap(conn.send)+1; i++ {
		if err := conn.Send([]byte("x")); err != nil {
			overflowed = true
			break
		}
	}
	if !overflowed {
		t.Fatal("filling the buffer never errored")
	}
	if err := conn.Send([]byte("x")); err == nil {
		t.Fatal("Send after overflow close returned nil")
	}
}
