package realtime

import "encoding/json"

// Wire event names. The server emits exactly one name per logical event; the
// legacy "users:*" spellings are accepted by older clients but never sent.
const (
	EventPresenceGet    = "presence:get"
	EventPresenceList   = "presence:list"
	EventPresenceUpdate = "presence:update"
	EventPresenceRemove = "presence:remove"

	EventDMOpen    = "chat:dm:open"
	EventSend      = "chat:send"
	EventDMHistory = "chat:dm:history"
	EventMessage   = "chat:message"
)

// Frame is the envelope for every websocket payload in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EncodeFrame marshals an event and its payload into a wire frame.
func EncodeFrame(event string, v any) ([]byte, error) {
	var data json.RawMessage
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		data = b
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

// PeerInfo is the presence payload for one online user.
type PeerInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
