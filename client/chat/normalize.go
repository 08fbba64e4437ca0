// Package chat implements the client side of direct messaging: inbound
// payload normalization, per-user thread persistence, and the DM router that
// ties them to the realtime connection.
package chat

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrMalformedMessage marks an inbound payload with no usable sender id.
var ErrMalformedMessage = errors.New("chat: malformed message payload")

// Message is the normalized client-side form of one direct message.
type Message struct {
	ID          string    `json:"id"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	Time        time.Time `json:"time"`
	SenderID    int64     `json:"senderId"`
	RecipientID int64     `json:"recipientId"`
}

// wireMessage accepts the field spellings seen on the wire across server
// versions. Pointer fields distinguish absent from zero.
type wireMessage struct {
	ID         string   `json:"id"`
	Author     string   `json:"author"`
	Text       string   `json:"text"`
	Time       flexTime `json:"time"`
	FromUserID *int64   `json:"fromUserId"`
	UserID     *int64   `json:"userId"`
	ToUserID   *int64   `json:"toUserId"`
	To         *int64   `json:"to"`
}

// flexTime decodes RFC 3339 strings, Unix-millisecond numbers, or null.
type flexTime struct {
	t time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			f.t = t
		}
		return nil
	}
	var ms int64
	if err := json.Unmarshal(b, &ms); err == nil {
		f.t = time.UnixMilli(ms)
	}
	return nil
}

// NormalizeMessage maps a raw inbound payload to a Message. Missing ids and
// timestamps are filled in locally; a payload with no sender id is rejected.
func NormalizeMessage(data json.RawMessage) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return Message{}, err
	}

	var sender int64
	switch {
	case w.FromUserID != nil:
		sender = *w.FromUserID
	case w.UserID != nil:
		sender = *w.UserID
	}
	if sender == 0 {
		return Message{}, ErrMalformedMessage
	}

	var recipient int64
	switch {
	case w.ToUserID != nil:
		recipient = *w.ToUserID
	case w.To != nil:
		recipient = *w.To
	}

	m := Message{
		ID:          w.ID,
		Author:      w.Author,
		Text:        w.Text,
		Time:        w.Time.t,
		SenderID:    sender,
		RecipientID: recipient,
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Time.IsZero() {
		m.Time = time.Now()
	}
	return m, nil
}
