package chat

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyMessage     = errors.New("chat: empty message body")
	ErrUnknownRecipient = errors.New("chat: recipient is required")
)

// DirectMessage is one immutable entry in a 1:1 conversation. The server
// assigns the id so clients never have to fall back to generated ones.
type DirectMessage struct {
	ID          string    `db:"id"`
	SenderID    int64     `db:"sender_id"`
	SenderName  string    `db:"sender_name"`
	RecipientID int64     `db:"recipient_id"`
	Body        string    `db:"body"`
	CreatedAt   time.Time `db:"created_at"`
}

// NewDirectMessage validates and normalizes an outgoing message.
func NewDirectMessage(senderID int64, senderName string, recipientID int64, body string) (*DirectMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if recipientID == 0 {
		return nil, ErrUnknownRecipient
	}
	return &DirectMessage{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		SenderName:  senderName,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
