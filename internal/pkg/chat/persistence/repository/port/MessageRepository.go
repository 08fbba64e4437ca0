package repository

import (
	"context"

	chat "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/application/domain"
)

// MessageRepository defines persistence operations for archived direct messages.
type MessageRepository interface {
	SaveMessage(ctx context.Context, m chat.DirectMessage) error
	// GetConversation returns the most recent messages between the two users,
	// oldest first.
	GetConversation(ctx context.Context, userA, userB int64, limit int) ([]chat.DirectMessage, error)
}
