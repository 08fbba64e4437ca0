package usecase

import (
	"context"
	"fmt"

	chat "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/application/domain"
	repository "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/persistence/repository/port"
)

// GetHistoryInput identifies the conversation to load, from the perspective
// of the requesting user.
type GetHistoryInput struct {
	UserID int64
	PeerID int64
	Limit  int
}

// GetHistoryUseCase loads the archived tail of a 1:1 conversation.
type GetHistoryUseCase struct {
	Repo repository.MessageRepository
}

func NewGetHistoryUseCase(repo repository.MessageRepository) *GetHistoryUseCase {
	return &GetHistoryUseCase{Repo: repo}
}

func (uc *GetHistoryUseCase) Execute(ctx context.Context, in GetHistoryInput) ([]chat.DirectMessage, error) {
	if in.UserID == 0 || in.PeerID == 0 {
		return nil, fmt.Errorf("user_id and peer_id are required")
	}
	msgs, err := uc.Repo.GetConversation(ctx, in.UserID, in.PeerID, in.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
