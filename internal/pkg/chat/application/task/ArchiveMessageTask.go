package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	qport "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/infrastructure/queue/port"
	chat "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/application/domain"
	repoAdapter "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/persistence/repository/adapter"
)

// ArchiveMessageTaskType is the queue task name for persisting a delivered
// direct message. Delivery happens on the hot path; archival is async so a
// slow database never blocks the socket.
const ArchiveMessageTaskType = "chat:archive"

// ArchiveMessagePayload is the JSON payload transported via the queue.
type ArchiveMessagePayload struct {
	ID          string    `json:"id"`
	SenderID    int64     `json:"senderId"`
	SenderName  string    `json:"senderName"`
	RecipientID int64     `json:"recipientId"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}

// RegisterArchiveMessageTask binds the archival handler to the worker server.
// The insert is idempotent on message id, so retries are safe.
func RegisterArchiveMessageTask(srv qport.Server, pool *pgxpool.Pool) {
	srv.Register(ArchiveMessageTaskType, func(ctx context.Context, t qport.Task) error {
		var p ArchiveMessagePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: retrying will not help
			return err
		}

		repo := repoAdapter.NewPgMessageRepository(pool)

		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		return repo.SaveMessage(ctx, chat.DirectMessage{
			ID:          p.ID,
			SenderID:    p.SenderID,
			SenderName:  p.SenderName,
			RecipientID: p.RecipientID,
			Body:        p.Body,
			CreatedAt:   p.CreatedAt,
		})
	})
}
