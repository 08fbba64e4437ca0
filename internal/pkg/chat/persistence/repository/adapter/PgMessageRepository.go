package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	chat "github.com/AlessioS-GithubAccount/karaoke-app-sub000/internal/pkg/chat/application/domain"
)

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) SaveMessage(ctx context.Context, m chat.DirectMessage) error {
	if r == nil || r.pool == nil {
		return errors.New("PgMessageRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, sender_id, sender_name, recipient_id, body, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, m.ID, m.SenderID, m.SenderName, m.RecipientID, m.Body, m.CreatedAt)
	return err
}

func (r *PgMessageRepository) GetConversation(ctx context.Context, userA, userB int64, limit int) ([]chat.DirectMessage, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgMessageRepository: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, sender_id, sender_name, recipient_id, body, created_at FROM (
			SELECT id, sender_id, sender_name, recipient_id, body, created_at
			FROM chat_messages
			WHERE (sender_id = $1 AND recipient_id = $2)
			   OR (sender_id = $2 AND recipient_id = $1)
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC
	`, userA, userB, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.DirectMessage
	for rows.Next() {
		var m chat.DirectMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.RecipientID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}
