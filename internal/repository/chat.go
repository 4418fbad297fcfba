package repository

import (
	"context"

	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatMessageRepository struct {
	pool *pgxpool.Pool
}

func NewChatMessageRepository(pool *pgxpool.Pool) *ChatMessageRepository {
	return &ChatMessageRepository{pool: pool}
}

func (r *ChatMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_messages (id, user_id, project_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.UserID, msg.ProjectID, msg.Role, msg.Content, msg.CreatedAt,
	)
	return err
}

// ListByProject returns the thread oldest first, the order a client renders it.
func (r *ChatMessageRepository) ListByProject(ctx context.Context, userID, projectID string) ([]*domain.ChatMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, project_id, role, content, created_at
		 FROM chat_messages
		 WHERE user_id = $1 AND project_id = $2
		 ORDER BY created_at ASC, id ASC`,
		userID, projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.UserID, &m.ProjectID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
