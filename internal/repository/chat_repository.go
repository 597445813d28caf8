package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mariamm-maher/graduation-project-BE/internal/model"
)

// ChatRepo is the persistence collaborator the realtime gateway needs:
// fetch a chat to authorize membership and record a message. Listing,
// pagination and read-state live with the chat endpoints, outside this
// core.
type ChatRepo struct{ DB *sql.DB }

func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{DB: db} }

// GetChat fetches a chat by id. Returns ErrNotFound when it does not exist.
func (r *ChatRepo) GetChat(ctx context.Context, chatID uint64) (model.Chat, error) {
	var (
		c    model.Chat
		last sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, other_user_id, last_message_at FROM chats WHERE id=? LIMIT 1",
		chatID).Scan(&c.ID, &c.UserID, &c.OtherUserID, &last)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Chat{}, ErrNotFound
		}
		return model.Chat{}, err
	}
	if last.Valid {
		t := last.Time
		c.LastMessageAt = &t
	}
	return c, nil
}

// SaveMessage inserts a message and bumps the chat's last_message_at.
func (r *ChatRepo) SaveMessage(ctx context.Context, chatID, senderID uint64, content string) (model.Message, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO messages (chat_id, sender_id, content, created_at) VALUES (?,?,?,?)",
		chatID, senderID, content, now)
	if err != nil {
		return model.Message{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Message{}, err
	}
	_, _ = r.DB.ExecContext(ctx,
		"UPDATE chats SET last_message_at=? WHERE id=?", now, chatID)
	return model.Message{
		ID:        uint64(id),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: now,
	}, nil
}
