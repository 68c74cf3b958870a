package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skarger/chatmood/internal/domain"
)

// MessageRepo implements domain.MessageRepository backed by PostgreSQL.
// The pool is safe for concurrent use by the ingestion path and the
// read endpoints.
type MessageRepo struct {
	pool *pgxpool.Pool
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

// NewMessageRepo creates a MessageRepo from the shared connection pool.
func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// InsertMessage stores a chat message and returns its assigned id.
// IDs are bigserial, so they increase monotonically with insertion order.
func (r *MessageRepo) InsertMessage(ctx context.Context, user, channel, text string, capturedAt time.Time) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (captured_at, username, channel, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, capturedAt, user, channel, text).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert message: %w", err)
	}
	return id, nil
}

// InsertSentiment stores the score for an existing message. The foreign key
// rejects scores for message ids that were never stored.
func (r *MessageRepo) InsertSentiment(ctx context.Context, messageID int64, score float64, processedAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sentiments (message_id, score, processed_at)
		VALUES ($1, $2, $3)
	`, messageID, score, processedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sentiment: %w", err)
	}
	return nil
}

// RecentMessages returns up to limit messages, most recent first.
func (r *MessageRepo) RecentMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, captured_at, username, channel, text
		FROM messages
		ORDER BY id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.CapturedAt, &m.User, &m.Channel, &m.Text); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

// CountMessages returns the total number of stored messages.
func (r *MessageRepo) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// CountSentiments returns the total number of stored sentiment records.
func (r *MessageRepo) CountSentiments(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sentiments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sentiments: %w", err)
	}
	return count, nil
}
