package domain

import (
	"context"
	"time"
)

// ChatEvent is a decoded (user, channel, text) triple from the IRC wire.
type ChatEvent struct {
	User    string
	Channel string
	Text    string
}

// ChatMessage is a persisted chat message. ID is assigned by the database
// and is monotonically increasing. Immutable once created.
type ChatMessage struct {
	ID         int64     `json:"id"`
	CapturedAt time.Time `json:"captured_at"`
	User       string    `json:"user"`
	Channel    string    `json:"channel"`
	Text       string    `json:"text"`
}

// SentimentRecord links a classification result to its message.
// Exactly one record exists per stored message; never mutated.
type SentimentRecord struct {
	MessageID   int64     `json:"message_id"`
	Score       float64   `json:"score"`
	ProcessedAt time.Time `json:"processed_at"`
}

// CacheEntry is the denormalized in-memory projection of a message and its
// score, held only for recent-window aggregation.
type CacheEntry struct {
	User      string    `json:"user"`
	Channel   string    `json:"channel"`
	Text      string    `json:"text"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// SentimentCounts buckets scores into positive (>0.1), negative (<-0.1)
// and neutral (everything between).
type SentimentCounts struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// AggregateSnapshot is the output of one aggregation pass over the cache.
// Ephemeral; recomputed per request or publisher tick, never persisted.
type AggregateSnapshot struct {
	WindowSize  int             `json:"window_size"`
	MeanScore   float64         `json:"mean_score"`
	Counts      SentimentCounts `json:"sentiment_distribution"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Classifier scores the polarity of a text. Implementations are loaded once
// at startup and must be safe for sequential reuse from the ingestion loop.
type Classifier interface {
	Classify(text string) (float64, error)
}

// MessageRepository is the durable store for messages and their scores.
type MessageRepository interface {
	InsertMessage(ctx context.Context, user, channel, text string, capturedAt time.Time) (int64, error)
	InsertSentiment(ctx context.Context, messageID int64, score float64, processedAt time.Time) error
	RecentMessages(ctx context.Context, limit int) ([]ChatMessage, error)
	CountMessages(ctx context.Context) (int64, error)
	CountSentiments(ctx context.Context) (int64, error)
}

// Aggregator computes a snapshot over the most recent window of scores.
type Aggregator interface {
	Aggregate(window int) (AggregateSnapshot, error)
}
