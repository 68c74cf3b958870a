package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/skarger/chatmood/internal/cache"
	"github.com/skarger/chatmood/internal/domain"
	"github.com/skarger/chatmood/internal/metrics"
	"github.com/sony/gobreaker"
)

const (
	breakerFailureThreshold = 5
	breakerOpenDuration     = 30 * time.Second
)

// Pipeline consumes decoded chat events and runs the classify → persist →
// cache-record sequence for each. Single consumer; messages from one
// connection are processed strictly in order.
type Pipeline struct {
	classifier domain.Classifier
	repo       domain.MessageRepository
	cache      *cache.SentimentCache
	clock      clockwork.Clock
	breaker    *gobreaker.CircuitBreaker
}

// New creates a pipeline. Database writes run behind a circuit breaker so a
// degraded database cannot stall ingestion; while the breaker is open, writes
// fail fast and are counted as persistence failures.
func New(classifier domain.Classifier, repo domain.MessageRepository, sentimentCache *cache.SentimentCache, clock clockwork.Clock) *Pipeline {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "postgres",
		Timeout: breakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Persistence circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.Set(breakerStateValue(to))
		},
	})

	return &Pipeline{
		classifier: classifier,
		repo:       repo,
		cache:      sentimentCache,
		clock:      clock,
		breaker:    breaker,
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// Run processes events until the channel closes or ctx is cancelled.
// Blocks; run in its own goroutine.
func (p *Pipeline) Run(ctx context.Context, events <-chan domain.ChatEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				slog.Info("Event sequence terminated, pipeline stopping")
				return
			}
			p.Process(ctx, event)
		}
	}
}

// Process runs one message through the full sequence. Never returns an
// error: every per-message failure is logged, counted, and contained.
func (p *Pipeline) Process(ctx context.Context, event domain.ChatEvent) {
	capturedAt := p.clock.Now().UTC()

	score, classifyErr := p.classifier.Classify(event.Text)
	if classifyErr != nil {
		slog.Warn("Classification failed", "user", event.User, "channel", event.Channel, "error", classifyErr)
		metrics.ClassificationFailures.Inc()
	}

	// Persist the message even when classification failed; the durable log
	// records everything we saw.
	messageID, persisted := p.persistMessage(ctx, event, capturedAt)

	if classifyErr == nil && persisted {
		p.persistSentiment(ctx, messageID, score)
	}

	// The cache update is independent of persistence success: the dashboard
	// keeps working while durable storage is degraded.
	if classifyErr == nil {
		p.cache.Record(domain.CacheEntry{
			User:      event.User,
			Channel:   event.Channel,
			Text:      event.Text,
			Score:     score,
			Timestamp: capturedAt,
		}, score)
		metrics.MessagesIngested.Inc()
	}
}

func (p *Pipeline) persistMessage(ctx context.Context, event domain.ChatEvent, capturedAt time.Time) (int64, bool) {
	result, err := p.breaker.Execute(func() (any, error) {
		return p.repo.InsertMessage(ctx, event.User, event.Channel, event.Text, capturedAt)
	})
	if err != nil {
		slog.Error("Failed to persist message", "user", event.User, "channel", event.Channel, "error", err)
		metrics.PersistenceFailures.WithLabelValues("insert_message").Inc()
		return 0, false
	}
	return result.(int64), true
}

func (p *Pipeline) persistSentiment(ctx context.Context, messageID int64, score float64) {
	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.repo.InsertSentiment(ctx, messageID, score, p.clock.Now().UTC())
	})
	if err != nil {
		slog.Error("Failed to persist sentiment", "message_id", messageID, "error", err)
		metrics.PersistenceFailures.WithLabelValues("insert_sentiment").Inc()
	}
}
