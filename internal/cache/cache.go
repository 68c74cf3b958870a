package cache

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/skarger/chatmood/internal/domain"
)

// Bucketing thresholds. Exclusive and total: every score lands in exactly
// one of positive (> positiveThreshold), negative (< negativeThreshold),
// or neutral.
const (
	positiveThreshold = 0.1
	negativeThreshold = -0.1
)

// SentimentCache is a fixed-capacity FIFO ring of cache entries with a
// parallel ring of raw scores. When full, the oldest element is evicted
// before the newest is appended. Insertion order is preserved.
type SentimentCache struct {
	mu       sync.RWMutex
	clock    clockwork.Clock
	capacity int
	entries  []domain.CacheEntry
	scores   []float64
	start    int
	count    int
}

// New creates a cache holding at most capacity entries. Capacity must be
// positive; config validation guarantees this at startup.
func New(capacity int, clock clockwork.Clock) *SentimentCache {
	return &SentimentCache{
		clock:    clock,
		capacity: capacity,
		entries:  make([]domain.CacheEntry, capacity),
		scores:   make([]float64, capacity),
	}
}

// Record appends an entry and its score, evicting the oldest pair first when
// at capacity. This is the only mutating operation; both rings are updated
// under one critical section.
func (c *SentimentCache) Record(entry domain.CacheEntry, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.count == c.capacity {
		// Evict oldest: advance the ring start.
		c.entries[c.start] = entry
		c.scores[c.start] = score
		c.start = (c.start + 1) % c.capacity
		return
	}

	idx := (c.start + c.count) % c.capacity
	c.entries[idx] = entry
	c.scores[idx] = score
	c.count++
}

// Len returns the current number of cached entries.
func (c *SentimentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Recent returns up to limit entries, newest first.
func (c *SentimentCache) Recent(limit int) []domain.CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := min(limit, c.count)
	out := make([]domain.CacheEntry, 0, n)
	for i := 0; i < n; i++ {
		idx := (c.start + c.count - 1 - i + c.capacity) % c.capacity
		out = append(out, c.entries[idx])
	}
	return out
}

// Aggregate computes a snapshot over the most recent min(window, len) scores.
// An empty cache yields mean 0 and all-zero counts. Safe to call concurrently
// with Record and with itself.
func (c *SentimentCache) Aggregate(window int) (domain.AggregateSnapshot, error) {
	if window <= 0 {
		return domain.AggregateSnapshot{}, domain.ErrInvalidWindow
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	n := min(window, c.count)
	snapshot := domain.AggregateSnapshot{
		WindowSize:  n,
		GeneratedAt: c.clock.Now().UTC(),
	}

	if n == 0 {
		return snapshot, nil
	}

	var sum float64
	for i := 0; i < n; i++ {
		idx := (c.start + c.count - 1 - i + c.capacity) % c.capacity
		score := c.scores[idx]
		sum += score

		switch {
		case score > positiveThreshold:
			snapshot.Counts.Positive++
		case score < negativeThreshold:
			snapshot.Counts.Negative++
		default:
			snapshot.Counts.Neutral++
		}
	}
	snapshot.MeanScore = sum / float64(n)

	return snapshot, nil
}
