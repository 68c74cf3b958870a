package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/skarger/chatmood/internal/domain"
	"github.com/skarger/chatmood/internal/metrics"
)

// errorPayload is what subscribers receive when a tick fails.
type errorPayload struct {
	Error string `json:"error"`
}

type subscriber struct {
	writer   *clientWriter
	done     chan struct{}
	stopOnce sync.Once
}

// Publisher pushes a fresh aggregate snapshot to every subscriber on a fixed
// cadence. Ticks that fail to compute or serialize yield an error payload and
// push the next tick out by the error backoff instead of killing the loop.
type Publisher struct {
	aggregator   domain.Aggregator
	clock        clockwork.Clock
	window       int
	tickInterval time.Duration
	errorBackoff time.Duration

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	stopped     bool
}

// NewPublisher creates a publisher. window is the aggregation window used on
// every tick; tickInterval and errorBackoff come from configuration.
func NewPublisher(aggregator domain.Aggregator, window int, tickInterval, errorBackoff time.Duration, clock clockwork.Clock) *Publisher {
	return &Publisher{
		aggregator:   aggregator,
		clock:        clock,
		window:       window,
		tickInterval: tickInterval,
		errorBackoff: errorBackoff,
		subscribers:  make(map[*subscriber]struct{}),
	}
}

// Subscribe registers a connection and starts its tick loop. The returned
// function stops the loop and releases the connection; it is safe to call
// more than once.
func (p *Publisher) Subscribe(conn *websocket.Conn) (func(), error) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil, fmt.Errorf("publisher is stopped")
	}
	sub := &subscriber{
		writer: newClientWriter(conn, p.clock),
		done:   make(chan struct{}),
	}
	p.subscribers[sub] = struct{}{}
	p.mu.Unlock()

	metrics.ConnectedSubscribers.Inc()
	slog.Info("Dashboard subscriber connected")

	go p.loop(sub)
	return func() { p.unsubscribe(sub) }, nil
}

// SubscriberCount returns the number of live subscriber loops.
func (p *Publisher) SubscriberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribers)
}

// Stop tears down all subscriber loops. New Subscribe calls fail afterwards.
func (p *Publisher) Stop() {
	p.mu.Lock()
	p.stopped = true
	subs := make([]*subscriber, 0, len(p.subscribers))
	for sub := range p.subscribers {
		subs = append(subs, sub)
	}
	p.mu.Unlock()

	for _, sub := range subs {
		p.unsubscribe(sub)
	}
}

func (p *Publisher) unsubscribe(sub *subscriber) {
	sub.stopOnce.Do(func() {
		close(sub.done)
		sub.writer.stop()

		p.mu.Lock()
		delete(p.subscribers, sub)
		p.mu.Unlock()

		metrics.ConnectedSubscribers.Dec()
		slog.Info("Dashboard subscriber disconnected")
	})
}

func (p *Publisher) loop(sub *subscriber) {
	ticker := p.clock.NewTicker(p.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sub.done:
			return
		case <-ticker.Chan():
			payload, ok := p.tickPayload()
			if !sub.writer.send(payload) {
				// Slow or dead client; drop it.
				p.unsubscribe(sub)
				return
			}
			if ok {
				metrics.SnapshotsPublished.Inc()
				ticker.Reset(p.tickInterval)
			} else {
				metrics.BroadcastErrors.Inc()
				ticker.Reset(p.errorBackoff)
			}
		}
	}
}

// tickPayload computes one snapshot. The bool reports success; on failure the
// payload is error-shaped and the caller backs off.
func (p *Publisher) tickPayload() ([]byte, bool) {
	snapshot, err := p.aggregator.Aggregate(p.window)
	if err == nil {
		data, marshalErr := json.Marshal(snapshot)
		if marshalErr == nil {
			return data, true
		}
		err = marshalErr
	}

	slog.Warn("Broadcast tick failed", "error", err)
	data, marshalErr := json.Marshal(errorPayload{Error: err.Error()})
	if marshalErr != nil {
		// Static shape, cannot happen; keep the loop alive regardless.
		data = []byte(`{"error":"internal error"}`)
	}
	return data, false
}
