package broadcast

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/skarger/chatmood/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAggregator returns a fixed snapshot, or an error when told to fail.
type mockAggregator struct {
	mu   sync.Mutex
	snap domain.AggregateSnapshot
	err  error
}

func (m *mockAggregator) Aggregate(window int) (domain.AggregateSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.AggregateSnapshot{}, m.err
	}
	snap := m.snap
	snap.WindowSize = window
	return snap, nil
}

func (m *mockAggregator) setError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// testPublisher wires a publisher to a websocket test server and returns a
// dialer for client connections.
func testPublisher(t *testing.T, agg domain.Aggregator, tick, backoff time.Duration) (*Publisher, func() *websocket.Conn) {
	t.Helper()

	publisher := NewPublisher(agg, 50, tick, backoff, clockwork.NewRealClock())
	t.Cleanup(publisher.Stop)

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)

		unsubscribe, err := publisher.Subscribe(conn)
		if err != nil {
			conn.Close()
			return
		}

		go func() {
			defer unsubscribe()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}))
	t.Cleanup(server.Close)

	dial := func() *websocket.Conn {
		t.Helper()
		url := "ws" + strings.TrimPrefix(server.URL, "http")
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	return publisher, dial
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	return decoded
}

func waitForSubscriberCount(p *Publisher, expected int) bool {
	for range 100 {
		if p.SubscriberCount() == expected {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func TestPublisher_DeliversSnapshotsOnTick(t *testing.T) {
	agg := &mockAggregator{snap: domain.AggregateSnapshot{MeanScore: 0.5}}
	_, dial := testPublisher(t, agg, 20*time.Millisecond, 200*time.Millisecond)

	conn := dial()

	msg := readJSON(t, conn)
	assert.Equal(t, 0.5, msg["mean_score"])
	assert.Equal(t, float64(50), msg["window_size"])
	assert.NotContains(t, msg, "error")

	// Ticks keep coming.
	msg = readJSON(t, conn)
	assert.Equal(t, 0.5, msg["mean_score"])
}

func TestPublisher_ErrorTickYieldsErrorPayloadAndContinues(t *testing.T) {
	agg := &mockAggregator{snap: domain.AggregateSnapshot{MeanScore: 1}}
	agg.setError(errors.New("aggregate exploded"))
	_, dial := testPublisher(t, agg, 20*time.Millisecond, 60*time.Millisecond)

	conn := dial()

	msg := readJSON(t, conn)
	assert.Equal(t, "aggregate exploded", msg["error"])

	// After the backoff the loop recovers and delivers snapshots again.
	agg.setError(nil)
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "loop never recovered from error tick")
		msg = readJSON(t, conn)
		if _, failed := msg["error"]; !failed {
			assert.Equal(t, float64(1), msg["mean_score"])
			break
		}
	}
}

func TestPublisher_DisconnectStopsOnlyThatLoop(t *testing.T) {
	agg := &mockAggregator{}
	publisher, dial := testPublisher(t, agg, 20*time.Millisecond, 200*time.Millisecond)

	first := dial()
	second := dial()
	require.True(t, waitForSubscriberCount(publisher, 2))

	require.NoError(t, first.Close())
	require.True(t, waitForSubscriberCount(publisher, 1))

	// The surviving subscriber keeps receiving ticks.
	msg := readJSON(t, second)
	assert.NotNil(t, msg)
}

func TestPublisher_StopClosesAllSubscribers(t *testing.T) {
	agg := &mockAggregator{}
	publisher, dial := testPublisher(t, agg, 20*time.Millisecond, 200*time.Millisecond)

	conn := dial()
	require.True(t, waitForSubscriberCount(publisher, 1))

	publisher.Stop()
	assert.Equal(t, 0, publisher.SubscriberCount())

	// The client side observes the close.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	_, err := publisher.Subscribe(conn)
	assert.Error(t, err)
}
