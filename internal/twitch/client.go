package twitch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/skarger/chatmood/internal/domain"
	"github.com/skarger/chatmood/internal/metrics"
	"golang.org/x/time/rate"
)

// DefaultServerURL is the public Twitch IRC websocket gateway.
const DefaultServerURL = "wss://irc-ws.chat.twitch.tv:443"

// Anonymous credential pair. Any justinfan nick is accepted read-only,
// no secret material required.
const (
	anonPassLine = "PASS oauth:justinfan12345"
	anonNickLine = "NICK justinfan12345"
	keepaliveAck = "PONG :tmi.twitch.tv"
)

// Twitch caps JOIN commands at 20 per 10 seconds.
const joinInterval = 500 * time.Millisecond

// State is the connection state machine position.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateJoiningChannels
	StateListening
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateJoiningChannels:
		return "joining_channels"
	case StateListening:
		return "listening"
	default:
		return "unknown"
	}
}

// Client holds one anonymous IRC connection for a set of channels and emits
// decoded chat events. The event sequence is unbounded and non-restartable:
// once the connection dies the channel closes and a new Client is needed.
type Client struct {
	serverURL   string
	channels    []string
	joinLimiter *rate.Limiter

	state  atomic.Int32
	events chan domain.ChatEvent

	mu        sync.Mutex
	conn      *websocket.Conn
	closeOnce sync.Once
}

// NewClient creates a client for the given channel set. Channel names are
// lower-cased before joining.
func NewClient(serverURL string, channels []string) *Client {
	normalized := make([]string, 0, len(channels))
	for _, ch := range channels {
		normalized = append(normalized, strings.ToLower(ch))
	}
	return &Client{
		serverURL:   serverURL,
		channels:    normalized,
		joinLimiter: rate.NewLimiter(rate.Every(joinInterval), 1),
		events:      make(chan domain.ChatEvent),
	}
}

// State returns the current state machine position.
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Events returns the chat event sequence. The channel closes when the
// connection terminates.
func (c *Client) Events() <-chan domain.ChatEvent {
	return c.events
}

// Connect dials the gateway, authenticates anonymously, and joins the
// configured channels. On success the client is in the Listening state and
// Listen may be started.
func (c *Client) Connect(ctx context.Context) error {
	c.setState(StateConnecting)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.serverURL, nil)
	if err != nil {
		c.setState(StateDisconnected)
		return fmt.Errorf("failed to dial %s: %w", c.serverURL, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.setState(StateAuthenticating)
	if err := c.writeLine(anonPassLine); err != nil {
		return c.failConnect("failed to send credentials", err)
	}
	if err := c.writeLine(anonNickLine); err != nil {
		return c.failConnect("failed to send nick", err)
	}

	c.setState(StateJoiningChannels)
	for _, ch := range c.channels {
		if err := c.joinLimiter.Wait(ctx); err != nil {
			return c.failConnect("join throttle interrupted", err)
		}
		if err := c.writeLine("JOIN #" + ch); err != nil {
			return c.failConnect("failed to join channel", err)
		}
		slog.Info("Joined channel", "channel", ch)
	}

	c.setState(StateListening)
	return nil
}

func (c *Client) failConnect(msg string, err error) error {
	c.setState(StateDisconnected)
	c.Close()
	return fmt.Errorf("%s: %w", msg, err)
}

// Listen reads inbound lines until the connection closes, answering
// keepalives and emitting chat posts. Malformed lines are dropped; they never
// terminate the loop. Blocks; run in its own goroutine. The events channel is
// closed on return.
func (c *Client) Listen(ctx context.Context) {
	defer func() {
		c.setState(StateDisconnected)
		c.Close()
		close(c.events)
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("Connection closed", "error", err)
			}
			return
		}

		// One websocket frame may batch several IRC lines.
		for _, raw := range strings.Split(string(payload), "\n") {
			if strings.TrimSpace(raw) == "" {
				continue
			}

			switch line := ParseLine(raw); line.Kind {
			case LineKeepalive:
				if err := c.writeLine(keepaliveAck); err != nil {
					slog.Warn("Failed to answer keepalive", "error", err)
					return
				}
				metrics.KeepalivesAnswered.Inc()
			case LineChatPost:
				select {
				case c.events <- line.Event:
				case <-ctx.Done():
					return
				}
			case LineUnrecognized:
				metrics.LinesDropped.Inc()
			}
		}
	}
}

// Close tears down the connection. Safe to call multiple times and from any
// goroutine; an in-flight Listen returns shortly after.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

func (c *Client) writeLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(line))
}
