// Package feed ingests measurements from a WebSocket feed into storage.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"strategy-perf-lab/internal/domain"
)

// Handler consumes one decoded measurement. A non-nil error counts the
// message as dropped but does not stop the client.
type Handler func(m *domain.Measurement) error

// Config configures WebSocket client behavior.
type Config struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultConfig returns default WebSocket configuration.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// measurementMessage is the wire format of one feed message.
type measurementMessage struct {
	ExperimentID string  `json:"experiment_id"`
	VariantID    string  `json:"variant_id"`
	Kind         string  `json:"kind"`
	Value        float64 `json:"value"`
	RecordedAt   int64   `json:"recorded_at"`
}

// Client reads measurement messages from a WebSocket endpoint and hands
// them to a Handler. It reconnects with exponential backoff on read
// errors.
type Client struct {
	endpoint string
	config   Config
	handler  Handler

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	reconnects atomic.Int64

	done chan struct{}
	wg   sync.WaitGroup

	reconnecting atomic.Bool
}

// NewClient creates a feed client and connects to the endpoint.
func NewClient(ctx context.Context, endpoint string, config *Config, handler Handler) (*Client, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}

	c := &Client{
		endpoint: endpoint,
		config:   cfg,
		handler:  handler,
		done:     make(chan struct{}),
	}

	if err := c.connect(ctx); err != nil {
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()

	c.wg.Add(1)
	go c.pingLoop()

	return c, nil
}

// Reconnects reports how many times the client has reconnected.
func (c *Client) Reconnects() int64 {
	return c.reconnects.Load()
}

// connect establishes the WebSocket connection.
func (c *Client) connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	c.conn = conn
	return nil
}

// Close closes the WebSocket connection and stops the loops.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	c.connMu.Unlock()

	c.wg.Wait()
	return nil
}

// readLoop reads messages and dispatches them to the handler.
func (c *Client) readLoop() {
	defer c.wg.Done()

	reconnectDelay := c.config.ReconnectDelay

	for !c.closed.Load() {
		c.connMu.Lock()
		conn := c.conn
		c.connMu.Unlock()

		if conn == nil {
			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return
			}

			// Connection error - attempt reconnect with exponential backoff
			if !c.reconnecting.Swap(true) {
				go c.reconnect(reconnectDelay)
			}

			reconnectDelay = reconnectDelay * 2
			if reconnectDelay > c.config.MaxReconnectDelay {
				reconnectDelay = c.config.MaxReconnectDelay
			}

			select {
			case <-c.done:
				return
			case <-time.After(100 * time.Millisecond):
				continue
			}
		}

		// Reset delay on successful read
		reconnectDelay = c.config.ReconnectDelay

		c.handleMessage(message)
	}
}

// reconnect attempts to reconnect after a read failure.
func (c *Client) reconnect(delay time.Duration) {
	defer c.reconnecting.Store(false)

	if c.closed.Load() {
		return
	}

	select {
	case <-c.done:
		return
	case <-time.After(delay):
	}

	c.connMu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.connect(ctx); err != nil {
		// Reconnect failed, will retry on next read error
		return
	}

	c.reconnects.Add(1)
}

// handleMessage decodes one feed message and hands it to the handler.
// Malformed messages and messages missing required fields are dropped.
func (c *Client) handleMessage(message []byte) {
	var msg measurementMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("[feed] malformed message: %v", err)
		return
	}
	if msg.ExperimentID == "" || msg.VariantID == "" || msg.Kind == "" {
		log.Printf("[feed] message missing identity fields, dropped")
		return
	}
	if msg.RecordedAt == 0 {
		msg.RecordedAt = time.Now().UnixMilli()
	}

	m := &domain.Measurement{
		ExperimentID: msg.ExperimentID,
		VariantID:    msg.VariantID,
		Kind:         msg.Kind,
		Value:        msg.Value,
		RecordedAt:   msg.RecordedAt,
	}

	if err := c.handler(m); err != nil {
		log.Printf("[feed] handler rejected measurement: %v", err)
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (c *Client) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.connMu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Connection might be dead, reader will handle reconnect
				}
			}
			c.connMu.Unlock()
		}
	}
}
