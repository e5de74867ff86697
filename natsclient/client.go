// Package natsclient manages the NATS connection used for durable record
// storage. It wraps connection setup and JetStream key-value bucket
// provisioning behind a small client.
package natsclient

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Client wraps a NATS connection with JetStream KV helpers
type Client struct {
	url    string
	logger *slog.Logger

	mu   sync.RWMutex
	conn *nats.Conn

	maxReconnects int
	reconnectWait time.Duration
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMaxReconnects sets the reconnection attempt limit (-1 for unlimited)
func WithMaxReconnects(n int) ClientOption {
	return func(c *Client) {
		c.maxReconnects = n
	}
}

// NewClient creates a client for the given NATS URL. The connection is
// established by Connect, not here.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:           url,
		logger:        slog.Default().With("component", "natsclient"),
		maxReconnects: -1,
		reconnectWait: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes the NATS connection
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && c.conn.IsConnected() {
		return nil
	}

	conn, err := nats.Connect(c.url,
		nats.MaxReconnects(c.maxReconnects),
		nats.ReconnectWait(c.reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			c.logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			c.logger.Info("NATS reconnected", "url", conn.ConnectedUrl())
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", c.url, err)
	}

	c.conn = conn
	c.logger.Info("NATS connected", "url", conn.ConnectedUrl())
	return nil
}

// Close drains and closes the connection
func (c *Client) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	if err := c.conn.Drain(); err != nil {
		c.conn.Close()
		return fmt.Errorf("drain connection: %w", err)
	}
	c.conn = nil
	return nil
}

// IsConnected reports connection health
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && c.conn.IsConnected()
}

// KeyValueBucket returns the named KV bucket, creating it when absent
func (c *Client) KeyValueBucket(ctx context.Context, name string) (jetstream.KeyValue, error) {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return nil, fmt.Errorf("kv bucket %s: not connected", name)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "empower-core durable records",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("kv bucket %s: %w", name, err)
	}
	return bucket, nil
}
