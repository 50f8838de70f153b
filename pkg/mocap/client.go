package mocap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/inmotionlab/go-stagehand/internal/httpc"
)

const (
	handshakeTimeout = 10 * time.Second
	readTimeout      = 5 * time.Second
	pingInterval     = 15 * time.Second

	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// Client dials a mocap bridge over websocket and applies every frame
// it receives to the registry. It reconnects with backoff until its
// context is cancelled.
type Client struct {
	url      string
	registry *Registry
	log      *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	frames uint64
}

// NewClient creates a client for the given bridge websocket URL
// (e.g. ws://tracker.local:9871/ws/mocap).
func NewClient(url string, registry *Registry) *Client {
	return &Client{
		url:      url,
		registry: registry,
		log:      slog.Default().With("component", "mocap-client"),
	}
}

// Probe asks the bridge's HTTP describe endpoint for its identity and
// body list. Useful at startup to fail fast on a bad URL; the stream
// itself does not require it.
func (c *Client) Probe(ctx context.Context) (*DescribeData, error) {
	url := describeURL(c.url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBridgeUnreachable, err)
	}

	resp, err := httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBridgeUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: describe returned HTTP %d", ErrBridgeUnreachable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBridgeUnreachable, err)
	}

	var desc DescribeData
	if err := json.Unmarshal(body, &desc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return &desc, nil
}

// describeURL derives the HTTP describe endpoint from the ws URL:
// ws://host/ws/mocap → http://host/describe.
func describeURL(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil {
		return wsURL
	}
	switch u.Scheme {
	case "wss":
		u.Scheme = "https"
	default:
		u.Scheme = "http"
	}
	u.Path = "/describe"
	return u.String()
}

// Run connects and pumps frames until ctx is cancelled. Connection
// drops are logged and retried with exponential backoff; Run only
// returns the context error.
func (c *Client) Run(ctx context.Context) error {
	backoff := reconnectMin
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := c.connectAndPump(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.log.Warn("bridge connection lost, reconnecting",
			"url", c.url, "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > reconnectMax {
			backoff = reconnectMax
		}
	}
}

// Frames returns how many frames have been applied since start.
func (c *Client) Frames() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

func (c *Client) connectAndPump(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBridgeUnreachable, err)
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.log.Info("connected to mocap bridge", "url", c.url)

	// Close the socket when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	// Keepalive pings on the side; the bridge answers with pongs we
	// simply discard in the read loop.
	go c.pingLoop(ctx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("mocap: read: %w", err)
		}

		msg, err := ParseMessage(data)
		if err != nil {
			c.log.Warn("dropping malformed bridge message", "error", err)
			continue
		}

		switch msg.Type {
		case TypeFrame:
			var frame Frame
			if err := msg.ParseData(&frame); err != nil {
				c.log.Warn("dropping malformed frame", "error", err)
				continue
			}
			c.registry.Apply(frame)
			c.mu.Lock()
			c.frames++
			c.mu.Unlock()

		case TypeDescribe:
			var desc DescribeData
			if err := msg.ParseData(&desc); err == nil {
				c.log.Info("bridge described itself",
					"bridge", desc.Bridge, "rate", desc.Rate, "bodies", len(desc.Bodies))
			}

		case TypePong:
			// Keepalive answered.

		default:
			c.log.Debug("ignoring message", "type", msg.Type)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msg, err := NewMessage(TypePing, PingData{
				ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
				Timestamp: time.Now().UnixMilli(),
			})
			if err != nil {
				continue
			}
			data, err := msg.Bytes()
			if err != nil {
				continue
			}

			c.mu.Lock()
			err = conn.WriteMessage(websocket.TextMessage, data)
			c.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
