package mocap

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Feed accepts inbound websocket connections from mocap bridges that
// push frames to us (the inverse of Client, for bridges behind NAT or
// configured in push mode). Multiple bridges may connect; all frames
// land in the same registry.
type Feed struct {
	registry *Registry
	log      *slog.Logger

	mu      sync.RWMutex
	bridges map[string]*bridgeConn

	messagesReceived atomic.Uint64
	framesReceived   atomic.Uint64
}

type bridgeConn struct {
	id        string
	conn      *websocket.Conn
	connected time.Time
	lastSeen  time.Time

	mu sync.Mutex // guards writes to conn
}

func (b *bridgeConn) send(msg *Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

// NewFeed creates an inbound feed writing into registry.
func NewFeed(registry *Registry) *Feed {
	return &Feed{
		registry: registry,
		bridges:  make(map[string]*bridgeConn),
		log:      slog.Default().With("component", "mocap-feed"),
	}
}

// RegisterRoutes mounts the feed endpoint on a fiber app. The caller
// is expected to have installed a websocket upgrade middleware for
// the /ws prefix already.
func (f *Feed) RegisterRoutes(app fiber.Router) {
	app.Get("/ws/mocap", websocket.New(f.handleBridge))
}

// BridgeCount returns the number of connected bridges.
func (f *Feed) BridgeCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.bridges)
}

// Frames returns how many frames have been applied since start.
func (f *Feed) Frames() uint64 {
	return f.framesReceived.Load()
}

func (f *Feed) handleBridge(c *websocket.Conn) {
	bridge := &bridgeConn{
		id:        uuid.NewString()[:8],
		conn:      c,
		connected: time.Now(),
		lastSeen:  time.Now(),
	}

	f.mu.Lock()
	f.bridges[bridge.id] = bridge
	count := len(f.bridges)
	f.mu.Unlock()

	f.log.Info("bridge connected", "bridge", bridge.id, "total", count)

	defer func() {
		f.mu.Lock()
		delete(f.bridges, bridge.id)
		remaining := len(f.bridges)
		f.mu.Unlock()
		f.log.Info("bridge disconnected", "bridge", bridge.id, "remaining", remaining)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		f.messagesReceived.Add(1)
		bridge.lastSeen = time.Now()

		msg, err := ParseMessage(data)
		if err != nil {
			f.log.Warn("dropping malformed bridge message", "bridge", bridge.id, "error", err)
			continue
		}

		switch msg.Type {
		case TypeFrame:
			var frame Frame
			if err := msg.ParseData(&frame); err != nil {
				f.log.Warn("dropping malformed frame", "bridge", bridge.id, "error", err)
				continue
			}
			f.registry.Apply(frame)
			f.framesReceived.Add(1)

		case TypeDescribe:
			var desc DescribeData
			if err := msg.ParseData(&desc); err == nil {
				f.log.Info("bridge described itself",
					"bridge", bridge.id, "name", desc.Bridge, "rate", desc.Rate, "bodies", len(desc.Bodies))
			}

		case TypePing:
			var ping PingData
			if err := msg.ParseData(&ping); err != nil {
				continue
			}
			now := time.Now().UnixMilli()
			pong, err := NewMessage(TypePong, PongData{
				ID:        ping.ID,
				PingTS:    ping.Timestamp,
				PongTS:    now,
				LatencyMs: now - ping.Timestamp,
			})
			if err == nil {
				_ = bridge.send(pong)
			}

		default:
			f.log.Debug("ignoring message", "bridge", bridge.id, "type", msg.Type)
		}
	}
}
