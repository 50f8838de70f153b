package mocap

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/inmotionlab/go-stagehand/pkg/space"
)

// MessageType identifies the type of a bridge websocket message.
type MessageType string

const (
	// Bridge → service messages
	TypeFrame    MessageType = "frame"    // One solved mocap frame
	TypeDescribe MessageType = "describe" // Bridge capabilities and body list

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the envelope for all bridge websocket messages.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("mocap: marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct.
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// Bytes returns the JSON-encoded message.
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON envelope from bytes.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	return &msg, nil
}

// =============================================================================
// Bridge → service payloads
// =============================================================================

// Frame carries one solved mocap frame.
type Frame struct {
	Number uint64     `json:"frame"`
	Bodies []BodyPose `json:"bodies"`
}

// BodyPose is one rigid body within a frame.
type BodyPose struct {
	Name     string     `json:"name"`
	Tracked  bool       `json:"tracked"`
	Position [3]float64 `json:"pos"` // x, y, z in meters
	Rotation [4]float64 `json:"rot"` // w, x, y, z
}

// Vec3 converts the wire position to a space.Vec3.
func (p BodyPose) Vec3() space.Vec3 {
	return space.Vec3{X: p.Position[0], Y: p.Position[1], Z: p.Position[2]}
}

// Quat converts the wire rotation to a space.Quat. An all-zero wire
// rotation (bridge without orientation data) becomes the identity.
func (p BodyPose) Quat() space.Quat {
	q := space.Quat{W: p.Rotation[0], X: p.Rotation[1], Y: p.Rotation[2], Z: p.Rotation[3]}
	if q.IsZero() {
		return space.Identity()
	}
	return q
}

// DescribeData reports bridge identity and the configured body list.
type DescribeData struct {
	Bridge string   `json:"bridge"` // e.g. "natnet-bridge"
	Rate   float64  `json:"rate"`   // Frames per second the bridge publishes
	Bodies []string `json:"bodies"`
}

// =============================================================================
// Bidirectional payloads
// =============================================================================

// PingData contains ping information.
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains the pong response.
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
