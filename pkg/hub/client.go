package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = (pongTimeout * 9) / 10
	readLimit    = 64 * 1024
)

// Subscriber is one websocket connection attached to a hub stream.
type Subscriber struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Subscribe attaches conn to the hub and serves it until the connection
// closes. Call it from the websocket handler; it blocks.
func (h *Hub) Subscribe(conn *websocket.Conn) {
	sub := &Subscriber{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.subscribe <- sub
	go sub.writeLoop()
	sub.readLoop()
}

// readLoop drains the connection. Subscribers never send application
// data; reading detects disconnects and feeds the pong handler.
func (s *Subscriber) readLoop() {
	defer func() {
		s.hub.unsubscribe <- s
		s.conn.Close()
	}()

	s.conn.SetReadLimit(readLimit)
	s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only goroutine that writes to the connection.
func (s *Subscriber) writeLoop() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				// Hub shut the stream down.
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
