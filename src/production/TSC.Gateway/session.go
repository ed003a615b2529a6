package tscgateway

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// controlMessage is what a viewer sends to manage its group membership:
//
//	{"type": "join", "hub_mac": "AA:BB:CC:DD:EE:01"}
//	{"type": "leave", "hub_mac": "AA:BB:CC:DD:EE:01"}
type controlMessage struct {
	Type   string `json:"type"`
	HubMAC string `json:"hub_mac"`
}

// Session is one connected viewer. It receives only events for the hubs it
// has joined.
type Session struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	joined map[string]struct{} // guarded by hub.mu
}

func newSession(h *Hub, conn *websocket.Conn) *Session {
	return &Session{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.sendBuffer),
		joined: make(map[string]struct{}),
	}
}

// readPump consumes join/leave control messages until the connection closes.
// Anything unparseable is ignored; a bad client cannot affect other sessions.
func (s *Session) readPump() {
	defer func() {
		s.hub.removeSession(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "join":
			s.hub.join(s, msg.HubMAC)
		case "leave":
			s.hub.leave(s, msg.HubMAC)
		}
	}
}

// writePump pushes broadcast events and keepalive pings to the viewer.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
