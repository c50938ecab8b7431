package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 512
	wsSendBuffer = 16
)

// AnalysisClient is one open socket. The connection supports only one
// concurrent writer, so every outbound frame goes through writePump:
// broadcasts land on the send channel and pings come from writePump's own
// ticker.
type AnalysisClient struct {
	hub    *AnalysisHub
	userID uint
	conn   *websocket.Conn
	send   chan []byte
}

// AnalysisHub pushes analysis events (risk scores landing, regenerated
// artifacts, chat replies) to a user's open sockets so the client can
// render partial aggregates without polling.
type AnalysisHub struct {
	mu      sync.RWMutex
	clients map[uint]map[*AnalysisClient]struct{}
}

func NewAnalysisHub() *AnalysisHub {
	return &AnalysisHub{clients: make(map[uint]map[*AnalysisClient]struct{})}
}

// ServeWS adopts an upgraded connection and pumps events to it until the
// peer goes away. Blocks for the life of the connection.
func (h *AnalysisHub) ServeWS(userID uint, conn *websocket.Conn) {
	c := &AnalysisClient{hub: h, userID: userID, conn: conn, send: make(chan []byte, wsSendBuffer)}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*AnalysisClient]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	c.readPump()
}

// Broadcast queues payload for every open socket of one user. A client whose
// buffer is full is dropped rather than allowed to stall the senders, which
// include risk-enrichment goroutines.
func (h *AnalysisHub) Broadcast(userID uint, payload any) {
	msg, err := json.Marshal(payload)
	if err != nil {
		return
	}

	var slow []*AnalysisClient
	h.mu.RLock()
	for c := range h.clients[userID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.remove(c)
	}
}

// remove detaches a client and closes its send channel exactly once, which
// ends writePump. Safe to call from multiple paths.
func (h *AnalysisHub) remove(c *AnalysisClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.userID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}

// readPump discards inbound frames (the socket is server-push only) and
// keeps the read deadline fresh off pong replies.
func (c *AnalysisClient) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(wsReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the connection's single writer.
func (c *AnalysisClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
