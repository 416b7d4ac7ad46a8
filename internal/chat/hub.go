// Package chat carries the realtime half of the messaging feature: a
// websocket hub that pushes message-change events, and a conversation
// store that keeps a client-held conversation list consistent with them.
package chat

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// MessageEvent is the payload pushed to websocket clients when a message
// row is inserted. It carries identifiers only; clients re-fetch the fully
// joined message through the REST API.
type MessageEvent struct {
	Type           string `json:"type"` // "INSERT" or "UPDATE"
	ConversationID int64  `json:"conversationId"`
	MessageID      int64  `json:"messageId"`
}

// Hub fans MessageEvents out to all connected websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// Client is one registered websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan MessageEvent
	once sync.Once
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register wraps an upgraded connection and starts its pumps. The client is
// released when the peer disconnects or falls too far behind.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	c := &Client{
		hub:  h,
		conn: conn,
		send: make(chan MessageEvent, 16),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
	return c
}

// Broadcast sends the event to every connected client. Clients whose send
// buffer is full are dropped rather than blocking the sender.
func (h *Hub) Broadcast(ev MessageEvent) {
	h.mu.RLock()
	var slow []*Client
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		log.Printf("chat: dropping slow websocket client")
		c.Close()
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unregisters the client and closes the underlying connection.
// Safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() {
		c.hub.mu.Lock()
		delete(c.hub.clients, c)
		c.hub.mu.Unlock()

		close(c.send)
		c.conn.Close()
	})
}

// writePump serializes outgoing events onto the connection.
func (c *Client) writePump() {
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			c.Close()
			return
		}
	}
}

// readPump discards inbound frames; its job is to notice the peer closing
// the connection so the client can be released.
func (c *Client) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.Close()
			return
		}
	}
}
