package notify

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"messenger/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxInboundSize = 512
	clientBuffer   = 16
)

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans events out to the websocket connections of the users involved.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	log     zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		log:     log,
	}
}

var _ Sink = (*Hub)(nil)

// Deliver writes evt to every connection of its sender and recipient.
// A connection whose buffer is full misses the event.
func (h *Hub) Deliver(evt domain.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	targets := []string{evt.RecipientID}
	if evt.SenderID != evt.RecipientID {
		targets = append(targets, evt.SenderID)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	dropped := 0
	for _, userID := range targets {
		for c := range h.clients[userID] {
			select {
			case c.send <- data:
			default:
				dropped++
			}
		}
	}
	if dropped > 0 {
		return fmt.Errorf("notify: %d slow connections skipped", dropped)
	}
	return nil
}

// Connected returns the number of open connections of userID.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Serve attaches conn to userID and blocks until the connection closes.
// Inbound frames are read only to process control messages.
func (h *Hub) Serve(conn *websocket.Conn, userID string) {
	c := &client{userID: userID, conn: conn, send: make(chan []byte, clientBuffer)}
	h.register(c)
	h.log.Debug().Str("user_id", userID).Int("connections", h.Connected(userID)).Msg("push client connected")

	go c.writePump()
	c.readPump()

	h.unregister(c)
	h.log.Debug().Str("user_id", userID).Int("connections", h.Connected(userID)).Msg("push client disconnected")
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
}

// unregister closes c.send under the write lock, so Deliver never sends on
// a closed channel.
func (h *Hub) unregister(c *client) {
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

func (c *client) readPump() {
	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
