package broadcastsvc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/trezcool/darasa/core"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // origin is enforced by the API's CORS layer
}

// envelope is the wire format pushed to subscribers.
type envelope struct {
	Channel string      `json:"channel"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

type client struct {
	hub     *Hub
	channel string
	conn    *websocket.Conn
	send    chan []byte
}

// Hub fans published events out to websocket subscribers grouped by channel
// (a session or group ID). Subscribers with a full send buffer are dropped
// rather than blocking the publisher.
type Hub struct {
	logger core.Logger

	mu       sync.RWMutex
	channels map[string]map[*client]struct{}
}

var _ core.Broadcaster = (*Hub)(nil)

func NewHub(logger core.Logger) *Hub {
	return &Hub{
		logger:   logger,
		channels: make(map[string]map[*client]struct{}),
	}
}

func (h *Hub) Publish(channel, event string, payload interface{}) {
	data, err := json.Marshal(envelope{Channel: channel, Event: event, Payload: payload})
	if err != nil {
		h.logger.Error(fmt.Sprintf("broadcast: marshaling %s event: %v", event, err), err)
		return
	}

	h.mu.RLock()
	subs := make([]*client, 0, len(h.channels[channel]))
	for c := range h.channels[channel] {
		subs = append(subs, c)
	}
	h.mu.RUnlock()

	for _, c := range subs {
		select {
		case c.send <- data:
		default:
			h.unregister(c)
		}
	}
}

// Subscribe upgrades the request to a websocket and attaches it to channel
// until the peer disconnects.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, channel string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{hub: h, channel: channel, conn: conn, send: make(chan []byte, 16)}

	h.mu.Lock()
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*client]struct{})
	}
	h.channels[channel][c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
	return nil
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if subs, ok := h.channels[c.channel]; ok {
		if _, ok := subs[c]; ok {
			delete(subs, c)
			close(c.send)
			if len(subs) == 0 {
				delete(h.channels, c.channel)
			}
		}
	}
	h.mu.Unlock()
}

// readPump drains inbound frames to service control messages; client-to-server
// payloads go through the HTTP API, not the socket.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
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
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
