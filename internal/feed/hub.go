package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fraudlens/ringview/internal/idgen"
	"github.com/fraudlens/ringview/internal/model"
)

const (
	// writeWait bounds a single frame write to a client.
	writeWait = 10 * time.Second
	// pongWait is how long a client may stay silent before it is dropped.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize caps inbound frames from consoles.
	maxMessageSize = 64 * 1024
	// clientBuffer is the per-client send queue; a console that falls this
	// far behind is disconnected rather than allowed to stall the hub.
	clientBuffer = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub fans envelopes out to every connected console.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	hub  *Hub
	id   string
	conn *websocket.Conn
	send chan []byte
}

// NewHub returns an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*hubClient]struct{}),
	}
}

// ClientCount returns the number of connected consoles.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues env for every connected console. Slow consumers are
// disconnected instead of blocking the caller.
func (h *Hub) Broadcast(env model.Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Warn("dropping unmarshalable broadcast", "topic", env.Type, "error", err)
		return
	}

	h.mu.RLock()
	var evict []*hubClient
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			evict = append(evict, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range evict {
		h.logger.Warn("disconnecting slow console", "client", c.id)
		h.remove(c)
	}
}

func (h *Hub) add(c *hubClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ServeConn upgrades the request and runs the client's pumps until the
// connection dies. Inbound envelopes are passed to onInbound in arrival
// order; malformed frames are logged and dropped.
func (h *Hub) ServeConn(w http.ResponseWriter, r *http.Request, onInbound func(model.Envelope)) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	id, err := idgen.NewConsoleID()
	if err != nil {
		id = "con-unidentified"
	}
	c := &hubClient{hub: h, id: id, conn: conn, send: make(chan []byte, clientBuffer)}
	h.add(c)
	h.logger.Info("console connected", "client", id, "remote", r.RemoteAddr)
	go c.writePump()
	c.readPump(onInbound)
	h.logger.Info("console disconnected", "client", id)
}

func (c *hubClient) readPump(onInbound func(model.Envelope)) {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env model.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.hub.logger.Warn("dropping malformed console frame", "error", err)
			continue
		}
		switch env.Type {
		case model.TopicPing:
			// Application-level heartbeat from the console.
			if pong, err := model.NewEnvelope(model.TopicPong, nil); err == nil {
				if data, err := json.Marshal(pong); err == nil {
					select {
					case c.send <- data:
					default:
					}
				}
			}
		case model.TopicPong:
			// Ignore.
		default:
			if onInbound != nil {
				onInbound(env)
			}
		}
	}
}

func (c *hubClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
