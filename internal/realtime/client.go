package realtime

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

var (
	clientIDCounter atomic.Uint64
	pongFrame       = []byte(`{"event":"` + MessagePong + `"}`)
)

// Client is the middleman between one websocket connection and the hub.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	// send is owned and closed by the hub.
	send chan Message
	// pong is owned by the client and never closed.
	pong chan struct{}
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
		pong: make(chan struct{}, 1),
	}
}

// readPump only answers pings; the channel is server to client otherwise.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("unexpected websocket close", zap.Uint64("client", c.id), zap.Error(err))
			}
			return
		}
		c.handleInbound(data)
	}
}

// handleInbound queues a pong for writePump. Pending pongs coalesce.
func (c *Client) handleInbound(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Event != MessagePing {
		return
	}
	select {
	case c.pong <- struct{}{}:
	default:
	}
}

func (c *Client) writePump() {
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
			body, err := json.Marshal(msg)
			if err != nil {
				c.hub.log.Error("marshal realtime message", zap.String("event", msg.Event), zap.Error(err))
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
				return
			}
		case <-c.pong:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, pongFrame); err != nil {
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

// Handler upgrades HTTP requests to websocket connections. allowedOrigins is
// a comma separated list; "*" or an empty list accepts any origin.
func (h *Hub) Handler(allowedOrigins string) http.Handler {
	origins := parseOrigins(allowedOrigins)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if origins == nil {
				return true
			}
			_, ok := origins[r.Header.Get("Origin")]
			return ok
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}
		client := newClient(h, conn)
		if !h.Register(client) {
			_ = conn.Close()
			return
		}
		go client.writePump()
		go client.readPump()
	})
}

func parseOrigins(list string) map[string]struct{} {
	list = strings.TrimSpace(list)
	if list == "" || list == "*" {
		return nil
	}
	out := map[string]struct{}{}
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out[o] = struct{}{}
		}
	}
	return out
}
