// Package realtime fans store events out to connected websocket clients.
//
// The channel has no backlog: a client only receives what is broadcast while
// it is connected and is expected to fetch current state over HTTP on
// connect. Slow clients are disconnected rather than allowed to block
// broadcasts.
package realtime

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/premiumrays/digital-goods-backend/internal/metrics"
)

// Message types exchanged with clients besides store events.
const (
	MessagePing = "ping"
	MessagePong = "pong"
)

// Message is the wire format of the realtime channel.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	once       sync.Once
	mu         sync.RWMutex
	log        *zap.Logger
}

// NewHub creates a hub; call Serve to start it.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Serve runs the hub until ctx is canceled, then closes every client.
func (h *Hub) Serve(ctx context.Context) error {
	defer h.once.Do(func() { close(h.done) })
	for {
		// lifecycle events first so a broadcast never races a registration
		select {
		case client := <-h.register:
			h.add(client)
			continue
		case client := <-h.unregister:
			h.remove(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			n := h.closeAll()
			h.log.Info("realtime hub stopped", zap.Int("clients_closed", n))
			return ctx.Err()
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) String() string { return "realtime-hub" }

// Broadcast queues msg for every connected client without blocking.
func (h *Hub) Broadcast(msg Message) bool {
	select {
	case h.broadcast <- msg:
		metrics.RealtimeBroadcasts.WithLabelValues(msg.Event, "queued").Inc()
		return true
	default:
		metrics.RealtimeBroadcasts.WithLabelValues(msg.Event, "dropped").Inc()
		h.log.Warn("broadcast channel full, dropping message", zap.String("event", msg.Event))
		return false
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register hands a client to the hub. It returns false once the hub stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; safe to call after the hub stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.RealtimeClients.Set(float64(n))
	h.log.Debug("realtime client connected", zap.Uint64("client", c.id), zap.Int("total_clients", n))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.RealtimeClients.Set(float64(n))
	h.log.Debug("realtime client disconnected", zap.Uint64("client", c.id), zap.Int("total_clients", n))
}

// fanOut delivers msg in client id order; a client whose buffer is full is
// dropped.
func (h *Hub) fanOut(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("realtime client too slow, disconnecting", zap.Uint64("client", c.id))
			close(c.send)
			delete(h.clients, c)
		}
	}
	metrics.RealtimeClients.Set(float64(len(h.clients)))
}

func (h *Hub) closeAll() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.clients)
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.RealtimeClients.Set(0)
	return n
}
