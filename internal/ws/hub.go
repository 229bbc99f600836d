// Package ws is the realtime gateway: it binds authenticated websocket
// connections to user ids and fans outbound events to every connection a
// user has open.
package ws

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ariefcatur/go-food-delivery.git/internal/metrics"
)

// Hub maps user ids to their live connections. The map is hit by every
// connect, disconnect and publish, so reads take the shared lock and only
// (un)register takes the exclusive one. Nothing here is ever persisted.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*Conn]struct{}

	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewHub(m *metrics.Metrics, log *zap.Logger) *Hub {
	return &Hub{
		conns:   make(map[string]map[*Conn]struct{}),
		metrics: m,
		log:     log,
	}
}

func (h *Hub) register(userID string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*Conn]struct{})
		h.conns[userID] = set
	}
	set[c] = struct{}{}
	h.metrics.WSConnections.Inc()
}

func (h *Hub) unregister(userID string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		return
	}
	if _, bound := set[c]; !bound {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, userID)
	}
	close(c.send)
	h.metrics.WSConnections.Dec()
}

// Push sends the payload to all of the user's connections and reports how
// many were reached. Non-blocking: a connection with a full send buffer drops
// the event; the durable pending record covers it.
func (h *Hub) Push(userID string, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for c := range h.conns[userID] {
		select {
		case c.send <- payload:
			n++
		default:
			h.log.Debug("slow websocket, event dropped", zap.String("user_id", userID))
		}
	}
	return n
}

// Connections reports how many connections a user has bound.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}
