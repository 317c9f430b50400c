// Package ws implements the realtime notification channel: a connection hub
// with device grouping and the websocket endpoint served through it.
package ws

import (
	"log"
	"sync"

	"growthai-backend/internal/metrics"
)

// Conn is one bidirectional realtime connection. The production
// implementation wraps a gorilla websocket; tests substitute fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Hub tracks live connections. It owns three mappings that stay mutually
// consistent under one mutex: the global connection set, the device-id
// grouping, and the reverse connection-to-device index. A device may hold
// many simultaneous connections (multi-tab clients).
type Hub struct {
	mu      sync.Mutex
	conns   map[Conn]struct{}
	devices map[string]map[Conn]struct{}
	owners  map[Conn]string
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		conns:   map[Conn]struct{}{},
		devices: map[string]map[Conn]struct{}{},
		owners:  map[Conn]string{},
	}
}

// Connect registers conn under deviceID.
func (h *Hub) Connect(conn Conn, deviceID string) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	group, ok := h.devices[deviceID]
	if !ok {
		group = map[Conn]struct{}{}
		h.devices[deviceID] = group
	}
	group[conn] = struct{}{}
	h.owners[conn] = deviceID
	total := len(h.conns)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	log.Printf("ws: new connection for device %s, total %d", deviceID, total)
}

// Disconnect removes conn from all three maps, pruning its device group once
// empty. Disconnecting an unknown connection is a no-op.
func (h *Hub) Disconnect(conn Conn) {
	h.mu.Lock()
	deviceID, known := h.owners[conn]
	if known {
		delete(h.conns, conn)
		delete(h.owners, conn)
		if group, ok := h.devices[deviceID]; ok {
			delete(group, conn)
			if len(group) == 0 {
				delete(h.devices, deviceID)
			}
		}
	}
	total := len(h.conns)
	h.mu.Unlock()

	if known {
		metrics.WSConnections.Set(float64(total))
		log.Printf("ws: connection closed for device %s, total %d", deviceID, total)
	}
}

// Broadcast delivers message to every registered connection. Connections
// whose send fails are disconnected as part of the same call; a dead
// connection is never retried.
func (h *Hub) Broadcast(message any) {
	metrics.Broadcasts.Inc()
	h.sendAll(h.snapshotAll(), message)
}

// SendPersonal delivers message to one connection, disconnecting it on
// failure.
func (h *Hub) SendPersonal(message any, conn Conn) {
	if err := conn.WriteJSON(message); err != nil {
		log.Printf("ws: personal send failed: %v", err)
		h.Disconnect(conn)
	}
}

// SendToDevice delivers message to every connection grouped under deviceID.
// Only failing connections are disconnected; the rest still receive it.
func (h *Hub) SendToDevice(deviceID string, message any) {
	h.sendAll(h.snapshotDevice(deviceID), message)
}

// DeviceConnections reports how many connections a device currently holds.
func (h *Hub) DeviceConnections(deviceID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.devices[deviceID])
}

// Len reports the size of the global connection set.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// snapshotAll copies the connection set so sends happen outside the lock;
// one slow client must not stall the others behind the mutex.
func (h *Hub) snapshotAll() []Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Conn, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

func (h *Hub) snapshotDevice(deviceID string) []Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.devices[deviceID]
	out := make([]Conn, 0, len(group))
	for c := range group {
		out = append(out, c)
	}
	return out
}

func (h *Hub) sendAll(conns []Conn, message any) {
	var dead []Conn
	for _, c := range conns {
		if err := c.WriteJSON(message); err != nil {
			log.Printf("ws: send failed: %v", err)
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		h.Disconnect(c)
	}
}
