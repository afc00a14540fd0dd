package ws

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ClientObserver counts connected browsers.
type ClientObserver interface {
	ClientConnected()
	ClientDisconnected()
}

// Hub tracks browser connections and fans messages out to them.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	observer    ClientObserver
	logger      *zap.Logger
}

// NewHub builds an empty hub. observer may be nil.
func NewHub(observer ClientObserver, logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		observer:    observer,
		logger:      logger,
	}
}

// Add registers new connection.
func (h *Hub) Add(conn *Connection) {
	h.mu.Lock()
	h.connections[conn.ClientID()] = conn
	h.mu.Unlock()
	if h.observer != nil {
		h.observer.ClientConnected()
	}
}

// Remove forgets a connection.
func (h *Hub) Remove(clientID string) {
	h.mu.Lock()
	_, ok := h.connections[clientID]
	delete(h.connections, clientID)
	h.mu.Unlock()
	if ok && h.observer != nil {
		h.observer.ClientDisconnected()
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Broadcast sends a raw message to every client without blocking.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.connections {
		conn.Send(msg)
	}
}

// Publish encodes and broadcasts one envelope.
func (h *Hub) Publish(msgType string, data interface{}) {
	msg, err := Encode(msgType, data)
	if err != nil {
		h.logger.Error("encode broadcast", zap.String("type", msgType), zap.Error(err))
		return
	}
	h.Broadcast(msg)
}

// Run blocks until ctx is done and then closes every connection.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections))
	for _, c := range h.connections {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		c.Close()
	}
	return nil
}
