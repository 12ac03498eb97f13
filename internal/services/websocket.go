package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"notification-orchestrator/internal/logging"
)

const (
	maxConnections = 256
	sendBuffer     = 16
	writeWait      = 10 * time.Second
)

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// WebSocketManager tracks feed subscribers and fans published feeds out to them.
// Each client has its own buffered queue drained by a writer goroutine, so a
// slow subscriber never blocks publishers; one whose queue fills up is dropped.
type WebSocketManager struct {
	clients map[string]*wsClient // client ID -> client
	mutex   sync.Mutex
	logger  *logging.Logger
	metrics *Metrics
}

func newWebSocketManager(logger *logging.Logger, metrics *Metrics) *WebSocketManager {
	return &WebSocketManager{
		clients: make(map[string]*wsClient),
		logger:  logger,
		metrics: metrics,
	}
}

// AddConnection registers conn with initial queued as its first message, and
// returns its client ID, or "" when full.
func (m *WebSocketManager) AddConnection(conn *websocket.Conn, initial []byte) string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if len(m.clients) >= maxConnections {
		m.logger.Warnf("Max websocket connections reached (%d)", maxConnections)
		return ""
	}
	id := uuid.NewString()
	c := &wsClient{conn: conn, send: make(chan []byte, sendBuffer)}
	if initial != nil {
		c.send <- initial
	}
	m.clients[id] = c
	m.metrics.WebSocketClients.Set(float64(len(m.clients)))
	m.logger.Infof("Added websocket client %s (total: %d)", id, len(m.clients))

	go m.writePump(id, c)
	return id
}

// RemoveConnection forgets a client and closes its connection.
func (m *WebSocketManager) RemoveConnection(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.remove(id)
}

// Count returns the number of connected clients.
func (m *WebSocketManager) Count() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.clients)
}

// SendTo queues message for one client.
func (m *WebSocketManager) SendTo(id string, message []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if c, ok := m.clients[id]; ok {
		m.enqueue(id, c, message)
	}
}

// Broadcast queues message for every client.
func (m *WebSocketManager) Broadcast(message []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for id, c := range m.clients {
		m.enqueue(id, c, message)
	}
}

// enqueue must be called with the mutex held.
func (m *WebSocketManager) enqueue(id string, c *wsClient, message []byte) {
	select {
	case c.send <- message:
	default:
		m.logger.Warnf("Websocket client %s is not keeping up, dropping it", id)
		m.remove(id)
	}
}

// remove must be called with the mutex held.
func (m *WebSocketManager) remove(id string) {
	c, ok := m.clients[id]
	if !ok {
		return
	}
	delete(m.clients, id)
	close(c.send)
	_ = c.conn.Close()
	m.metrics.WebSocketClients.Set(float64(len(m.clients)))
	m.logger.Infof("Removed websocket client %s (remaining: %d)", id, len(m.clients))
}

func (m *WebSocketManager) writePump(id string, c *wsClient) {
	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			m.logger.Errorf("Failed to send websocket message to client %s: %v", id, err)
			m.RemoveConnection(id)
			return
		}
	}
}
