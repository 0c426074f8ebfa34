package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/tmsflow/fleettrack/internal/pkg/logger"
)

// Manager owns the set of live WebSocket connections and fans frames out to
// all of them. The demo map surface subscribes here; marker reconciliation
// happens on the client side.
type Manager struct {
	sync.RWMutex
	clients  map[string]*websocket.Conn
	upgrader websocket.Upgrader
}

// NewManager creates a new WebSocket manager
func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*websocket.Conn),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnection upgrades the request and keeps the connection registered
// until the peer goes away. Incoming messages are drained and discarded;
// the feed is one-way.
func (m *Manager) HandleConnection(c echo.Context) error {
	ws, err := m.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	clientID := uuid.NewString()
	m.addClient(clientID, ws)
	logger.Debug("map surface client connected", logger.String("client_id", clientID))

	defer func() {
		m.removeClient(clientID)
		ws.Close()
		logger.Debug("map surface client disconnected", logger.String("client_id", clientID))
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return nil
		}
	}
}

// Broadcast sends v as a JSON text message to every connected client.
// Clients that fail to receive are dropped.
func (m *Manager) Broadcast(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	m.Lock()
	defer m.Unlock()
	for id, ws := range m.clients {
		if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn("dropping unresponsive map surface client",
				logger.String("client_id", id),
				logger.Err(err))
			ws.Close()
			delete(m.clients, id)
		}
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.clients)
}

func (m *Manager) addClient(id string, ws *websocket.Conn) {
	m.Lock()
	defer m.Unlock()
	m.clients[id] = ws
}

func (m *Manager) removeClient(id string) {
	m.Lock()
	defer m.Unlock()
	delete(m.clients, id)
}
