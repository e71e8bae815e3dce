package websockets

import (
	"encoding/json"
	"sync"

	"form95/config"
	"form95/internal/database"
	"form95/internal/events"
	"form95/internal/logger"

	"github.com/gofiber/websocket/v2"
)

const sendBuffer = 32

// Conn is the part of a websocket connection the manager uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type client struct {
	conn Conn
	send chan []byte
}

// Manager pushes claim events to connected admin dashboards.
type Manager struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     logger.Logger
}

func New(db database.DB, eventBus *events.EventBus, config config.Config) (*Manager, error) {
	log := logger.New("websockets").Function("New")

	if eventBus == nil {
		return nil, log.ErrMsg("event bus is nil")
	}

	m := &Manager{
		clients: make(map[*client]struct{}),
		log:     logger.New("websockets"),
	}
	eventBus.Subscribe(events.ChannelClaims, m.broadcast)

	log.Info("websocket manager ready", "environment", config.Environment, "cache", db.Cache.Events != nil)
	return m, nil
}

func (m *Manager) HandleWebSocket(c *websocket.Conn) {
	m.Serve(c)
}

// Serve blocks until the peer disconnects. Incoming messages are read
// only to notice the disconnect.
func (m *Manager) Serve(conn Conn) {
	log := m.log.Function("Serve")

	cl := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	m.register(cl)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for message := range cl.send {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug("write failed", "error", err)
				_ = conn.Close()
				for range cl.send {
				}
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	m.unregister(cl)
	<-done
	_ = conn.Close()
}

func (m *Manager) register(cl *client) {
	m.mu.Lock()
	m.clients[cl] = struct{}{}
	count := len(m.clients)
	m.mu.Unlock()

	m.log.Function("register").Debug("client connected", "clients", count)
}

func (m *Manager) unregister(cl *client) {
	m.mu.Lock()
	if _, ok := m.clients[cl]; ok {
		delete(m.clients, cl)
		close(cl.send)
	}
	m.mu.Unlock()
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// broadcast never blocks the event bus: a client whose buffer is full
// misses the event.
func (m *Manager) broadcast(event events.Event) {
	log := m.log.Function("broadcast")

	payload, err := json.Marshal(event)
	if err != nil {
		log.Er("failed to marshal event", err, "type", event.Type)
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for cl := range m.clients {
		select {
		case cl.send <- payload:
		default:
			log.Warn("dropping event for slow client", "type", event.Type)
		}
	}
}

// Close disconnects every client.
func (m *Manager) Close() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for cl := range m.clients {
		_ = cl.conn.Close()
	}
}
