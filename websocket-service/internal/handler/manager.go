package handler

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "websocket_connected_clients",
	Help: "Number of currently connected WebSocket clients.",
})

// Client представляет одно WebSocket соединение участника, подписанное
// ровно на одну сессию.
type Client struct {
	ParticipantID string
	SessionID     string
	Conn          *websocket.Conn
	send          chan []byte // Канал для отправки сообщений этому клиенту
}

// ConnectionManager управляет активными WebSocket соединениями,
// сгруппированными по сессиям.
type ConnectionManager struct {
	sessions   map[string]map[*Client]bool // sessionID -> подписчики
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// NewConnectionManager создает и запускает новый менеджер соединений.
func NewConnectionManager(logger zerolog.Logger) *ConnectionManager {
	m := &ConnectionManager{
		sessions:   make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With().Str("component", "ConnectionManager").Logger(),
	}
	go m.run()
	return m
}

// run обрабатывает регистрацию и дерегистрацию клиентов.
func (m *ConnectionManager) run() {
	m.logger.Info().Msg("ConnectionManager запущен")
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			subscribers, ok := m.sessions[client.SessionID]
			if !ok {
				subscribers = make(map[*Client]bool)
				m.sessions[client.SessionID] = subscribers
			}
			subscribers[client] = true
			m.mu.Unlock()
			connectedClients.Inc()
			m.logger.Info().
				Str("participantID", client.ParticipantID).
				Str("sessionID", client.SessionID).
				Msg("Клиент зарегистрирован")

		case client := <-m.unregister:
			m.mu.Lock()
			if subscribers, ok := m.sessions[client.SessionID]; ok {
				if _, present := subscribers[client]; present {
					delete(subscribers, client)
					close(client.send)
					connectedClients.Dec()
					if len(subscribers) == 0 {
						delete(m.sessions, client.SessionID)
					}
					m.logger.Info().
						Str("participantID", client.ParticipantID).
						Str("sessionID", client.SessionID).
						Msg("Клиент дерегистрирован")
				}
			}
			m.mu.Unlock()
		}
	}
}

// RegisterClient регистрирует нового подписчика сессии.
func (m *ConnectionManager) RegisterClient(client *Client) {
	m.register <- client
}

// UnregisterClient удаляет подписчика.
func (m *ConnectionManager) UnregisterClient(client *Client) {
	m.unregister <- client
}

// BroadcastToSession рассылает сообщение всем подписчикам сессии.
// Возвращает число клиентов, которым сообщение поставлено в очередь.
func (m *ConnectionManager) BroadcastToSession(sessionID string, message []byte) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	delivered := 0
	for client := range m.sessions[sessionID] {
		// Защитная перепроверка подписки: группа уже отскоуплена по сессии,
		// но клиент чужой сессии не должен получить сообщение никогда.
		if client.SessionID != sessionID {
			m.logger.Error().
				Str("participantID", client.ParticipantID).
				Str("sessionID", sessionID).
				Msg("Клиент в чужой сессионной группе, сообщение пропущено")
			continue
		}
		select {
		case client.send <- message:
			delivered++
		default:
			m.logger.Warn().
				Str("participantID", client.ParticipantID).
				Str("sessionID", sessionID).
				Msg("Очередь отправки переполнена, сообщение пропущено")
		}
	}
	return delivered
}
