package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"solaris-server/websocket-service/internal/service"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Отправлять пинги клиенту с этим периодом. Должно быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер сообщения, разрешенный от клиента.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Добавить проверку Origin для безопасности
		return true
	},
}

// WebSocketHandler обрабатывает запросы на установку WebSocket соединения.
// Подписка всегда привязана к одной сессии: смена сессии - новое соединение.
type WebSocketHandler struct {
	manager     *ConnectionManager
	authService *service.AuthService
	logger      zerolog.Logger
}

// NewWebSocketHandler создает новый обработчик WebSocket.
func NewWebSocketHandler(manager *ConnectionManager, authService *service.AuthService, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:     manager,
		authService: authService,
		logger:      logger.With().Str("component", "WebSocketHandler").Logger(),
	}
}

// ServeWS обрабатывает входящий HTTP запрос для WebSocket.
// Ожидает query-параметры 'token' (JWT участника) и 'session_id'.
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		h.logger.Warn().Msg("Missing 'token' query parameter")
		http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
		return
	}

	participantID, err := h.authService.ValidateToken(tokenString)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Invalid token")
		http.Error(w, fmt.Sprintf("Unauthorized: %s", err.Error()), http.StatusUnauthorized)
		return
	}

	sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		h.logger.Warn().Err(err).Msg("Missing or malformed 'session_id' query parameter")
		http.Error(w, "Bad Request: Invalid session_id", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("participantID", participantID.String()).Msg("Failed to upgrade connection")
		// Не пишем ошибку в http.ResponseWriter, так как upgrader уже это сделал
		return
	}

	h.logger.Info().
		Str("participantID", participantID.String()).
		Str("sessionID", sessionID.String()).
		Msg("WebSocket connection established")

	client := &Client{
		ParticipantID: participantID.String(),
		SessionID:     sessionID.String(),
		Conn:          conn,
		send:          make(chan []byte, 256), // Буферизованный канал для отправки
	}

	h.manager.RegisterClient(client)

	clientLogger := h.logger.With().
		Str("participantID", client.ParticipantID).
		Str("sessionID", client.SessionID).
		Logger()
	go client.writePump(clientLogger)
	go client.readPump(h.manager, clientLogger)
}

// readPump откачивает сообщения от WebSocket соединения.
// Лента однонаправленная: входящие сообщения от клиента игнорируются,
// все мутации идут через HTTP API session-service.
func (c *Client) readPump(manager *ConnectionManager, logger zerolog.Logger) {
	defer func() {
		manager.UnregisterClient(c)
		_ = c.Conn.Close()
		logger.Info().Msg("readPump finished")
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn().Err(err).Msg("WebSocket read error")
			} else {
				logger.Info().Msg("WebSocket connection closed (expected)")
			}
			break
		}
		logger.Warn().Bytes("message", message).Msg("Received unexpected message from client (ignored)")
	}
}

// writePump откачивает сообщения из канала send в WebSocket соединение.
func (c *Client) writePump(logger zerolog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		logger.Info().Msg("writePump finished")
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				logger.Info().Msg("Send channel closed, sending CloseMessage")
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Error().Err(err).Msg("Failed to write message")
				return
			}

			// Досылаем накопившиеся сообщения отдельными фреймами:
			// каждое сообщение ленты - самостоятельный JSON-документ.
			n := len(c.send)
			for i := 0; i < n; i++ {
				queuedMsg := <-c.send
				if err := c.Conn.WriteMessage(websocket.TextMessage, queuedMsg); err != nil {
					logger.Error().Err(err).Msg("Failed to write queued message")
					return
				}
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Warn().Err(err).Msg("Failed to send ping")
				return
			}
		}
	}
}
