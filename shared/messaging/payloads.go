package messaging

import (
	"time"

	"solaris-server/shared/models"
)

// JudgmentTaskPayload - задача на вынесение вердикта за ход.
// Отправляется session-service'ом внешнему GM-оракулу, когда обе стороны
// заявили действия и подтвержден переход both_submitted -> judging.
// Само вычисление вердикта - целиком ответственность оракула.
type JudgmentTaskPayload struct {
	TaskID            string   `json:"taskId"`
	SessionID         string   `json:"sessionId"`
	Turn              int      `json:"turn"`
	NarrationEventIDs []string `json:"narrationEventIds"`
}

// ResultStatus определяет статус результата оракула.
type ResultStatus string

const (
	ResultStatusSuccess ResultStatus = "success"
	ResultStatusError   ResultStatus = "error"
)

// JudgmentResultPayload - сообщение из очереди internal_updates с готовым
// вердиктом (или ошибкой оракула). NextActorID определяет, чей ход следующий
// после применения вердикта.
type JudgmentResultPayload struct {
	TaskID       string                 `json:"taskId"`
	SessionID    string                 `json:"sessionId"`
	Status       ResultStatus           `json:"status"`
	Result       *models.JudgmentResult `json:"result,omitempty"`
	NextActorID  string                 `json:"nextActorId,omitempty"`
	ErrorDetails string                 `json:"errorDetails,omitempty"`
}

// Типы push-уведомлений поверх видов событий таймлайна.
const (
	// ClientUpdatePhase - фазовый сигнал, не событие таймлайна.
	ClientUpdatePhase = "phase_update"
)

// ClientSessionUpdate - insert-уведомление push-ленты.
//
// Потребитель обязан защитно перепроверить, что sessionId совпадает
// с сессией его подписки, даже если транспорт считается уже отскоупленным.
type ClientSessionUpdate struct {
	ID                  string    `json:"id"`
	SessionID           string    `json:"sessionId"`
	Type                string    `json:"type"`
	Content             string    `json:"content"`
	CreatedAt           time.Time `json:"createdAt"`
	SenderParticipantID string    `json:"senderParticipantId,omitempty"`

	// Типизированные нагрузки, заполняется не более одной, по Type.
	Action           *models.Action           `json:"action,omitempty"`
	Judgment         *models.JudgmentResult   `json:"judgment,omitempty"`
	NarrativeRequest *models.NarrativeRequest `json:"narrativeRequest,omitempty"`
	// Phases заполняется только для Type == ClientUpdatePhase:
	// participantId -> фаза.
	Phases map[string]models.TurnPhase `json:"phases,omitempty"`
}
