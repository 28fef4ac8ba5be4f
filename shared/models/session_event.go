package models

import (
	"time"

	"github.com/google/uuid"
)

// EventKind - вид события таймлайна сессии.
type EventKind string

const (
	EventKindNarration        EventKind = "narration"
	EventKindJudgment         EventKind = "judgment"
	EventKindSystem           EventKind = "system"
	EventKindNarrativeRequest EventKind = "narrative_request"
	// EventKindGMNarration зарезервирован под чисто боевой вариант комнаты,
	// где рассказчиком выступает сам оракул. Внутри этого сервиса продюсера
	// пока нет: вид появляется в таймлайне только из внешних записей.
	EventKindGMNarration EventKind = "gm_narration"
)

// ActionType - тип заявленного боевого действия.
type ActionType string

const (
	ActionAttack  ActionType = "attack"
	ActionDefend  ActionType = "defend"
	ActionSupport ActionType = "support"
)

// Action - дескриптор заявленного действия, прикрепляемый к narration-событию.
type Action struct {
	Type      ActionType `json:"type"`
	AbilityID string     `json:"abilityId"`
	TargetID  uuid.UUID  `json:"targetId"`
}

// SessionEvent - одно событие ("сообщение") в таймлайне сессии.
//
// ID уникален в пределах сессии; таймлайн append-only по ID: позиция
// известного ID никогда не меняется, заменяется только полезная нагрузка.
// ID - строка, потому что оптимистичные локальные записи получают
// клиентский идентификатор вида "local-<uuid>" до подтверждения сервером.
//
// Ровно одна типизированная нагрузка может быть заполнена, соответственно Kind:
// Action для narration, Judgment для judgment, Reflection для narrative_request.
type SessionEvent struct {
	ID        string     `json:"id"`
	SessionID uuid.UUID  `json:"sessionId"`
	Kind      EventKind  `json:"type"`
	SenderID  *uuid.UUID `json:"senderParticipantId,omitempty"` // nil для system/judgment
	Content   string     `json:"content"`
	Timestamp time.Time  `json:"createdAt"`
	// IsMine вычисляется локально при отдаче снапшота конкретному зрителю,
	// сервер никогда не хранит его.
	IsMine bool `json:"isMine"`

	Action     *Action           `json:"action,omitempty"`
	Judgment   *JudgmentResult   `json:"judgment,omitempty"`
	Reflection *NarrativeRequest `json:"narrativeRequest,omitempty"`
}
