package models

import "github.com/google/uuid"

// TurnPhase - фаза хода для конкретного участника.
type TurnPhase string

const (
	// PhaseMyTurn - ввод разрешен, участник может заявить действие.
	PhaseMyTurn TurnPhase = "my_turn"
	// PhaseWaiting - заблокировано, ждем заявку контрагента.
	PhaseWaiting TurnPhase = "waiting"
	// PhaseBothSubmitted - обе заявки поданы, ждем явный триггер "proceed".
	PhaseBothSubmitted TurnPhase = "both_submitted"
	// PhaseJudging - вердикт в пути, ввод заблокирован.
	PhaseJudging TurnPhase = "judging"
)

// PhaseState - состояние протокола хода для сессии двух сторон.
// Хранится в Redis и выступает единственным источником правды для фазы:
// клиенты доверяют присланному фазовому сигналу, а не считают фазу сами.
type PhaseState struct {
	Turn      int                     `json:"turn"`
	Phases    map[uuid.UUID]TurnPhase `json:"phases"`
	Submitted map[uuid.UUID]bool      `json:"submitted"`
}
