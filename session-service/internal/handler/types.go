package handler

import (
	"solaris-server/shared/models"
)

// --- Request/Response Structs ---

type postMessageRequest struct {
	Content string `json:"content" binding:"required"`
	// ClientID - идентификатор оптимистичной записи, сгенерированный клиентом
	// ("local-<uuid>"). Опционален.
	ClientID string `json:"clientId"`
}

type submitActionRequest struct {
	Type      models.ActionType `json:"type" binding:"required"`
	AbilityID string            `json:"abilityId" binding:"required"`
	TargetID  string            `json:"targetId" binding:"required"`
	Narration string            `json:"narration" binding:"required"`
}

type startCombatRequest struct {
	FirstActorID string `json:"firstActorId" binding:"required"`
}

type toggleSelectionRequest struct {
	Active bool `json:"active"`
}

type clickNarrationRequest struct {
	EventID string `json:"eventId" binding:"required"`
}

type confirmRangeRequest struct {
	// Пустые границы означают "использовать мой текущий выбор".
	RangeStart string `json:"rangeStart"`
	RangeEnd   string `json:"rangeEnd"`
}

type castVoteRequest struct {
	Vote models.Vote `json:"vote" binding:"required"`
}

type selectionResponse struct {
	RangeStart string `json:"rangeStart"`
	RangeEnd   string `json:"rangeEnd"`
}

type phaseResponse struct {
	Phase models.TurnPhase `json:"phase"`
}
