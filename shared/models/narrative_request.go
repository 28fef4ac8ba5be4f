package models

import (
	"time"

	"github.com/google/uuid"
)

// Vote - голос участника по запросу нарративного консенсуса.
type Vote string

const (
	VoteReflect Vote = "reflect"
	VoteSkip    Vote = "skip"
)

// RequestStatus - статус запроса нарративного консенсуса.
type RequestStatus string

const (
	RequestStatusVoting   RequestStatus = "voting"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// NarrativeRequest - запрос на ретроактивное признание диапазона
// narration-событий каноничным ("рефлексия").
//
// RangeStart/RangeEnd ссылаются на ID narration-событий; эффективный
// диапазон - непрерывный срез между их позициями в narration-подпоследовательности
// таймлайна, независимо от порядка выбора (нормализация lo/hi).
//
// TotalParticipants - СНАПШОТ размера ростера на момент создания запроса,
// он не обновляется при изменении состава сессии.
type NarrativeRequest struct {
	ID                uuid.UUID          `json:"id"`
	SessionID         uuid.UUID          `json:"sessionId"`
	RequesterID       uuid.UUID          `json:"requesterId"`
	RangeStart        string             `json:"rangeStart"`
	RangeEnd          string             `json:"rangeEnd"`
	Status            RequestStatus      `json:"status"`
	Votes             map[uuid.UUID]Vote `json:"votes"`
	TotalParticipants int                `json:"totalParticipants"`
	CreatedAt         time.Time          `json:"createdAt"`
	ResolvedAt        *time.Time         `json:"resolvedAt,omitempty"`
}

// HasVoted сообщает, голосовал ли уже участник.
// Записанный голос неизменяем на всё время жизни запроса.
func (r *NarrativeRequest) HasVoted(participantID uuid.UUID) bool {
	_, ok := r.Votes[participantID]
	return ok
}

// ReflectCount возвращает число голосов "reflect".
func (r *NarrativeRequest) ReflectCount() int {
	n := 0
	for _, v := range r.Votes {
		if v == VoteReflect {
			n++
		}
	}
	return n
}
