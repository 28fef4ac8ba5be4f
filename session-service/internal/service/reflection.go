package service

import (
	"solaris-server/shared/models"

	"github.com/google/uuid"
)

// RangeSelector - трехтактный скользящий выбор диапазона narration-событий.
//
// Нет выбора -> первый клик задает start -> второй клик задает end ->
// третий клик где угодно сбрасывает пару и начинает новый start.
// Выбор активен только при включенном режиме выбора; выключение режима
// очищает незавершенный выбор.
type RangeSelector struct {
	active bool
	start  string
	end    string
}

// Active сообщает, включен ли режим выбора.
func (s *RangeSelector) Active() bool {
	return s.active
}

// Toggle включает/выключает режим выбора. Выключение очищает выбор.
func (s *RangeSelector) Toggle(on bool) {
	s.active = on
	if !on {
		s.start = ""
		s.end = ""
	}
}

// Click обрабатывает клик по narration-событию. Клики вне режима выбора
// игнорируются. Повторный клик по start не закрывает диапазон: границы
// должны быть различны (хотя равные start и end легальны при создании
// запроса напрямую).
func (s *RangeSelector) Click(eventID string) {
	if !s.active {
		return
	}
	switch {
	case s.start == "":
		s.start = eventID
	case s.end == "" && eventID != s.start:
		s.end = eventID
	default:
		// Третий клик: сбрасываем пару, начинаем заново
		s.start = eventID
		s.end = ""
	}
}

// Selection возвращает текущие границы (start, end).
func (s *RangeSelector) Selection() (string, string) {
	return s.start, s.end
}

// Complete сообщает, выбраны ли обе границы.
func (s *RangeSelector) Complete() bool {
	return s.start != "" && s.end != ""
}

// EffectiveRange возвращает непрерывный срез narration-подпоследовательности
// таймлайна между позициями start и end, независимо от порядка кликов
// (нормализация lo/hi). Обе границы обязаны быть ID narration-событий,
// существующих на момент выбора; границы могут совпадать.
func EffectiveRange(timeline *Timeline, start, end string) ([]string, error) {
	if start == "" || end == "" {
		return nil, models.ErrRangeNotSelected
	}
	narrations := timeline.NarrationIDs()
	lo, hi := -1, -1
	for i, id := range narrations {
		if id == start {
			lo = i
		}
		if id == end {
			hi = i
		}
	}
	if lo == -1 || hi == -1 {
		return nil, models.ErrRangeInvalid
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return narrations[lo : hi+1], nil
}

// CastVote записывает голос участника в открытый запрос. Голос, однажды
// записанный, неизменяем: повторное голосование запрещено.
func CastVote(req *models.NarrativeRequest, participantID uuid.UUID, vote models.Vote) error {
	if req.Status != models.RequestStatusVoting {
		return models.ErrVotingClosed
	}
	if req.HasVoted(participantID) {
		return models.ErrAlreadyVoted
	}
	if vote != models.VoteReflect && vote != models.VoteSkip {
		return models.ErrInvalidInput
	}
	if req.Votes == nil {
		req.Votes = make(map[uuid.UUID]models.Vote)
	}
	req.Votes[participantID] = vote
	return nil
}

// ResolveConsensus применяет правило разрешения к открытому запросу и
// возвращает новый статус, если запрос должен закрыться.
//
// Правило (в источнике оно не специфицировано, выбор зафиксирован здесь):
// строгое большинство от TotalParticipants голосов "reflect" одобряет запрос
// немедленно; если проголосовали все участники снапшота, а большинство не
// набралось - запрос отклоняется; иначе голосование продолжается.
// Переход voting -> approved|rejected происходит ровно один раз.
func ResolveConsensus(req *models.NarrativeRequest) (models.RequestStatus, bool) {
	if req.Status != models.RequestStatusVoting {
		return req.Status, false
	}
	majority := req.TotalParticipants/2 + 1
	if req.ReflectCount() >= majority {
		return models.RequestStatusApproved, true
	}
	if len(req.Votes) >= req.TotalParticipants {
		return models.RequestStatusRejected, true
	}
	return models.RequestStatusVoting, false
}
