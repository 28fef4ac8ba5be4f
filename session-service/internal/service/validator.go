package service

import (
	"strings"

	"solaris-server/shared/models"

	"github.com/google/uuid"
)

// ActionDraft - черновик заявляемого действия одного участника.
type ActionDraft struct {
	Type      models.ActionType
	AbilityID string
	TargetID  uuid.UUID
	Narration string
}

// SetType меняет тип действия черновика. Смена типа сбрасывает ранее
// выбранную цель: она может не входить в новый набор легальных целей.
func (d *ActionDraft) SetType(actionType models.ActionType) {
	if d.Type == actionType {
		return
	}
	d.Type = actionType
	d.TargetID = uuid.Nil
}

// TargetCandidates возвращает легальный набор целей для типа действия:
// attack целится во вражеский ростер, defend/support - в союзный, включая себя.
func TargetCandidates(actor models.Participant, roster []models.Participant, actionType models.ActionType) []models.Participant {
	candidates := make([]models.Participant, 0, len(roster))
	for _, p := range roster {
		switch actionType {
		case models.ActionAttack:
			if p.Team != actor.Team {
				candidates = append(candidates, p)
			}
		case models.ActionDefend, models.ActionSupport:
			if p.Team == actor.Team {
				candidates = append(candidates, p)
			}
		}
	}
	return candidates
}

// ValidateAction решает, легальна ли заявка прямо сейчас. Проверка чисто
// консультативная (UX): пулы участника изменяются только внешне применяемыми
// StatChange, клиентская проверка стоимости никогда не мутирует состояние.
//
// Порядок проверок фиксирован и воспроизводим: фаза, способность, цель,
// текст наррации, затем стоимость - СНАЧАЛА Pool-A, потом Pool-B. Первая
// упавшая проверка и есть единственная сообщаемая причина отказа; если не
// хватает обоих пулов, сообщается дефицит Pool-A.
func ValidateAction(actor models.Participant, roster []models.Participant, phase models.TurnPhase, draft ActionDraft) error {
	if phase != models.PhaseMyTurn {
		return models.ErrNotYourTurn
	}
	if draft.AbilityID == "" {
		return models.ErrNoAbilityChosen
	}
	ability := actor.FindAbility(draft.AbilityID)
	if ability == nil {
		return models.ErrNoAbilityChosen
	}
	if draft.TargetID == uuid.Nil {
		return models.ErrNoTargetChosen
	}
	if !targetInSet(draft.TargetID, TargetCandidates(actor, roster, draft.Type)) {
		return models.ErrTargetNotInSet
	}
	if strings.TrimSpace(draft.Narration) == "" {
		return models.ErrEmptyNarration
	}
	if actor.Pools.PoolA.Current < ability.CostPoolA {
		return models.ErrInsufficientPoolA
	}
	if actor.Pools.PoolB.Current < ability.CostPoolB {
		return models.ErrInsufficientPoolB
	}
	return nil
}

func targetInSet(targetID uuid.UUID, candidates []models.Participant) bool {
	for _, p := range candidates {
		if p.ID == targetID {
			return true
		}
	}
	return false
}
