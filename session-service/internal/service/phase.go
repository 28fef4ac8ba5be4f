package service

import (
	"fmt"

	"solaris-server/shared/models"

	"github.com/google/uuid"
)

// PhaseEngine - конечный автомат протокола хода для сессии двух сторон.
//
// Переходы:
//   - my_turn -> waiting: локальная заявка валидного действия;
//   - waiting -> both_submitted: наблюдение заявки контрагента (внешний сигнал);
//   - both_submitted -> judging: явный локальный триггер "proceed";
//   - judging -> my_turn|waiting: применение вердикта оракула, в зависимости
//     от того, чей ход следующий.
//
// Таймаутов у состояний нет: контрагент, который так и не заявил действие,
// оставляет другую сторону в waiting на неопределенный срок.
// TODO: авто-форфейт по конфигурируемому дедлайну, когда продуктовое правило
// форфейта будет утверждено.
type PhaseEngine struct {
	state models.PhaseState
}

// NewPhaseEngine создает автомат для пары бойцов. Начальное состояние задается
// извне при старте сессии: firstActor получает my_turn, остальные - waiting.
func NewPhaseEngine(combatants []uuid.UUID, firstActor uuid.UUID) *PhaseEngine {
	state := models.PhaseState{
		Turn:      1,
		Phases:    make(map[uuid.UUID]models.TurnPhase, len(combatants)),
		Submitted: make(map[uuid.UUID]bool, len(combatants)),
	}
	for _, id := range combatants {
		if id == firstActor {
			state.Phases[id] = models.PhaseMyTurn
		} else {
			state.Phases[id] = models.PhaseWaiting
		}
		state.Submitted[id] = false
	}
	return &PhaseEngine{state: state}
}

// RestorePhaseEngine восстанавливает автомат из сохраненного состояния.
func RestorePhaseEngine(state models.PhaseState) *PhaseEngine {
	return &PhaseEngine{state: state}
}

// State возвращает копию текущего состояния для сохранения.
func (e *PhaseEngine) State() models.PhaseState {
	copied := models.PhaseState{
		Turn:      e.state.Turn,
		Phases:    make(map[uuid.UUID]models.TurnPhase, len(e.state.Phases)),
		Submitted: make(map[uuid.UUID]bool, len(e.state.Submitted)),
	}
	for id, ph := range e.state.Phases {
		copied.Phases[id] = ph
	}
	for id, s := range e.state.Submitted {
		copied.Submitted[id] = s
	}
	return copied
}

// PhaseOf возвращает фазу конкретного участника.
func (e *PhaseEngine) PhaseOf(participantID uuid.UUID) models.TurnPhase {
	return e.state.Phases[participantID]
}

// Turn возвращает номер текущего хода.
func (e *PhaseEngine) Turn() int {
	return e.state.Turn
}

// Submit фиксирует заявку участника: my_turn -> waiting. Когда заявки есть
// от всех сторон, все переводятся в both_submitted.
func (e *PhaseEngine) Submit(participantID uuid.UUID) error {
	phase, ok := e.state.Phases[participantID]
	if !ok {
		return models.ErrParticipantNotInRoom
	}
	if phase != models.PhaseMyTurn {
		return fmt.Errorf("%w: submit from %s", models.ErrPhaseTransition, phase)
	}

	e.state.Phases[participantID] = models.PhaseWaiting
	e.state.Submitted[participantID] = true

	// Барьер рандеву: ход двигается дальше только когда заявили все.
	for _, submitted := range e.state.Submitted {
		if !submitted {
			return nil
		}
	}
	for id := range e.state.Phases {
		e.state.Phases[id] = models.PhaseBothSubmitted
	}
	return nil
}

// ObserveCounterpartSubmit открывает my_turn контрагенту после заявки одной
// из сторон: в пределах хода стороны ходят по очереди, и "чей ход" определяется
// внешним сигналом, а не локальным вычислением.
func (e *PhaseEngine) ObserveCounterpartSubmit(nextActorID uuid.UUID) error {
	phase, ok := e.state.Phases[nextActorID]
	if !ok {
		return models.ErrParticipantNotInRoom
	}
	if phase != models.PhaseWaiting {
		return fmt.Errorf("%w: observe submit from %s", models.ErrPhaseTransition, phase)
	}
	if e.state.Submitted[nextActorID] {
		return fmt.Errorf("%w: participant already submitted this turn", models.ErrPhaseTransition)
	}
	e.state.Phases[nextActorID] = models.PhaseMyTurn
	return nil
}

// Proceed выполняет both_submitted -> judging по явному триггеру.
func (e *PhaseEngine) Proceed(participantID uuid.UUID) error {
	phase, ok := e.state.Phases[participantID]
	if !ok {
		return models.ErrParticipantNotInRoom
	}
	if phase != models.PhaseBothSubmitted {
		return fmt.Errorf("%w: proceed from %s", models.ErrPhaseTransition, phase)
	}
	for id := range e.state.Phases {
		e.state.Phases[id] = models.PhaseJudging
	}
	return nil
}

// ApplyVerdict завершает ход после применения вердикта: judging -> my_turn
// для следующего актора, waiting для остальных; счетчик хода растет,
// флаги заявок сбрасываются.
func (e *PhaseEngine) ApplyVerdict(nextActorID uuid.UUID) error {
	if _, ok := e.state.Phases[nextActorID]; !ok {
		return models.ErrParticipantNotInRoom
	}
	for _, phase := range e.state.Phases {
		if phase != models.PhaseJudging {
			return fmt.Errorf("%w: verdict applied from %s", models.ErrPhaseTransition, phase)
		}
	}
	for id := range e.state.Phases {
		if id == nextActorID {
			e.state.Phases[id] = models.PhaseMyTurn
		} else {
			e.state.Phases[id] = models.PhaseWaiting
		}
		e.state.Submitted[id] = false
	}
	e.state.Turn++
	return nil
}
