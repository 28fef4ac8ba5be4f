package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	sharedMessaging "solaris-server/shared/messaging"
	sharedModels "solaris-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *sessionServiceImpl) PostMessage(ctx context.Context, sessionID, senderID uuid.UUID, content, clientID string) (*EventView, error) {
	if strings.TrimSpace(content) == "" {
		return nil, sharedModels.ErrEmptyNarration
	}

	state := s.getState(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, state); err != nil {
		return nil, err
	}

	roster, err := s.roster.GetRoster(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	byID := rosterByID(roster)
	sender, ok := byID[senderID]
	if !ok {
		return nil, sharedModels.ErrParticipantNotInRoom
	}

	now := time.Now().UTC()

	// Оптимистичная запись под клиентским ID держит позицию в таймлайне
	// до подтверждения. Подтвержденное событие приходит под серверным ID
	// и НЕ заменяет оптимистичное: сейчас обе записи остаются в логе.
	// TODO: пробросить clientID как корреляционный ключ до подтверждения
	// и заменять оптимистичную запись вместо добавления второй.
	var optimistic *sharedModels.SessionEvent
	if clientID != "" {
		ev := sharedModels.SessionEvent{
			ID:        clientID,
			SessionID: sessionID,
			Kind:      sharedModels.EventKindNarration,
			SenderID:  &senderID,
			Content:   content,
			Timestamp: now,
		}
		state.timeline.Upsert(ev)
		optimistic = &ev
	}

	confirmed := sharedModels.SessionEvent{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      sharedModels.EventKindNarration,
		SenderID:  &senderID,
		Content:   content,
		Timestamp: now,
	}
	if err := s.eventRepo.UpsertEvent(ctx, &confirmed); err != nil {
		if optimistic != nil {
			// Ошибка записи деградирует до локальной записи: сообщение
			// остается видимым отправителю, подтверждения не будет.
			s.logger.Warn("Failed to persist message, keeping optimistic entry only",
				zap.String("sessionID", sessionID.String()),
				zap.String("clientID", clientID),
				zap.Error(err))
			view := s.renderEvent(*optimistic, senderID, byID)
			return &view, nil
		}
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}
	state.timeline.Upsert(confirmed)
	s.publishEventUpdate(ctx, confirmed)

	s.logger.Info("Message posted",
		zap.String("sessionID", sessionID.String()),
		zap.String("eventID", confirmed.ID),
		zap.String("sender", sender.Name))

	view := s.renderEvent(confirmed, senderID, byID)
	return &view, nil
}

func (s *sessionServiceImpl) SubmitAction(ctx context.Context, sessionID, actorID uuid.UUID, draft ActionDraft) (*EventView, error) {
	state := s.getState(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, state); err != nil {
		return nil, err
	}
	if state.phase == nil {
		return nil, fmt.Errorf("%w: combat is not started", sharedModels.ErrPhaseTransition)
	}

	roster, err := s.roster.GetRoster(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	byID := rosterByID(roster)
	actor, ok := byID[actorID]
	if !ok {
		return nil, sharedModels.ErrParticipantNotInRoom
	}

	if err := ValidateAction(actor, roster, state.phase.PhaseOf(actorID), draft); err != nil {
		return nil, err
	}

	event := sharedModels.SessionEvent{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      sharedModels.EventKindNarration,
		SenderID:  &actorID,
		Content:   draft.Narration,
		Timestamp: time.Now().UTC(),
		Action: &sharedModels.Action{
			Type:      draft.Type,
			AbilityID: draft.AbilityID,
			TargetID:  draft.TargetID,
		},
	}
	if err := s.eventRepo.UpsertEvent(ctx, &event); err != nil {
		return nil, fmt.Errorf("failed to persist action: %w", err)
	}
	state.timeline.Upsert(event)

	if err := state.phase.Submit(actorID); err != nil {
		return nil, err
	}
	// Пока барьер не собран, ход переходит следующему незаявившемуся бойцу.
	phaseState := state.phase.State()
	for id, ph := range phaseState.Phases {
		if ph == sharedModels.PhaseWaiting && !phaseState.Submitted[id] {
			if err := state.phase.ObserveCounterpartSubmit(id); err != nil {
				return nil, err
			}
			break
		}
	}
	if err := s.phaseRepo.Save(ctx, sessionID, ptrState(state.phase.State())); err != nil {
		return nil, err
	}

	s.publishEventUpdate(ctx, event)
	s.publishPhaseUpdate(ctx, state)

	s.logger.Info("Action submitted",
		zap.String("sessionID", sessionID.String()),
		zap.String("actor", actor.Name),
		zap.String("actionType", string(draft.Type)),
		zap.Int("turn", state.phase.Turn()))

	view := s.renderEvent(event, actorID, byID)
	return &view, nil
}

func (s *sessionServiceImpl) Proceed(ctx context.Context, sessionID, participantID uuid.UUID) error {
	state := s.getState(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, state); err != nil {
		return err
	}
	if state.phase == nil {
		return fmt.Errorf("%w: combat is not started", sharedModels.ErrPhaseTransition)
	}
	if err := state.phase.Proceed(participantID); err != nil {
		return err
	}
	if err := s.phaseRepo.Save(ctx, sessionID, ptrState(state.phase.State())); err != nil {
		return err
	}

	task := sharedMessaging.JudgmentTaskPayload{
		TaskID:            uuid.NewString(),
		SessionID:         sessionID.String(),
		Turn:              state.phase.Turn(),
		NarrationEventIDs: s.currentTurnNarrationIDs(state),
	}
	if err := s.judgmentPub.PublishJudgmentTask(ctx, task); err != nil {
		s.logger.Error("Failed to dispatch judgment task",
			zap.String("sessionID", sessionID.String()),
			zap.String("taskID", task.TaskID),
			zap.Error(err))
		return fmt.Errorf("failed to dispatch judgment task: %w", err)
	}
	s.publishPhaseUpdate(ctx, state)

	s.logger.Info("Judgment task dispatched",
		zap.String("sessionID", sessionID.String()),
		zap.String("taskID", task.TaskID),
		zap.Int("turn", task.Turn),
		zap.Int("narrations", len(task.NarrationEventIDs)))
	return nil
}

// currentTurnNarrationIDs собирает ID narration-событий, накопленных после
// последнего вердикта: именно их оракул судит за текущий ход.
func (s *sessionServiceImpl) currentTurnNarrationIDs(state *sessionState) []string {
	events := state.timeline.All()
	lastJudgment := -1
	for i, ev := range events {
		if ev.Kind == sharedModels.EventKindJudgment {
			lastJudgment = i
		}
	}
	ids := make([]string, 0)
	for _, ev := range events[lastJudgment+1:] {
		if ev.Kind == sharedModels.EventKindNarration {
			ids = append(ids, ev.ID)
		}
	}
	return ids
}

func (s *sessionServiceImpl) ApplyJudgment(ctx context.Context, payload sharedMessaging.JudgmentResultPayload) error {
	sessionID, err := uuid.Parse(payload.SessionID)
	if err != nil {
		return fmt.Errorf("%w: bad session id %q", sharedModels.ErrInvalidInput, payload.SessionID)
	}

	state := s.getState(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, state); err != nil {
		return err
	}
	if state.phase == nil {
		return fmt.Errorf("%w: combat is not started", sharedModels.ErrPhaseTransition)
	}

	if payload.Status != sharedMessaging.ResultStatusSuccess {
		// Оракул не справился: фазы остаются в judging, оракул пришлет
		// повторный результат по той же задаче.
		s.logger.Error("Oracle reported judgment failure",
			zap.String("sessionID", payload.SessionID),
			zap.String("taskID", payload.TaskID),
			zap.String("details", payload.ErrorDetails))
		return nil
	}
	if payload.Result == nil {
		return fmt.Errorf("%w: success result without verdict", sharedModels.ErrMalformedJudgment)
	}
	if err := payload.Result.Validate(); err != nil {
		return err
	}
	nextActorID, err := uuid.Parse(payload.NextActorID)
	if err != nil {
		return fmt.Errorf("%w: bad next actor id %q", sharedModels.ErrMalformedJudgment, payload.NextActorID)
	}

	event := sharedModels.SessionEvent{
		// ID вердикта детерминирован по задаче: повторная доставка
		// результата заменяет нагрузку, не плодя событий.
		ID:        "judgment-" + payload.TaskID,
		SessionID: sessionID,
		Kind:      sharedModels.EventKindJudgment,
		Content:   fmt.Sprintf("Вердикт за ход %d", payload.Result.Turn),
		Timestamp: time.Now().UTC(),
		Judgment:  payload.Result,
	}
	if err := s.eventRepo.UpsertEvent(ctx, &event); err != nil {
		return fmt.Errorf("failed to persist judgment: %w", err)
	}
	appended := state.timeline.Upsert(event)

	if appended {
		if err := state.phase.ApplyVerdict(nextActorID); err != nil {
			return err
		}
		if err := s.phaseRepo.Save(ctx, sessionID, ptrState(state.phase.State())); err != nil {
			return err
		}
	}

	s.publishEventUpdate(ctx, event)
	s.publishPhaseUpdate(ctx, state)

	s.logger.Info("Judgment applied",
		zap.String("sessionID", payload.SessionID),
		zap.String("taskID", payload.TaskID),
		zap.Int("turn", payload.Result.Turn),
		zap.Bool("redelivery", !appended))
	return nil
}

// publishEventUpdate транслирует событие таймлайна в push-ленту.
// Ошибка публикации не откатывает уже сохраненное событие: подписчики
// получат его при следующей загрузке снапшота.
func (s *sessionServiceImpl) publishEventUpdate(ctx context.Context, event sharedModels.SessionEvent) {
	update := sharedMessaging.ClientSessionUpdate{
		ID:               event.ID,
		SessionID:        event.SessionID.String(),
		Type:             string(event.Kind),
		Content:          event.Content,
		CreatedAt:        event.Timestamp,
		Action:           event.Action,
		Judgment:         event.Judgment,
		NarrativeRequest: event.Reflection,
	}
	if event.SenderID != nil {
		update.SenderParticipantID = event.SenderID.String()
	}
	if err := s.clientPub.PublishClientUpdate(ctx, update); err != nil {
		s.logger.Error("Failed to publish event update",
			zap.String("sessionID", event.SessionID.String()),
			zap.String("eventID", event.ID),
			zap.Error(err))
	}
}
