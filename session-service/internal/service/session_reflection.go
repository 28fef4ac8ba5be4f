package service

import (
	"context"
	"fmt"
	"time"

	sharedModels "solaris-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *sessionServiceImpl) ToggleSelection(ctx context.Context, sessionID, participantID uuid.UUID, active bool) error {
	state := s.getState(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, state); err != nil {
		return err
	}
	state.selectorFor(participantID).Toggle(active)
	return nil
}

func (s *sessionServiceImpl) ClickNarration(ctx context.Context, sessionID, participantID uuid.UUID, eventID string) (string, string, error) {
	state := s.getState(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, state); err != nil {
		return "", "", err
	}

	sel := state.selectorFor(participantID)
	if !sel.Active() {
		return "", "", fmt.Errorf("%w: selection mode is off", sharedModels.ErrInvalidInput)
	}
	ev, ok := state.timeline.Get(eventID)
	if !ok || ev.Kind != sharedModels.EventKindNarration {
		return "", "", sharedModels.ErrRangeInvalid
	}
	sel.Click(eventID)
	start, end := sel.Selection()
	return start, end, nil
}

func (s *sessionServiceImpl) ConfirmRange(ctx context.Context, sessionID, requesterID uuid.UUID, startID, endID string) (*sharedModels.NarrativeRequest, error) {
	state := s.getState(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, state); err != nil {
		return nil, err
	}

	sel := state.selectorFor(requesterID)
	if startID == "" && endID == "" {
		startID, endID = sel.Selection()
	}
	if _, err := EffectiveRange(state.timeline, startID, endID); err != nil {
		return nil, err
	}

	roster, err := s.roster.GetRoster(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	byID := rosterByID(roster)
	if _, ok := byID[requesterID]; !ok {
		return nil, sharedModels.ErrParticipantNotInRoom
	}

	req := &sharedModels.NarrativeRequest{
		ID:          uuid.New(),
		SessionID:   sessionID,
		RequesterID: requesterID,
		RangeStart:  startID,
		RangeEnd:    endID,
		Status:      sharedModels.RequestStatusVoting,
		Votes:       make(map[uuid.UUID]sharedModels.Vote),
		// Кворум снимается один раз при создании запроса; участники,
		// зашедшие позже, на знаменатель не влияют.
		TotalParticipants: len(roster),
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create narrative request: %w", err)
	}

	event := sharedModels.SessionEvent{
		ID:         req.ID.String(),
		SessionID:  sessionID,
		Kind:       sharedModels.EventKindNarrativeRequest,
		SenderID:   &requesterID,
		Content:    fmt.Sprintf("%s предлагает переосмыслить фрагмент истории", byID[requesterID].Name),
		Timestamp:  req.CreatedAt,
		Reflection: req,
	}
	if err := s.eventRepo.UpsertEvent(ctx, &event); err != nil {
		return nil, fmt.Errorf("failed to persist narrative request event: %w", err)
	}
	state.timeline.Upsert(event)
	sel.Toggle(false)
	s.publishEventUpdate(ctx, event)

	s.logger.Info("Narrative request opened",
		zap.String("sessionID", sessionID.String()),
		zap.String("requestID", req.ID.String()),
		zap.Int("totalParticipants", req.TotalParticipants))
	return req, nil
}

func (s *sessionServiceImpl) Vote(ctx context.Context, requestID, participantID uuid.UUID, vote sharedModels.Vote) (*sharedModels.NarrativeRequest, error) {
	if vote != sharedModels.VoteReflect && vote != sharedModels.VoteSkip {
		return nil, fmt.Errorf("%w: unknown vote %q", sharedModels.ErrInvalidInput, vote)
	}

	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	state := s.getState(req.SessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, state); err != nil {
		return nil, err
	}

	// Неизменяемость голоса гарантирует хранилище: повторная запись того же
	// участника атомарно отклоняется на уровне запроса к БД.
	if err := s.requestRepo.AddVote(ctx, requestID, participantID, vote); err != nil {
		return nil, err
	}
	req, err = s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if status, resolved := ResolveConsensus(req); resolved {
		if err := s.requestRepo.UpdateStatus(ctx, requestID, status); err != nil {
			return nil, err
		}
		req.Status = status
		now := time.Now().UTC()
		req.ResolvedAt = &now
		s.announceResolution(ctx, state, req)
	}

	// Событие запроса в таймлайне несет актуальные голоса и статус:
	// upsert по старому ID заменяет нагрузку, позиция не двигается.
	if ev, ok := state.timeline.Get(req.ID.String()); ok {
		ev.Reflection = req
		if err := s.eventRepo.UpsertEvent(ctx, &ev); err != nil {
			return nil, fmt.Errorf("failed to persist vote on request event: %w", err)
		}
		state.timeline.Upsert(ev)
		s.publishEventUpdate(ctx, ev)
	}

	s.logger.Info("Vote recorded",
		zap.String("requestID", requestID.String()),
		zap.String("participantID", participantID.String()),
		zap.String("vote", string(vote)),
		zap.String("status", string(req.Status)))
	return req, nil
}

// announceResolution добавляет system-событие об исходе голосования.
func (s *sessionServiceImpl) announceResolution(ctx context.Context, state *sessionState, req *sharedModels.NarrativeRequest) {
	content := "Запрос на переосмысление отклонен"
	if req.Status == sharedModels.RequestStatusApproved {
		content = "Запрос на переосмысление одобрен"
	}
	event := sharedModels.SessionEvent{
		ID:        "resolution-" + req.ID.String(),
		SessionID: req.SessionID,
		Kind:      sharedModels.EventKindSystem,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
	if err := s.eventRepo.UpsertEvent(ctx, &event); err != nil {
		s.logger.Error("Failed to persist resolution announcement",
			zap.String("requestID", req.ID.String()), zap.Error(err))
		return
	}
	state.timeline.Upsert(event)
	s.publishEventUpdate(ctx, event)
}
