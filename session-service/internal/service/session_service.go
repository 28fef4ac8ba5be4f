package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"solaris-server/session-service/internal/messaging"
	interfaces "solaris-server/shared/interfaces"
	sharedMessaging "solaris-server/shared/messaging"
	sharedModels "solaris-server/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService defines the operations of the live session core.
//
// Все мутации состояния сессии проходят через именованные операции этого
// интерфейса; события от HTTP-обработчиков и консьюмера очереди приходят
// на разных горутинах и сериализуются мьютексом состояния сессии.
type SessionService interface {
	// Timeline returns the ordered snapshot of the session rendered
	// for a specific viewer (IsMine, CanVote are viewer-dependent).
	Timeline(ctx context.Context, sessionID, viewerID uuid.UUID) ([]EventView, error)

	// PostMessage appends a plain narration-kind message to the session.
	PostMessage(ctx context.Context, sessionID, senderID uuid.UUID, content, clientID string) (*EventView, error)

	// SubmitAction validates and submits a combat action draft,
	// driving the my_turn -> waiting phase transition.
	SubmitAction(ctx context.Context, sessionID, actorID uuid.UUID, draft ActionDraft) (*EventView, error)

	// Proceed triggers the explicit both_submitted -> judging transition
	// and dispatches a judgment task to the oracle queue.
	Proceed(ctx context.Context, sessionID, participantID uuid.UUID) error

	// StartCombat initializes the turn-phase protocol for the session.
	// The first actor is supplied externally at session start.
	StartCombat(ctx context.Context, sessionID, firstActorID uuid.UUID) error

	// PhaseOf returns the current phase of a participant.
	PhaseOf(ctx context.Context, sessionID, participantID uuid.UUID) (sharedModels.TurnPhase, error)

	// ApplyJudgment consumes a verdict produced by the external oracle.
	ApplyJudgment(ctx context.Context, payload sharedMessaging.JudgmentResultPayload) error

	// ToggleSelection switches reflection range selection mode on or off
	// for a participant. Switching off clears any pending selection.
	ToggleSelection(ctx context.Context, sessionID, participantID uuid.UUID, active bool) error

	// ClickNarration handles a selection-mode click on a narration event.
	ClickNarration(ctx context.Context, sessionID, participantID uuid.UUID, eventID string) (start, end string, err error)

	// ConfirmRange opens a narrative consensus request over a narration range.
	ConfirmRange(ctx context.Context, sessionID, requesterID uuid.UUID, startID, endID string) (*sharedModels.NarrativeRequest, error)

	// Vote records an immutable reflect/skip vote on an open request.
	Vote(ctx context.Context, requestID, participantID uuid.UUID, vote sharedModels.Vote) (*sharedModels.NarrativeRequest, error)
}

// EventView - событие таймлайна, подготовленное для конкретного зрителя.
type EventView struct {
	sharedModels.SessionEvent
	SenderName      string            `json:"senderName,omitempty"`
	SenderAvatarURL string            `json:"senderAvatarUrl,omitempty"`
	CanVote         bool              `json:"canVote,omitempty"`
	RenderedVerdict *RenderedJudgment `json:"renderedVerdict,omitempty"`
}

// sessionState - владеемое состояние одной активной сессии.
// Таймлайн, фазовый автомат и селекторы диапазона защищены общим мьютексом.
type sessionState struct {
	mu        sync.Mutex
	sessionID uuid.UUID
	timeline  *Timeline
	phase     *PhaseEngine // nil, пока бой не инициализирован
	selectors map[uuid.UUID]*RangeSelector
	loaded    bool
}

func (s *sessionState) selectorFor(participantID uuid.UUID) *RangeSelector {
	sel, ok := s.selectors[participantID]
	if !ok {
		sel = &RangeSelector{}
		s.selectors[participantID] = sel
	}
	return sel
}

type sessionServiceImpl struct {
	eventRepo   interfaces.SessionEventRepository
	requestRepo interfaces.NarrativeRequestRepository
	phaseRepo   interfaces.PhaseRepository
	roster      interfaces.RosterClient
	clientPub   messaging.ClientUpdatePublisher
	judgmentPub messaging.JudgmentTaskPublisher
	logger      *zap.Logger

	mu     sync.RWMutex
	states map[uuid.UUID]*sessionState
}

// NewSessionService создает ядро сессий со всеми зависимостями.
func NewSessionService(
	eventRepo interfaces.SessionEventRepository,
	requestRepo interfaces.NarrativeRequestRepository,
	phaseRepo interfaces.PhaseRepository,
	roster interfaces.RosterClient,
	clientPub messaging.ClientUpdatePublisher,
	judgmentPub messaging.JudgmentTaskPublisher,
	logger *zap.Logger,
) SessionService {
	return &sessionServiceImpl{
		eventRepo:   eventRepo,
		requestRepo: requestRepo,
		phaseRepo:   phaseRepo,
		roster:      roster,
		clientPub:   clientPub,
		judgmentPub: judgmentPub,
		logger:      logger.Named("SessionService"),
		states:      make(map[uuid.UUID]*sessionState),
	}
}

// getState возвращает состояние сессии, создавая пустое при первом обращении.
// Смена сессии никогда не переиспользует чужое состояние: каждая сессия
// владеет собственным таймлайном (reset-семантика).
func (s *sessionServiceImpl) getState(sessionID uuid.UUID) *sessionState {
	s.mu.RLock()
	state, ok := s.states[sessionID]
	s.mu.RUnlock()
	if ok {
		return state
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok = s.states[sessionID]; ok {
		return state
	}
	state = &sessionState{
		sessionID: sessionID,
		timeline:  NewTimeline(),
		selectors: make(map[uuid.UUID]*RangeSelector),
	}
	s.states[sessionID] = state
	return state
}

// ensureLoadedLocked подгружает снапшот таймлайна и фазовое состояние.
// Вызывается только под мьютексом состояния. Порядок снапшота сохраняется.
func (s *sessionServiceImpl) ensureLoadedLocked(ctx context.Context, state *sessionState) error {
	if state.loaded {
		return nil
	}

	events, err := s.eventRepo.ListBySession(ctx, state.sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session snapshot: %w", err)
	}
	state.timeline.Reset(events)

	phaseState, err := s.phaseRepo.Get(ctx, state.sessionID)
	switch {
	case err == nil:
		state.phase = RestorePhaseEngine(*phaseState)
	case errors.Is(err, sharedModels.ErrNotFound):
		// Бой в этой сессии еще не инициализирован
	default:
		return fmt.Errorf("failed to load phase state: %w", err)
	}

	state.loaded = true
	s.logger.Info("Session state loaded",
		zap.String("sessionID", state.sessionID.String()),
		zap.Int("events", state.timeline.Len()))
	return nil
}

func (s *sessionServiceImpl) Timeline(ctx context.Context, sessionID, viewerID uuid.UUID) ([]EventView, error) {
	state := s.getState(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, state); err != nil {
		return nil, err
	}

	// Ростер читается на каждый рендер: отправитель разрешается по
	// АКТУАЛЬНОМУ составу, а не по копии на момент подписки.
	roster, err := s.roster.GetRoster(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	byID := rosterByID(roster)

	events := state.timeline.All()
	views := make([]EventView, 0, len(events))
	for _, ev := range events {
		views = append(views, s.renderEvent(ev, viewerID, byID))
	}
	return views, nil
}

func (s *sessionServiceImpl) renderEvent(ev sharedModels.SessionEvent, viewerID uuid.UUID, roster map[uuid.UUID]sharedModels.Participant) EventView {
	view := EventView{SessionEvent: ev}
	if ev.SenderID != nil {
		view.IsMine = *ev.SenderID == viewerID
		if p, ok := roster[*ev.SenderID]; ok {
			view.SenderName = p.Name
			view.SenderAvatarURL = p.AvatarURL
		}
	}
	if ev.Kind == sharedModels.EventKindJudgment && ev.Judgment != nil {
		rendered, err := RenderJudgment(*ev.Judgment)
		if err != nil {
			// Malformed вердикт в хранилище: показываем событие без рендера
			s.logger.Warn("Stored judgment failed validation",
				zap.String("eventID", ev.ID), zap.Error(err))
		} else {
			view.RenderedVerdict = rendered
		}
	}
	if ev.Kind == sharedModels.EventKindNarrativeRequest && ev.Reflection != nil {
		view.CanVote = ev.Reflection.Status == sharedModels.RequestStatusVoting &&
			!ev.Reflection.HasVoted(viewerID)
	}
	return view
}

func (s *sessionServiceImpl) PhaseOf(ctx context.Context, sessionID, participantID uuid.UUID) (sharedModels.TurnPhase, error) {
	state := s.getState(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, state); err != nil {
		return "", err
	}
	if state.phase == nil {
		return "", sharedModels.ErrSessionNotFound
	}
	return state.phase.PhaseOf(participantID), nil
}

func (s *sessionServiceImpl) StartCombat(ctx context.Context, sessionID, firstActorID uuid.UUID) error {
	state := s.getState(sessionID)
	state.mu.Lock()
	defer state.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx, state); err != nil {
		return err
	}
	if state.phase != nil {
		return fmt.Errorf("%w: combat already started", sharedModels.ErrPhaseTransition)
	}

	roster, err := s.roster.GetRoster(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to fetch roster: %w", err)
	}
	combatants := make([]uuid.UUID, 0, len(roster))
	for _, p := range roster {
		if p.Team != sharedModels.TeamUnscoped {
			combatants = append(combatants, p.ID)
		}
	}
	if len(combatants) < 2 {
		return fmt.Errorf("%w: need at least two combatants", sharedModels.ErrInvalidInput)
	}
	if !containsID(combatants, firstActorID) {
		return sharedModels.ErrParticipantNotInRoom
	}

	state.phase = NewPhaseEngine(combatants, firstActorID)
	if err := s.phaseRepo.Save(ctx, sessionID, ptrState(state.phase.State())); err != nil {
		return err
	}
	s.publishPhaseUpdate(ctx, state)
	return nil
}

// publishPhaseUpdate рассылает фазовый сигнал: клиенты доверяют ему как
// единственному источнику правды и не вычисляют фазу сами.
func (s *sessionServiceImpl) publishPhaseUpdate(ctx context.Context, state *sessionState) {
	if state.phase == nil {
		return
	}
	phases := make(map[string]sharedModels.TurnPhase)
	for id, ph := range state.phase.State().Phases {
		phases[id.String()] = ph
	}
	update := sharedMessaging.ClientSessionUpdate{
		ID:        uuid.NewString(),
		SessionID: state.sessionID.String(),
		Type:      sharedMessaging.ClientUpdatePhase,
		Phases:    phases,
	}
	if err := s.clientPub.PublishClientUpdate(ctx, update); err != nil {
		s.logger.Error("Failed to publish phase update",
			zap.String("sessionID", state.sessionID.String()), zap.Error(err))
	}
}

func rosterByID(roster []sharedModels.Participant) map[uuid.UUID]sharedModels.Participant {
	byID := make(map[uuid.UUID]sharedModels.Participant, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}
	return byID
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func ptrState(state sharedModels.PhaseState) *sharedModels.PhaseState {
	return &state
}
