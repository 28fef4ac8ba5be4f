package service_test

import (
	"context"
	"testing"
	"time"

	messagingMocks "solaris-server/session-service/internal/messaging/mocks"
	"solaris-server/session-service/internal/service"
	sharedMocks "solaris-server/shared/interfaces/mocks"
	sharedMessaging "solaris-server/shared/messaging"
	sharedModels "solaris-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serviceFixture struct {
	eventRepo   *sharedMocks.SessionEventRepository
	requestRepo *sharedMocks.NarrativeRequestRepository
	phaseRepo   *sharedMocks.PhaseRepository
	roster      *sharedMocks.RosterClient
	clientPub   *messagingMocks.MockClientUpdatePublisher
	judgmentPub *messagingMocks.MockJudgmentTaskPublisher
	svc         service.SessionService
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		eventRepo:   new(sharedMocks.SessionEventRepository),
		requestRepo: new(sharedMocks.NarrativeRequestRepository),
		phaseRepo:   new(sharedMocks.PhaseRepository),
		roster:      new(sharedMocks.RosterClient),
		clientPub:   new(messagingMocks.MockClientUpdatePublisher),
		judgmentPub: new(messagingMocks.MockJudgmentTaskPublisher),
	}
	f.svc = service.NewSessionService(
		f.eventRepo, f.requestRepo, f.phaseRepo, f.roster,
		f.clientPub, f.judgmentPub, zap.NewNop(),
	)
	return f
}

// expectEmptySession настраивает загрузку пустого снапшота сессии.
func (f *serviceFixture) expectEmptySession(sessionID uuid.UUID) {
	f.eventRepo.On("ListBySession", mock.Anything, sessionID).
		Return([]sharedModels.SessionEvent{}, nil).Once()
	f.phaseRepo.On("Get", mock.Anything, sessionID).
		Return(nil, sharedModels.ErrNotFound).Once()
}

func twoCombatants() (sharedModels.Participant, sharedModels.Participant) {
	strike := sharedModels.Ability{ID: "strike", Name: "Удар", Tier: sharedModels.TierBasic, CostPoolA: 10}
	alice := sharedModels.Participant{
		ID: uuid.New(), Name: "Алиса", Team: sharedModels.TeamAlly,
		Pools:     sharedModels.Pools{PoolA: sharedModels.Pool{Current: 80, Max: 100}, PoolB: sharedModels.Pool{Current: 200, Max: 300}},
		Abilities: []sharedModels.Ability{strike},
	}
	bob := sharedModels.Participant{
		ID: uuid.New(), Name: "Боб", Team: sharedModels.TeamEnemy,
		Pools:     sharedModels.Pools{PoolA: sharedModels.Pool{Current: 90, Max: 100}, PoolB: sharedModels.Pool{Current: 150, Max: 300}},
		Abilities: []sharedModels.Ability{strike},
	}
	return alice, bob
}

func TestPostMessageOptimisticDuplication(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()
	f := newFixture()
	alice, bob := twoCombatants()

	f.expectEmptySession(sessionID)
	f.roster.On("GetRoster", mock.Anything, sessionID).
		Return([]sharedModels.Participant{alice, bob}, nil)
	f.eventRepo.On("UpsertEvent", mock.Anything, mock.Anything).Return(nil)
	f.clientPub.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

	view, err := f.svc.PostMessage(ctx, sessionID, alice.ID, "Привет", "local-1")
	require.NoError(t, err)
	assert.NotEqual(t, "local-1", view.ID)
	assert.True(t, view.IsMine)
	assert.Equal(t, "Алиса", view.SenderName)

	// Оптимистичная и подтвержденная записи сосуществуют в таймлайне.
	timeline, err := f.svc.Timeline(ctx, sessionID, alice.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 2)
	assert.Equal(t, "local-1", timeline[0].ID)
	assert.Equal(t, view.ID, timeline[1].ID)

	// В хранилище ушла только подтвержденная запись.
	f.eventRepo.AssertNumberOfCalls(t, "UpsertEvent", 1)
}

func TestPostMessageFallsBackToOptimisticOnPersistError(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()
	f := newFixture()
	alice, bob := twoCombatants()

	f.expectEmptySession(sessionID)
	f.roster.On("GetRoster", mock.Anything, sessionID).
		Return([]sharedModels.Participant{alice, bob}, nil)
	f.eventRepo.On("UpsertEvent", mock.Anything, mock.Anything).
		Return(assert.AnError)

	view, err := f.svc.PostMessage(ctx, sessionID, alice.ID, "Привет", "local-1")
	require.NoError(t, err)
	assert.Equal(t, "local-1", view.ID)

	timeline, err := f.svc.Timeline(ctx, sessionID, alice.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, "local-1", timeline[0].ID)
	f.clientPub.AssertNotCalled(t, "PublishClientUpdate", mock.Anything, mock.Anything)
}

func TestPostMessageRejectsOutsiders(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()
	f := newFixture()
	alice, bob := twoCombatants()

	f.expectEmptySession(sessionID)
	f.roster.On("GetRoster", mock.Anything, sessionID).
		Return([]sharedModels.Participant{alice, bob}, nil)

	_, err := f.svc.PostMessage(ctx, sessionID, uuid.New(), "Привет", "")
	assert.ErrorIs(t, err, sharedModels.ErrParticipantNotInRoom)
}

func TestFullTurnCycle(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()
	f := newFixture()
	alice, bob := twoCombatants()

	f.expectEmptySession(sessionID)
	f.roster.On("GetRoster", mock.Anything, sessionID).
		Return([]sharedModels.Participant{alice, bob}, nil)
	f.phaseRepo.On("Save", mock.Anything, sessionID, mock.Anything).Return(nil)
	f.eventRepo.On("UpsertEvent", mock.Anything, mock.Anything).Return(nil)
	f.clientPub.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.svc.StartCombat(ctx, sessionID, alice.ID))

	phase, err := f.svc.PhaseOf(ctx, sessionID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, sharedModels.PhaseMyTurn, phase)

	draft := service.ActionDraft{
		Type:      sharedModels.ActionAttack,
		AbilityID: "strike",
		TargetID:  bob.ID,
		Narration: "Алиса атакует",
	}
	view, err := f.svc.SubmitAction(ctx, sessionID, alice.ID, draft)
	require.NoError(t, err)
	require.NotNil(t, view.Action)
	assert.Equal(t, sharedModels.ActionAttack, view.Action.Type)

	// После заявки Алисы ход открывается Бобу.
	phase, err = f.svc.PhaseOf(ctx, sessionID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, sharedModels.PhaseMyTurn, phase)

	bobDraft := service.ActionDraft{
		Type:      sharedModels.ActionAttack,
		AbilityID: "strike",
		TargetID:  alice.ID,
		Narration: "Боб отвечает",
	}
	_, err = f.svc.SubmitAction(ctx, sessionID, bob.ID, bobDraft)
	require.NoError(t, err)

	phase, err = f.svc.PhaseOf(ctx, sessionID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, sharedModels.PhaseBothSubmitted, phase)

	var task sharedMessaging.JudgmentTaskPayload
	f.judgmentPub.On("PublishJudgmentTask", mock.Anything, mock.MatchedBy(func(p sharedMessaging.JudgmentTaskPayload) bool {
		task = p
		return p.SessionID == sessionID.String() && p.Turn == 1
	})).Return(nil).Once()

	require.NoError(t, f.svc.Proceed(ctx, sessionID, alice.ID))
	assert.Len(t, task.NarrationEventIDs, 2, "обе заявки хода уходят оракулу")

	phase, err = f.svc.PhaseOf(ctx, sessionID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, sharedModels.PhaseJudging, phase)

	verdict := sharedMessaging.JudgmentResultPayload{
		TaskID:    task.TaskID,
		SessionID: sessionID.String(),
		Status:    sharedMessaging.ResultStatusSuccess,
		Result: &sharedModels.JudgmentResult{
			Turn: 1,
			Judgments: []sharedModels.ParticipantJudgment{
				{ParticipantID: alice.ID, Grade: sharedModels.GradeSuccess, Scores: []int{8, 7, 9, 8}},
				{ParticipantID: bob.ID, Grade: sharedModels.GradeFail, Scores: []int{2, 3, 1, 2}},
			},
			StatChanges: []sharedModels.StatChange{
				{ParticipantID: bob.ID, Pool: sharedModels.PoolKindA, Before: 90, After: 70, Reason: "пропущенный удар"},
			},
		},
		NextActorID: bob.ID.String(),
	}
	require.NoError(t, f.svc.ApplyJudgment(ctx, verdict))

	phase, err = f.svc.PhaseOf(ctx, sessionID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, sharedModels.PhaseMyTurn, phase)

	// Повторная доставка того же вердикта идемпотентна: событие заменяется
	// по ID, фазы и номер хода не двигаются второй раз.
	require.NoError(t, f.svc.ApplyJudgment(ctx, verdict))
	phase, err = f.svc.PhaseOf(ctx, sessionID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, sharedModels.PhaseMyTurn, phase)

	timeline, err := f.svc.Timeline(ctx, sessionID, alice.ID)
	require.NoError(t, err)
	var judgments int
	for _, ev := range timeline {
		if ev.Kind == sharedModels.EventKindJudgment {
			judgments++
			require.NotNil(t, ev.RenderedVerdict)
			require.Len(t, ev.RenderedVerdict.Changes, 1)
			assert.Equal(t, -20, ev.RenderedVerdict.Changes[0].Delta)
		}
	}
	assert.Equal(t, 1, judgments)
}

func TestSubmitActionValidationFailurePublishesNothing(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()
	f := newFixture()
	alice, bob := twoCombatants()

	f.expectEmptySession(sessionID)
	f.roster.On("GetRoster", mock.Anything, sessionID).
		Return([]sharedModels.Participant{alice, bob}, nil)
	f.phaseRepo.On("Save", mock.Anything, sessionID, mock.Anything).Return(nil)
	f.clientPub.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, f.svc.StartCombat(ctx, sessionID, alice.ID))

	// attack не может целиться в союзника (в себя)
	_, err := f.svc.SubmitAction(ctx, sessionID, alice.ID, service.ActionDraft{
		Type:      sharedModels.ActionAttack,
		AbilityID: "strike",
		TargetID:  alice.ID,
		Narration: "Смятение",
	})
	assert.ErrorIs(t, err, sharedModels.ErrTargetNotInSet)
	f.eventRepo.AssertNotCalled(t, "UpsertEvent", mock.Anything, mock.Anything)
}

func TestOracleFailureKeepsJudgingPhase(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()
	f := newFixture()
	alice, bob := twoCombatants()

	f.eventRepo.On("ListBySession", mock.Anything, sessionID).
		Return([]sharedModels.SessionEvent{}, nil).Once()
	f.phaseRepo.On("Get", mock.Anything, sessionID).Return(&sharedModels.PhaseState{
		Turn: 2,
		Phases: map[uuid.UUID]sharedModels.TurnPhase{
			alice.ID: sharedModels.PhaseJudging,
			bob.ID:   sharedModels.PhaseJudging,
		},
		Submitted: map[uuid.UUID]bool{alice.ID: true, bob.ID: true},
	}, nil).Once()

	err := f.svc.ApplyJudgment(ctx, sharedMessaging.JudgmentResultPayload{
		TaskID:       uuid.NewString(),
		SessionID:    sessionID.String(),
		Status:       sharedMessaging.ResultStatusError,
		ErrorDetails: "оракул недоступен",
	})
	require.NoError(t, err)

	phase, err := f.svc.PhaseOf(ctx, sessionID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, sharedModels.PhaseJudging, phase)
	f.eventRepo.AssertNotCalled(t, "UpsertEvent", mock.Anything, mock.Anything)
}

func TestConfirmRangeAndVoteResolution(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()
	f := newFixture()
	alice, bob := twoCombatants()

	snapshot := []sharedModels.SessionEvent{
		{ID: "n1", SessionID: sessionID, Kind: sharedModels.EventKindNarration, SenderID: &alice.ID, Content: "завязка", Timestamp: time.Now().UTC()},
		{ID: "n2", SessionID: sessionID, Kind: sharedModels.EventKindNarration, SenderID: &bob.ID, Content: "развитие", Timestamp: time.Now().UTC()},
	}
	f.eventRepo.On("ListBySession", mock.Anything, sessionID).Return(snapshot, nil).Once()
	f.phaseRepo.On("Get", mock.Anything, sessionID).Return(nil, sharedModels.ErrNotFound).Once()
	f.roster.On("GetRoster", mock.Anything, sessionID).
		Return([]sharedModels.Participant{alice, bob}, nil)
	f.eventRepo.On("UpsertEvent", mock.Anything, mock.Anything).Return(nil)
	f.clientPub.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)
	f.requestRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	// Границы кликнуты в обратном порядке: нормализация на стороне ядра.
	req, err := f.svc.ConfirmRange(ctx, sessionID, alice.ID, "n2", "n1")
	require.NoError(t, err)
	assert.Equal(t, sharedModels.RequestStatusVoting, req.Status)
	assert.Equal(t, 2, req.TotalParticipants)

	// Голос Боба "reflect" дает строгое большинство от снапшота (2/2+1 = 2).
	afterVote := *req
	afterVote.Votes = map[uuid.UUID]sharedModels.Vote{
		alice.ID: sharedModels.VoteReflect,
		bob.ID:   sharedModels.VoteReflect,
	}
	f.requestRepo.On("GetByID", mock.Anything, req.ID).Return(req, nil).Once()
	f.requestRepo.On("AddVote", mock.Anything, req.ID, bob.ID, sharedModels.VoteReflect).Return(nil).Once()
	f.requestRepo.On("GetByID", mock.Anything, req.ID).Return(&afterVote, nil).Once()
	f.requestRepo.On("UpdateStatus", mock.Anything, req.ID, sharedModels.RequestStatusApproved).Return(nil).Once()

	resolved, err := f.svc.Vote(ctx, req.ID, bob.ID, sharedModels.VoteReflect)
	require.NoError(t, err)
	assert.Equal(t, sharedModels.RequestStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	f.requestRepo.AssertExpectations(t)

	// Таймлайн: событие запроса обновлено по месту, плюс system-анонс исхода.
	timeline, err := f.svc.Timeline(ctx, sessionID, alice.ID)
	require.NoError(t, err)
	var reqView *service.EventView
	var systemSeen bool
	for i := range timeline {
		switch timeline[i].Kind {
		case sharedModels.EventKindNarrativeRequest:
			reqView = &timeline[i]
		case sharedModels.EventKindSystem:
			systemSeen = true
		}
	}
	require.NotNil(t, reqView)
	assert.Equal(t, sharedModels.RequestStatusApproved, reqView.Reflection.Status)
	assert.False(t, reqView.CanVote)
	assert.True(t, systemSeen)
}

func TestVoteRejectedWhenStorageRefuses(t *testing.T) {
	ctx := context.Background()
	sessionID := uuid.New()
	f := newFixture()
	alice, _ := twoCombatants()

	req := &sharedModels.NarrativeRequest{
		ID:                uuid.New(),
		SessionID:         sessionID,
		RequesterID:       alice.ID,
		RangeStart:        "n1",
		RangeEnd:          "n2",
		Status:            sharedModels.RequestStatusVoting,
		Votes:             map[uuid.UUID]sharedModels.Vote{alice.ID: sharedModels.VoteReflect},
		TotalParticipants: 3,
		CreatedAt:         time.Now().UTC(),
	}
	f.expectEmptySession(sessionID)
	f.requestRepo.On("GetByID", mock.Anything, req.ID).Return(req, nil).Once()
	f.requestRepo.On("AddVote", mock.Anything, req.ID, alice.ID, sharedModels.VoteSkip).
		Return(sharedModels.ErrAlreadyVoted).Once()

	_, err := f.svc.Vote(ctx, req.ID, alice.ID, sharedModels.VoteSkip)
	assert.ErrorIs(t, err, sharedModels.ErrAlreadyVoted)
}
