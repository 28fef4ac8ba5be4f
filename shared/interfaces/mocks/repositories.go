package mocks

import (
	"context"

	"solaris-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock SessionEventRepository
type SessionEventRepository struct {
	mock.Mock
}

func (m *SessionEventRepository) UpsertEvent(ctx context.Context, event *models.SessionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *SessionEventRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.SessionEvent, error) {
	args := m.Called(ctx, sessionID)
	events, _ := args.Get(0).([]models.SessionEvent)
	return events, args.Error(1)
}

func (m *SessionEventRepository) GetByID(ctx context.Context, sessionID uuid.UUID, eventID string) (*models.SessionEvent, error) {
	args := m.Called(ctx, sessionID, eventID)
	ev, _ := args.Get(0).(*models.SessionEvent)
	return ev, args.Error(1)
}

// Mock NarrativeRequestRepository
type NarrativeRequestRepository struct {
	mock.Mock
}

func (m *NarrativeRequestRepository) Create(ctx context.Context, req *models.NarrativeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *NarrativeRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.NarrativeRequest, error) {
	args := m.Called(ctx, id)
	req, _ := args.Get(0).(*models.NarrativeRequest)
	return req, args.Error(1)
}

func (m *NarrativeRequestRepository) AddVote(ctx context.Context, id uuid.UUID, participantID uuid.UUID, vote models.Vote) error {
	args := m.Called(ctx, id, participantID, vote)
	return args.Error(0)
}

func (m *NarrativeRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.RequestStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *NarrativeRequestRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.NarrativeRequest, error) {
	args := m.Called(ctx, sessionID)
	reqs, _ := args.Get(0).([]models.NarrativeRequest)
	return reqs, args.Error(1)
}

// Mock PhaseRepository
type PhaseRepository struct {
	mock.Mock
}

func (m *PhaseRepository) Get(ctx context.Context, sessionID uuid.UUID) (*models.PhaseState, error) {
	args := m.Called(ctx, sessionID)
	st, _ := args.Get(0).(*models.PhaseState)
	return st, args.Error(1)
}

func (m *PhaseRepository) Save(ctx context.Context, sessionID uuid.UUID, state *models.PhaseState) error {
	args := m.Called(ctx, sessionID, state)
	return args.Error(0)
}

// Mock RosterClient
type RosterClient struct {
	mock.Mock
}

func (m *RosterClient) GetRoster(ctx context.Context, sessionID uuid.UUID) ([]models.Participant, error) {
	args := m.Called(ctx, sessionID)
	roster, _ := args.Get(0).([]models.Participant)
	return roster, args.Error(1)
}
