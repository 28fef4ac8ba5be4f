package mocks

import (
	"context"

	sharedMessaging "solaris-server/shared/messaging"

	"github.com/stretchr/testify/mock"
)

// MockJudgmentTaskPublisher is a mock implementation of messaging.JudgmentTaskPublisher.
type MockJudgmentTaskPublisher struct {
	mock.Mock
}

func (m *MockJudgmentTaskPublisher) PublishJudgmentTask(ctx context.Context, payload sharedMessaging.JudgmentTaskPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// MockClientUpdatePublisher is a mock implementation of messaging.ClientUpdatePublisher.
type MockClientUpdatePublisher struct {
	mock.Mock
}

func (m *MockClientUpdatePublisher) PublishClientUpdate(ctx context.Context, payload sharedMessaging.ClientSessionUpdate) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
