package mocks

import (
	"context"

	sharedMessaging "solaris-server/shared/messaging"

	"github.com/stretchr/testify/mock"
)

// MockJudgmentResultHandler is a mock implementation of messaging.JudgmentResultHandler.
type MockJudgmentResultHandler struct {
	mock.Mock
}

func (m *MockJudgmentResultHandler) ApplyJudgment(ctx context.Context, payload sharedMessaging.JudgmentResultPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}
