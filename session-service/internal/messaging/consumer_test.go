package messaging_test

import (
	"context"
	"encoding/json"
	"testing"

	"solaris-server/session-service/internal/messaging"
	messagingMocks "solaris-server/session-service/internal/messaging/mocks"
	sharedMessaging "solaris-server/shared/messaging"
	sharedModels "solaris-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestResultProcessor_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid payload reaches handler", func(t *testing.T) {
		handler := new(messagingMocks.MockJudgmentResultHandler)
		processor := messaging.NewResultProcessor(handler, zap.NewNop())

		sessionID := uuid.New()
		payload := sharedMessaging.JudgmentResultPayload{
			TaskID:      "task-1",
			SessionID:   sessionID.String(),
			Status:      sharedMessaging.ResultStatusSuccess,
			NextActorID: uuid.NewString(),
			Result: &sharedModels.JudgmentResult{
				Turn: 1,
				Judgments: []sharedModels.ParticipantJudgment{
					{ParticipantID: uuid.New(), Grade: sharedModels.GradeSuccess, Scores: []int{8, 8, 8, 8}},
				},
			},
		}
		body, _ := json.Marshal(payload)

		handler.On("ApplyJudgment", mock.Anything, mock.MatchedBy(func(p sharedMessaging.JudgmentResultPayload) bool {
			return p.TaskID == "task-1" && p.SessionID == sessionID.String() && p.Result != nil
		})).Return(nil).Once()

		assert.NoError(t, processor.Process(ctx, body))
		handler.AssertExpectations(t)
	})

	t.Run("Malformed JSON is rejected without reaching handler", func(t *testing.T) {
		handler := new(messagingMocks.MockJudgmentResultHandler)
		processor := messaging.NewResultProcessor(handler, zap.NewNop())

		err := processor.Process(ctx, []byte(`{"taskId": 42,`))
		assert.Error(t, err)
		handler.AssertNotCalled(t, "ApplyJudgment", mock.Anything, mock.Anything)
	})

	t.Run("Handler error propagates", func(t *testing.T) {
		handler := new(messagingMocks.MockJudgmentResultHandler)
		processor := messaging.NewResultProcessor(handler, zap.NewNop())

		handler.On("ApplyJudgment", mock.Anything, mock.Anything).
			Return(sharedModels.ErrMalformedJudgment).Once()

		body, _ := json.Marshal(sharedMessaging.JudgmentResultPayload{TaskID: "task-2"})
		err := processor.Process(ctx, body)
		assert.ErrorIs(t, err, sharedModels.ErrMalformedJudgment)
	})
}
