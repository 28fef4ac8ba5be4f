package service_test

import (
	"testing"

	"solaris-server/session-service/internal/service"
	sharedModels "solaris-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderJudgment(t *testing.T) {
	p1 := uuid.New()
	p2 := uuid.New()

	t.Run("Order preserved, deltas and signs computed", func(t *testing.T) {
		result := sharedModels.JudgmentResult{
			Turn: 3,
			Judgments: []sharedModels.ParticipantJudgment{
				// Порядок намеренно не по алфавиту и не по грейду.
				{ParticipantID: p2, Grade: sharedModels.GradePartial, Scores: []int{3, 4, 2, 5}},
				{ParticipantID: p1, Grade: sharedModels.GradeSuccess, Scores: []int{10, 9, 10, 10}},
			},
			StatChanges: []sharedModels.StatChange{
				{ParticipantID: p1, Pool: sharedModels.PoolKindA, Before: 80, After: 65, Reason: "контрудар"},
				// Цепочка по той же паре (участник, пул): Before следующей
				// равен After предыдущей, записи не схлопываются.
				{ParticipantID: p1, Pool: sharedModels.PoolKindA, Before: 65, After: 65, Reason: "стойкость"},
				{ParticipantID: p2, Pool: sharedModels.PoolKindB, Before: 100, After: 120, Reason: "воодушевление"},
			},
		}

		rendered, err := service.RenderJudgment(result)
		require.NoError(t, err)

		require.Len(t, rendered.Judgments, 2)
		assert.Equal(t, p2, rendered.Judgments[0].ParticipantID)
		assert.Equal(t, p1, rendered.Judgments[1].ParticipantID)

		require.Len(t, rendered.Changes, 3)
		assert.Equal(t, -15, rendered.Changes[0].Delta)
		assert.Equal(t, service.SignNegative, rendered.Changes[0].Sign)
		assert.Equal(t, 0, rendered.Changes[1].Delta)
		assert.Equal(t, service.SignNeutral, rendered.Changes[1].Sign)
		assert.Equal(t, 20, rendered.Changes[2].Delta)
		assert.Equal(t, service.SignPositive, rendered.Changes[2].Sign)
	})

	t.Run("Malformed verdict rejected", func(t *testing.T) {
		tests := []struct {
			name   string
			result sharedModels.JudgmentResult
		}{
			{
				name:   "No judgments",
				result: sharedModels.JudgmentResult{Turn: 1},
			},
			{
				name: "Wrong score count",
				result: sharedModels.JudgmentResult{
					Turn: 1,
					Judgments: []sharedModels.ParticipantJudgment{
						{ParticipantID: p1, Grade: sharedModels.GradeSuccess, Scores: []int{7, 7, 7}},
					},
				},
			},
			{
				name: "Unknown grade",
				result: sharedModels.JudgmentResult{
					Turn: 1,
					Judgments: []sharedModels.ParticipantJudgment{
						{ParticipantID: p1, Grade: sharedModels.Grade("epic"), Scores: []int{7, 7, 7, 7}},
					},
				},
			},
			{
				name: "Unknown pool in stat change",
				result: sharedModels.JudgmentResult{
					Turn: 1,
					Judgments: []sharedModels.ParticipantJudgment{
						{ParticipantID: p1, Grade: sharedModels.GradeSuccess, Scores: []int{7, 7, 7, 7}},
					},
					StatChanges: []sharedModels.StatChange{
						{ParticipantID: p1, Pool: sharedModels.PoolKind("mana"), Before: 1, After: 2},
					},
				},
			},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := service.RenderJudgment(tc.result)
				assert.ErrorIs(t, err, sharedModels.ErrMalformedJudgment)
			})
		}
	})
}
