package service_test

import (
	"testing"

	"solaris-server/session-service/internal/service"
	sharedModels "solaris-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func combatant(team sharedModels.Team, poolA, poolB int, abilities ...sharedModels.Ability) sharedModels.Participant {
	return sharedModels.Participant{
		ID:   uuid.New(),
		Name: "Боец",
		Team: team,
		Pools: sharedModels.Pools{
			PoolA: sharedModels.Pool{Current: poolA, Max: 100},
			PoolB: sharedModels.Pool{Current: poolB, Max: 300},
		},
		Abilities: abilities,
	}
}

func TestValidateAction(t *testing.T) {
	strike := sharedModels.Ability{ID: "strike", Name: "Удар", Tier: sharedModels.TierBasic, CostPoolA: 15, CostPoolB: 0}
	chant := sharedModels.Ability{ID: "chant", Name: "Песнь", Tier: sharedModels.TierBasic, CostPoolA: 0, CostPoolB: 5}

	t.Run("Pool-A deficiency reported even when Pool-B also short", func(t *testing.T) {
		actor := combatant(sharedModels.TeamAlly, 3, 250, strike)
		enemy := combatant(sharedModels.TeamEnemy, 50, 50)
		roster := []sharedModels.Participant{actor, enemy}

		err := service.ValidateAction(actor, roster, sharedModels.PhaseMyTurn, service.ActionDraft{
			Type:      sharedModels.ActionAttack,
			AbilityID: "strike",
			TargetID:  enemy.ID,
			Narration: "Рывок вперед",
		})
		assert.ErrorIs(t, err, sharedModels.ErrInsufficientPoolA)
	})

	t.Run("Zero Pool-A cost passes to Pool-B check", func(t *testing.T) {
		actor := combatant(sharedModels.TeamAlly, 3, 3, chant)
		ally := combatant(sharedModels.TeamAlly, 50, 50)
		roster := []sharedModels.Participant{actor, ally}

		err := service.ValidateAction(actor, roster, sharedModels.PhaseMyTurn, service.ActionDraft{
			Type:      sharedModels.ActionSupport,
			AbilityID: "chant",
			TargetID:  ally.ID,
			Narration: "Тихая песнь",
		})
		assert.ErrorIs(t, err, sharedModels.ErrInsufficientPoolB)
	})

	t.Run("Affordable action is legal", func(t *testing.T) {
		actor := combatant(sharedModels.TeamAlly, 3, 250, chant)
		roster := []sharedModels.Participant{actor}

		// defend/support легально целится в себя
		err := service.ValidateAction(actor, roster, sharedModels.PhaseMyTurn, service.ActionDraft{
			Type:      sharedModels.ActionDefend,
			AbilityID: "chant",
			TargetID:  actor.ID,
			Narration: "Щит из слов",
		})
		assert.NoError(t, err)
	})

	t.Run("Check order ahead of costs", func(t *testing.T) {
		actor := combatant(sharedModels.TeamAlly, 0, 0, strike)
		enemy := combatant(sharedModels.TeamEnemy, 50, 50)
		roster := []sharedModels.Participant{actor, enemy}

		tests := []struct {
			name  string
			phase sharedModels.TurnPhase
			draft service.ActionDraft
			want  error
		}{
			{
				name:  "Wrong phase",
				phase: sharedModels.PhaseWaiting,
				draft: service.ActionDraft{Type: sharedModels.ActionAttack, AbilityID: "strike", TargetID: enemy.ID, Narration: "x"},
				want:  sharedModels.ErrNotYourTurn,
			},
			{
				name:  "No ability",
				phase: sharedModels.PhaseMyTurn,
				draft: service.ActionDraft{Type: sharedModels.ActionAttack, TargetID: enemy.ID, Narration: "x"},
				want:  sharedModels.ErrNoAbilityChosen,
			},
			{
				name:  "Unknown ability",
				phase: sharedModels.PhaseMyTurn,
				draft: service.ActionDraft{Type: sharedModels.ActionAttack, AbilityID: "fireball", TargetID: enemy.ID, Narration: "x"},
				want:  sharedModels.ErrNoAbilityChosen,
			},
			{
				name:  "No target",
				phase: sharedModels.PhaseMyTurn,
				draft: service.ActionDraft{Type: sharedModels.ActionAttack, AbilityID: "strike", Narration: "x"},
				want:  sharedModels.ErrNoTargetChosen,
			},
			{
				name:  "Attack cannot target ally",
				phase: sharedModels.PhaseMyTurn,
				draft: service.ActionDraft{Type: sharedModels.ActionAttack, AbilityID: "strike", TargetID: actor.ID, Narration: "x"},
				want:  sharedModels.ErrTargetNotInSet,
			},
			{
				name:  "Blank narration",
				phase: sharedModels.PhaseMyTurn,
				draft: service.ActionDraft{Type: sharedModels.ActionAttack, AbilityID: "strike", TargetID: enemy.ID, Narration: "   "},
				want:  sharedModels.ErrEmptyNarration,
			},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				err := service.ValidateAction(actor, roster, tc.phase, tc.draft)
				assert.ErrorIs(t, err, tc.want)
			})
		}
	})
}

func TestActionDraftSetType(t *testing.T) {
	enemy := uuid.New()
	draft := service.ActionDraft{Type: sharedModels.ActionAttack, TargetID: enemy}

	// Смена типа сбрасывает цель: старая цель может не входить в новый набор.
	draft.SetType(sharedModels.ActionDefend)
	assert.Equal(t, uuid.Nil, draft.TargetID)

	// Повторная установка того же типа цель не трогает.
	draft.TargetID = enemy
	draft.SetType(sharedModels.ActionDefend)
	assert.Equal(t, enemy, draft.TargetID)
}

func TestTargetCandidates(t *testing.T) {
	actor := combatant(sharedModels.TeamAlly, 50, 50)
	ally := combatant(sharedModels.TeamAlly, 50, 50)
	enemy := combatant(sharedModels.TeamEnemy, 50, 50)
	roster := []sharedModels.Participant{actor, ally, enemy}

	attack := service.TargetCandidates(actor, roster, sharedModels.ActionAttack)
	assert.Len(t, attack, 1)
	assert.Equal(t, enemy.ID, attack[0].ID)

	support := service.TargetCandidates(actor, roster, sharedModels.ActionSupport)
	assert.Len(t, support, 2)
	ids := []uuid.UUID{support[0].ID, support[1].ID}
	assert.Contains(t, ids, actor.ID)
	assert.Contains(t, ids, ally.ID)
}
