package service_test

import (
	"testing"
	"time"

	"solaris-server/session-service/internal/service"
	sharedModels "solaris-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeSelector(t *testing.T) {
	t.Run("Three-click rolling reset", func(t *testing.T) {
		sel := &service.RangeSelector{}
		sel.Toggle(true)

		sel.Click("a")
		start, end := sel.Selection()
		assert.Equal(t, "a", start)
		assert.Empty(t, end)

		sel.Click("b")
		start, end = sel.Selection()
		assert.Equal(t, "a", start)
		assert.Equal(t, "b", end)
		assert.True(t, sel.Complete())

		// Третий клик сбрасывает пару и начинает новый выбор.
		sel.Click("c")
		start, end = sel.Selection()
		assert.Equal(t, "c", start)
		assert.Empty(t, end)
	})

	t.Run("Repeated click on start does not close range", func(t *testing.T) {
		sel := &service.RangeSelector{}
		sel.Toggle(true)
		sel.Click("a")
		sel.Click("a")
		assert.False(t, sel.Complete())
	})

	t.Run("Clicks ignored when mode is off", func(t *testing.T) {
		sel := &service.RangeSelector{}
		sel.Click("a")
		start, end := sel.Selection()
		assert.Empty(t, start)
		assert.Empty(t, end)
	})

	t.Run("Toggle off clears pending selection", func(t *testing.T) {
		sel := &service.RangeSelector{}
		sel.Toggle(true)
		sel.Click("a")
		sel.Toggle(false)
		sel.Toggle(true)
		start, _ := sel.Selection()
		assert.Empty(t, start)
	})
}

func TestEffectiveRange(t *testing.T) {
	tl := service.NewTimeline()
	tl.Upsert(narration("n1", "завязка"))
	tl.Upsert(sharedModels.SessionEvent{ID: "sys", Kind: sharedModels.EventKindSystem})
	tl.Upsert(narration("n2", "развитие"))
	tl.Upsert(narration("n3", "кульминация"))

	t.Run("Order of clicks does not matter", func(t *testing.T) {
		forward, err := service.EffectiveRange(tl, "n1", "n3")
		require.NoError(t, err)
		backward, err := service.EffectiveRange(tl, "n3", "n1")
		require.NoError(t, err)
		assert.Equal(t, []string{"n1", "n2", "n3"}, forward)
		assert.Equal(t, forward, backward)
	})

	t.Run("Single-event range", func(t *testing.T) {
		ids, err := service.EffectiveRange(tl, "n2", "n2")
		require.NoError(t, err)
		assert.Equal(t, []string{"n2"}, ids)
	})

	t.Run("Missing boundary", func(t *testing.T) {
		_, err := service.EffectiveRange(tl, "n1", "")
		assert.ErrorIs(t, err, sharedModels.ErrRangeNotSelected)

		_, err = service.EffectiveRange(tl, "n1", "ghost")
		assert.ErrorIs(t, err, sharedModels.ErrRangeInvalid)

		// system-событие не входит в narration-подпоследовательность
		_, err = service.EffectiveRange(tl, "n1", "sys")
		assert.ErrorIs(t, err, sharedModels.ErrRangeInvalid)
	})
}

func newVotingRequest(total int) *sharedModels.NarrativeRequest {
	return &sharedModels.NarrativeRequest{
		ID:                uuid.New(),
		SessionID:         uuid.New(),
		RequesterID:       uuid.New(),
		RangeStart:        "n1",
		RangeEnd:          "n3",
		Status:            sharedModels.RequestStatusVoting,
		Votes:             make(map[uuid.UUID]sharedModels.Vote),
		TotalParticipants: total,
		CreatedAt:         time.Now().UTC(),
	}
}

func TestCastVote(t *testing.T) {
	t.Run("Vote is immutable once recorded", func(t *testing.T) {
		req := newVotingRequest(5)
		voter := uuid.New()

		require.NoError(t, service.CastVote(req, voter, sharedModels.VoteReflect))
		err := service.CastVote(req, voter, sharedModels.VoteSkip)
		assert.ErrorIs(t, err, sharedModels.ErrAlreadyVoted)
		assert.Equal(t, sharedModels.VoteReflect, req.Votes[voter])
	})

	t.Run("Closed request rejects votes", func(t *testing.T) {
		req := newVotingRequest(5)
		req.Status = sharedModels.RequestStatusApproved
		err := service.CastVote(req, uuid.New(), sharedModels.VoteReflect)
		assert.ErrorIs(t, err, sharedModels.ErrVotingClosed)
	})

	t.Run("Unknown vote value rejected", func(t *testing.T) {
		req := newVotingRequest(5)
		err := service.CastVote(req, uuid.New(), sharedModels.Vote("abstain"))
		assert.ErrorIs(t, err, sharedModels.ErrInvalidInput)
	})

	t.Run("Vote aggregate counts against creation-time snapshot", func(t *testing.T) {
		req := newVotingRequest(5)
		require.NoError(t, service.CastVote(req, uuid.New(), sharedModels.VoteReflect))
		require.NoError(t, service.CastVote(req, uuid.New(), sharedModels.VoteReflect))
		assert.Equal(t, 2, req.ReflectCount())
		assert.Equal(t, 5, req.TotalParticipants)
	})
}

func TestResolveConsensus(t *testing.T) {
	t.Run("Strict majority approves immediately", func(t *testing.T) {
		req := newVotingRequest(5)
		for i := 0; i < 3; i++ {
			require.NoError(t, service.CastVote(req, uuid.New(), sharedModels.VoteReflect))
		}
		status, resolved := service.ResolveConsensus(req)
		assert.True(t, resolved)
		assert.Equal(t, sharedModels.RequestStatusApproved, status)
	})

	t.Run("Short of majority keeps voting open", func(t *testing.T) {
		req := newVotingRequest(5)
		require.NoError(t, service.CastVote(req, uuid.New(), sharedModels.VoteReflect))
		require.NoError(t, service.CastVote(req, uuid.New(), sharedModels.VoteReflect))
		status, resolved := service.ResolveConsensus(req)
		assert.False(t, resolved)
		assert.Equal(t, sharedModels.RequestStatusVoting, status)
	})

	t.Run("All voted without majority rejects", func(t *testing.T) {
		req := newVotingRequest(3)
		require.NoError(t, service.CastVote(req, uuid.New(), sharedModels.VoteReflect))
		require.NoError(t, service.CastVote(req, uuid.New(), sharedModels.VoteSkip))
		require.NoError(t, service.CastVote(req, uuid.New(), sharedModels.VoteSkip))
		status, resolved := service.ResolveConsensus(req)
		assert.True(t, resolved)
		assert.Equal(t, sharedModels.RequestStatusRejected, status)
	})

	t.Run("Resolved request stays resolved", func(t *testing.T) {
		req := newVotingRequest(2)
		req.Status = sharedModels.RequestStatusRejected
		status, resolved := service.ResolveConsensus(req)
		assert.False(t, resolved)
		assert.Equal(t, sharedModels.RequestStatusRejected, status)
	})
}
