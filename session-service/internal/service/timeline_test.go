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

func narration(id, content string) sharedModels.SessionEvent {
	sender := uuid.New()
	return sharedModels.SessionEvent{
		ID:        id,
		SessionID: uuid.New(),
		Kind:      sharedModels.EventKindNarration,
		SenderID:  &sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

func timelineIDs(t *service.Timeline) []string {
	events := t.All()
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}
	return ids
}

func TestTimelineUpsert(t *testing.T) {
	t.Run("New IDs append in arrival order", func(t *testing.T) {
		tl := service.NewTimeline()
		assert.True(t, tl.Upsert(narration("a", "один")))
		assert.True(t, tl.Upsert(narration("b", "два")))
		assert.True(t, tl.Upsert(narration("c", "три")))
		assert.Equal(t, []string{"a", "b", "c"}, timelineIDs(tl))
	})

	t.Run("Known ID keeps position, payload replaced", func(t *testing.T) {
		tl := service.NewTimeline()
		tl.Upsert(narration("a", "один"))
		tl.Upsert(narration("b", "два"))
		tl.Upsert(narration("c", "три"))

		updated := narration("b", "два (исправлено)")
		assert.False(t, tl.Upsert(updated))

		assert.Equal(t, []string{"a", "b", "c"}, timelineIDs(tl))
		ev, ok := tl.Get("b")
		require.True(t, ok)
		assert.Equal(t, "два (исправлено)", ev.Content)
		assert.Equal(t, 3, tl.Len())
	})

	t.Run("No reordering by timestamp", func(t *testing.T) {
		// Причинно-раннее событие прибывает позже: порядок отображения
		// остается порядком прибытия.
		tl := service.NewTimeline()
		late := narration("late", "ответ")
		late.Timestamp = time.Now().UTC()
		early := narration("early", "вопрос")
		early.Timestamp = late.Timestamp.Add(-time.Minute)

		tl.Upsert(late)
		tl.Upsert(early)
		assert.Equal(t, []string{"late", "early"}, timelineIDs(tl))
	})

	// Регрессия на известное поведение: оптимистичная запись под клиентским
	// ID и подтвержденная запись под серверным ID сосуществуют в логе.
	t.Run("Optimistic and confirmed entries both survive", func(t *testing.T) {
		tl := service.NewTimeline()
		tl.Upsert(narration("local-1", "привет"))
		tl.Upsert(narration("srv-9", "привет"))
		assert.Equal(t, []string{"local-1", "srv-9"}, timelineIDs(tl))
		assert.Equal(t, 2, tl.Len())
	})
}

func TestTimelineReset(t *testing.T) {
	tl := service.NewTimeline()
	tl.Upsert(narration("old-1", "из прошлой сессии"))

	snapshot := []sharedModels.SessionEvent{
		narration("s1", "первое"),
		narration("s2", "второе"),
	}
	tl.Reset(snapshot)

	assert.Equal(t, []string{"s1", "s2"}, timelineIDs(tl))
	_, ok := tl.Get("old-1")
	assert.False(t, ok, "события прошлой сессии не должны протекать в новую")
}

func TestTimelineNarrationIDs(t *testing.T) {
	tl := service.NewTimeline()
	tl.Upsert(narration("n1", "наррация"))
	tl.Upsert(sharedModels.SessionEvent{ID: "sys1", Kind: sharedModels.EventKindSystem})
	tl.Upsert(sharedModels.SessionEvent{ID: "j1", Kind: sharedModels.EventKindJudgment})
	tl.Upsert(narration("n2", "еще наррация"))

	assert.Equal(t, []string{"n1", "n2"}, tl.NarrationIDs())
}
